// SPDX-License-Identifier: MIT

// Package issue provides user-facing error reporting: ActionableError carries
// operation/resource context plus fix suggestions, and a small catalog of
// known failure classes renders markdown help (via glamour) on stderr.
package issue
