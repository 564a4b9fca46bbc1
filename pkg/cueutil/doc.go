// SPDX-License-Identifier: MIT

// Package cueutil implements the shared CUE parsing flow used for forgefiles
// and the configuration file: compile the embedded schema, compile the user
// data, unify, validate, and decode into a Go value. Errors are reported with
// the offending file path and a JSON-path style location.
package cueutil
