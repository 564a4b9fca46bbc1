// SPDX-License-Identifier: MIT

// Package forgefile defines the playbook file format (forgefile.cue) and its
// parsing and validation. A forgefile declares the worker image to build, the
// containerized test command, default branch/project settings, environment
// layering, and optional pre/post shell tasks.
package forgefile
