// SPDX-License-Identifier: MIT

// Package pipeline runs the CI worker pipeline: make a container engine
// available, build the worker image, then run the test suite inside it.
//
// Stages execute sequentially and fail fast: the first failing stage stops
// the pipeline and its exit code becomes the pipeline's exit code. Pre and
// post tasks from the forgefile run on the host around the core stages.
package pipeline
