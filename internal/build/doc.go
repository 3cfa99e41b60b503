// SPDX-License-Identifier: MPL-2.0

// Package build drives the Rust build tool for resolved extension plugins and
// locates the dynamic libraries it produces.
//
// Pass-through arguments are inspected, never rewritten, to learn the build
// profile, the target triple and the output root. Plugins are grouped by the
// directory the build tool must run in so that a workspace is built with a
// single invocation.
package build
