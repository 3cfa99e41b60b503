// SPDX-License-Identifier: MPL-2.0

// Package manifest resolves plugin declarations into validated extension plugins.
//
// A project declares its plugins in .reaper.toml or reaper.toml:
//
//	[extension_plugins]
//	reaper_hello = "./hello"
//
// Each value points at a directory holding a Cargo.toml. The resolver reads
// that manifest, determines whether it is a standalone package, a workspace
// root or a workspace member, merges inherited [workspace.package] fields, and
// checks that it builds a dynamic library. All problems are reported together
// as positioned Diagnostics.
package manifest
