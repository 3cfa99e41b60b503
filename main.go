// SPDX-License-Identifier: MPL-2.0

// Command cargo-reaper builds, renames and links REAPER extension plugins
// written in Rust. It runs standalone or as `cargo reaper`.
package main

import cmd "github.com/Cloud-Scythe-Labs/cargo-reaper/cmd/cargo-reaper"

func main() {
	cmd.Execute()
}
