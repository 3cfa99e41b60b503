// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for cargo-reaper.
//
// The root command wires the plugin manifest resolver, the build
// orchestrator, the link manager and the host process supervisor behind
// the new, list, build, link, run, clean, completion and config
// subcommands. App is the composition root; tests build one through
// NewApp with fake dependencies.
package cmd
