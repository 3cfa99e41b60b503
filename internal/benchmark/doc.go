// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for the hot paths of a build:
//   - CUE configuration parsing and schema validation
//   - plugin declaration and package manifest resolution
//   - build tool argument parsing
//   - artifact relocation and linking
//
// Run them with:
//
//	go test -run '^$' -bench . ./internal/benchmark
package benchmark
