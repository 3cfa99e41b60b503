// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that fail the test
// on filesystem errors instead of returning them.
//
// Besides directory and file helpers it builds Cargo project fixtures:
// package manifests and plugin declaration files written into a test's
// temporary directory.
package testutil
