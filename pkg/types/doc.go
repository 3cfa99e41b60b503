// SPDX-License-Identifier: MPL-2.0

// Package types holds small typed primitives shared across packages, each
// carrying its own validation and a sentinel error for errors.Is checks.
package types
