// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the operation, resource and remediation hints for a
// failure; the Issue catalog holds longer Markdown guidance rendered with glamour
// when a command fails in a well-known way.
package issue
