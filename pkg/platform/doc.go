// SPDX-License-Identifier: MPL-2.0

// Package platform models the operating systems a plugin can be built for.
//
// Every naming and path rule that differs between Linux, macOS and Windows
// (dynamic library prefixes and extensions, the host's UserPlugins directory,
// default install locations of the host executable) is expressed as a method
// on Platform so the per-OS matrix lives in exactly one place.
package platform
