// SPDX-License-Identifier: MPL-2.0

// Package supervisor launches the host application, optionally inside a
// virtual display, and watches it until one of three things happens first:
// a deadline passes, a window with a requested title appears, or the process
// exits on its own.
//
// The deadline and window watches run concurrently and report into a single
// buffered channel. Whichever result arrives first decides the outcome; the
// other watches are cancelled and joined before Run returns, and the host
// process group is torn down with a graceful signal followed by a forced kill.
package supervisor
