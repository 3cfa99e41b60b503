// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package link

func symlinkError(err error) error { return err }
