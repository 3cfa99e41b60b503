// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user-written CUE documents against an embedded
// schema definition and reports failures with dotted field paths.
//
//	m, err := cueutil.DecodeMap(schema, "#Config", data, "config.cue")
//	if err != nil {
//	    return err // config.cue: run.timeout: conflicting values ...
//	}
package cueutil
