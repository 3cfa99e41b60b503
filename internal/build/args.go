// SPDX-License-Identifier: MPL-2.0

package build

import (
	"strings"

	"mvdan.cc/sh/v3/shell"
)

const (
	// ProfileDebug is the output directory of the default dev profile.
	ProfileDebug = "debug"
	// ProfileRelease is the output directory of the release profile.
	ProfileRelease = "release"

	// TargetDirEnv overrides the default output root.
	TargetDirEnv = "CARGO_TARGET_DIR"
	// DefaultTargetDir is the output root relative to the build root.
	DefaultTargetDir = "target"
)

// Options is what the pass-through arguments say about where artifacts land.
type Options struct {
	// Profile is the profile's output directory name, e.g. "debug".
	Profile string
	// Target is the target triple, empty for the host.
	Target string
	// TargetDir is the --target-dir value, empty when not given.
	TargetDir string
	// PackageFiltered is set when the user already selected packages with
	// -p, --package, --workspace or --all.
	PackageFiltered bool
}

// ParseArgs inspects build tool arguments. Arguments after a literal "--"
// belong to the compiler and are not inspected.
func ParseArgs(args []string) Options {
	opts := Options{Profile: ProfileDebug}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		next := func() (string, bool) {
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}

		switch {
		case arg == "--release" || arg == "-r":
			opts.Profile = ProfileRelease
		case arg == "--profile":
			if v, ok := next(); ok {
				opts.Profile = profileDir(v)
			}
		case strings.HasPrefix(arg, "--profile="):
			opts.Profile = profileDir(strings.TrimPrefix(arg, "--profile="))
		case arg == "--target":
			if v, ok := next(); ok {
				opts.Target = v
			}
		case strings.HasPrefix(arg, "--target="):
			opts.Target = strings.TrimPrefix(arg, "--target=")
		case arg == "--target-dir":
			if v, ok := next(); ok {
				opts.TargetDir = v
			}
		case strings.HasPrefix(arg, "--target-dir="):
			opts.TargetDir = strings.TrimPrefix(arg, "--target-dir=")
		case arg == "-p" || arg == "--package" || arg == "--workspace" || arg == "--all",
			strings.HasPrefix(arg, "--package="),
			strings.HasPrefix(arg, "-p") && len(arg) > 2:
			opts.PackageFiltered = true
		}
	}
	return opts
}

// profileDir maps a profile name to the directory its artifacts are written to.
func profileDir(profile string) string {
	switch profile {
	case "dev", "test":
		return ProfileDebug
	case "release", "bench":
		return ProfileRelease
	default:
		return profile
	}
}

// SplitArgs splits a shell-quoted argument string, as found in the tool
// configuration, into arguments. Variables are expanded from the environment.
func SplitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return shell.Fields(s, nil)
}
