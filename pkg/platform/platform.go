// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// PlatformLinux targets Linux hosts (ELF shared objects).
	PlatformLinux Platform = Linux
	// PlatformDarwin targets macOS hosts (Mach-O dynamic libraries).
	PlatformDarwin Platform = Darwin
	// PlatformWindows targets Windows hosts (PE dynamic-link libraries).
	PlatformWindows Platform = Windows

	hostDirName        = "REAPER"
	userPluginsDirName = "UserPlugins"
)

// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

type (
	// Platform is the closed set of operating systems the host application runs on.
	// The zero value is invalid.
	Platform string

	// UnsupportedPlatformError is returned when an OS name or target triple
	// does not map to a known Platform.
	UnsupportedPlatformError struct {
		Value string
	}

	// DirLocator provides the environment lookups needed to resolve
	// per-user directories. OSDirs is the production implementation.
	DirLocator interface {
		HomeDir() (string, error)
		Getenv(key string) string
	}

	// OSDirs resolves directories from the running process environment.
	OSDirs struct{}
)

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q (expected linux, darwin or windows)", e.Value)
}

// Unwrap returns ErrUnsupportedPlatform for errors.Is() compatibility.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// HomeDir returns the current user's home directory.
func (OSDirs) HomeDir() (string, error) { return os.UserHomeDir() }

// Getenv returns the value of an environment variable.
func (OSDirs) Getenv(key string) string { return os.Getenv(key) }

// Current returns the platform of the running process.
func Current() (Platform, error) {
	return Parse(runtime.GOOS)
}

// Parse converts a GOOS-style name into a Platform.
func Parse(goos string) (Platform, error) {
	p := Platform(goos)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// FromTargetTriple derives the platform a build-tool target triple produces
// binaries for, e.g. "x86_64-pc-windows-msvc" or "aarch64-apple-darwin".
func FromTargetTriple(triple string) (Platform, error) {
	parts := strings.Split(triple, "-")
	for _, part := range parts[1:] {
		switch part {
		case "windows":
			return PlatformWindows, nil
		case "darwin":
			return PlatformDarwin, nil
		case "linux":
			return PlatformLinux, nil
		}
	}
	return "", &UnsupportedPlatformError{Value: triple}
}

// String returns the GOOS name of the platform.
func (p Platform) String() string { return string(p) }

// Validate returns an error if p is not one of the known platforms.
func (p Platform) Validate() error {
	switch p {
	case PlatformLinux, PlatformDarwin, PlatformWindows:
		return nil
	default:
		return &UnsupportedPlatformError{Value: string(p)}
	}
}

// LibraryExtension is the suffix, including the dot, of dynamic libraries
// loaded by the host on this platform.
func (p Platform) LibraryExtension() string {
	switch p {
	case PlatformLinux:
		return ".so"
	case PlatformDarwin:
		return ".dylib"
	case PlatformWindows:
		return ".dll"
	default:
		return ""
	}
}

// LibraryFileCandidates lists the file names the build tool may give a
// dynamic library target called libName, most likely first.
func (p Platform) LibraryFileCandidates(libName string) []string {
	name := strings.ReplaceAll(libName, "-", "_")
	ext := p.LibraryExtension()
	switch p {
	case PlatformLinux:
		return []string{"lib" + name + ext}
	case PlatformDarwin:
		return []string{"lib" + name + ext, name + ext}
	case PlatformWindows:
		return []string{name + ext, "lib" + name + ext}
	default:
		return nil
	}
}

// PluginFileName is the file name the host expects for the plugin key.
func (p Platform) PluginFileName(key string) string {
	return key + p.LibraryExtension()
}

// UserPluginsDir returns the directory the host scans for extension plugins.
//
//	linux:   $XDG_CONFIG_HOME/REAPER/UserPlugins (default ~/.config)
//	darwin:  ~/Library/Application Support/REAPER/UserPlugins
//	windows: %APPDATA%\REAPER\UserPlugins
func (p Platform) UserPluginsDir(dirs DirLocator) (string, error) {
	base, err := p.hostConfigDir(dirs)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, hostDirName, userPluginsDirName), nil
}

func (p Platform) hostConfigDir(dirs DirLocator) (string, error) {
	switch p {
	case PlatformLinux:
		if xdg := dirs.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg, nil
		}
		home, err := dirs.HomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, ".config"), nil
	case PlatformDarwin:
		home, err := dirs.HomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case PlatformWindows:
		if appData := dirs.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
		profile := dirs.Getenv("USERPROFILE")
		if profile == "" {
			return "", errors.New("neither APPDATA nor USERPROFILE is set")
		}
		return filepath.Join(profile, "AppData", "Roaming"), nil
	default:
		return "", &UnsupportedPlatformError{Value: string(p)}
	}
}

// DefaultExecutableCandidates lists the global install locations of the host
// executable, consulted when it is not found on PATH. goarch selects the
// Windows installer flavour.
func (p Platform) DefaultExecutableCandidates(dirs DirLocator, goarch string) []string {
	switch p {
	case PlatformLinux:
		var out []string
		if home, err := dirs.HomeDir(); err == nil {
			out = append(out, filepath.Join(home, "opt", hostDirName, "reaper"))
		}
		return append(out, "/opt/REAPER/reaper")
	case PlatformDarwin:
		return []string{"/Applications/REAPER.app/Contents/MacOS/REAPER"}
	case PlatformWindows:
		switch goarch {
		case "arm64":
			return []string{`C:\Program Files\REAPER (ARM64)\reaper.exe`}
		case "386":
			return []string{`C:\Program Files (x86)\REAPER\reaper.exe`, `C:\Program Files\REAPER\reaper.exe`}
		default:
			return []string{`C:\Program Files\REAPER (x64)\reaper.exe`, `C:\Program Files\REAPER\reaper.exe`}
		}
	default:
		return nil
	}
}

// SupportsHeadless reports whether a virtual display harness is available.
func (p Platform) SupportsHeadless() bool { return p == PlatformLinux }

// SupportsWindowSearch reports whether windows can be located by title.
func (p Platform) SupportsWindowSearch() bool { return p == PlatformLinux }
