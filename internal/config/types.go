// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultBuildTool is the build tool used when none is configured.
	DefaultBuildTool = "cargo"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme selects the terminal palette.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects field problems CUE cannot catch.
	InvalidConfigError struct {
		Errs []error
	}

	// Config is the complete tool configuration.
	Config struct {
		Build BuildConfig `json:"build" mapstructure:"build"`
		Run   RunConfig   `json:"run" mapstructure:"run"`
		UI    UIConfig    `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty when
		// only defaults apply.
		Source string `json:"-" mapstructure:"-"`
	}

	// BuildConfig holds build tool defaults.
	BuildConfig struct {
		Tool string `json:"tool" mapstructure:"tool"`
		// Args is a shell-quoted argument string prepended to build arguments.
		Args          string        `json:"args" mapstructure:"args"`
		WatchDebounce time.Duration `json:"watch_debounce" mapstructure:"watch_debounce"`
	}

	// RunConfig holds host launch defaults.
	RunConfig struct {
		Executable      string        `json:"executable" mapstructure:"executable"`
		Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
		HeadlessTimeout time.Duration `json:"headless_timeout" mapstructure:"headless_timeout"`
		Display         string        `json:"display" mapstructure:"display"`
		PollInterval    time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
		GracePeriod     time.Duration `json:"grace_period" mapstructure:"grace_period"`
	}

	// UIConfig holds terminal output settings.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.Errs...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// Validate returns an error if cs is not a known scheme.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: cs}
	}
}

// Validate checks the constraints the schema cannot express.
func (c Config) Validate() error {
	var errs []error
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"build.watch_debounce", c.Build.WatchDebounce},
		{"run.timeout", c.Run.Timeout},
		{"run.headless_timeout", c.Run.HeadlessTimeout},
		{"run.poll_interval", c.Run.PollInterval},
		{"run.grace_period", c.Run.GracePeriod},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative, got %s", d.name, d.value))
		}
	}
	if c.Run.PollInterval == 0 {
		errs = append(errs, errors.New("run.poll_interval: must be greater than zero"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{Errs: errs}
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Tool:          DefaultBuildTool,
			WatchDebounce: 500 * time.Millisecond,
		},
		Run: RunConfig{
			HeadlessTimeout: 60 * time.Second,
			PollInterval:    time.Second,
			GracePeriod:     3 * time.Second,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
