// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vosemu/vosemu/internal/batch"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultStateDir is used when no state_dir is configured.
	DefaultStateDir = "./vos_state"
	// DefaultServerHost is the listen address of vosemu serve.
	DefaultServerHost = "127.0.0.1"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the color scheme for terminal output.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DisplayConfig seeds the display settings of every new session.
	DisplayConfig struct {
		LineWrapWidth int    `json:"line_wrap_width" mapstructure:"line_wrap_width"`
		Language      string `json:"language" mapstructure:"language"`
		TimeZone      string `json:"time_zone" mapstructure:"time_zone"`
	}

	// UIConfig configures CLI output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}

	// ServerConfig configures the SSH server started by vosemu serve.
	ServerConfig struct {
		Host string `json:"host" mapstructure:"host"`
		Port int    `json:"port" mapstructure:"port"`
	}

	// BatchConfig holds defaults for new batch requests.
	BatchConfig struct {
		DefaultQueue         string `json:"default_queue" mapstructure:"default_queue"`
		DefaultQueuePriority int    `json:"default_queue_priority" mapstructure:"default_queue_priority"`
	}

	// Config is the root configuration.
	Config struct {
		StateDir string            `json:"state_dir" mapstructure:"state_dir"`
		Aliases  map[string]string `json:"aliases" mapstructure:"aliases"`
		Display  DisplayConfig     `json:"display" mapstructure:"display"`
		UI       UIConfig          `json:"ui" mapstructure:"ui"`
		Server   ServerConfig      `json:"server" mapstructure:"server"`
		Batch    BatchConfig       `json:"batch" mapstructure:"batch"`
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid checks the constraints that hold after defaults and environment
// overrides have been applied.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.StateDir) == "" {
		errs = append(errs, errors.New("state_dir must not be empty"))
	}
	for pattern, target := range c.Aliases {
		if strings.TrimSpace(pattern) == "" || strings.TrimSpace(target) == "" {
			errs = append(errs, fmt.Errorf("aliases: %q -> %q must have a pattern and a target", pattern, target))
		}
	}
	if c.Display.LineWrapWidth <= 0 {
		errs = append(errs, fmt.Errorf("display.line_wrap_width must be positive, got %d", c.Display.LineWrapWidth))
	}
	if ok, csErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, csErrs...)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if err := batch.ValidateQueueName(c.Batch.DefaultQueue); err != nil {
		errs = append(errs, fmt.Errorf("batch.default_queue: %w", err))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return "invalid config: " + e.FieldErrors[0].Error()
	}
	return fmt.Sprintf("invalid config: %d field errors", len(e.FieldErrors))
}

// Unwrap exposes ErrInvalidConfig and every field error to errors.Is/As.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		StateDir: DefaultStateDir,
		Aliases:  map[string]string{},
		Display: DisplayConfig{
			LineWrapWidth: 80,
			Language:      "en",
			TimeZone:      "UTC",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
		},
		Batch: BatchConfig{
			DefaultQueue:         batch.DefaultQueue,
			DefaultQueuePriority: batch.DefaultQueuePriority,
		},
	}
}
