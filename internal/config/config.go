// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/exp/maps"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "vosemu"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. VOSEMU_STATE_DIR.
	EnvPrefix = "VOSEMU"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the vosemu configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// ResolvePath returns the config file Load would read, or "" when none
// exists and defaults apply. An explicit ConfigFilePath is returned as is.
func ResolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	fileName := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(cfgDir, fileName), filepath.Join(opts.BaseDir, fileName)} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading. It returns the
// effective configuration and the file it came from ("" for defaults only).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("state_dir", defaults.StateDir)
	v.SetDefault("display.line_wrap_width", defaults.Display.LineWrapWidth)
	v.SetDefault("display.language", defaults.Display.Language)
	v.SetDefault("display.time_zone", defaults.Display.TimeZone)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("batch.default_queue", defaults.Batch.DefaultQueue)
	v.SetDefault("batch.default_queue_priority", defaults.Batch.DefaultQueuePriority)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Check that the file exists and is readable").
			WithSuggestion("Use 'vosemu config init' to create a default configuration").
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	resolvedPath, err := ResolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	aliases := map[string]string{}
	if resolvedPath != "" {
		if aliases, err = loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'vosemu config dump' to see a valid configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Aliases = aliases

	// Environment overrides bypass the CUE schema, so the decoded values
	// are checked again.
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check VOSEMU_* environment variables for out-of-range values").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// loadCUEIntoViper validates a CUE file against the #Config schema and
// merges its contents into Viper, on top of the defaults. Aliases are
// returned separately: Viper splits keys on dots and lowercases them, and
// alias patterns must survive verbatim.
func loadCUEIntoViper(v *viper.Viper, path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap([]byte(configSchema), data, "#Config", cueutil.WithFilename(path), cueutil.WithConcrete())
	if err != nil {
		return nil, err
	}

	aliases := map[string]string{}
	if raw, ok := configMap["aliases"].(map[string]any); ok {
		for pattern, target := range raw {
			if s, ok := target.(string); ok {
				aliases[pattern] = s
			}
		}
	}
	delete(configMap, "aliases")

	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	return aliases, nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to ConfigFilePath,
// or to the config directory, unless a file is already there, and returns
// its path.
func CreateDefaultConfig(opts LoadOptions) (path string, created bool, err error) {
	cfgPath := opts.ConfigFilePath
	if cfgPath == "" {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return "", false, err
		}
		cfgPath = filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// vosemu configuration file\n")
	sb.WriteString("// Every field is optional. Run 'vosemu config show' to see the effective values.\n\n")

	sb.WriteString(fmt.Sprintf("state_dir: %q\n", cfg.StateDir))

	if len(cfg.Aliases) > 0 {
		sb.WriteString("\naliases: {\n")
		patterns := maps.Keys(cfg.Aliases)
		slices.Sort(patterns)
		for _, p := range patterns {
			sb.WriteString(fmt.Sprintf("\t%q: %q\n", p, cfg.Aliases[p]))
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\ndisplay: {\n")
	sb.WriteString(fmt.Sprintf("\tline_wrap_width: %d\n", cfg.Display.LineWrapWidth))
	sb.WriteString(fmt.Sprintf("\tlanguage: %q\n", cfg.Display.Language))
	sb.WriteString(fmt.Sprintf("\ttime_zone: %q\n", cfg.Display.TimeZone))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	sb.WriteString("\nserver: {\n")
	sb.WriteString(fmt.Sprintf("\thost: %q\n", cfg.Server.Host))
	sb.WriteString(fmt.Sprintf("\tport: %d\n", cfg.Server.Port))
	sb.WriteString("}\n")

	sb.WriteString("\nbatch: {\n")
	sb.WriteString(fmt.Sprintf("\tdefault_queue: %q\n", cfg.Batch.DefaultQueue))
	sb.WriteString(fmt.Sprintf("\tdefault_queue_priority: %d\n", cfg.Batch.DefaultQueuePriority))
	sb.WriteString("}\n")

	return sb.String()
}
