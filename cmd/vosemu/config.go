// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/vosemu/vosemu/internal/config"
	"github.com/vosemu/vosemu/internal/issue"
)

// newConfigCommand creates the `vosemu config` command tree.
// Subcommands that read configuration use the App's Provider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vosemu configuration",
		Long: `Manage vosemu configuration.

Configuration is read from the first of:
  - the file passed with --config
  - Linux: ~/.config/vosemu/config.cue
  - macOS: ~/Library/Application Support/vosemu/config.cue
  - Windows: %APPDATA%\vosemu\config.cue
  - ./config.cue

VOSEMU_* environment variables override file values, for example
VOSEMU_DISPLAY_LINE_WRAP_WIDTH=120.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err, issue.ConfigLoadFailedId)
			}
			_, _ = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.fail(err, issue.ConfigLoadFailedId)
	}

	headerStyle := TitleStyle
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	_, _ = fmt.Fprintln(w, headerStyle.Render("Current Configuration"))
	_, _ = fmt.Fprintln(w)

	path, err := config.ResolvePath(app.loadOptions())
	if err != nil || path == "" {
		_, _ = fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		_, _ = fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("state_dir"), valueStyle.Render(cfg.StateDir))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s:\n", keyStyle.Render("aliases"))
	if len(cfg.Aliases) == 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		patterns := maps.Keys(cfg.Aliases)
		slices.Sort(patterns)
		for _, p := range patterns {
			_, _ = fmt.Fprintf(w, "  %s -> %s\n", valueStyle.Render(p), valueStyle.Render(cfg.Aliases[p]))
		}
	}

	section(w, "display", [][2]string{
		{"line_wrap_width", strconv.Itoa(cfg.Display.LineWrapWidth)},
		{"language", cfg.Display.Language},
		{"time_zone", cfg.Display.TimeZone},
	})
	section(w, "ui", [][2]string{
		{"color_scheme", cfg.UI.ColorScheme.String()},
		{"verbose", strconv.FormatBool(cfg.UI.Verbose)},
	})
	section(w, "server", [][2]string{
		{"host", cfg.Server.Host},
		{"port", strconv.Itoa(cfg.Server.Port)},
	})
	section(w, "batch", [][2]string{
		{"default_queue", cfg.Batch.DefaultQueue},
		{"default_queue_priority", strconv.Itoa(cfg.Batch.DefaultQueuePriority)},
	})
	return nil
}

func section(w io.Writer, name string, kv [][2]string) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s:\n", CmdStyle.Render(name))
	for _, p := range kv {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", p[0], SuccessStyle.Render(p[1]))
	}
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)

	path, err := config.ResolvePath(app.loadOptions())
	if err != nil {
		return err
	}
	if path == "" {
		_, _ = fmt.Fprintln(app.stdout, "Config file: (none, using defaults)")
		return nil
	}
	_, _ = fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	return nil
}

func initConfig(app *App) error {
	path, created, err := config.CreateDefaultConfig(app.loadOptions())
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		_, _ = fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	_, _ = fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
