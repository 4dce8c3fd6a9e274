// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/maps"

	"github.com/vosemu/vosemu/internal/batch"
	"github.com/vosemu/vosemu/internal/config"
	"github.com/vosemu/vosemu/internal/dispatch"
	"github.com/vosemu/vosemu/internal/handlers"
	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/registry"
	"github.com/vosemu/vosemu/internal/resolver"
	"github.com/vosemu/vosemu/internal/session"
	"github.com/vosemu/vosemu/internal/vospath"
)

type (
	// App is the CLI composition root. It owns the service dependencies
	// used by commands and the values of the global flags.
	App struct {
		Config config.Provider

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
	}

	// Dependencies defines optional overrides for App construction.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	rootFlags struct {
		configPath string
		stateDir   string
		verbose    bool
	}

	// Runtime is the emulator wired for one CLI invocation.
	Runtime struct {
		Config     *config.Config
		Layout     session.Layout
		Registry   *registry.Registry
		Aliases    *registry.AliasTable
		Dispatcher *dispatch.Dispatcher
		Batches    *batch.Store
		Logger     *log.Logger

		paths *vospath.Resolver
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.flags.configPath}
}

// loadConfig loads the configuration and applies the global flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	if a.flags.stateDir != "" {
		cfg.StateDir = a.flags.stateDir
	}
	if a.flags.verbose {
		cfg.UI.Verbose = true
	}
	return cfg, nil
}

func (a *App) newLogger(cfg *config.Config) *log.Logger {
	level := log.InfoLevel
	if cfg.UI.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{Prefix: "vosemu", Level: level})
}

// Runtime loads configuration, prepares the state directory and wires the
// registry, resolver, dispatcher and batch store.
func (a *App) Runtime(ctx context.Context) (*Runtime, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(cfg)

	layout := session.NewLayout(cfg.StateDir)
	if err := layout.Ensure(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("prepare state directory").
			WithResource(cfg.StateDir).
			WithSuggestion("Pass --state-dir to use another location").
			WithSuggestion("Set state_dir in config.cue").
			Wrap(err).
			BuildError()
	}
	paths, err := vospath.New(layout.Filesystem)
	if err != nil {
		return nil, err
	}

	store := batch.NewStore(layout.Batches,
		batch.WithLogger(logger.WithPrefix("batch")),
		batch.WithDefaults(cfg.Batch.DefaultQueue, cfg.Batch.DefaultQueuePriority),
	)

	reg := registry.New()
	aliases := registry.NewAliasTable(handlers.DefaultAliases()...)
	patterns := maps.Keys(cfg.Aliases)
	slices.Sort(patterns)
	for _, p := range patterns {
		aliases.Set(p, cfg.Aliases[p])
	}

	builtins := &handlers.Builtins{
		Registry: reg,
		Aliases:  aliases,
		Batches:  store,
		StateDir: cfg.StateDir,
	}
	if err := builtins.Install(); err != nil {
		return nil, err
	}

	d := dispatch.New(resolver.New(reg, aliases), dispatch.WithLogger(logger.WithPrefix("dispatch")))
	logger.Debug("runtime ready", "state_dir", cfg.StateDir, "commands", reg.Len(), "aliases", aliases.Len())

	return &Runtime{
		Config:     cfg,
		Layout:     layout,
		Registry:   reg,
		Aliases:    aliases,
		Dispatcher: d,
		Batches:    store,
		Logger:     logger,
		paths:      paths,
	}, nil
}

// NewSession returns a fresh session seeded from the display configuration.
func (rt *Runtime) NewSession(term session.TerminalSizer) *session.Session {
	return session.New(rt.paths, session.Options{
		Language:      rt.Config.Display.Language,
		TimeZone:      rt.Config.Display.TimeZone,
		LineWrapWidth: rt.Config.Display.LineWrapWidth,
		Terminal:      term,
	})
}
