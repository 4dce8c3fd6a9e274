// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/vosemu/vosemu/internal/issue"
	"github.com/vosemu/vosemu/internal/testutil"
)

// writeConfig writes content as config.cue in a fresh config directory and
// returns options pointing at it.
func writeConfig(t *testing.T, content string) (LoadOptions, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, path, content)
	return LoadOptions{ConfigDirPath: dir, BaseDir: t.TempDir()}, path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.StateDir != "./vos_state" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
	if cfg.Display.LineWrapWidth != 80 || cfg.Display.Language != "en" || cfg.Display.TimeZone != "UTC" {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto || cfg.UI.Verbose {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 0 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Batch.DefaultQueue != "normal" || cfg.Batch.DefaultQueuePriority != 4 {
		t.Errorf("Batch = %+v", cfg.Batch)
	}
	if cfg.Aliases == nil || len(cfg.Aliases) != 0 {
		t.Errorf("Aliases = %v, want empty non-nil map", cfg.Aliases)
	}
	if ok, errs := cfg.IsValid(); !ok {
		t.Errorf("default config is invalid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux-specific")
	}

	xdg := t.TempDir()
	testutil.MustSetenv(t, "XDG_CONFIG_HOME", xdg)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	opts := LoadOptions{ConfigDirPath: t.TempDir(), BaseDir: t.TempDir()}
	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	opts, path := writeConfig(t, `
state_dir: "/srv/vos"
aliases: {
	"d.f": "display_file"
	"LS":  "list"
}
display: {
	line_wrap_width: 100
	time_zone: "Europe/Lisbon"
}
batch: default_queue: "nightly"
`)
	cfg, got, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	if cfg.StateDir != "/srv/vos" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
	if cfg.Display.LineWrapWidth != 100 || cfg.Display.TimeZone != "Europe/Lisbon" {
		t.Errorf("Display = %+v", cfg.Display)
	}
	// Fields the file leaves out keep their defaults.
	if cfg.Display.Language != "en" || cfg.Batch.DefaultQueuePriority != 4 {
		t.Errorf("defaults lost: %+v %+v", cfg.Display, cfg.Batch)
	}
	if cfg.Batch.DefaultQueue != "nightly" {
		t.Errorf("DefaultQueue = %q", cfg.Batch.DefaultQueue)
	}
	want := map[string]string{"d.f": "display_file", "LS": "list"}
	if !reflect.DeepEqual(cfg.Aliases, want) {
		t.Errorf("Aliases = %v, want %v", cfg.Aliases, want)
	}
}

func TestLoad_BaseDirFallback(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	path := filepath.Join(base, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, path, `ui: verbose: true`)

	cfg, got, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), BaseDir: base})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if got != path || !cfg.UI.Verbose {
		t.Errorf("path = %q, verbose = %v", got, cfg.UI.Verbose)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	opts, _ := writeConfig(t, `display: line_wrap_width: 100`)
	testutil.MustSetenv(t, "VOSEMU_DISPLAY_LINE_WRAP_WIDTH", "132")
	testutil.MustSetenv(t, "VOSEMU_STATE_DIR", "/tmp/env_state")
	testutil.MustSetenv(t, "VOSEMU_SERVER_PORT", "2222")

	cfg, _, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if cfg.Display.LineWrapWidth != 132 {
		t.Errorf("LineWrapWidth = %d, want 132", cfg.Display.LineWrapWidth)
	}
	if cfg.StateDir != "/tmp/env_state" || cfg.Server.Port != 2222 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	testutil.MustSetenv(t, "VOSEMU_UI_COLOR_SCHEME", "neon")

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir(), BaseDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for invalid color scheme override")
	}
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidColorScheme) {
		t.Errorf("error = %v, want ErrInvalidConfig wrapping ErrInvalidColorScheme", err)
	}
	if !strings.Contains(err.Error(), "validate configuration") {
		t.Errorf("error should name the operation, got: %v", err)
	}
}

func TestLoad_ActionableErrorFormat(t *testing.T) {
	t.Parallel()

	opts, path := writeConfig(t, `display: line_wrap_width: "wide"`)

	_, _, err := loadWithOptions(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
	errStr := err.Error()
	for _, want := range []string{"load configuration", path, "display.line_wrap_width"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error should contain %q, got: %s", want, errStr)
		}
	}
}

func TestLoad_SchemaRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `container_engine: "podman"`},
		{"zero wrap width", `display: line_wrap_width: 0`},
		{"bad color scheme", `ui: color_scheme: "neon"`},
		{"port out of range", `server: port: 70000`},
		{"empty state dir", `state_dir: ""`},
		{"queue with separator", `batch: default_queue: "a/b"`},
		{"dot-dot queue", `batch: default_queue: ".."`},
		{"empty alias target", `aliases: x: ""`},
		{"syntax error", `display: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts, _ := writeConfig(t, tt.content)
			if _, _, err := loadWithOptions(context.Background(), opts); err == nil {
				t.Errorf("loadWithOptions(%q) succeeded, want error", tt.content)
			}
		})
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, path, `batch: default_queue_priority: 7`)

	cfg, got, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if got != path || cfg.Batch.DefaultQueuePriority != 7 {
		t.Errorf("path = %q, cfg.Batch = %+v", got, cfg.Batch)
	}
}

func TestLoad_CustomPath_NotFound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.cue")
	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Resource != path {
		t.Errorf("Resource = %q, want %q", ae.Resource, path)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	cfgDir, base := t.TempDir(), t.TempDir()
	name := ConfigFileName + "." + ConfigFileExt
	opts := LoadOptions{ConfigDirPath: cfgDir, BaseDir: base}

	if got, err := ResolvePath(opts); err != nil || got != "" {
		t.Fatalf("ResolvePath() = %q, %v; want empty", got, err)
	}

	testutil.MustWriteFile(t, filepath.Join(base, name), "")
	if got, _ := ResolvePath(opts); got != filepath.Join(base, name) {
		t.Errorf("ResolvePath() = %q, want base dir file", got)
	}

	testutil.MustWriteFile(t, filepath.Join(cfgDir, name), "")
	if got, _ := ResolvePath(opts); got != filepath.Join(cfgDir, name) {
		t.Errorf("ResolvePath() = %q, want config dir file to win", got)
	}

	explicit := filepath.Join(base, "other.cue")
	if got, _ := ResolvePath(LoadOptions{ConfigFilePath: explicit}); got != explicit {
		t.Errorf("ResolvePath() = %q, want %q", got, explicit)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", AppName)
	opts := LoadOptions{ConfigDirPath: dir, BaseDir: t.TempDir()}

	path, created, err := CreateDefaultConfig(opts)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	if !created || path != filepath.Join(dir, "config.cue") {
		t.Errorf("CreateDefaultConfig() = %q, %v", path, created)
	}

	testutil.MustWriteFile(t, path, `state_dir: "/kept"`)
	if _, created, err = CreateDefaultConfig(opts); err != nil || created {
		t.Errorf("second CreateDefaultConfig() created = %v, err = %v", created, err)
	}
	if got := testutil.MustReadFile(t, path); got != `state_dir: "/kept"` {
		t.Errorf("existing config was overwritten: %q", got)
	}
}

func TestCreateDefaultConfig_ExplicitPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "etc", "vos.cue")
	got, created, err := CreateDefaultConfig(LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	if !created || got != path {
		t.Errorf("CreateDefaultConfig() = %q, %v, want %q, true", got, created, path)
	}
	if _, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path}); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.StateDir = `C:\vos "state"`
	want.Aliases = map[string]string{"d.f": "display_file", "list_*": "list"}
	want.Display.LineWrapWidth = 64
	want.UI.ColorScheme = ColorSchemeDark
	want.UI.Verbose = true
	want.Server.Port = 2022
	want.Batch.DefaultQueue = "nightly"

	opts, _ := writeConfig(t, GenerateCUE(want))
	got, _, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestConstants(t *testing.T) {
	t.Parallel()

	if AppName != "vosemu" || EnvPrefix != "VOSEMU" {
		t.Errorf("AppName = %q, EnvPrefix = %q", AppName, EnvPrefix)
	}
	if ConfigFileName+"."+ConfigFileExt != "config.cue" {
		t.Errorf("config file name = %q", ConfigFileName+"."+ConfigFileExt)
	}
}
