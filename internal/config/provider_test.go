// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"testing"
)

func TestProvider_Load(t *testing.T) {
	t.Parallel()

	opts, _ := writeConfig(t, `server: host: "0.0.0.0"`)
	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
}

func TestProvider_LoadError(t *testing.T) {
	t.Parallel()

	opts, _ := writeConfig(t, `server: port: -1`)
	cfg, err := NewProvider().Load(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error")
	}
	if cfg != nil {
		t.Errorf("cfg = %+v, want nil on error", cfg)
	}
}
