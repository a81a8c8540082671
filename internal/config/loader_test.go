package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) []string
		wantErr bool
		assert  func(t *testing.T, cfg Config)
	}{
		{
			name: "returns defaults when no overrides",
			setup: func(t *testing.T) []string {
				t.Setenv("TMPLCTL_DICTIONARY__FOLDER", t.TempDir())
				return nil
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, 8080, cfg.Listen.Port)
			},
		},
		{
			name: "merges file overrides",
			setup: func(t *testing.T) []string {
				dir := t.TempDir()
				path := filepath.Join(dir, "server.yaml")
				require.NoError(t, os.WriteFile(path, []byte("listen:\n  port: 9090\n"), 0o600))
				t.Setenv("TMPLCTL_DICTIONARY__FOLDER", t.TempDir())
				return []string{path}
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, 9090, cfg.Listen.Port)
			},
		},
		{
			name: "prefers env overrides",
			setup: func(t *testing.T) []string {
				dir := t.TempDir()
				path := filepath.Join(dir, "server.yaml")
				require.NoError(t, os.WriteFile(path, []byte("listen:\n  port: 9090\n"), 0o600))
				t.Setenv("TMPLCTL_DICTIONARY__FOLDER", t.TempDir())
				t.Setenv("TMPLCTL_LISTEN__PORT", "9091")
				return []string{path}
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, 9091, cfg.Listen.Port)
			},
		},
		{
			name: "reads dictionary block",
			setup: func(t *testing.T) []string {
				dir := t.TempDir()
				path := filepath.Join(dir, "server.yaml")
				contents := "dictionary:\n  folder: \"\"\n  file: /tmp/radius.dict\n"
				require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
				return []string{path}
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, "/tmp/radius.dict", cfg.Dictionary.File)
			},
		},
		{
			name: "prefers env overrides for engine limits",
			setup: func(t *testing.T) []string {
				t.Setenv("TMPLCTL_DICTIONARY__FOLDER", t.TempDir())
				t.Setenv("TMPLCTL_LIMITS__UNDEFINEDNAMECAP", "64")
				return nil
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, 64, cfg.Limits.UndefinedNameCap)
			},
		},
		{
			name: "fails when file missing",
			setup: func(t *testing.T) []string {
				t.Setenv("TMPLCTL_DICTIONARY__FOLDER", t.TempDir())
				dir := t.TempDir()
				return []string{filepath.Join(dir, "missing.yaml")}
			},
			wantErr: true,
		},
		{
			name: "fails validation when dictionary sources are both set",
			setup: func(t *testing.T) []string {
				dir := t.TempDir()
				path := filepath.Join(dir, "server.yaml")
				contents := "dictionary:\n  folder: " + dir + "\n  file: /tmp/radius.dict\n"
				require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
				return []string{path}
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			args := tc.setup(t)
			loader := NewLoader("TMPLCTL", args...)

			cfg, err := loader.Load(ctx)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			tc.assert(t, cfg)
		})
	}
}
