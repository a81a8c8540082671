package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Loader hydrates the runtime configuration while respecting env > file > default precedence.
type Loader struct {
	envPrefix string
	files     []string
}

// NewLoader prepares a config hydrator that honors the env-first contract before touching files or defaults.
func NewLoader(envPrefix string, files ...string) *Loader {
	return &Loader{
		envPrefix: envPrefix,
		files:     files,
	}
}

// Load assembles the effective snapshot so cmd/tmplctl can make decisions using the documented precedence rules.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	defaultCfg := DefaultConfig()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(structToMap(defaultCfg), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	for _, path := range l.files {
		if path == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return Config{}, ctx.Err()
		default:
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s not found", path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if l.envPrefix != "" {
		canonical := map[string]string{
			"dictionary.reloadonedit":   "dictionary.reloadOnEdit",
			"dictionary.listaliases":    "dictionary.listAliases",
			"limits.undefinednamecap":   "limits.undefinedNameCap",
			"limits.exectimeoutseconds": "limits.execTimeoutSeconds",
			"limits.maxtagvalue":        "limits.maxTagValue",
			"limits.maxinstanceselector": "limits.maxInstanceSelector",
			"cache.maxcost":             "cache.maxCost",
			"cache.numcounters":         "cache.numCounters",
			"cache.redis.tls.cafile":    "cache.redis.tls.caFile",
			"logging.correlationheader": "logging.correlationHeader",
		}
		transform := func(s string) string {
			// Double underscores signal a nested path (DICTIONARY__FILE -> dictionary.file).
			key := strings.TrimPrefix(s, l.envPrefix+"_")
			key = strings.ReplaceAll(key, "__", ".")
			lower := strings.ToLower(key)
			if mapped, ok := canonical[lower]; ok {
				return mapped
			}
			// Single underscores are removed so LISTEN_PORT collapses into listenport when callers
			// choose not to use double underscores for object nesting.
			key = strings.ReplaceAll(key, "_", "")
			return strings.ToLower(key)
		}
		if err := k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// structToMap converts DefaultConfig into a map for the koanf confmap provider.
func structToMap(cfg Config) map[string]any {
	return map[string]any{
		"listen": map[string]any{
			"address": cfg.Listen.Address,
			"port":    cfg.Listen.Port,
		},
		"logging": map[string]any{
			"level":             cfg.Logging.Level,
			"format":            cfg.Logging.Format,
			"correlationHeader": cfg.Logging.CorrelationHeader,
		},
		"dictionary": map[string]any{
			"file":         cfg.Dictionary.File,
			"folder":       cfg.Dictionary.Folder,
			"listAliases":  cfg.Dictionary.ListAliases,
			"reloadOnEdit": cfg.Dictionary.ReloadOnEdit,
		},
		"limits": map[string]any{
			"undefinedNameCap":    cfg.Limits.UndefinedNameCap,
			"execTimeoutSeconds":  cfg.Limits.ExecTimeoutSeconds,
			"maxTagValue":         cfg.Limits.MaxTagValue,
			"maxInstanceSelector": cfg.Limits.MaxInstanceSelector,
		},
		"cache": map[string]any{
			"maxCost":     cfg.Cache.MaxCost,
			"numCounters": cfg.Cache.NumCounters,
			"redis": map[string]any{
				"address":  cfg.Cache.Redis.Address,
				"username": cfg.Cache.Redis.Username,
				"password": cfg.Cache.Redis.Password,
				"db":       cfg.Cache.Redis.DB,
				"tls": map[string]any{
					"enabled": cfg.Cache.Redis.TLS.Enabled,
					"caFile":  cfg.Cache.Redis.TLS.CAFile,
				},
			},
		},
	}
}
