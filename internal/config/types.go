package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds every bootstrap option the engine needs before it can parse,
// verify, or expand a single template: where to listen, how to log, which
// dictionary sources to load, and the structural limits C1-C8 enforce.
type Config struct {
	Listen     ListenConfig     `koanf:"listen"`
	Logging    LoggingConfig    `koanf:"logging"`
	Dictionary DictionaryConfig `koanf:"dictionary"`
	Limits     EngineLimits     `koanf:"limits"`
	Cache      HandleCacheConfig `koanf:"cache"`
}

// ListenConfig instructs the debug HTTP listener about bind address and port.
type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// LoggingConfig expresses log level, format, and correlation ID wiring.
type LoggingConfig struct {
	Level             string `koanf:"level"`
	Format            string `koanf:"format"`
	CorrelationHeader string `koanf:"correlationHeader"`
}

// DictionaryConfig announces how attribute definitions are sourced, and
// which aliases map onto the canonical request/list qualifiers C1 parses.
// ListAliases is loaded and validated here; C1's keyword tables do not read
// it, so an alias is not accepted as a qualifier by the parser.
type DictionaryConfig struct {
	File         string            `koanf:"file"`
	Folder       string            `koanf:"folder"`
	ListAliases  map[string]string `koanf:"listAliases"`
	ReloadOnEdit bool              `koanf:"reloadOnEdit"`
}

// EngineLimits bounds the structural invariants C2/C6/C8 enforce so a
// malformed or hostile template string cannot allocate without limit.
type EngineLimits struct {
	// UndefinedNameCap bounds the byte length of a name captured as
	// KindAttrUndefined (C2/C8).
	UndefinedNameCap int `koanf:"undefinedNameCap"`
	// ExecTimeoutSeconds bounds how long KindExec's shellexec.Run may run
	// before its context is cancelled (C7).
	ExecTimeoutSeconds int `koanf:"execTimeoutSeconds"`
	// MaxTagValue bounds the tag qualifier C2/C8 accept (0..MaxTagValue).
	MaxTagValue int `koanf:"maxTagValue"`
	// MaxInstanceSelector bounds the numeric instance selector C2/C8 accept.
	MaxInstanceSelector int `koanf:"maxInstanceSelector"`
}

// HandleCacheConfig sizes the ristretto-backed compiled-handle cache and,
// optionally, points at a shared snapshot store for dictionary bundles.
type HandleCacheConfig struct {
	MaxCost     int64             `koanf:"maxCost"`
	NumCounters int64             `koanf:"numCounters"`
	Redis       HandleCacheRedis  `koanf:"redis"`
}

// HandleCacheRedis mirrors internal/dictionary.RedisConfig's shape so both
// packages can be fed from the same config block without an import cycle.
type HandleCacheRedis struct {
	Address  string             `koanf:"address"`
	Username string             `koanf:"username"`
	Password string             `koanf:"password"`
	DB       int                `koanf:"db"`
	TLS      HandleCacheRedisTLS `koanf:"tls"`
}

type HandleCacheRedisTLS struct {
	Enabled bool   `koanf:"enabled"`
	CAFile  string `koanf:"caFile"`
}

// Validate enforces invariants that keep the engine predictable before it
// parses its first template.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("config: listen.port invalid: %d", c.Listen.Port)
	}
	if c.Dictionary.File != "" && c.Dictionary.Folder != "" {
		return errors.New("config: dictionary.file and dictionary.folder are mutually exclusive")
	}
	if c.Dictionary.File == "" && c.Dictionary.Folder == "" {
		return errors.New("config: dictionary.file or dictionary.folder required")
	}
	for alias, canonical := range c.Dictionary.ListAliases {
		if strings.TrimSpace(alias) == "" {
			return errors.New("config: dictionary.listAliases has an empty alias key")
		}
		if strings.TrimSpace(canonical) == "" {
			return fmt.Errorf("config: dictionary.listAliases[%s] has an empty target", alias)
		}
	}
	if c.Limits.UndefinedNameCap <= 0 {
		return fmt.Errorf("config: limits.undefinedNameCap invalid: %d", c.Limits.UndefinedNameCap)
	}
	if c.Limits.ExecTimeoutSeconds <= 0 {
		return fmt.Errorf("config: limits.execTimeoutSeconds invalid: %d", c.Limits.ExecTimeoutSeconds)
	}
	if c.Limits.MaxTagValue <= 0 || c.Limits.MaxTagValue > 31 {
		return fmt.Errorf("config: limits.maxTagValue invalid: %d", c.Limits.MaxTagValue)
	}
	if c.Limits.MaxInstanceSelector <= 0 {
		return fmt.Errorf("config: limits.maxInstanceSelector invalid: %d", c.Limits.MaxInstanceSelector)
	}
	backend := strings.TrimSpace(c.Cache.Redis.Address)
	if backend != "" && c.Cache.MaxCost <= 0 {
		return errors.New("config: cache.maxCost must be positive when cache.redis.address is set")
	}
	return nil
}

// DefaultConfig returns the baseline values the engine starts from absent
// any file or environment override.
func DefaultConfig() Config {
	return Config{
		Listen: ListenConfig{
			Address: "0.0.0.0",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:             "info",
			Format:            "json",
			CorrelationHeader: "X-Request-ID",
		},
		Dictionary: DictionaryConfig{
			Folder:       "./dictionary",
			ReloadOnEdit: true,
		},
		Limits: EngineLimits{
			UndefinedNameCap:    256,
			ExecTimeoutSeconds:  5,
			MaxTagValue:         31,
			MaxInstanceSelector: 1000,
		},
		Cache: HandleCacheConfig{
			MaxCost:     1 << 24,
			NumCounters: 1e5,
		},
	}
}
