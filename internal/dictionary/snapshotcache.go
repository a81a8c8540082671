package dictionary

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

// RedisTLSConfig configures TLS for the shared snapshot cache connection.
type RedisTLSConfig struct {
	Enabled bool
	CAFile  string
}

// RedisConfig configures the Redis/Valkey backend used to share parsed
// dictionary snapshots across a fleet of engine workers, so a reload on one
// worker doesn't force every other worker to re-parse the same files.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      RedisTLSConfig
}

// SnapshotCache caches a Bundle, keyed by a hash of its source file paths and
// modification times (see Key), in a shared Redis/Valkey store.
type SnapshotCache struct {
	client valkey.Client
}

// NewSnapshotCache dials the configured Redis/Valkey backend.
func NewSnapshotCache(cfg RedisConfig) (*SnapshotCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("dictionary: redis address required")
	}

	option := valkey.ClientOption{
		InitAddress:       []string{cfg.Address},
		Username:          cfg.Username,
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	}

	if cfg.TLS.Enabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLS.CAFile != "" {
			caData, err := os.ReadFile(cfg.TLS.CAFile)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil, fmt.Errorf("dictionary: read redis ca file: %w", err)
				}
				return nil, fmt.Errorf("dictionary: read redis ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caData) {
				return nil, errors.New("dictionary: redis ca file contains no certificates")
			}
			tlsConfig.RootCAs = pool
		}
		option.TLSConfig = tlsConfig
	}

	client, err := valkey.NewClient(option)
	if err != nil {
		return nil, fmt.Errorf("dictionary: redis client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("dictionary: redis ping: %w", err)
	}

	return &SnapshotCache{client: client}, nil
}

// Close releases the underlying connection.
func (c *SnapshotCache) Close() { c.client.Close() }

// Key derives a deterministic cache key from the set of source file paths
// and their modification times, so any edit invalidates the cached bundle.
func Key(sources []string) string {
	h := fnv.New64a()
	for _, s := range sources {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
		if info, err := os.Stat(s); err == nil {
			_, _ = h.Write([]byte(info.ModTime().UTC().Format(time.RFC3339Nano)))
		}
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("dictionary:snapshot:%016x", h.Sum64())
}

// Lookup fetches a previously-stored bundle by key.
func (c *SnapshotCache) Lookup(ctx context.Context, key string) (Bundle, bool, error) {
	resp := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if errors.Is(err, valkey.Nil) {
			return Bundle{}, false, nil
		}
		return Bundle{}, false, fmt.Errorf("dictionary: redis get: %w", err)
	}
	payload, err := resp.AsBytes()
	if err != nil {
		return Bundle{}, false, fmt.Errorf("dictionary: redis get bytes: %w", err)
	}
	var bundle Bundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return Bundle{}, false, fmt.Errorf("dictionary: redis unmarshal: %w", err)
	}
	return bundle, true, nil
}

// Store persists a bundle under key with the given TTL.
func (c *SnapshotCache) Store(ctx context.Context, key string, bundle Bundle, ttl time.Duration) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("dictionary: marshal snapshot: %w", err)
	}
	cmd := c.client.B().Set().Key(key).Value(string(payload))
	if ttl > 0 {
		resp := c.client.Do(ctx, cmd.Ex(ttl).Build())
		if err := resp.Error(); err != nil {
			return fmt.Errorf("dictionary: redis set: %w", err)
		}
		return nil
	}
	resp := c.client.Do(ctx, cmd.Build())
	if err := resp.Error(); err != nil {
		return fmt.Errorf("dictionary: redis set: %w", err)
	}
	return nil
}
