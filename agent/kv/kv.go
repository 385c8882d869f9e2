// Package kv holds the local key/value storage backends the storage tools
// read from and write to.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

var (
	ErrEmptyKey      = errors.New("storage key is empty")
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrClosed        = errors.New("storage is closed")
)

const (
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverUpstash  = "upstash"
	DriverPostgres = "postgres"
)

// Store is a KeyValueStore that owns resources.
type Store interface {
	contractx.KeyValueStore
	Close() error
}

type Config struct {
	Driver string `envconfig:"DRIVER" split_words:"true" default:"badger"`

	BadgerDir string        `envconfig:"BADGER_DIR" split_words:"true" default:".storage"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" split_words:"true" default:"1m"`

	UpstashURL     string        `envconfig:"UPSTASH_URL" split_words:"true"`
	UpstashToken   string        `envconfig:"UPSTASH_TOKEN" split_words:"true"`
	UpstashTimeout time.Duration `envconfig:"UPSTASH_TIMEOUT" split_words:"true" default:"10s"`
	UpstashTTL     time.Duration `envconfig:"UPSTASH_TTL" split_words:"true"`
	KeyPrefix      string        `envconfig:"KEY_PREFIX" split_words:"true" default:"lsc:storage:"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" split_words:"true"`
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverBadger, "":
		return NewBadgerStore(BadgerConfig{Dir: cfg.BadgerDir, CacheTTL: cfg.CacheTTL})
	case DriverUpstash:
		return NewUpstashStore(
			UpstashConfig{URL: cfg.UpstashURL, Token: cfg.UpstashToken, Timeout: cfg.UpstashTimeout},
			WithKeyPrefix(cfg.KeyPrefix),
			WithTTL(cfg.UpstashTTL),
		)
	case DriverPostgres:
		return NewPostgresStore(ctx, PostgresConfig{DSN: cfg.PostgresDSN})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}
