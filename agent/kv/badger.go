package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultCacheTTL = time.Minute

type BadgerConfig struct {
	Dir      string
	CacheTTL time.Duration
	// InMemory keeps everything in RAM; Dir is ignored.
	InMemory bool
	Logger   *zerolog.Logger
}

// BadgerStore persists values on local disk. Reads go through a short-lived
// cache that is refreshed on every write.
type BadgerStore struct {
	db     *badger.DB
	cache  *ttlcache.Cache[string, string]
	logger zerolog.Logger
	closed atomic.Bool
}

func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	logger := log.Logger.With().Str("component", "kv.badger").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := strings.TrimSpace(cfg.Dir)
		if dir == "" {
			return nil, errors.New("badger dir is required")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.
		WithLogger(badgerLogger{logger: logger}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()

	return &BadgerStore{db: db, cache: cache, logger: logger}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	if item := s.cache.Get(key); item != nil {
		return item.Value(), true, nil
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badger get %s: %w", key, err)
	}

	s.cache.Set(key, string(value), ttlcache.DefaultTTL)
	return string(value), true, nil
}

func (s *BadgerStore) Set(_ context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		s.cache.Delete(key)
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	s.cache.Set(key, value, ttlcache.DefaultTTL)
	return nil
}

func (s *BadgerStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cache.Stop()
	if err := s.db.Close(); err != nil {
		s.logger.Error().Err(err).Msg("close badger")
		return err
	}
	return nil
}

// badgerLogger routes badger's printf-style logs into zerolog.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Info().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), args...)
}
