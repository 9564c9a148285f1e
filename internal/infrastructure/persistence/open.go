// Package persistence selects and opens the configured KeyValueStore backend.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/memory"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/postgres"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/redis"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/s3"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/sqlite"
	"github.com/skillplay/skillplay-life/pkg/circuitbreaker"
	"github.com/skillplay/skillplay-life/pkg/logger"
	"github.com/skillplay/skillplay-life/pkg/retry"
)

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMemory   Driver = "memory"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
)

// Drivers lists the supported backends.
var Drivers = []Driver{DriverSQLite, DriverMemory, DriverRedis, DriverPostgres, DriverS3}

// ParseDriver normalizes a configured driver name.
func ParseDriver(s string) (Driver, error) {
	d := Driver(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Drivers {
		if d == known {
			return d, nil
		}
	}
	return "", shared.NewDomainError("storage", "ParseDriver", shared.ErrInvalidInput,
		fmt.Sprintf("unknown storage driver %q", s))
}

// Options carries per-backend settings. Only the selected backend's section is read.
type Options struct {
	Driver  Driver
	DataDir string

	SQLitePath string

	Redis redis.Config

	Postgres          postgres.Config
	PostgresNamespace string

	S3 s3.Config

	// Connect controls retries when dialling a network backend.
	// Zero value means retry.ConnectConfig.
	Connect retry.Config

	// Breaker guards network backends. Zero FailureThreshold means
	// circuitbreaker.DefaultConfig.
	Breaker circuitbreaker.Config
}

func (o Options) network() bool {
	return o.Driver == DriverRedis || o.Driver == DriverPostgres || o.Driver == DriverS3
}

// Open opens the selected backend.
func Open(ctx context.Context, opts Options, log *logger.Logger) (shared.KeyValueStore, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("storage"), logger.Backend(string(opts.Driver)))

	var (
		kv  shared.KeyValueStore
		err error
	)
	switch opts.Driver {
	case DriverMemory:
		kv = memory.NewStore()
	case DriverSQLite, "":
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, sqlite.DefaultFileName)
		}
		kv, err = sqlite.Open(ctx, path)
	case DriverRedis:
		kv, err = connect(ctx, opts, log, func(ctx context.Context) (shared.KeyValueStore, error) {
			return redis.Open(ctx, opts.Redis)
		})
	case DriverPostgres:
		kv, err = connect(ctx, opts, log, func(ctx context.Context) (shared.KeyValueStore, error) {
			return postgres.Open(ctx, opts.Postgres, opts.PostgresNamespace)
		})
	case DriverS3:
		kv, err = connect(ctx, opts, log, func(ctx context.Context) (shared.KeyValueStore, error) {
			return s3.New(ctx, opts.S3)
		})
	default:
		_, err = ParseDriver(string(opts.Driver))
	}
	if err != nil {
		log.Error("failed to open storage", logger.Err(err))
		return nil, fmt.Errorf("open %s storage: %w", opts.Driver, err)
	}

	if opts.network() {
		kv = Guard(kv, breakerConfig(opts, log))
	}

	log.Debug("storage opened")
	return kv, nil
}

func connect(ctx context.Context, opts Options, log *logger.Logger, dial func(context.Context) (shared.KeyValueStore, error)) (shared.KeyValueStore, error) {
	cfg := opts.Connect
	if cfg.MaxAttempts == 0 {
		cfg = retry.ConnectConfig()
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("storage connect failed, retrying",
			logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
	}
	return retry.DoWithData(ctx, cfg, func(ctx context.Context) (shared.KeyValueStore, error) {
		kv, err := dial(ctx)
		if err != nil && errors.Is(err, shared.ErrInvalidInput) {
			return nil, retry.Permanent(err)
		}
		return kv, err
	})
}

func breakerConfig(opts Options, log *logger.Logger) circuitbreaker.Config {
	cfg := opts.Breaker
	if cfg.FailureThreshold == 0 {
		cfg = circuitbreaker.DefaultConfig(string(opts.Driver))
	}
	if cfg.Name == "" {
		cfg.Name = string(opts.Driver)
	}
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn("storage breaker state changed",
			logger.String("from", from.String()), logger.String("to", to.String()))
	}
	return cfg
}
