package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/skillplay/skillplay-life/config"
	"github.com/skillplay/skillplay-life/internal/domain/challenge"
	"github.com/skillplay/skillplay-life/internal/domain/gate"
	"github.com/skillplay/skillplay-life/internal/infrastructure/catalog"
	"github.com/skillplay/skillplay-life/internal/infrastructure/device"
	"github.com/skillplay/skillplay-life/internal/infrastructure/metrics"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/postgres"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/redis"
	"github.com/skillplay/skillplay-life/internal/infrastructure/persistence/s3"
	"github.com/skillplay/skillplay-life/internal/infrastructure/scheduler"
	"github.com/skillplay/skillplay-life/pkg/logger"
	"github.com/skillplay/skillplay-life/pkg/timeutil"
)

// OpenOptions carries what configuration cannot express.
type OpenOptions struct {
	Logger     *logger.Logger
	HTTPClient *http.Client
	Hooks      Hooks
}

// Open builds a client from configuration: catalog, storage backend, device
// signals, the dispatcher loop and, when configured, the metrics endpoint.
func Open(ctx context.Context, cfg *config.Config, opts OpenOptions) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CALENDAR & CONTENT
	// ─────────────────────────────────────────────────────────────────────────
	timeutil.SetLocation(cfg.App.Location)

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	selector, err := challenge.NewSelector(cfg.Session.ChallengeSelection)
	if err != nil {
		return nil, err
	}
	failureRoute, err := gate.ParseRoute(cfg.Gate.TransportFailureRoute)
	if err != nil {
		return nil, err
	}
	signals, err := device.New(cfg.Device.Source, cfg.Device.BatteryPercent, cfg.Device.VPNActive)
	if err != nil {
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	storeOpts, err := storageOptions(cfg)
	if err != nil {
		return nil, err
	}
	kv, err := persistence.Open(ctx, storeOpts, log)
	if err != nil {
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	loop := scheduler.NewLoop(scheduler.LoopConfig{QueueSize: 256, Logger: log})
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("loop stopped", logger.Err(err))
		}
	}()
	shutdownLoop := func(context.Context) error {
		loop.Stop()
		stopLoop()
		<-loopDone
		return nil
	}

	var httpClient gate.HTTPDoer
	if opts.HTTPClient != nil {
		httpClient = opts.HTTPClient
	}

	c, err := New(ctx, Deps{
		Catalog:               cat,
		KV:                    kv,
		Dispatcher:            loop,
		Scheduler:             scheduler.NewTimers(loop),
		Signals:               signals,
		HTTPClient:            httpClient,
		Logger:                log,
		Selector:              selector,
		RemoteURL:             cfg.Gate.RemoteURL,
		TransportFailureRoute: failureRoute,
		TimeUnit:              cfg.Session.TimeUnit,
		Hooks:                 opts.Hooks,
	})
	if err != nil {
		_ = shutdownLoop(ctx)
		_ = kv.Close()
		return nil, err
	}
	c.addCloser(func(context.Context) error { return kv.Close() })
	c.addCloser(shutdownLoop)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. METRICS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Observability.MetricsAddr != "" {
		serverCfg := metrics.DefaultServerConfig()
		serverCfg.Addr = cfg.Observability.MetricsAddr
		server := metrics.NewServer(serverCfg, c.Metrics(), log)
		if err := server.Start(); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		c.addCloser(server.Shutdown)
	}

	return c, nil
}

func storageOptions(cfg *config.Config) (persistence.Options, error) {
	driver, err := persistence.ParseDriver(cfg.Storage.Driver)
	if err != nil {
		return persistence.Options{}, err
	}

	sc := cfg.Storage
	redisCfg := redis.DefaultConfig()
	redisCfg.URL = sc.Redis.URL
	redisCfg.Host = sc.Redis.Host
	redisCfg.Port = sc.Redis.Port
	redisCfg.Password = sc.Redis.Password
	redisCfg.DB = sc.Redis.DB
	redisCfg.KeyPrefix = sc.Redis.KeyPrefix
	if sc.Redis.Timeout > 0 {
		redisCfg.DialTimeout = sc.Redis.Timeout
		redisCfg.ReadTimeout = sc.Redis.Timeout
		redisCfg.WriteTimeout = sc.Redis.Timeout
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = sc.Postgres.URL
	if sc.Postgres.Host != "" {
		pgCfg.Host = sc.Postgres.Host
	}
	if sc.Postgres.Port != 0 {
		pgCfg.Port = sc.Postgres.Port
	}
	if sc.Postgres.Database != "" {
		pgCfg.Database = sc.Postgres.Database
	}
	if sc.Postgres.User != "" {
		pgCfg.User = sc.Postgres.User
	}
	pgCfg.Password = sc.Postgres.Password
	if sc.Postgres.SSLMode != "" {
		pgCfg.SSLMode = sc.Postgres.SSLMode
	}

	sqlitePath := sc.SQLite.Path
	if sqlitePath != "" && !filepath.IsAbs(sqlitePath) && cfg.App.DataDir != "" {
		sqlitePath = filepath.Join(cfg.App.DataDir, sqlitePath)
	}

	return persistence.Options{
		Driver:            driver,
		DataDir:           cfg.App.DataDir,
		SQLitePath:        sqlitePath,
		Redis:             redisCfg,
		Postgres:          pgCfg,
		PostgresNamespace: sc.Postgres.Namespace,
		S3: s3.Config{
			Region:          sc.S3.Region,
			Bucket:          sc.S3.Bucket,
			Prefix:          sc.S3.Prefix,
			Endpoint:        sc.S3.Endpoint,
			PathStyle:       sc.S3.PathStyle,
			AccessKeyID:     sc.S3.AccessKeyID,
			SecretAccessKey: sc.S3.SecretAccessKey,
		},
	}, nil
}
