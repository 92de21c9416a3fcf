package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/redbco/redb-indexmeta/internal/config"
	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/engine"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
	"github.com/redbco/redb-indexmeta/internal/lock"
	"github.com/redbco/redb-indexmeta/internal/store"
	"github.com/redbco/redb-indexmeta/pkg/database"
	"github.com/redbco/redb-indexmeta/pkg/keyring"
	"github.com/redbco/redb-indexmeta/pkg/logger"
)

// app holds everything a command needs, built from the config file.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	defs       *indexdef.Set
	rejections []indexdef.Rejection
	dialect    dialect.Dialect
	db         *sql.DB
	redis      *database.Redis
	registry   *prometheus.Registry
	engine     *engine.Engine
}

// errOffline is returned by statements executed without a database connection.
var errOffline = errors.New("no database connection")

type offlineExecer struct{}

func (offlineExecer) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errOffline
}

// newApp loads the configuration and definitions. With connect set it also
// opens the database and, for the redis lock backend, the Redis client.
func newApp(ctx context.Context, connect bool) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      logger.New("indexmeta", Version),
		registry: prometheus.NewRegistry(),
	}

	a.dialect, err = cfg.Dialect()
	if err != nil {
		return nil, err
	}

	registry := indexdef.NewRegistry()
	registry.AddSet("config", cfg.Indexes)
	a.defs, a.rejections = registry.Build(a.log)

	var db store.Execer = offlineExecer{}
	locker := lock.Locker(lock.NewKeyed())
	if connect {
		if cfg.Database.Keyring {
			if err := cfg.ResolvePassword(keyring.OpenDefault()); err != nil {
				return nil, err
			}
		}
		a.db, err = store.Open(ctx, a.dialect, cfg.DSN(a.dialect), cfg.StoreOptions())
		if err != nil {
			return nil, err
		}
		db = a.db

		if cfg.Lock.Backend == config.LockRedis {
			rcfg := database.DefaultRedisConfig()
			rcfg.Addr = cfg.Lock.RedisAddr
			rcfg.Password = cfg.Lock.RedisPassword
			rcfg.DB = cfg.Lock.RedisDB
			a.redis, err = database.NewRedis(ctx, rcfg)
			if err != nil {
				a.Close()
				return nil, err
			}
			locker = lock.NewRedis(a.redis.Client(), cfg.Lock.TTL)
		}
	}

	metrics := engine.NewMetrics()
	if err := metrics.Register(a.registry); err != nil {
		a.Close()
		return nil, err
	}

	a.engine, err = engine.New(engine.Config{
		Definitions:    a.defs,
		Dialect:        a.dialect,
		Layout:         cfg.Layout,
		CharsetCollate: cfg.Database.CharsetCollate,
		DB:             db,
		Locker:         locker,
		Logger:         a.log,
		Metrics:        metrics,
		Workers:        cfg.Engine.Workers,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// withTimeout applies engine.timeout to ctx.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Engine.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Engine.Timeout)
	}
	return context.WithCancel(ctx)
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
