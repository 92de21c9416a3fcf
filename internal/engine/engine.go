// Package engine rebuilds index tables on demand.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
	"github.com/redbco/redb-indexmeta/internal/lock"
	"github.com/redbco/redb-indexmeta/internal/query"
	"github.com/redbco/redb-indexmeta/internal/schema"
	"github.com/redbco/redb-indexmeta/internal/store"
	"github.com/redbco/redb-indexmeta/pkg/logger"
)

// Config wires an Engine to its definitions and store.
type Config struct {
	Definitions    *indexdef.Set
	Dialect        dialect.Dialect
	Layout         store.Layout
	CharsetCollate string
	DB             store.Execer

	// Optional. Defaults: in-process keyed lock, no-op logger, no metrics, 1 worker.
	Locker  lock.Locker
	Logger  *logger.Logger
	Metrics *Metrics
	Workers int
}

// Engine runs reindex operations. It is safe for concurrent use; runs for
// the same index name are serialized by the locker.
type Engine struct {
	defs    *indexdef.Set
	dialect dialect.Dialect
	schema  *schema.Manager
	builder *query.Builder
	db      store.Execer
	locker  lock.Locker
	log     *logger.Logger
	metrics *Metrics
	workers int
}

// IndexInfo describes one registered index.
type IndexInfo struct {
	indexdef.Definition
	Table string `json:"table"`
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Dialect == nil {
		return nil, fmt.Errorf("dialect is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if cfg.Definitions == nil {
		cfg.Definitions = indexdef.NewSet()
	}
	if cfg.Locker == nil {
		cfg.Locker = lock.NewKeyed()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &Engine{
		defs:    cfg.Definitions,
		dialect: cfg.Dialect,
		schema:  schema.NewManager(cfg.Definitions, cfg.Dialect, cfg.Layout, cfg.CharsetCollate),
		builder: query.NewBuilder(cfg.Dialect, cfg.Layout),
		db:      cfg.DB,
		locker:  cfg.Locker,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		workers: cfg.Workers,
	}, nil
}

// Definitions lists the registered indexes with their table names, sorted by name.
func (e *Engine) Definitions() []IndexInfo {
	defs := e.defs.All()
	out := make([]IndexInfo, 0, len(defs))
	for _, d := range defs {
		table, _ := e.schema.TableNameFor(d.Name)
		out = append(out, IndexInfo{Definition: d, Table: table})
	}
	return out
}

// Plan returns every statement a reindex of name would run, in order,
// without touching the store.
func (e *Engine) Plan(name string) ([]store.Statement, error) {
	def, ok := e.defs.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}

	stmts, err := e.schema.RecreateStatements(name)
	if err != nil {
		return nil, err
	}
	populate, err := e.builder.BuildPopulateStatements(def)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}
	return append(stmts, populate...), nil
}

// Reindex drops, recreates and repopulates the table of one index.
// Unknown names fail with ErrUnknownIndex before anything is executed.
// A store failure stops the run and is returned as a *StepError; the table
// may then be missing or partially filled until the next successful run.
func (e *Engine) Reindex(ctx context.Context, name string) error {
	stmts, err := e.Plan(name)
	if err != nil {
		return err
	}

	release, err := e.locker.Lock(ctx, name)
	if err != nil {
		return fmt.Errorf("index %s: %w", name, err)
	}
	defer e.release(ctx, name, release)

	log := e.log.WithFields(map[string]string{"index": name})
	log.Debug("reindex started")

	start := time.Now()
	var rows int64 = -1
	for _, stmt := range stmts {
		n, err := stmt.Exec(ctx, e.db)
		if err != nil {
			e.metrics.failure(name, stmt.Step, time.Since(start).Seconds())
			e.logFailure(name, stmt.Step, err)
			return &StepError{Index: name, Step: stmt.Step, Cause: err}
		}

		switch stmt.Step {
		case store.StepInit:
			if n > 0 {
				e.log.WithFields(map[string]string{
					"index": name,
					"rows":  fmt.Sprint(n),
				}).Info("initialized missing attribute rows")
			}
		case store.StepPopulate:
			rows = n
		}
	}

	elapsed := time.Since(start)
	e.metrics.success(name, elapsed.Seconds(), rows)
	e.log.WithFields(map[string]string{
		"index":    name,
		"rows":     fmt.Sprint(rows),
		"duration": elapsed.String(),
	}).Info("reindex finished")
	return nil
}

// ReindexAll rebuilds every registered index, running up to the configured
// number of distinct indexes in parallel. Every index is attempted; the
// returned error joins the individual failures.
func (e *Engine) ReindexAll(ctx context.Context) error {
	names := e.defs.Names()

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("index %s: %w", name, err))
				mu.Unlock()
				return nil
			}
			if err := e.Reindex(ctx, name); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	e.log.Infof("reindexed %d of %d indexes", len(names)-len(errs), len(names))
	return errors.Join(errs...)
}

// Drop removes the table of a registered index.
func (e *Engine) Drop(ctx context.Context, name string) error {
	if _, ok := e.defs.Get(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}

	release, err := e.locker.Lock(ctx, name)
	if err != nil {
		return fmt.Errorf("index %s: %w", name, err)
	}
	defer e.release(ctx, name, release)

	if err := e.schema.DropTable(ctx, e.db, name); err != nil {
		e.logFailure(name, store.StepDrop, err)
		return &StepError{Index: name, Step: store.StepDrop, Cause: err}
	}
	e.log.WithFields(map[string]string{"index": name}).Info("index table dropped")
	return nil
}

func (e *Engine) release(ctx context.Context, name string, release lock.Release) {
	if err := release(context.WithoutCancel(ctx)); err != nil {
		e.log.WithFields(map[string]string{
			"index": name,
			"error": err.Error(),
		}).Warn("failed to release index lock")
	}
}

func (e *Engine) logFailure(name, step string, err error) {
	fields := map[string]string{
		"index": name,
		"step":  step,
		"error": err.Error(),
	}
	if step != store.StepDrop && e.dialect.IsUndefinedTable(err) {
		fields["hint"] = "a source table of the definition does not exist"
	}
	e.log.WithFields(fields).Error("index operation failed")
}
