package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	cfgpkg "github.com/fundacionmisionvida7/Pagina/internal/config"
	"github.com/fundacionmisionvida7/Pagina/internal/journal"
	"github.com/fundacionmisionvida7/Pagina/internal/registry"
	pebblestore "github.com/fundacionmisionvida7/Pagina/internal/storage/pebble"
	sqlitestore "github.com/fundacionmisionvida7/Pagina/internal/storage/sqlite"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

const (
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
	Logger  logpkg.Logger
}

// Runtime owns the storage handles and the single Registry and Journal of
// a process.
type Runtime struct {
	db       *pebblestore.DB
	sql      *sqlitestore.DB
	registry *registry.Registry
	journal  *journal.Journal
	config   cfgpkg.Config
	backend  string
	closed   atomic.Bool
}

// Open initializes storage and returns a Runtime. Pebble always backs the
// journal; the registry lives in Pebble or SQLite per Config.Store.Backend.
func Open(opts Options) (*Runtime, error) {
	if opts.DataDir == "" {
		return nil, errors.New("runtime: DataDir is required")
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("runtime: create data dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	fsync := opts.Fsync
	if fsync == pebblestore.FsyncModeUnspecified {
		fsync = pebblestore.FsyncModeAlways
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       filepath.Join(opts.DataDir, "pebble"),
		Fsync:         fsync,
		FsyncInterval: time.Duration(opts.Config.Store.FsyncIntervalMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{db: db, config: opts.Config, backend: opts.Config.Store.Backend}

	var store registry.Store
	switch rt.backend {
	case BackendSQLite:
		path := opts.Config.Store.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "subscriptions.db")
		}
		sdb, err := sqlitestore.Open(path)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		rt.sql = sdb
		store = registry.NewSQLStore(sdb.X())
	case BackendPebble, "":
		rt.backend = BackendPebble
		store = registry.NewPebbleStore(db)
	default:
		_ = db.Close()
		return nil, fmt.Errorf("runtime: unknown store backend %q", rt.backend)
	}
	rt.registry = registry.New(store, registry.WithLogger(logger.With(logpkg.Component("registry"))))

	j, err := journal.Open(db, opts.Config.JournalMaxEntries, journal.WithMaxAge(opts.Config.JournalMaxAge()))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.journal = j
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	var errs []error
	if r.sql != nil {
		errs = append(errs, r.sql.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// CheckHealth verifies every open store answers.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil || r.closed.Load() {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	if r.sql != nil {
		if err := r.sql.Ping(ctx); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	return nil
}

// Registry returns the process-wide subscriber registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Journal returns the broadcast journal.
func (r *Runtime) Journal() *journal.Journal { return r.journal }

// Backend names the registry backend in use.
func (r *Runtime) Backend() string { return r.backend }

// DB exposes the underlying Pebble DB (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
