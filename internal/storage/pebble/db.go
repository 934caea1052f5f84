package pebblestore

import (
	"bytes"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = pebble.ErrNotFound

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed write.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs within FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever never forces a WAL sync from the application.
	FsyncModeNever
)

// ParseFsyncMode maps always|interval|never to a FsyncMode.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "always", "":
		return FsyncModeAlways, nil
	case "interval":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	default:
		return FsyncModeUnspecified, errors.New("pebble: fsync mode must be always, interval or never")
	}
}

// Options configures the Pebble store wrapper.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
	// Metrics observes read/write latencies and sizes. Optional.
	Metrics MetricsHook
}

// MetricsHook is a minimal hook surface for storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int) {}
func (NoopMetrics) ObserveRead(time.Duration, int)  {}

const lockStripes = 64

// DB wraps a Pebble database with an fsync policy and conditional writes.
//
// Pebble has no compare-and-set, so SetIfAbsent and DeleteIfPresent hold a
// per-key stripe lock across their read and write. Every mutation of a key
// that is written conditionally must go through these two methods.
type DB struct {
	inner     *pebble.DB
	writeOpts *pebble.WriteOptions
	metrics   MetricsHook
	stripes   [lockStripes]sync.Mutex
}

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}
	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeInterval:
		interval := opts.FsyncInterval
		if interval <= 0 {
			interval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return interval }
	case FsyncModeAlways, FsyncModeNever:
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	wo := pebble.NoSync
	if opts.Fsync == FsyncModeAlways {
		wo = pebble.Sync
	}
	return &DB{inner: inner, writeOpts: wo, metrics: metrics}, nil
}

// Close closes the Pebble database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

func (db *DB) stripe(key []byte) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return &db.stripes[h.Sum32()%lockStripes]
}

// Get copies the value for key. Returns ErrNotFound when absent.
func (db *DB) Get(key []byte) ([]byte, error) {
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// Set writes key unconditionally.
func (db *DB) Set(key, value []byte) error {
	start := time.Now()
	if err := db.inner.Set(key, value, db.writeOpts); err != nil {
		return err
	}
	db.metrics.ObserveWrite(time.Since(start), len(key)+len(value))
	return nil
}

// SetIfAbsent writes key only when it does not exist. It reports whether the
// write happened. Concurrent callers racing on the same key observe exactly
// one true.
func (db *DB) SetIfAbsent(key, value []byte) (bool, error) {
	mu := db.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	_, closer, err := db.inner.Get(key)
	switch {
	case err == nil:
		closer.Close()
		return false, nil
	case !errors.Is(err, pebble.ErrNotFound):
		return false, err
	}
	if err := db.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteIfPresent removes key and reports whether it existed.
func (db *DB) DeleteIfPresent(key []byte) (bool, error) {
	mu := db.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	_, closer, err := db.inner.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	closer.Close()
	if err := db.inner.Delete(key, db.writeOpts); err != nil {
		return false, err
	}
	return true, nil
}

// NewBatch creates a batch for atomic multi-key updates.
func (db *DB) NewBatch() *pebble.Batch {
	return db.inner.NewBatch()
}

// CommitBatch commits b with the configured fsync policy.
func (db *DB) CommitBatch(b *pebble.Batch) error {
	if b == nil {
		return errors.New("pebble: nil batch")
	}
	start := time.Now()
	size := len(b.Repr())
	if err := b.Commit(db.writeOpts); err != nil {
		return err
	}
	db.metrics.ObserveWrite(time.Since(start), size)
	return nil
}

// NewIter creates a raw Pebble iterator with the provided options.
func (db *DB) NewIter(opts *pebble.IterOptions) (*pebble.Iterator, error) {
	return db.inner.NewIter(opts)
}

// ScanPrefix walks every key under prefix on a snapshot taken at call time.
// Writes made after the call are not observed. Key and value slices are only
// valid during fn; returning a non-nil error from fn stops the scan and is
// returned unchanged.
func (db *DB) ScanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	snap := db.inner.NewSnapshot()
	defer snap.Close()

	it, err := snap.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixUpperBound(prefix)})
	if err != nil {
		return err
	}
	defer it.Close()
	for ok := it.First(); ok; ok = it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

// CountPrefix returns the number of keys under prefix.
func (db *DB) CountPrefix(prefix []byte) (int, error) {
	n := 0
	err := db.ScanPrefix(prefix, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when no such key exists (prefix of all 0xff).
func prefixUpperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
