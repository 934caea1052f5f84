package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/fundacionmisionvida7/Pagina/internal/dispatch"
	pebblestore "github.com/fundacionmisionvida7/Pagina/internal/storage/pebble"
)

// Entry is one journaled broadcast.
type Entry struct {
	Seq        uint64           `json:"seq"`
	RecordedAt time.Time        `json:"recordedAt"`
	Summary    dispatch.Summary `json:"summary"`
}

// Journal appends broadcast summaries and reads them back newest first.
type Journal struct {
	db         *pebblestore.DB
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time

	mu      sync.Mutex
	lastSeq uint64
}

// Option configures a Journal.
type Option func(*Journal)

// WithMaxAge drops entries older than d on every Append. 0 keeps them.
func WithMaxAge(d time.Duration) Option {
	return func(j *Journal) { j.maxAge = d }
}

// WithClock overrides the clock stamping entries.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// Open loads the last sequence from db. maxEntries <= 0 keeps everything.
func Open(db *pebblestore.DB, maxEntries int, opts ...Option) (*Journal, error) {
	j := &Journal{db: db, maxEntries: maxEntries, now: time.Now}
	for _, o := range opts {
		o(j)
	}
	meta, err := db.Get(metaKey)
	switch {
	case err == nil && len(meta) >= 8:
		j.lastSeq = binary.BigEndian.Uint64(meta[:8])
	case err != nil && !errors.Is(err, pebblestore.ErrNotFound):
		return nil, err
	}
	return j, nil
}

// Append records sum and trims the journal to its bound.
func (j *Journal) Append(ctx context.Context, sum dispatch.Summary) (Entry, error) {
	payload, err := json.Marshal(sum)
	if err != nil {
		return Entry{}, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().UTC()
	seq := j.lastSeq + 1
	b := j.db.NewBatch()
	defer b.Close()
	if err := b.Set(entryKey(seq), encodeRecord(encodeHeader(now.UnixMilli()), payload), nil); err != nil {
		return Entry{}, err
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], seq)
	if err := b.Set(metaKey, meta[:], nil); err != nil {
		return Entry{}, err
	}
	if err := j.db.CommitBatch(b); err != nil {
		return Entry{}, err
	}
	j.lastSeq = seq

	if j.maxEntries > 0 {
		if _, err := j.trimToMaxEntries(ctx, j.maxEntries); err != nil {
			return Entry{}, err
		}
	}
	if j.maxAge > 0 {
		if _, err := j.trimBefore(ctx, now.Add(-j.maxAge)); err != nil {
			return Entry{}, err
		}
	}
	return Entry{Seq: seq, RecordedAt: time.UnixMilli(now.UnixMilli()).UTC(), Summary: sum}, nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	it, err := j.db.NewIter(&pebble.IterOptions{LowerBound: entryPrefix, UpperBound: entryKey(^uint64(0))})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	out := []Entry{}
	for ok := it.Last(); ok && (limit <= 0 || len(out) < limit); ok = it.Prev() {
		e, good := decodeEntry(it.Key(), it.Value())
		if !good {
			continue
		}
		out = append(out, e)
	}
	return out, it.Error()
}

// Len returns the number of stored entries.
func (j *Journal) Len() (int, error) {
	return j.db.CountPrefix(entryPrefix)
}

// trimBefore deletes the leading entries recorded before cutoff. Caller
// holds j.mu.
func (j *Journal) trimBefore(ctx context.Context, cutoff time.Time) (int, error) {
	it, err := j.db.NewIter(&pebble.IterOptions{LowerBound: entryPrefix, UpperBound: entryKey(^uint64(0))})
	if err != nil {
		return 0, err
	}
	defer it.Close()

	b := j.db.NewBatch()
	defer b.Close()
	n := 0
	for ok := it.First(); ok; ok = it.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		dec, okDec := decodeRecord(it.Value())
		if okDec {
			ms, okTs := headerTimestamp(dec.header)
			if okTs && ms >= cutoff.UnixMilli() {
				break
			}
		}
		if err := b.Delete(it.Key(), nil); err != nil {
			return 0, err
		}
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return n, j.db.CommitBatch(b)
}

// trimToMaxEntries deletes the oldest entries beyond limit. Caller holds j.mu.
func (j *Journal) trimToMaxEntries(ctx context.Context, limit int) (int, error) {
	total, err := j.db.CountPrefix(entryPrefix)
	if err != nil || total <= limit {
		return 0, err
	}
	it, err := j.db.NewIter(&pebble.IterOptions{LowerBound: entryPrefix, UpperBound: entryKey(^uint64(0))})
	if err != nil {
		return 0, err
	}
	defer it.Close()

	b := j.db.NewBatch()
	defer b.Close()
	excess := total - limit
	n := 0
	for ok := it.First(); ok && n < excess; ok = it.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := b.Delete(it.Key(), nil); err != nil {
			return 0, err
		}
		n++
	}
	return n, j.db.CommitBatch(b)
}

func decodeEntry(key, value []byte) (Entry, bool) {
	dec, ok := decodeRecord(value)
	if !ok {
		return Entry{}, false
	}
	ms, ok := headerTimestamp(dec.header)
	if !ok {
		return Entry{}, false
	}
	var sum dispatch.Summary
	if err := json.Unmarshal(dec.payload, &sum); err != nil {
		return Entry{}, false
	}
	return Entry{Seq: seqFromKey(key), RecordedAt: time.UnixMilli(ms).UTC(), Summary: sum}, true
}
