package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/dispatch"
	pebblestore "github.com/fundacionmisionvida7/Pagina/internal/storage/pebble"
)

func openDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	return db
}

func summary(i int) dispatch.Summary {
	return dispatch.Summary{
		ID:    fmt.Sprintf("b-%d", i),
		Kind:  "daily",
		Title: "Palabra del Día",
		Sent:  i,
		Details: []dispatch.Detail{{
			Endpoint: "https://push.example/a",
			Status:   dispatch.StatusError,
			Outcome:  delivery.PermanentFailure,
			Pruned:   true,
		}},
	}
}

func TestAppendAndRecentNewestFirst(t *testing.T) {
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	j, err := Open(db, 0)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		e, err := j.Append(context.Background(), summary(i))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), e.Seq)
	}

	got, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b-3", got[0].Summary.ID)
	assert.Equal(t, "b-2", got[1].Summary.ID)
	assert.Equal(t, delivery.PermanentFailure, got[0].Summary.Details[0].Outcome)

	all, err := j.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)
	j, err := Open(db, 0)
	require.NoError(t, err)
	_, err = j.Append(context.Background(), summary(1))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = openDB(t, dir)
	t.Cleanup(func() { _ = db.Close() })
	j, err = Open(db, 0)
	require.NoError(t, err)
	e, err := j.Append(context.Background(), summary(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), e.Seq)
}

func TestAppendBoundsEntries(t *testing.T) {
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	j, err := Open(db, 3)
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		_, err := j.Append(context.Background(), summary(i))
		require.NoError(t, err)
	}
	n, err := j.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b-7", got[0].Summary.ID)
	assert.Equal(t, "b-5", got[2].Summary.ID)
}

func TestTrimBefore(t *testing.T) {
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	j, err := Open(db, 0)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * 24 * time.Hour)
		j.now = func() time.Time { return ts }
		_, err := j.Append(context.Background(), summary(i))
		require.NoError(t, err)
	}

	n, err := j.trimBefore(context.Background(), base.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[2].RecordedAt.Equal(base.Add(48*time.Hour)))
}

func TestAppendDropsEntriesPastMaxAge(t *testing.T) {
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })

	base := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	now := base
	j, err := Open(db, 0, WithMaxAge(72*time.Hour), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		now = base.Add(time.Duration(i) * 24 * time.Hour)
		_, err := j.Append(context.Background(), summary(i))
		require.NoError(t, err)
	}

	// day 5 keeps days 2..5
	n, err := j.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	got, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[3].RecordedAt.Equal(base.Add(48*time.Hour)))
	assert.Equal(t, uint64(6), got[0].Seq)
}

func TestCorruptEntrySkipped(t *testing.T) {
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	j, err := Open(db, 0)
	require.NoError(t, err)
	_, err = j.Append(context.Background(), summary(1))
	require.NoError(t, err)
	require.NoError(t, db.Set(entryKey(2), []byte("garbage-bytes")))

	got, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b-1", got[0].Summary.ID)
}

func TestRecordRoundTrip(t *testing.T) {
	enc := encodeRecord(encodeHeader(42), []byte("payload"))
	dec, ok := decodeRecord(enc)
	require.True(t, ok)
	ts, ok := headerTimestamp(dec.header)
	require.True(t, ok)
	assert.Equal(t, int64(42), ts)
	assert.Equal(t, "payload", string(dec.payload))

	enc[len(enc)-1] ^= 0xff
	_, ok = decodeRecord(enc)
	assert.False(t, ok)
}
