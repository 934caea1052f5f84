package registry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	pebblestore "github.com/fundacionmisionvida7/Pagina/internal/storage/pebble"
)

var subPrefix = []byte("sub/")

func subKey(endpoint string) []byte {
	k := make([]byte, 0, len(subPrefix)+len(endpoint))
	k = append(k, subPrefix...)
	return append(k, endpoint...)
}

// PebbleStore keeps records as JSON under sub/<endpoint>.
type PebbleStore struct {
	db *pebblestore.DB
}

// NewPebbleStore returns a Store backed by db. The caller owns db.
func NewPebbleStore(db *pebblestore.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

func (s *PebbleStore) Insert(ctx context.Context, rec subscription.Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return s.db.SetIfAbsent(subKey(rec.Endpoint), val)
}

func (s *PebbleStore) Delete(ctx context.Context, endpoint string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.db.DeleteIfPresent(subKey(endpoint))
}

func (s *PebbleStore) Get(ctx context.Context, endpoint string) (subscription.Record, error) {
	if err := ctx.Err(); err != nil {
		return subscription.Record{}, err
	}
	val, err := s.db.Get(subKey(endpoint))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return subscription.Record{}, ErrNotFound
	}
	if err != nil {
		return subscription.Record{}, err
	}
	var rec subscription.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return subscription.Record{}, err
	}
	return rec, nil
}

// Scan walks a snapshot taken at call time.
func (s *PebbleStore) Scan(ctx context.Context, fn func(subscription.Record) error) error {
	return s.db.ScanPrefix(subPrefix, func(_, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rec subscription.Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		return fn(rec)
	})
}

func (s *PebbleStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.db.CountPrefix(subPrefix)
}
