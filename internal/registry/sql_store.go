package registry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
)

type subscriptionRow struct {
	Endpoint     string        `db:"endpoint"`
	P256dh       string        `db:"p256dh"`
	Auth         string        `db:"auth"`
	CreatedAtMs  int64         `db:"created_at_ms"`
	ExpirationMs sql.NullInt64 `db:"expiration_ms"`
}

func toRow(rec subscription.Record) subscriptionRow {
	row := subscriptionRow{
		Endpoint:    rec.Endpoint,
		P256dh:      rec.Keys.P256dh,
		Auth:        rec.Keys.Auth,
		CreatedAtMs: rec.CreatedAt.UnixMilli(),
	}
	if rec.ExpirationTime != nil {
		row.ExpirationMs = sql.NullInt64{Int64: rec.ExpirationTime.UnixMilli(), Valid: true}
	}
	return row
}

func (row subscriptionRow) record() subscription.Record {
	rec := subscription.Record{
		Endpoint:  row.Endpoint,
		Keys:      subscription.Keys{P256dh: row.P256dh, Auth: row.Auth},
		CreatedAt: time.UnixMilli(row.CreatedAtMs).UTC(),
	}
	if row.ExpirationMs.Valid {
		exp := time.UnixMilli(row.ExpirationMs.Int64).UTC()
		rec.ExpirationTime = &exp
	}
	return rec
}

// SQLStore keeps records in the subscriptions table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore returns a Store over db. The caller owns db.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Insert(ctx context.Context, rec subscription.Record) (bool, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO subscriptions (endpoint, p256dh, auth, created_at_ms, expiration_ms)
		VALUES (:endpoint, :p256dh, :auth, :created_at_ms, :expiration_ms)
		ON CONFLICT(endpoint) DO NOTHING`, toRow(rec))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) Delete(ctx context.Context, endpoint string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE endpoint = ?", endpoint)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) Get(ctx context.Context, endpoint string) (subscription.Record, error) {
	var row subscriptionRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM subscriptions WHERE endpoint = ?", endpoint)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Record{}, ErrNotFound
	}
	if err != nil {
		return subscription.Record{}, err
	}
	return row.record(), nil
}

// Scan reads all rows before calling fn, so the connection is released
// while fn runs and fn may call Delete.
func (s *SQLStore) Scan(ctx context.Context, fn func(subscription.Record) error) error {
	var rows []subscriptionRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM subscriptions ORDER BY created_at_ms, endpoint"); err != nil {
		return err
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row.record()); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM subscriptions")
	return n, err
}
