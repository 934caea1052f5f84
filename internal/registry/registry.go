package registry

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// RemoveResult reports what Remove found.
type RemoveResult int

const (
	// Removed means the endpoint existed and is now gone.
	Removed RemoveResult = iota + 1
	// NotFound means the endpoint was not stored.
	NotFound
)

func (r RemoveResult) String() string {
	switch r {
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Registry is the set of active subscriptions. It is safe for concurrent use.
type Registry struct {
	store  Store
	logger logpkg.Logger
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l logpkg.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New returns a Registry over store.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		logger: logpkg.NewLogger().With(logpkg.Component("registry")),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register validates rec and stores it if its endpoint is new. CreatedAt is
// stamped when zero. Returns the stored record, ErrAlreadyExists when the
// endpoint is present, or an error wrapping subscription.ErrInvalidSubscription.
func (r *Registry) Register(ctx context.Context, rec subscription.Record) (subscription.Record, error) {
	if err := rec.Validate(); err != nil {
		return subscription.Record{}, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}
	inserted, err := r.store.Insert(ctx, rec)
	if err != nil {
		return subscription.Record{}, unavailable("register", err)
	}
	if !inserted {
		return subscription.Record{}, ErrAlreadyExists
	}
	r.logger.Debug("subscription registered", logpkg.Str("host", rec.Host()))
	return rec, nil
}

// Remove deletes endpoint. A missing endpoint is reported as NotFound, not
// as an error.
func (r *Registry) Remove(ctx context.Context, endpoint string) (RemoveResult, error) {
	removed, err := r.store.Delete(ctx, endpoint)
	if err != nil {
		return 0, unavailable("remove", err)
	}
	if !removed {
		return NotFound, nil
	}
	return Removed, nil
}

// Get returns the stored record for endpoint.
func (r *Registry) Get(ctx context.Context, endpoint string) (subscription.Record, error) {
	rec, err := r.store.Get(ctx, endpoint)
	if errors.Is(err, ErrNotFound) {
		return subscription.Record{}, ErrNotFound
	}
	if err != nil {
		return subscription.Record{}, unavailable("get", err)
	}
	return rec, nil
}

// Count returns the number of stored subscriptions.
func (r *Registry) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx)
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// errStopScan ends a Scan early when the consumer stops ranging.
var errStopScan = errors.New("registry: scan stopped")

// List returns every stored subscription. Each range over the result starts
// a new scan. A storage failure is yielded once as the final element,
// wrapping ErrUnavailable.
func (r *Registry) List(ctx context.Context) iter.Seq2[subscription.Record, error] {
	return func(yield func(subscription.Record, error) bool) {
		err := r.store.Scan(ctx, func(rec subscription.Record) error {
			if !yield(rec, nil) {
				return errStopScan
			}
			return nil
		})
		if err == nil || errors.Is(err, errStopScan) {
			return
		}
		yield(subscription.Record{}, unavailable("list", err))
	}
}

// Snapshot collects List into a slice.
func (r *Registry) Snapshot(ctx context.Context) ([]subscription.Record, error) {
	var out []subscription.Record
	for rec, err := range r.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
