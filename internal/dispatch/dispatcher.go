package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/notification"
	"github.com/fundacionmisionvida7/Pagina/internal/reconcile"
	"github.com/fundacionmisionvida7/Pagina/internal/registry"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// Dispatcher broadcasts payloads to the registry. It is safe for concurrent
// use; concurrent broadcasts may both try to prune the same endpoint.
type Dispatcher struct {
	registry    *registry.Registry
	sender      delivery.Sender
	policy      *reconcile.Policy
	logger      logpkg.Logger
	maxInFlight int
	now         func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l logpkg.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMaxInFlight caps concurrent deliveries. 0 means one goroutine per
// subscription with no cap.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) { d.maxInFlight = n }
}

// WithClock overrides the clock used for summary timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New returns a Dispatcher delivering through sender and pruning through reg.
func New(reg *registry.Registry, sender delivery.Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		sender:   sender,
		logger:   logpkg.NewLogger().With(logpkg.Component("dispatch")),
		now:      time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	d.policy = reconcile.New(reg, d.logger)
	return d
}

type broadcastOptions struct {
	filter func(subscription.Record) bool
	kind   string
}

// BroadcastOption tunes a single Broadcast call.
type BroadcastOption func(*broadcastOptions)

// WithFilter delivers only to records for which keep returns true. Others are
// counted as skipped.
func WithFilter(keep func(subscription.Record) bool) BroadcastOption {
	return func(o *broadcastOptions) { o.filter = keep }
}

// WithKind labels the summary (for example "daily" or "custom").
func WithKind(kind string) BroadcastOption {
	return func(o *broadcastOptions) { o.kind = kind }
}

// Broadcast delivers payload to every registered subscription and returns
// once every delivery and its reconciliation have finished. Delivery failures
// are reported in the Summary, not as an error. An error is returned when the
// payload is invalid or the registry cannot be listed; in the latter case the
// deliveries already started are allowed to finish first.
func (d *Dispatcher) Broadcast(ctx context.Context, payload notification.Payload, opts ...BroadcastOption) (Summary, error) {
	var bo broadcastOptions
	for _, o := range opts {
		o(&bo)
	}
	body, err := payload.Marshal()
	if err != nil {
		return Summary{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	sum := Summary{ID: id.String(), Kind: bo.kind, Title: payload.Title, StartedAt: d.now().UTC(), Details: []Detail{}}
	log := d.logger.With(logpkg.Str("broadcast_id", sum.ID))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem chan struct{}
	)
	if d.maxInFlight > 0 {
		sem = make(chan struct{}, d.maxInFlight)
	}

	var listErr error
	for rec, err := range d.registry.List(ctx) {
		if err != nil {
			listErr = err
			break
		}
		if bo.filter != nil && !bo.filter(rec) {
			sum.Skipped++
			continue
		}
		if sem != nil {
			sem <- struct{}{}
		}
		wg.Add(1)
		go func(rec subscription.Record) {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }()
			}
			det := d.deliver(ctx, log, rec, body)
			mu.Lock()
			sum.Details = append(sum.Details, det)
			mu.Unlock()
		}(rec)
	}
	wg.Wait()
	sum.FinishedAt = d.now().UTC()

	for _, det := range sum.Details {
		if det.Status == StatusSuccess {
			sum.Sent++
		} else {
			sum.Failed++
		}
		if det.Pruned {
			sum.Pruned++
		}
	}

	if listErr != nil {
		log.Error("broadcast aborted: registry unavailable", logpkg.Err(listErr), logpkg.Int("settled", len(sum.Details)))
		return sum, fmt.Errorf("dispatch: listing subscriptions: %w", listErr)
	}
	log.Info("broadcast finished",
		logpkg.Int("sent", sum.Sent),
		logpkg.Int("failed", sum.Failed),
		logpkg.Int("pruned", sum.Pruned),
		logpkg.Int("skipped", sum.Skipped),
		logpkg.Dur("elapsed", sum.Duration()))
	return sum, nil
}

// deliver sends to one record and reconciles the outcome.
func (d *Dispatcher) deliver(ctx context.Context, log logpkg.Logger, rec subscription.Record, body []byte) Detail {
	out := delivery.Classify(d.send(ctx, log, rec, body))
	det := Detail{Endpoint: rec.Endpoint, Outcome: out.Kind, StatusCode: out.StatusCode}
	if out.Kind == delivery.Delivered {
		det.Status = StatusSuccess
	} else {
		det.Status = StatusError
		det.Error = out.Reason
		log.Warn("delivery failed",
			logpkg.Str("endpoint", rec.Endpoint),
			logpkg.Str("outcome", out.Kind.String()),
			logpkg.Int("status", out.StatusCode))
	}

	// Prune even when ctx was cancelled mid-delivery.
	pruned, err := d.policy.Apply(context.WithoutCancel(ctx), rec.Endpoint, reconcile.Classify(out))
	if err != nil {
		det.PruneError = err.Error()
		log.Error("prune failed", logpkg.Str("endpoint", rec.Endpoint), logpkg.Err(err))
	}
	det.Pruned = pruned
	return det
}

// send calls the sender, reporting a panic as an error.
func (d *Dispatcher) send(ctx context.Context, log logpkg.Logger, rec subscription.Record, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("sender panicked", logpkg.Str("endpoint", rec.Endpoint), logpkg.F("panic", r))
			err = fmt.Errorf("dispatch: sender panicked: %v", r)
		}
	}()
	return d.sender.Send(ctx, rec, body)
}
