package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/devotional"
	"github.com/fundacionmisionvida7/Pagina/internal/dispatch"
	"github.com/fundacionmisionvida7/Pagina/internal/journal"
	"github.com/fundacionmisionvida7/Pagina/internal/notification"
	"github.com/fundacionmisionvida7/Pagina/internal/reconcile"
	"github.com/fundacionmisionvida7/Pagina/internal/registry"
	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// Broadcast kinds recorded in the journal.
const (
	KindDaily  = "daily"
	KindCustom = "custom"
)

// confirmTimeout bounds the confirmation push sent on subscribe.
const confirmTimeout = 10 * time.Second

// History is the journal surface the service needs.
type History interface {
	Append(ctx context.Context, sum dispatch.Summary) (journal.Entry, error)
	Recent(limit int) ([]journal.Entry, error)
	Len() (int, error)
}

// Service implements the push use cases on top of the runtime's registry.
type Service struct {
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	sender     delivery.Sender
	provider   devotional.Provider
	history    History
	policy     *reconcile.Policy
	builder    notification.Builder
	confirm    *notification.Payload
	logger     logpkg.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logpkg.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistory replaces the runtime journal.
func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

// WithClock overrides the clock used by audience filters.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service. Payload defaults and the confirmation push come
// from the runtime config.
func New(rt *runtime.Runtime, sender delivery.Sender, provider devotional.Provider, opts ...Option) *Service {
	cfg := rt.Config()
	s := &Service{
		registry: rt.Registry(),
		sender:   sender,
		provider: provider,
		history:  rt.Journal(),
		builder: notification.Builder{
			Icon:         cfg.Notification.Icon,
			URL:          cfg.Notification.URL,
			BodyMaxRunes: cfg.Notification.BodyMaxRunes,
		},
		logger: logpkg.NewLogger().With(logpkg.Component("notifier")),
		now:    time.Now,
	}
	if cfg.Notification.ConfirmOnSubscribe {
		p := notification.Payload{
			Title: cfg.Notification.ConfirmTitle,
			Body:  cfg.Notification.ConfirmBody,
			Icon:  cfg.Notification.Icon,
		}
		s.confirm = &p
	}
	for _, o := range opts {
		o(s)
	}
	s.dispatcher = dispatch.New(s.registry, sender,
		dispatch.WithLogger(s.logger.With(logpkg.Component("dispatch"))),
		dispatch.WithMaxInFlight(cfg.Push.MaxInFlight))
	s.policy = reconcile.New(s.registry, s.logger)
	return s
}

// Subscribe registers rec and, when enabled, sends the confirmation push.
// The confirmation is best effort: its failure never fails the
// registration, but a 404/410 answer prunes the record right away.
func (s *Service) Subscribe(ctx context.Context, rec subscription.Record) (subscription.Record, error) {
	stored, err := s.registry.Register(ctx, rec)
	if err != nil {
		return subscription.Record{}, err
	}
	s.logger.Info("subscription created", logpkg.Str("host", stored.Host()))
	if s.confirm != nil {
		s.sendConfirmation(ctx, stored)
	}
	return stored, nil
}

func (s *Service) sendConfirmation(ctx context.Context, rec subscription.Record) {
	body, err := s.confirm.Marshal()
	if err != nil {
		s.logger.Warn("confirmation payload invalid", logpkg.Err(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()
	out := delivery.Classify(s.sender.Send(ctx, rec, body))
	if out.Kind == delivery.Delivered {
		return
	}
	s.logger.Warn("confirmation push failed",
		logpkg.Str("endpoint", rec.Endpoint),
		logpkg.Str("outcome", out.Kind.String()),
		logpkg.Str("reason", out.Reason))
	if _, err := s.policy.Apply(ctx, rec.Endpoint, reconcile.Classify(out)); err != nil {
		s.logger.Error("prune after confirmation failed", logpkg.Err(err))
	}
}

// Unsubscribe removes endpoint. A missing endpoint is not an error.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) (registry.RemoveResult, error) {
	if endpoint == "" {
		return 0, fmt.Errorf("%w: endpoint is required", subscription.ErrInvalidSubscription)
	}
	return s.registry.Remove(ctx, endpoint)
}

// Devotional fetches today's devotional.
func (s *Service) Devotional(ctx context.Context) (devotional.Devotional, error) {
	return s.provider.Fetch(ctx)
}

// BroadcastDaily fetches the devotional and pushes it to every subscriber
// matching audience (empty for all). A provider failure aborts before any
// delivery.
func (s *Service) BroadcastDaily(ctx context.Context, audience string) (dispatch.Summary, error) {
	filter, err := newAudienceFilter(audience, s.now)
	if err != nil {
		return dispatch.Summary{}, err
	}
	d, err := s.provider.Fetch(ctx)
	if err != nil {
		s.logger.Error("devotional unavailable, daily broadcast skipped", logpkg.Err(err))
		return dispatch.Summary{}, err
	}
	return s.broadcast(ctx, s.builder.Daily(d.Title, d.Content), KindDaily, filter)
}

// CustomBroadcast is an operator-authored notification.
type CustomBroadcast struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Icon     string `json:"icon,omitempty"`
	URL      string `json:"url,omitempty"`
	Audience string `json:"audience,omitempty"`
}

// BroadcastCustom pushes an operator notification.
func (s *Service) BroadcastCustom(ctx context.Context, req CustomBroadcast) (dispatch.Summary, error) {
	filter, err := newAudienceFilter(req.Audience, s.now)
	if err != nil {
		return dispatch.Summary{}, err
	}
	return s.broadcast(ctx, s.builder.Custom(req.Title, req.Body, req.Icon, req.URL), KindCustom, filter)
}

func (s *Service) broadcast(ctx context.Context, p notification.Payload, kind string, filter audienceFilter) (dispatch.Summary, error) {
	opts := []dispatch.BroadcastOption{dispatch.WithKind(kind)}
	if filter.enabled {
		opts = append(opts, dispatch.WithFilter(filter.Keep))
	}
	sum, err := s.dispatcher.Broadcast(ctx, p, opts...)
	if err != nil {
		return sum, err
	}
	if s.history != nil {
		if _, err := s.history.Append(context.WithoutCancel(ctx), sum); err != nil {
			s.logger.Error("journal append failed", logpkg.Str("broadcast_id", sum.ID), logpkg.Err(err))
		}
	}
	return sum, nil
}

// History returns recent broadcasts, newest first.
func (s *Service) History(limit int) ([]journal.Entry, error) {
	if s.history == nil {
		return []journal.Entry{}, nil
	}
	return s.history.Recent(limit)
}

// HistoryLen returns how many broadcasts the journal holds.
func (s *Service) HistoryLen() (int, error) {
	if s.history == nil {
		return 0, nil
	}
	return s.history.Len()
}

// Subscribers returns every stored subscription.
func (s *Service) Subscribers(ctx context.Context) ([]subscription.Record, error) {
	return s.registry.Snapshot(ctx)
}

// Count returns the number of stored subscriptions.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.registry.Count(ctx)
}

// Registry exposes the shared registry.
func (s *Service) Registry() *registry.Registry { return s.registry }
