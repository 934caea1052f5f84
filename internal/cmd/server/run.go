package serverrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cfgpkg "github.com/fundacionmisionvida7/Pagina/internal/config"
	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/devotional"
	"github.com/fundacionmisionvida7/Pagina/internal/push"
	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
	"github.com/fundacionmisionvida7/Pagina/internal/scheduler"
	grpcserver "github.com/fundacionmisionvida7/Pagina/internal/server/grpc"
	httpserver "github.com/fundacionmisionvida7/Pagina/internal/server/http"
	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	pebblestore "github.com/fundacionmisionvida7/Pagina/internal/storage/pebble"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

type Options struct {
	DataDir  string
	GRPCAddr string
	HTTPAddr string
	Fsync    pebblestore.FsyncMode
	Config   cfgpkg.Config
}

// NewLogger builds the process logger from the log section of cfg, falling
// back to info/text when it is invalid.
func NewLogger(cfg cfgpkg.Config) logpkg.Logger {
	lc := &logpkg.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	procLogger, err := logpkg.ApplyConfig(lc)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(lc.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	return procLogger
}

// NewProvider builds the devotional scraper from cfg.
func NewProvider(cfg cfgpkg.Config, logger logpkg.Logger) devotional.Provider {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		loc = time.Local
	}
	return devotional.NewScraper(cfg.Devotional.SourceURL, cfg.DevotionalTimeout(),
		devotional.WithSelectors(devotional.Selectors{
			Title:   cfg.Devotional.TitleSelector,
			Content: cfg.Devotional.ContentSelector,
			Date:    cfg.Devotional.DateSelector,
		}),
		devotional.WithDefaultTitle(cfg.Devotional.DefaultTitle),
		devotional.WithLocation(loc),
		devotional.WithLogger(logger.With(logpkg.Component("devotional"))),
	)
}

// NewSender builds the Web Push sender. Without VAPID keys it returns a
// sender that fails every delivery as transient, so the server still serves
// subscriptions and the devotional.
func NewSender(cfg cfgpkg.Config, logger logpkg.Logger) (delivery.Sender, string, error) {
	s, err := push.NewSender(push.Options{
		VAPIDPublicKey:  cfg.VAPID.PublicKey,
		VAPIDPrivateKey: cfg.VAPID.PrivateKey,
		Subject:         cfg.VAPID.Subject,
		TTL:             time.Duration(cfg.Push.TTLSeconds) * time.Second,
		Urgency:         cfg.Push.Urgency,
		Timeout:         cfg.PushTimeout(),
		Logger:          logger.With(logpkg.Component("push")),
	})
	if errors.Is(err, push.ErrNotConfigured) {
		logger.Warn("VAPID keys not configured; push deliveries will fail until they are set")
		return delivery.SenderFunc(func(context.Context, subscription.Record, []byte) error {
			return push.ErrNotConfigured
		}), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return s, s.PublicKey(), nil
}

// Run starts gRPC and HTTP servers and, when configured, the daily
// broadcast schedule. It blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = opts.Config.DataDir
	}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = opts.Config.HTTPAddr
	}
	if opts.GRPCAddr == "" {
		opts.GRPCAddr = opts.Config.GRPCAddr
	}
	if err := opts.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if opts.Fsync == pebblestore.FsyncModeUnspecified {
		mode, err := pebblestore.ParseFsyncMode(opts.Config.Store.Fsync)
		if err != nil {
			return err
		}
		opts.Fsync = mode
	}

	procLogger := NewLogger(opts.Config)
	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, Config: opts.Config, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	sender, publicKey, err := NewSender(opts.Config, procLogger)
	if err != nil {
		return err
	}
	provider := NewProvider(opts.Config, procLogger)
	svc := notifier.New(rt, sender, provider, notifier.WithLogger(procLogger.With(logpkg.Component("notifier"))))

	count, _ := rt.Registry().Count(sctx)
	procLogger.Info("Starting Palabra server",
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("store", rt.Backend()),
		logpkg.Int("subscriptions", count),
		logpkg.Str("daily_at", opts.Config.Schedule.DailyAt),
		logpkg.Str("level", opts.Config.Log.Level),
		logpkg.Str("format", opts.Config.Log.Format),
	)

	var daily *scheduler.Daily
	if opts.Config.Schedule.DailyAt != "" {
		if daily, err = newDailySchedule(opts.Config, svc, procLogger); err != nil {
			return err
		}
	}

	gsrv := grpcserver.New(rt, procLogger.With(logpkg.Component("grpc")))
	hsrv := httpserver.New(rt, svc, publicKey, procLogger.With(logpkg.Component("http")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gsrv.ListenAndServe(sctx, opts.GRPCAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("grpc server stopped", logpkg.Err(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server stopped", logpkg.Err(err))
		}
	}()

	if daily != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = daily.Run(sctx)
		}()
	}

	<-sctx.Done()
	// Stop servers before the deferred runtime close.
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	return nil
}

func newDailySchedule(cfg cfgpkg.Config, svc *notifier.Service, logger logpkg.Logger) (*scheduler.Daily, error) {
	at, err := scheduler.ParseClock(cfg.Schedule.DailyAt)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	log := logger.With(logpkg.Component("scheduler"))
	return scheduler.NewDaily(at, loc, func(ctx context.Context) error {
		sum, err := svc.BroadcastDaily(ctx, "")
		if err != nil {
			return err
		}
		log.Info("scheduled broadcast sent", logpkg.Str("broadcast_id", sum.ID), logpkg.Int("sent", sum.Sent), logpkg.Int("failed", sum.Failed))
		return nil
	}, log), nil
}
