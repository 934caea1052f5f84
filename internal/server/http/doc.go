// Package httpserver is the REST front of the push service: status and
// health, browser subscription management, the devotional, daily and custom
// broadcasts, their history and the subscriber listing.
//
// Every request gets an X-Request-ID and one access log line. CORS is
// restricted to the configured origins.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	svc := notifier.New(rt, sender, scraper)
//	s := httpserver.New(rt, svc, cfg.VAPID.PublicKey, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":3000")
package httpserver
