package notifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/fundacionmisionvida7/Pagina/internal/config"
	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/devotional"
	"github.com/fundacionmisionvida7/Pagina/internal/notification"
	"github.com/fundacionmisionvida7/Pagina/internal/registry"
	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     map[string][]notification.Payload
	statuses map[string]int
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: map[string][]notification.Payload{}, statuses: map[string]int{}}
}

func (s *recordingSender) Send(_ context.Context, rec subscription.Record, payload []byte) error {
	var p notification.Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[rec.Endpoint] = append(s.sent[rec.Endpoint], p)
	if code := s.statuses[rec.Endpoint]; code != 0 {
		return &delivery.StatusError{StatusCode: code}
	}
	return nil
}

func (s *recordingSender) count(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent[endpoint])
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = map[string][]notification.Payload{}
}

type stubProvider struct {
	d     devotional.Devotional
	err   error
	calls int
}

func (p *stubProvider) Fetch(context.Context) (devotional.Devotional, error) {
	p.calls++
	return p.d, p.err
}

func testRecord(endpoint string) subscription.Record {
	return subscription.Record{
		Endpoint: endpoint,
		Keys: subscription.Keys{
			P256dh: base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("p", subscription.P256dhLen))),
			Auth:   base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("a", subscription.AuthLen))),
		},
	}
}

func newService(t *testing.T, mutate func(*cfgpkg.Config)) (*Service, *recordingSender, *stubProvider) {
	t.Helper()
	cfg := cfgpkg.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Config: cfg, Logger: logpkg.NewNopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	sender := newRecordingSender()
	provider := &stubProvider{d: devotional.Devotional{
		Title:   "Juan 3:16",
		Content: strings.Repeat("Porque de tal manera amó Dios al mundo ", 10),
		Date:    "16/10/2026",
	}}
	return New(rt, sender, provider, WithLogger(logpkg.NewNopLogger())), sender, provider
}

func TestSubscribeSendsConfirmationOnce(t *testing.T) {
	svc, sender, _ := newService(t, nil)
	ctx := context.Background()
	rec := testRecord("https://push.example/a")

	stored, err := svc.Subscribe(ctx, rec)
	require.NoError(t, err)
	assert.False(t, stored.CreatedAt.IsZero())
	require.Equal(t, 1, sender.count(rec.Endpoint))
	assert.Equal(t, "✅ Notificaciones Activadas", sender.sent[rec.Endpoint][0].Title)

	_, err = svc.Subscribe(ctx, rec)
	assert.ErrorIs(t, err, registry.ErrAlreadyExists)
	assert.Equal(t, 1, sender.count(rec.Endpoint))
}

func TestSubscribeConfirmationFailureKeepsRecord(t *testing.T) {
	svc, sender, _ := newService(t, nil)
	rec := testRecord("https://push.example/flaky")
	sender.statuses[rec.Endpoint] = 503

	_, err := svc.Subscribe(context.Background(), rec)
	require.NoError(t, err)
	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubscribeConfirmationGonePrunes(t *testing.T) {
	svc, sender, _ := newService(t, nil)
	rec := testRecord("https://push.example/dead")
	sender.statuses[rec.Endpoint] = 410

	_, err := svc.Subscribe(context.Background(), rec)
	require.NoError(t, err)
	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubscribeWithoutConfirmation(t *testing.T) {
	svc, sender, _ := newService(t, func(c *cfgpkg.Config) { c.Notification.ConfirmOnSubscribe = false })
	_, err := svc.Subscribe(context.Background(), testRecord("https://push.example/a"))
	require.NoError(t, err)
	assert.Zero(t, sender.count("https://push.example/a"))
}

func TestSubscribeInvalidStoresNothing(t *testing.T) {
	svc, sender, _ := newService(t, nil)
	rec := testRecord("https://push.example/a")
	rec.Keys.P256dh = base64.RawURLEncoding.EncodeToString(make([]byte, 64))

	_, err := svc.Subscribe(context.Background(), rec)
	assert.ErrorIs(t, err, subscription.ErrInvalidSubscription)
	assert.Zero(t, sender.count(rec.Endpoint))
	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnsubscribe(t *testing.T) {
	svc, _, _ := newService(t, func(c *cfgpkg.Config) { c.Notification.ConfirmOnSubscribe = false })
	ctx := context.Background()
	_, err := svc.Subscribe(ctx, testRecord("https://push.example/a"))
	require.NoError(t, err)

	res, err := svc.Unsubscribe(ctx, "https://push.example/a")
	require.NoError(t, err)
	assert.Equal(t, registry.Removed, res)
	res, err = svc.Unsubscribe(ctx, "https://push.example/a")
	require.NoError(t, err)
	assert.Equal(t, registry.NotFound, res)

	_, err = svc.Unsubscribe(ctx, "")
	assert.ErrorIs(t, err, subscription.ErrInvalidSubscription)
}

func TestBroadcastDailyTruncatesAndJournals(t *testing.T) {
	svc, sender, _ := newService(t, func(c *cfgpkg.Config) { c.Notification.ConfirmOnSubscribe = false })
	ctx := context.Background()
	for _, e := range []string{"https://push.example/a", "https://push.example/gone"} {
		_, err := svc.Subscribe(ctx, testRecord(e))
		require.NoError(t, err)
	}
	sender.statuses["https://push.example/gone"] = 410

	sum, err := svc.BroadcastDaily(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, KindDaily, sum.Kind)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, 1, sum.Pruned)

	p := sender.sent["https://push.example/a"][0]
	assert.Equal(t, "Juan 3:16", p.Title)
	assert.True(t, strings.HasSuffix(p.Body, "..."))
	assert.LessOrEqual(t, len([]rune(p.Body)), 123)
	assert.Equal(t, "/icon-192x192.png", p.Icon)
	assert.Equal(t, "/", p.URL)

	hist, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, sum.ID, hist[0].Summary.ID)
	total, err := svc.HistoryLen()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestBroadcastDailyProviderFailureAborts(t *testing.T) {
	svc, sender, provider := newService(t, func(c *cfgpkg.Config) { c.Notification.ConfirmOnSubscribe = false })
	_, err := svc.Subscribe(context.Background(), testRecord("https://push.example/a"))
	require.NoError(t, err)
	provider.err = errors.Join(devotional.ErrContentProvider, errors.New("HTTP 503"))

	_, err = svc.BroadcastDaily(context.Background(), "")
	assert.ErrorIs(t, err, devotional.ErrContentProvider)
	assert.Zero(t, sender.count("https://push.example/a"))

	hist, err := svc.History(0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestBroadcastAudience(t *testing.T) {
	svc, sender, _ := newService(t, func(c *cfgpkg.Config) { c.Notification.ConfirmOnSubscribe = false })
	ctx := context.Background()
	for _, e := range []string{"https://fcm.googleapis.com/fcm/send/x", "https://updates.push.services.mozilla.com/wpush/v2/y"} {
		_, err := svc.Subscribe(ctx, testRecord(e))
		require.NoError(t, err)
	}
	sender.reset()

	sum, err := svc.BroadcastCustom(ctx, CustomBroadcast{Title: "Aviso", Body: "Culto especial", URL: "/eventos", Audience: `host == "fcm.googleapis.com"`})
	require.NoError(t, err)
	assert.Equal(t, KindCustom, sum.Kind)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, "/eventos", sender.sent["https://fcm.googleapis.com/fcm/send/x"][0].URL)
}

func TestBroadcastRejectsBadAudience(t *testing.T) {
	svc, _, provider := newService(t, nil)
	for _, expr := range []string{`host ==`, `endpoint + "x"`, `unknown_var > 1`} {
		_, err := svc.BroadcastDaily(context.Background(), expr)
		assert.ErrorIs(t, err, ErrInvalidAudience, expr)
	}
	assert.Zero(t, provider.calls)
}

func TestAudienceAge(t *testing.T) {
	now := time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC)
	f, err := newAudienceFilter(`age_ms < 86400000`, func() time.Time { return now })
	require.NoError(t, err)

	fresh := testRecord("https://push.example/new")
	fresh.CreatedAt = now.Add(-time.Hour)
	old := testRecord("https://push.example/old")
	old.CreatedAt = now.Add(-48 * time.Hour)
	assert.True(t, f.Keep(fresh))
	assert.False(t, f.Keep(old))

	off, err := newAudienceFilter("  ", time.Now)
	require.NoError(t, err)
	assert.True(t, off.Keep(old))
}
