package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/fundacionmisionvida7/Pagina/internal/config"
	"github.com/fundacionmisionvida7/Pagina/internal/delivery"
	"github.com/fundacionmisionvida7/Pagina/internal/devotional"
	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	calls    int
}

func (f *fakeSender) Send(_ context.Context, rec subscription.Record, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if code := f.statuses[rec.Endpoint]; code != 0 {
		return &delivery.StatusError{StatusCode: code}
	}
	return nil
}

type fakeProvider struct{ err error }

func (p fakeProvider) Fetch(context.Context) (devotional.Devotional, error) {
	if p.err != nil {
		return devotional.Devotional{}, p.err
	}
	return devotional.Devotional{Title: "Salmos 23:1", Content: "Jehová es mi pastor; nada me faltará.", Date: "16/10/2026", Source: "test"}, nil
}

type harness struct {
	handler http.Handler
	sender  *fakeSender
}

func newHarness(t *testing.T, mutate func(*cfgpkg.Config), provider devotional.Provider) *harness {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Notification.ConfirmOnSubscribe = false
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Config: cfg, Logger: logpkg.NewNopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	if provider == nil {
		provider = fakeProvider{}
	}
	sender := &fakeSender{statuses: map[string]int{}}
	svc := notifier.New(rt, sender, provider, notifier.WithLogger(logpkg.NewNopLogger()))
	s := New(rt, svc, "BPublicKeyForTests", logpkg.NewNopLogger())
	return &harness{handler: s.Handler(), sender: sender}
}

func (h *harness) do(t *testing.T, method, path, body string, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	var decoded map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func subscriptionJSON(endpoint string, p256dhLen int) string {
	p := base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("p", p256dhLen)))
	a := base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("a", subscription.AuthLen)))
	return fmt.Sprintf(`{"subscription":{"endpoint":%q,"expirationTime":null,"keys":{"p256dh":%q,"auth":%q}}}`, endpoint, p, a)
}

func TestStatusAndHealth(t *testing.T) {
	h := newHarness(t, nil, nil)

	w, body := h.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "Palabra del Día Backend", body["service"])
	assert.Equal(t, "2.0", body["version"])
	assert.Len(t, body["allowedOrigins"], 3)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w, _ = h.do(t, http.MethodGet, "/v1/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = h.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = h.do(t, http.MethodGet, "/v1/vapid-public-key", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BPublicKeyForTests", body["publicKey"])
}

func TestSubscribeStatusCodes(t *testing.T) {
	h := newHarness(t, nil, nil)

	w, body := h.do(t, http.MethodPost, "/api/subscribe", subscriptionJSON("https://push.example/a", 65), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Suscripción guardada", body["message"])

	w, body = h.do(t, http.MethodPost, "/subscribe", subscriptionJSON("https://push.example/a", 65), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_exists", body["code"])
	assert.Equal(t, false, body["success"])

	w, body = h.do(t, http.MethodPost, "/api/subscribe", subscriptionJSON("https://push.example/b", 64), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_subscription", body["code"])
	assert.NotEmpty(t, body["details"])

	w, _ = h.do(t, http.MethodPost, "/api/subscribe", `{"subscription":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/subscribe", `{"subscription":{"endpoint":"https://push.example/c"}}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.do(t, http.MethodGet, "/api/subscribe", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// the rejected 64-byte key left nothing behind
	w, body = h.do(t, http.MethodGet, "/v1/subscribers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.do(t, http.MethodPost, "/api/subscribe", subscriptionJSON("https://push.example/a", 65), nil)

	w, body := h.do(t, http.MethodPost, "/api/unsubscribe", `{"endpoint":"https://push.example/a"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["removed"])

	w, body = h.do(t, http.MethodPost, "/api/unsubscribe", `{"endpoint":"https://push.example/a"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["removed"])

	w, _ = h.do(t, http.MethodPost, "/api/unsubscribe", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDevotional(t *testing.T) {
	h := newHarness(t, nil, nil)
	w, body := h.do(t, http.MethodGet, "/devotional", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Salmos 23:1", body["title"])
	assert.Equal(t, "16/10/2026", body["date"])

	broken := newHarness(t, nil, fakeProvider{err: fmt.Errorf("%w: HTTP 503", devotional.ErrContentProvider)})
	w, body = broken.do(t, http.MethodGet, "/api/devotional", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "content_provider", body["code"])
	assert.Equal(t, "No se pudo obtener el devocional", body["error"])
}

func TestSendDailyPrunesGone(t *testing.T) {
	h := newHarness(t, nil, nil)
	for _, e := range []string{"https://push.example/a", "https://push.example/gone", "https://push.example/busy"} {
		w, _ := h.do(t, http.MethodPost, "/api/subscribe", subscriptionJSON(e, 65), nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	h.sender.statuses["https://push.example/gone"] = 410
	h.sender.statuses["https://push.example/busy"] = 503

	w, body := h.do(t, http.MethodGet, "/send-daily", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, body["sent"])
	assert.EqualValues(t, 2, body["failed"])
	assert.EqualValues(t, 1, body["pruned"])
	assert.Len(t, body["details"], 3)

	_, body = h.do(t, http.MethodGet, "/v1/subscribers?count_only=true", "", nil)
	assert.EqualValues(t, 2, body["count"])

	_, body = h.do(t, http.MethodGet, "/v1/broadcasts?limit=5", "", nil)
	assert.Len(t, body["broadcasts"], 1)
	assert.EqualValues(t, 1, body["total"])
}

func TestSendDailyProviderFailure(t *testing.T) {
	h := newHarness(t, nil, fakeProvider{err: errors.Join(devotional.ErrContentProvider, errors.New("down"))})
	h.do(t, http.MethodPost, "/api/subscribe", subscriptionJSON("https://push.example/a", 65), nil)

	w, body := h.do(t, http.MethodGet, "/api/send-daily", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Zero(t, h.sender.calls)
}

func TestSendDailyBadAudience(t *testing.T) {
	h := newHarness(t, nil, nil)
	w, body := h.do(t, http.MethodGet, "/send-daily?audience=host%20%3D%3D", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_audience", body["code"])
}

func TestCustomBroadcast(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.do(t, http.MethodPost, "/api/subscribe", subscriptionJSON("https://push.example/a", 65), nil)

	w, body := h.do(t, http.MethodPost, "/v1/broadcasts", `{"title":"Aviso","body":"Culto especial el sábado"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "custom", body["kind"])
	assert.EqualValues(t, 1, body["sent"])

	w, body = h.do(t, http.MethodPost, "/v1/broadcasts", `{"body":"sin título"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_payload", body["code"])
}

func TestAdminToken(t *testing.T) {
	h := newHarness(t, func(c *cfgpkg.Config) { c.AdminToken = "s3cret" }, nil)

	for _, path := range []string{"/send-daily", "/v1/broadcasts", "/v1/subscribers"} {
		w, body := h.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "unauthorized", body["code"])

		w, _ = h.do(t, http.MethodGet, path, "", map[string]string{"Authorization": "Bearer wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w, _ = h.do(t, http.MethodGet, path, "", map[string]string{"Authorization": "Bearer s3cret"})
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	// browser routes stay open
	w, _ := h.do(t, http.MethodPost, "/api/subscribe", subscriptionJSON("https://push.example/a", 65), nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, nil, nil)
	preflight := map[string]string{
		"Origin":                        "https://mision-vida-app.web.app",
		"Access-Control-Request-Method": "POST",
	}
	w, _ := h.do(t, http.MethodOptions, "/api/subscribe", "", preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://mision-vida-app.web.app", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")

	preflight["Origin"] = "https://evil.example"
	w, _ = h.do(t, http.MethodOptions, "/api/subscribe", "", preflight)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	open := newHarness(t, func(c *cfgpkg.Config) { c.AllowedOrigins = []string{"*"} }, nil)
	w, _ = open.do(t, http.MethodGet, "/", "", map[string]string{"Origin": "https://anything.example"})
	assert.Equal(t, "https://anything.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagation(t *testing.T) {
	h := newHarness(t, nil, nil)
	id := "0192f1e6-1c7a-7cc1-8d5e-3b4c1f0a9e21"
	w, _ := h.do(t, http.MethodGet, "/", "", map[string]string{RequestIDHeader: id})
	assert.Equal(t, id, w.Header().Get(RequestIDHeader))

	w, _ = h.do(t, http.MethodGet, "/", "", map[string]string{RequestIDHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}
