package devotional

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

const fullPage = `<!doctype html><html><body>
<div class="daily-suptitle">  Salmos 119:105 </div>
<p class="daily-date">16/10/2026</p>
<div class="daily-content">
  Lámpara es a mis pies tu palabra,
     y lumbrera a mi camino.
</div>
</body></html>`

func servePage(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchExtractsFields(t *testing.T) {
	srv := servePage(t, http.StatusOK, fullPage)
	d, err := NewScraper(srv.URL, time.Second, WithLogger(logpkg.NewNopLogger())).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Salmos 119:105", d.Title)
	assert.Equal(t, "Lámpara es a mis pies tu palabra, y lumbrera a mi camino.", d.Content)
	assert.Equal(t, "16/10/2026", d.Date)
	assert.Equal(t, srv.URL, d.Source)
}

func TestFetchDefaults(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<html><body><div class="daily-content">Dios es amor</div></body></html>`)
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	d, err := NewScraper(srv.URL, time.Second,
		WithLogger(logpkg.NewNopLogger()),
		WithClock(func() time.Time { return fixed }),
		WithLocation(time.UTC),
	).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Palabra del Día", d.Title)
	assert.Equal(t, "16/10/2026", d.Date)
}

func TestFetchCustomSelectors(t *testing.T) {
	srv := servePage(t, http.StatusOK, `<html><body><h1>Hoy</h1><article>Texto</article></body></html>`)
	d, err := NewScraper(srv.URL, time.Second,
		WithLogger(logpkg.NewNopLogger()),
		WithSelectors(Selectors{Title: "h1", Content: "article"}),
	).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hoy", d.Title)
	assert.Equal(t, "Texto", d.Content)
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream 500", http.StatusInternalServerError, "oops"},
		{"upstream 404", http.StatusNotFound, ""},
		{"no content", http.StatusOK, "<html><body><p>nada</p></body></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := servePage(t, tt.status, tt.body)
			_, err := NewScraper(srv.URL, time.Second, WithLogger(logpkg.NewNopLogger())).Fetch(context.Background())
			assert.True(t, errors.Is(err, ErrContentProvider), "got %v", err)
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := servePage(t, http.StatusOK, fullPage)
	url := srv.URL
	srv.Close()
	_, err := NewScraper(url, time.Second, WithLogger(logpkg.NewNopLogger())).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrContentProvider)
}
