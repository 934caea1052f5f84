// Package devotional fetches the word of the day from its source page.
package devotional

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// ErrContentProvider wraps every failure to obtain a devotional.
var ErrContentProvider = errors.New("content provider failed")

// DateLayout is used when the page carries no date.
const DateLayout = "02/01/2006"

// Devotional is one day's reading.
type Devotional struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// Provider returns the current devotional.
type Provider interface {
	Fetch(ctx context.Context) (Devotional, error)
}

// Selectors locate the devotional fields in the source page.
type Selectors struct {
	Title   string
	Content string
	Date    string
}

// DefaultSelectors match bibliaon.com's daily page.
var DefaultSelectors = Selectors{
	Title:   ".daily-suptitle",
	Content: ".daily-content",
	Date:    ".daily-date",
}

// Scraper is a Provider reading an HTML page.
type Scraper struct {
	url          string
	selectors    Selectors
	defaultTitle string
	client       *http.Client
	location     *time.Location
	now          func() time.Time
	logger       logpkg.Logger
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithSelectors overrides the page selectors. Empty fields keep the default.
func WithSelectors(s Selectors) ScraperOption {
	return func(sc *Scraper) {
		if s.Title != "" {
			sc.selectors.Title = s.Title
		}
		if s.Content != "" {
			sc.selectors.Content = s.Content
		}
		if s.Date != "" {
			sc.selectors.Date = s.Date
		}
	}
}

// WithDefaultTitle sets the title used when the page has none.
func WithDefaultTitle(title string) ScraperOption {
	return func(sc *Scraper) {
		if title != "" {
			sc.defaultTitle = title
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ScraperOption {
	return func(sc *Scraper) { sc.client = c }
}

// WithLocation sets the zone of the fallback date.
func WithLocation(loc *time.Location) ScraperOption {
	return func(sc *Scraper) {
		if loc != nil {
			sc.location = loc
		}
	}
}

// WithClock overrides the clock used for the fallback date.
func WithClock(now func() time.Time) ScraperOption {
	return func(sc *Scraper) { sc.now = now }
}

// WithLogger sets the scraper logger.
func WithLogger(l logpkg.Logger) ScraperOption {
	return func(sc *Scraper) {
		if l != nil {
			sc.logger = l
		}
	}
}

// NewScraper returns a Scraper for url.
func NewScraper(url string, timeout time.Duration, opts ...ScraperOption) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sc := &Scraper{
		url:          url,
		selectors:    DefaultSelectors,
		defaultTitle: "Palabra del Día",
		client:       &http.Client{Timeout: timeout},
		location:     time.Local,
		now:          time.Now,
		logger:       logpkg.NewLogger().With(logpkg.Component("devotional")),
	}
	for _, o := range opts {
		o(sc)
	}
	return sc
}

// Fetch downloads and parses the page.
func (s *Scraper) Fetch(ctx context.Context) (Devotional, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Devotional{}, fmt.Errorf("%w: %w", ErrContentProvider, err)
	}
	req.Header.Set("User-Agent", "palabra/2.0 (+https://mision-vida-app.web.app)")
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return Devotional{}, fmt.Errorf("%w: %w", ErrContentProvider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Devotional{}, fmt.Errorf("%w: HTTP %d", ErrContentProvider, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Devotional{}, fmt.Errorf("%w: parse: %w", ErrContentProvider, err)
	}
	d := s.extract(doc)
	if d.Content == "" {
		return Devotional{}, fmt.Errorf("%w: no content at %s", ErrContentProvider, s.selectors.Content)
	}
	s.logger.Debug("devotional fetched", logpkg.Str("date", d.Date), logpkg.Dur("elapsed", time.Since(start)))
	return d, nil
}

func (s *Scraper) extract(doc *goquery.Document) Devotional {
	d := Devotional{
		Title:   firstText(doc, s.selectors.Title),
		Content: collapseSpace(firstText(doc, s.selectors.Content)),
		Date:    firstText(doc, s.selectors.Date),
		Source:  s.url,
	}
	if d.Title == "" {
		d.Title = s.defaultTitle
	}
	if d.Date == "" {
		d.Date = s.now().In(s.location).Format(DateLayout)
	}
	return d
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
