// Package profiles scrapes the public faculty profile listing.
//
// The listing is rendered client side, so a headless browser loads it,
// switches it to the single-page list view and hands the resulting HTML to
// Parse.
package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/lueurxax/faculty-research-sync/internal/platform/observability"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultSettleDelay = 5 * time.Second

	paginationSelector  = "#pagination-top"
	paginationAllValue  = "999"
	displayTypeSelector = "#display-type"
	displayTypeList     = "list"
	resultsSelector     = "table.results"
)

// Config holds scraper settings.
type Config struct {
	URL      string
	Headless bool
	// BrowserBin overrides the browser executable; empty lets the launcher
	// find or download one.
	BrowserBin  string
	Timeout     time.Duration
	SettleDelay time.Duration
}

// RenderFunc returns the rendered HTML of the listing page.
type RenderFunc func(ctx context.Context) (string, error)

// Scraper fetches faculty profiles.
type Scraper struct {
	cfg    Config
	render RenderFunc
	logger *zerolog.Logger
}

// New returns a scraper that renders the page with a headless browser.
func New(cfg Config, logger *zerolog.Logger) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = defaultSettleDelay
	}

	l := logger.With().Str("component", "profiles").Logger()

	s := &Scraper{cfg: cfg, logger: &l}
	s.render = s.renderWithBrowser

	return s
}

// NewWithRenderer returns a scraper that takes the page HTML from render.
func NewWithRenderer(render RenderFunc, logger *zerolog.Logger) *Scraper {
	l := logger.With().Str("component", "profiles").Logger()

	return &Scraper{render: render, logger: &l}
}

// Profiles renders and parses the listing.
func (s *Scraper) Profiles(ctx context.Context) ([]Profile, error) {
	start := time.Now()

	page, err := s.render(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	observability.ProfilesScraped.Set(float64(len(profiles)))

	s.logger.Info().
		Int("profiles", len(profiles)).
		Dur("elapsed", time.Since(start)).
		Msg("faculty profiles scraped")

	return profiles, nil
}

func (s *Scraper) renderWithBrowser(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	l := launcher.New().Context(ctx).Headless(s.cfg.Headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage")
	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}

	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: s.cfg.URL})
	if err != nil {
		return "", fmt.Errorf("open %s: %w", s.cfg.URL, err)
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	if err := selectOption(page, paginationSelector, paginationAllValue); err != nil {
		return "", err
	}

	if err := selectOption(page, displayTypeSelector, displayTypeList); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for listing to settle: %w", ctx.Err())
	case <-time.After(s.cfg.SettleDelay):
	}

	if _, err := page.Element(resultsSelector); err != nil {
		return "", fmt.Errorf("wait for %s: %w", resultsSelector, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}

	return html, nil
}

func selectOption(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}

	if err := el.Select([]string{fmt.Sprintf("[value=%q]", value)}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("select %s=%s: %w", selector, value, err)
	}

	return nil
}
