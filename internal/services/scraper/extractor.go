// internal/services/scraper/extractor.go
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"perfume-studio/internal/common/cache"
	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/models"
)

const (
	DefaultMaxChars = 20000

	nonContentSelectors = "script, style, nav, header, footer"
	maxBodyBytes        = 8 << 20
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Fetcher performs the page GET. Non-2xx responses must come back as errors.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

type Extractor struct {
	fetcher  Fetcher
	cache    cache.Cache
	ttl      time.Duration
	maxChars int
	logger   Logger
	now      func() time.Time
}

func NewExtractor(fetcher Fetcher, c cache.Cache, ttl time.Duration, maxChars int, log Logger) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{
		fetcher:  fetcher,
		cache:    c,
		ttl:      ttl,
		maxChars: maxChars,
		logger:   log.With(map[string]interface{}{"component": "extractor"}),
		now:      time.Now,
	}
}

// Extract returns the visible text of url. A nil page always comes with an
// EXTRACTION_FAILED error; an empty Text is a successful fetch.
func (e *Extractor) Extract(ctx context.Context, url string) (*models.ScrapedPage, error) {
	key := cache.Key("scrape", url, fmt.Sprint(e.maxChars))
	if e.cache != nil {
		var cached models.ScrapedPage
		ok, err := cache.GetJSON(ctx, e.cache, key, &cached)
		if err != nil {
			e.logger.Warn("scrape cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if ok {
			return &cached, nil
		}
	}

	page, err := e.fetch(ctx, url)
	if err != nil {
		e.logger.Warn("page extraction failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, apperrors.NewExtractionFailedError(url, err)
	}

	e.logger.Info("page extracted", map[string]interface{}{
		"url":       url,
		"chars":     page.Length(),
		"truncated": page.Truncated,
	})

	if e.cache != nil {
		if err := cache.SetJSON(ctx, e.cache, key, page, e.ttl); err != nil {
			e.logger.Warn("scrape cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return page, nil
}

func (e *Extractor) fetch(ctx context.Context, url string) (*models.ScrapedPage, error) {
	resp, err := e.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	text, err := VisibleText(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	truncated, cut := Truncate(text, e.maxChars)
	return &models.ScrapedPage{
		URL:       url,
		Text:      truncated,
		Truncated: cut,
		FetchedAt: e.now().UTC(),
	}, nil
}

// VisibleText parses HTML and returns its text nodes joined by single spaces,
// with script, style, nav, header and footer elements removed.
func VisibleText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(nonContentSelectors).Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "#text":
			if t := strings.TrimSpace(child.Text()); t != "" {
				*parts = append(*parts, t)
			}
		case "#comment", "noscript", "template":
		default:
			collectText(child, parts)
		}
	})
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]), true
}
