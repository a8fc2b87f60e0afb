// internal/services/search/resolver.go
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"perfume-studio/internal/common/cache"
	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/common/metrics"
	"perfume-studio/internal/models"
)

const (
	NoResultsMessage = "No results found after trying multiple strategies."

	broadResults    = 5
	perSiteResults  = 3
	perSiteAttempts = 3
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Item is one search hit.
type Item struct {
	Title   string
	Snippet string
	Link    string
}

// Client issues a single query against the search backend.
type Client interface {
	Search(ctx context.Context, query string, num int) ([]Item, error)
}

type Resolver struct {
	client Client
	cache  cache.Cache
	ttl    time.Duration
	logger Logger
}

// NewResolver builds a resolver. A nil cache disables caching.
func NewResolver(client Client, c cache.Cache, ttl time.Duration, log Logger) *Resolver {
	return &Resolver{
		client: client,
		cache:  c,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "resolver"}),
	}
}

// Resolve runs the three strategies in order and returns the first hit.
// The returned result never carries a URL on error; the error text is in the
// snippet so callers can treat both cases alike.
func (r *Resolver) Resolve(ctx context.Context, q models.SearchQuery) (models.SearchResult, error) {
	brand := strings.TrimSpace(q.Brand)
	model := strings.TrimSpace(q.Model)
	sites := models.NormalizeSites(q.AllowedSites)

	if brand == "" || model == "" {
		return models.SearchResult{}, apperrors.NewInputValidationError("brand and model are required")
	}
	if len(sites) == 0 {
		return models.SearchResult{}, apperrors.NewInputValidationError("at least one site is required")
	}

	key := cache.Key("search", brand, model, strings.Join(sites, ","))
	if r.cache != nil {
		var cached models.SearchResult
		ok, err := cache.GetJSON(ctx, r.cache, key, &cached)
		if err != nil {
			r.logger.Warn("search cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if ok {
			if q.Debug {
				cached.Trace = []models.StrategyAttempt{{Query: cached.QueryUsed, Outcome: "cache hit"}}
			}
			return cached, nil
		}
	}

	run := &strategyRun{client: r.client, debug: q.Debug}
	result, err := run.resolve(ctx, brand, model, sites)
	if err != nil {
		r.logger.Error("search failed", map[string]interface{}{
			"brand": brand,
			"model": model,
			"error": err.Error(),
		})
		return models.SearchResult{
			Snippet: fmt.Sprintf("Error during Google Search: %v", err),
			Trace:   run.trace,
		}, apperrors.NewSearchAPIFailedError(err)
	}

	if result.Found() {
		metrics.SearchStrategyHits.WithLabelValues(strconv.Itoa(result.Strategy)).Inc()
	} else {
		metrics.SearchStrategyHits.WithLabelValues("none").Inc()
	}

	r.logger.Info("search resolved", map[string]interface{}{
		"brand":    brand,
		"model":    model,
		"found":    result.Found(),
		"strategy": result.Strategy,
		"query":    result.QueryUsed,
	})

	if r.cache != nil {
		stored := result
		stored.Trace = nil
		if err := cache.SetJSON(ctx, r.cache, key, stored, r.ttl); err != nil {
			r.logger.Warn("search cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	result.Trace = run.trace
	return result, nil
}

type strategyRun struct {
	client Client
	debug  bool
	trace  []models.StrategyAttempt
}

func (s *strategyRun) resolve(ctx context.Context, brand, model string, sites []string) (models.SearchResult, error) {
	disjunction := siteDisjunction(sites)

	// 1: broad query, prefer an item naming both brand and model
	query := fmt.Sprintf("%s %s %s", brand, model, disjunction)
	items, err := s.search(ctx, 1, query, broadResults)
	if err != nil {
		return models.SearchResult{}, err
	}
	if len(items) > 0 {
		best := items[0]
		outcome := "first result"
		for _, item := range items {
			if mentions(item, brand, model) {
				best = item
				outcome = "matched"
				break
			}
		}
		s.note(outcome)
		return hit(best, query, 1), nil
	}

	// 2: exact model phrase
	query = fmt.Sprintf(`%s "%s" %s`, brand, model, disjunction)
	items, err = s.search(ctx, 2, query, broadResults)
	if err != nil {
		return models.SearchResult{}, err
	}
	if len(items) > 0 {
		s.note("first result")
		return hit(items[0], query, 2), nil
	}

	// 3: one site at a time
	limit := perSiteAttempts
	if len(sites) < limit {
		limit = len(sites)
	}
	for _, site := range sites[:limit] {
		query = fmt.Sprintf("%s %s site:%s", brand, model, site)
		items, err = s.search(ctx, 3, query, perSiteResults)
		if err != nil {
			return models.SearchResult{}, err
		}
		if len(items) > 0 {
			s.note("first result")
			return hit(items[0], query, 3), nil
		}
	}

	return models.SearchResult{Snippet: NoResultsMessage}, nil
}

func (s *strategyRun) search(ctx context.Context, strategy int, query string, num int) ([]Item, error) {
	items, err := s.client.Search(ctx, query, num)
	if s.debug {
		attempt := models.StrategyAttempt{Strategy: strategy, Query: query, Items: len(items), Outcome: "no results"}
		if err != nil {
			attempt.Outcome = "error: " + err.Error()
		}
		s.trace = append(s.trace, attempt)
	}
	return items, err
}

func (s *strategyRun) note(outcome string) {
	if s.debug && len(s.trace) > 0 {
		s.trace[len(s.trace)-1].Outcome = outcome
	}
}

func siteDisjunction(sites []string) string {
	parts := make([]string, len(sites))
	for i, site := range sites {
		parts[i] = "site:" + site
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func mentions(item Item, brand, model string) bool {
	haystack := strings.ToLower(item.Title + " " + item.Snippet + " " + item.Link)
	return strings.Contains(haystack, strings.ToLower(brand)) &&
		strings.Contains(haystack, strings.ToLower(model))
}

func hit(item Item, query string, strategy int) models.SearchResult {
	return models.SearchResult{
		URL:       item.Link,
		Title:     item.Title,
		Snippet:   item.Snippet,
		QueryUsed: query,
		Strategy:  strategy,
	}
}
