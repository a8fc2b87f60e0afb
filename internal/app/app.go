// Package app builds the shared object graph used by the web server, the
// one-shot CLI and the Zeebe worker manager.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"perfume-studio/internal/common/cache"
	"perfume-studio/internal/common/config"
	"perfume-studio/internal/common/database"
	commonhttp "perfume-studio/internal/common/http"
	"perfume-studio/internal/common/logger"
	"perfume-studio/internal/common/observability"
	"perfume-studio/internal/services/archive"
	"perfume-studio/internal/services/pipeline"
	"perfume-studio/internal/services/scraper"
	"perfume-studio/internal/services/search"
	"perfume-studio/internal/services/textgen"
	"perfume-studio/internal/session"
)

type App struct {
	Config        *config.Config
	Logger        logger.Logger
	Resolver      *search.Resolver
	Extractor     *scraper.Extractor
	Generator     *textgen.Service
	Archive       *archive.Archive
	Sessions      session.Store
	Pipeline      *pipeline.Orchestrator
	Observability *observability.Observability

	checks  []func(context.Context) error
	closers []func() error
}

type options struct {
	searchClient search.Client
	fetcher      scraper.Fetcher
	backend      textgen.Backend
	sleep        textgen.SleepFunc
}

type Option func(*options)

// WithSearchClient replaces the Custom Search client.
func WithSearchClient(c search.Client) Option {
	return func(o *options) { o.searchClient = c }
}

// WithFetcher replaces the page fetcher.
func WithFetcher(f scraper.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithBackend replaces the generative model backend.
func WithBackend(b textgen.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithSleep replaces the wait between generation attempts.
func WithSleep(fn textgen.SleepFunc) Option {
	return func(o *options) { o.sleep = fn }
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: log}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	var rdb *redis.Client
	if cfg.Cache.Backend == "redis" || cfg.Session.Backend == "redis" {
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.checks = append(a.checks, client.Ping)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		rdb = client.Client
	}

	searchCache, scrapeCache := buildCaches(cfg, rdb)

	searchClient := o.searchClient
	if searchClient == nil {
		g, err := search.NewGoogleClient(ctx, cfg.APIs.Search)
		if err != nil {
			return nil, err
		}
		searchClient = g
	}
	a.Resolver = search.NewResolver(searchClient, searchCache, config.GetDuration(cfg.Cache.SearchTTL), searchLogger{log})

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = commonhttp.NewClient(config.GetDuration(cfg.Scraper.Timeout), cfg.Scraper.UserAgent)
	}
	a.Extractor = scraper.NewExtractor(fetcher, scrapeCache, config.GetDuration(cfg.Cache.ScrapeTTL), cfg.Scraper.MaxChars, scraperLogger{log})

	backend := o.backend
	if backend == nil {
		b, err := textgen.NewGenAIBackend(ctx, cfg.APIs.GenAI)
		if err != nil {
			return nil, err
		}
		backend = b
	}
	a.Generator = textgen.NewService(backend, textgen.Options{
		DefaultModel:  cfg.APIs.GenAI.DefaultModel,
		MaxAttempts:   cfg.APIs.GenAI.MaxAttempts,
		TransientWait: config.GetDuration(cfg.APIs.GenAI.TransientWait),
		Downgrades:    cfg.APIs.GenAI.Downgrades,
	}, textgenLogger{log})
	if o.sleep != nil {
		a.Generator.WithSleep(o.sleep)
	}

	if cfg.Archive.Enabled {
		arch, err := a.buildArchive(ctx)
		if err != nil {
			return nil, err
		}
		a.Archive = arch
	}

	switch cfg.Session.Backend {
	case "redis":
		a.Sessions = session.NewRedisStore(rdb, config.GetDuration(cfg.Session.TTL))
	default:
		a.Sessions = session.NewMemoryStore(config.GetDuration(cfg.Session.TTL))
	}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		// The exporter registers on the default registry once per process.
		log.Warn("otel metrics disabled", map[string]interface{}{"error": err.Error()})
	} else {
		a.Observability = obs
		a.closers = append(a.closers, func() error { return obs.Shutdown(context.Background()) })
	}

	pipelineOpts := pipeline.Options{
		DefaultModel:  cfg.APIs.GenAI.DefaultModel,
		Models:        cfg.APIs.GenAI.Models,
		Observability: a.Observability,
	}
	if a.Archive != nil {
		pipelineOpts.Archiver = a.Archive
	}
	a.Pipeline = pipeline.New(a.Resolver, a.Extractor, a.Generator, pipelineOpts, pipelineLogger{log})

	ok = true
	return a, nil
}

func buildCaches(cfg *config.Config, rdb *redis.Client) (cache.Cache, cache.Cache) {
	if cfg.Cache.Backend == "redis" {
		shared := cache.NewRedis(rdb, cfg.Cache.KeyPrefix)
		return cache.Instrumented("search", shared), cache.Instrumented("scrape", shared)
	}
	return cache.Instrumented("search", cache.NewMemory(cache.WithMaxEntries(1000))),
		cache.Instrumented("scrape", cache.NewMemory(cache.WithMaxEntries(200)))
}

func (a *App) buildArchive(ctx context.Context) (*archive.Archive, error) {
	cfg := a.Config

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pg.Close)
	a.checks = append(a.checks, pg.Ping)

	store := archive.NewStore(pg.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("archive schema: %w", err)
	}

	var index archive.RecordIndex
	if cfg.Archive.IndexEnabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		if err := es.Ping(ctx); err != nil {
			return nil, fmt.Errorf("elasticsearch ping: %w", err)
		}
		a.checks = append(a.checks, es.Ping)
		index = archive.NewIndex(es.Client, cfg.Database.Elasticsearch.Index)
	}

	return archive.New(store, index, cfg.Archive.HistoryLimit, archiveLogger{a.Logger}), nil
}

// Ready pings every backing service the app opened.
func (a *App) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
