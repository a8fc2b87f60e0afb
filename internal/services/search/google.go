package search

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"perfume-studio/internal/common/config"
)

// GoogleClient queries a Programmable Search Engine through the Custom Search JSON API.
type GoogleClient struct {
	service  *customsearch.Service
	engineID string
	timeout  time.Duration
}

func NewGoogleClient(ctx context.Context, cfg config.SearchAPIConfig) (*GoogleClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}

	return &GoogleClient{
		service:  service,
		engineID: cfg.EngineID,
		timeout:  config.GetDuration(cfg.Timeout),
	}, nil
}

func (g *GoogleClient) Search(ctx context.Context, query string, num int) ([]Item, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := g.service.Cse.List().
		Q(query).
		Cx(g.engineID).
		Num(int64(num)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(res.Items))
	for _, r := range res.Items {
		items = append(items, Item{Title: r.Title, Snippet: r.Snippet, Link: r.Link})
	}
	return items, nil
}
