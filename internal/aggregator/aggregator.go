package aggregator

import (
	"context"
	"time"

	"github.com/samvad-hq/techwire/internal/crawler"
	"github.com/samvad-hq/techwire/internal/domain"
	"github.com/samvad-hq/techwire/internal/logger"
	"github.com/samvad-hq/techwire/pkg/providers"
)

// Aggregator fetches the selected sources one after another in a fixed
// priority order and concatenates their results.
type Aggregator struct {
	registry  providers.FetcherRegistry
	providers []providers.Provider
	limit     int
	log       logger.Logger
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithLimit overrides the per-source article limit.
func WithLimit(limit int) Option {
	return func(a *Aggregator) {
		if limit > 0 {
			a.limit = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// New builds an Aggregator over the given providers, whose order is the
// priority order of the output. A nil provider list means DefaultProviders.
// A nil registry means the default fetchers with the og:image scraper.
func New(registry providers.FetcherRegistry, sources []providers.Provider, opts ...Option) *Aggregator {
	if sources == nil {
		sources = providers.DefaultProviders()
	}
	a := &Aggregator{
		registry:  registry,
		providers: append([]providers.Provider(nil), sources...),
		limit:     providers.DefaultLimit,
		log:       logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		client := providers.DefaultHTTPClient()
		a.registry = providers.DefaultFetcherRegistry(client, crawler.NewScraper(client, a.log))
	}
	return a
}

// Sources returns the known providers in priority order.
func (a *Aggregator) Sources() []providers.Provider {
	return append([]providers.Provider(nil), a.providers...)
}

// Fetch returns one result per selected source, in priority order regardless
// of the order of selected. Selections match a provider id or display name;
// unknown selections are ignored.
func (a *Aggregator) Fetch(ctx context.Context, selected []string) []domain.SourceResult {
	if ctx == nil {
		ctx = context.Background()
	}

	var results []domain.SourceResult
	for _, p := range a.providers {
		if !p.EnabledValue() || !isSelected(p, selected) {
			continue
		}
		results = append(results, a.fetchOne(ctx, p))
	}
	return results
}

// FetchNews returns the flat article list for the selected sources. A failed
// source contributes a single error placeholder record.
func (a *Aggregator) FetchNews(ctx context.Context, selected []string) []domain.Article {
	return domain.Flatten(a.Fetch(ctx, selected))
}

func (a *Aggregator) fetchOne(ctx context.Context, p providers.Provider) domain.SourceResult {
	res := domain.SourceResult{Source: p.ID, Name: p.DisplayName()}

	cfg := p
	if p.Limit <= 0 || p.Limit > a.limit {
		cfg.Limit = a.limit
	}

	start := time.Now()
	fetcher, err := a.registry.FetcherFor(cfg)
	if err == nil {
		res.Articles, err = fetcher.Fetch(ctx, cfg)
	}
	if err != nil {
		res.Articles = nil
		res.Err = err
		a.log.WarnObj("source fetch failed", "fetch_error", map[string]any{
			"provider_id": p.ID,
			"elapsed_ms":  time.Since(start).Milliseconds(),
			"error":       err.Error(),
		})
		return res
	}

	if len(res.Articles) > cfg.Limit {
		res.Articles = res.Articles[:cfg.Limit]
	}

	a.log.InfoObj("source fetched", "fetch_result", map[string]any{
		"provider_id": p.ID,
		"articles":    len(res.Articles),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return res
}

func isSelected(p providers.Provider, selected []string) bool {
	for _, s := range selected {
		if p.Matches(s) {
			return true
		}
	}
	return false
}
