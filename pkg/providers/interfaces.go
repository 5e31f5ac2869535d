package providers

import (
	"context"

	"github.com/samvad-hq/techwire/internal/domain"
	"github.com/samvad-hq/techwire/pkg/httpclient"
)

// Fetcher defines the interface for news provider fetchers.
// Implementations handle one provider type and return at most cfg.LimitValue() articles.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.Article, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// ImageEnricher fills the Image field of feed articles from their linked pages.
type ImageEnricher interface {
	EnrichImages(ctx context.Context, cfg Provider, articles []domain.Article) []domain.Article
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
