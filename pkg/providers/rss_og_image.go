package providers

import (
	"context"

	"github.com/samvad-hq/techwire/internal/domain"
)

// rssOGImageFetcher reads an RSS feed whose items carry no usable image and
// recovers one from each linked page's og:image tag.
type rssOGImageFetcher struct {
	client   HTTPClient
	enricher ImageEnricher
}

// NewRSSOGImageFetcher builds a fetcher for RSS providers that need page scraping for images.
func NewRSSOGImageFetcher(client HTTPClient, enricher ImageEnricher) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssOGImageFetcher{client: client, enricher: enricher}
}

func (f *rssOGImageFetcher) ID() string {
	return ProviderTypeRSSOGImage
}

func (f *rssOGImageFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Article, error) {
	if err := checkProvider(cfg, ProviderTypeRSSOGImage); err != nil {
		return nil, err
	}

	raw, err := fetchBody(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	items, err := parseRSSItems(raw, cfg.LimitValue())
	if err != nil {
		return nil, err
	}

	articles, err := buildArticlesFromRSS(cfg.ID, items, func(rssItem) *string { return nil })
	if err != nil {
		return nil, err
	}

	if f.enricher != nil {
		articles = f.enricher.EnrichImages(ctx, cfg, articles)
	}
	for i := range articles {
		if articles[i].Image == nil {
			articles[i].Image = domain.StringPtr(domain.NoImageAvailable)
		}
	}
	return articles, nil
}
