package providers

import (
	"context"
	"strings"

	"github.com/samvad-hq/techwire/internal/domain"
)

// rssFetcher reads an RSS feed and takes images from item enclosures.
type rssFetcher struct {
	client HTTPClient
}

// NewRSSFetcher builds a fetcher for plain RSS providers.
func NewRSSFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssFetcher{client: client}
}

func (f *rssFetcher) ID() string {
	return ProviderTypeRSS
}

func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Article, error) {
	if err := checkProvider(cfg, ProviderTypeRSS); err != nil {
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

	fallback := strings.TrimSpace(cfg.FallbackImage)
	if fallback == "" {
		fallback = domain.NoImageAvailable
	}

	return buildArticlesFromRSS(cfg.ID, items, func(item rssItem) *string {
		if item.Enclosure != nil {
			if u := strings.TrimSpace(item.Enclosure.URL); u != "" {
				return domain.StringPtr(u)
			}
		}
		return domain.StringPtr(fallback)
	})
}
