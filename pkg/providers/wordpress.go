package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/techwire/internal/domain"
)

// wordpressPost is the slice of a WP REST /wp/v2/posts entry we read.
type wordpressPost struct {
	Title *struct {
		Rendered *string `json:"rendered"`
	} `json:"title"`
	Link          *string `json:"link"`
	FeaturedImage *string `json:"jetpack_featured_media_url"`
	Date          *string `json:"date"`
}

// wordpressFetcher reads the first page of a WordPress REST posts endpoint.
type wordpressFetcher struct {
	client HTTPClient
}

// NewWordPressFetcher builds a fetcher for WordPress REST API providers.
func NewWordPressFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &wordpressFetcher{client: client}
}

func (f *wordpressFetcher) ID() string {
	return ProviderTypeWordPress
}

func (f *wordpressFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Article, error) {
	if err := checkProvider(cfg, ProviderTypeWordPress); err != nil {
		return nil, err
	}

	limit := cfg.LimitValue()
	endpoint, err := withPageSize(cfg.SourceURL, limit)
	if err != nil {
		return nil, err
	}

	raw, err := fetchBody(ctx, f.client, endpoint, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	var posts []wordpressPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("decode wordpress posts: %w", err)
	}
	if posts == nil {
		return nil, errors.New("wordpress payload is not an array")
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}

	articles := make([]domain.Article, 0, len(posts))
	for i, post := range posts {
		if post.Title == nil || post.Title.Rendered == nil {
			return nil, fmt.Errorf("post %d has no title.rendered", i)
		}
		if post.Link == nil {
			return nil, fmt.Errorf("post %d has no link", i)
		}

		image := domain.NoImageAvailable
		if post.FeaturedImage != nil {
			image = *post.FeaturedImage
		}
		date := domain.NoDateAvailable
		if post.Date != nil {
			date = *post.Date
		}

		articles = append(articles, domain.Article{
			Title:  *post.Title.Rendered,
			Link:   domain.StringPtr(*post.Link),
			Image:  domain.StringPtr(image),
			Date:   domain.StringPtr(date),
			Source: cfg.ID,
		})
	}
	return articles, nil
}

// withPageSize sets per_page on the endpoint, keeping any existing query.
func withPageSize(raw string, limit int) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse source_url: %w", err)
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
