package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/techwire/internal/domain"
	"github.com/samvad-hq/techwire/internal/logger"
	"github.com/samvad-hq/techwire/pkg/httpclient"
	"github.com/samvad-hq/techwire/pkg/providers"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// ErrNoOGImage is returned when a page has no usable og:image meta tag.
var ErrNoOGImage = errors.New("page has no og:image meta tag")

// Scraper recovers article images by fetching the article pages.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewScraper creates a new Scraper with the given HTTP client and logger.
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scraper{client: client, log: log, sleep: sleepCtx}
}

// EnrichImages sets each article's Image from its page's og:image tag, one
// page at a time in article order. Articles whose page cannot be fetched or
// carries no tag get domain.NoImageAvailable.
func (s *Scraper) EnrichImages(ctx context.Context, cfg providers.Provider, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles)

	delay := cfg.RequestDelay()
	for idx := range out {
		if idx > 0 && delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				fillMissingImages(out[idx:])
				return out
			}
		}

		link := domain.Value(out[idx].Link)
		img, err := s.ImageFor(ctx, cfg, link)
		if err != nil {
			s.log.WarnObj("article image scrape failed", "image_error", map[string]any{
				"provider_id": cfg.ID,
				"url":         link,
				"error":       err.Error(),
			})
			img = domain.NoImageAvailable
		}
		out[idx].Image = domain.StringPtr(img)
	}

	return out
}

// ImageFor fetches the article page and returns its og:image content resolved against the page url.
func (s *Scraper) ImageFor(ctx context.Context, cfg providers.Provider, articleURL string) (string, error) {
	if strings.TrimSpace(articleURL) == "" {
		return "", errors.New("article url is empty")
	}

	s.log.DebugObj("scraping article image", "scrape_start", map[string]any{
		"provider_id": cfg.ID,
		"url":         articleURL,
	})

	resp, err := s.client.Get(ctx, articleURL, providers.Headers(cfg))
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}

	if !httpclient.IsSuccess(resp) {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.InfoObj("html body truncated", "truncation", map[string]any{
			"provider_id": cfg.ID,
			"url":         articleURL,
			"original":    len(body),
			"kept":        maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	image, err := parseOGImage(body)
	if err != nil {
		return "", err
	}
	return resolveURL(image, articleURL), nil
}

// parseOGImage extracts the og:image meta content from the HTML body.
func parseOGImage(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	node := doc.Find(`meta[property="og:image"]`).First()
	if node.Length() == 0 {
		return "", ErrNoOGImage
	}
	val, ok := node.Attr("content")
	if !ok || strings.TrimSpace(val) == "" {
		return "", ErrNoOGImage
	}
	return strings.TrimSpace(val), nil
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}

	return baseURL.ResolveReference(parsed).String()
}

func fillMissingImages(articles []domain.Article) {
	for i := range articles {
		if articles[i].Image == nil {
			articles[i].Image = domain.StringPtr(domain.NoImageAvailable)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
