package providers

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/samvad-hq/techwire/internal/domain"
	"github.com/samvad-hq/techwire/pkg/httpclient"
)

// responseSnippet returns a truncated snippet of the response body for error messages.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchBody retrieves url and fails on transport errors and non-2xx statuses.
func fetchBody(ctx context.Context, client httpclient.Client, url, providerID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", providerID, err)
	}

	body := resp.Body()
	if !httpclient.IsSuccess(resp) {
		return nil, fmt.Errorf("%s returned status %d body: %s", providerID, resp.StatusCode(), responseSnippet(body))
	}

	return body, nil
}

type rssDocument struct {
	Channel struct {
		Items []rawRSSItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title     *string
	Link      *string
	PubDate   *string
	Enclosure *rssEnclosure
}

// rawRSSItem collects every title, link, pubDate and enclosure child,
// namespaced ones (media:title, atom:link) included.
type rawRSSItem struct {
	Titles     []rssText      `xml:"title"`
	Links      []rssText      `xml:"link"`
	PubDates   []rssText      `xml:"pubDate"`
	Enclosures []rssEnclosure `xml:"enclosure"`
}

type rssText struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type rssEnclosure struct {
	XMLName xml.Name
	URL     string `xml:"url,attr"`
}

// item keeps the first un-namespaced element of each kind.
func (r rawRSSItem) item() rssItem {
	var it rssItem
	it.Title = firstPlain(r.Titles)
	it.Link = firstPlain(r.Links)
	it.PubDate = firstPlain(r.PubDates)
	for i := range r.Enclosures {
		if r.Enclosures[i].XMLName.Space == "" {
			enc := r.Enclosures[i]
			it.Enclosure = &enc
			break
		}
	}
	return it
}

func firstPlain(elems []rssText) *string {
	for _, e := range elems {
		if e.XMLName.Space == "" {
			v := e.Value
			return &v
		}
	}
	return nil
}

// parseRSSItems decodes an RSS 2.0 document and returns the first limit items in document order.
func parseRSSItems(data []byte, limit int) ([]rssItem, error) {
	var doc rssDocument
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rss: %w", err)
	}

	raw := doc.Channel.Items
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	items := make([]rssItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, r.item())
	}
	return items, nil
}

// buildArticlesFromRSS maps feed items onto articles. A missing <title> or
// <link> fails the whole feed; a missing <pubDate> becomes the date sentinel.
// Image is set by imageFor, which may return nil to leave it for enrichment.
func buildArticlesFromRSS(providerID string, items []rssItem, imageFor func(rssItem) *string) ([]domain.Article, error) {
	articles := make([]domain.Article, 0, len(items))
	for i, item := range items {
		if item.Title == nil {
			return nil, fmt.Errorf("item %d has no title", i)
		}
		if item.Link == nil {
			return nil, fmt.Errorf("item %d has no link", i)
		}

		date := domain.NoDateAvailable
		if item.PubDate != nil {
			date = strings.TrimSpace(*item.PubDate)
		}

		articles = append(articles, domain.Article{
			Title:  strings.TrimSpace(*item.Title),
			Link:   domain.StringPtr(strings.TrimSpace(*item.Link)),
			Image:  imageFor(item),
			Date:   domain.StringPtr(date),
			Source: providerID,
		})
	}
	return articles, nil
}

// checkProvider validates the provider type and source url before a fetch.
func checkProvider(cfg Provider, providerType string) error {
	if !strings.EqualFold(cfg.Type, providerType) {
		return fmt.Errorf("%s fetcher received incompatible provider type %q", providerType, cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}
	return nil
}
