package domain

import "fmt"

// Domain contains core models shared by providers, the aggregator and renderers.

const (
	// NoImageAvailable replaces an image URL a source could not supply.
	NoImageAvailable = "No Image Available"
	// NoDateAvailable replaces a publication date a source did not supply.
	NoDateAvailable = "No Date Available"
)

// Article is one normalized news item. Link, Image and Date are nil only on
// error placeholder records.
type Article struct {
	Title  string  `json:"title"`
	Link   *string `json:"link"`
	Image  *string `json:"image"`
	Date   *string `json:"date"`
	Source string  `json:"source,omitempty"`
}

// SourceResult is the outcome of fetching a single source: either articles or an error.
type SourceResult struct {
	Source   string
	Name     string
	Articles []Article
	Err      error
}

// OK reports whether the source was fetched successfully.
func (r SourceResult) OK() bool { return r.Err == nil }

// Records returns the articles of a successful fetch, or a single error
// placeholder record when the fetch failed.
func (r SourceResult) Records() []Article {
	if r.Err != nil {
		rec := ErrorRecord(r.Name, r.Err)
		rec.Source = r.Source
		return []Article{rec}
	}
	return r.Articles
}

// ErrorRecord builds the placeholder record used to surface a failed source in a flat list.
func ErrorRecord(sourceName string, err error) Article {
	return Article{Title: fmt.Sprintf("Error fetching %s news: %v", sourceName, err)}
}

// Flatten concatenates the records of every result, keeping result order.
func Flatten(results []SourceResult) []Article {
	out := make([]Article, 0, len(results))
	for _, res := range results {
		out = append(out, res.Records()...)
	}
	return out
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string { return &s }

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
