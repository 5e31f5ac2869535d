package digest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/techwire/internal/domain"
)

// SourceError records a source that could not be fetched.
type SourceError struct {
	Source  string `json:"source"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Digest is one rendered batch of news, as shown to the reader, stored in
// history and handed to notifiers.
type Digest struct {
	ID          string           `json:"id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Sources     []string         `json:"sources"`
	Articles    []domain.Article `json:"articles"`
	Errors      []SourceError    `json:"errors,omitempty"`
}

// New builds a digest from per-source results. Articles keep result order;
// failed sources are listed in Errors instead of as fake articles.
func New(results []domain.SourceResult, now time.Time) Digest {
	d := Digest{
		ID:          uuid.NewString(),
		GeneratedAt: now.UTC(),
		Sources:     make([]string, 0, len(results)),
		Articles:    []domain.Article{},
	}
	for _, res := range results {
		d.Sources = append(d.Sources, res.Source)
		if res.Err != nil {
			d.Errors = append(d.Errors, SourceError{Source: res.Source, Name: res.Name, Message: res.Err.Error()})
			continue
		}
		d.Articles = append(d.Articles, res.Articles...)
	}
	return d
}

// Empty reports whether the digest has neither articles nor errors.
func (d Digest) Empty() bool {
	return len(d.Articles) == 0 && len(d.Errors) == 0
}

// WriteText renders the digest as a numbered list, one card per article,
// followed by one line per failed source.
func WriteText(w io.Writer, d Digest) error {
	if d.Empty() {
		_, err := fmt.Fprintln(w, "No news found.")
		return err
	}

	var b strings.Builder
	if len(d.Articles) > 0 {
		fmt.Fprintf(&b, "Here are the top %d news articles:\n\n", len(d.Articles))
	}
	for i, a := range d.Articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "   Image: %s\n", orNone(a.Image))
		fmt.Fprintf(&b, "   Date Published: %s\n", orNone(a.Date))
		fmt.Fprintf(&b, "   Read More: %s\n\n", orNone(a.Link))
	}
	for _, e := range d.Errors {
		fmt.Fprintf(&b, "! Error fetching %s news: %s\n", e.Name, e.Message)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the digest as indented JSON.
func WriteJSON(w io.Writer, d Digest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}
	return nil
}

func orNone(p *string) string {
	if p == nil {
		return "None"
	}
	return *p
}
