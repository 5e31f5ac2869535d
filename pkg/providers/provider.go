package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Supported provider types.
	ProviderTypeWordPress  = "wordpress"
	ProviderTypeRSS        = "rss"
	ProviderTypeRSSOGImage = "rss-og-image"

	// DefaultLimit is the number of articles taken from each source.
	DefaultLimit = 5
)

// Provider describes one news source and how to fetch it.
type Provider struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Type           string            `json:"type" yaml:"type"`
	SourceURL      string            `json:"source_url" yaml:"source_url"`
	Limit          int               `json:"limit" yaml:"limit"`
	FallbackImage  string            `json:"fallback_image" yaml:"fallback_image"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	RequestDelayMS int               `json:"request_delay_ms" yaml:"request_delay_ms"`
	Enabled        *bool             `json:"enabled" yaml:"enabled"`
}

// DisplayName is the human readable source name, falling back to the id.
func (p Provider) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.ID
}

// LimitValue returns the configured limit or DefaultLimit.
func (p Provider) LimitValue() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// RequestDelay is the pause between consecutive requests to the same provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// EnabledValue returns the enabled flag defaulting to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// Matches reports whether a user selection names this provider, by id or display name.
func (p Provider) Matches(selection string) bool {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return false
	}
	return strings.EqualFold(selection, p.ID) || strings.EqualFold(selection, p.DisplayName())
}

// Headers returns a copy of the provider's request headers.
func Headers(cfg Provider) map[string]string {
	if len(cfg.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		out[k] = v
	}
	return out
}

// DefaultProviders returns the built-in sources in priority order.
func DefaultProviders() []Provider {
	return []Provider{
		{
			ID:        "techcrunch",
			Name:      "TechCrunch",
			Type:      ProviderTypeWordPress,
			SourceURL: "https://techcrunch.com/wp-json/wp/v2/posts",
			Limit:     DefaultLimit,
		},
		{
			ID:            "wired",
			Name:          "Wired",
			Type:          ProviderTypeRSS,
			SourceURL:     "https://www.wired.com/feed/rss",
			Limit:         DefaultLimit,
			FallbackImage: "https://www.wired.com/favicon.ico",
		},
		{
			ID:        "bbc-technology",
			Name:      "BBC Technology",
			Type:      ProviderTypeRSSOGImage,
			SourceURL: "http://feeds.bbci.co.uk/news/technology/rss.xml",
			Limit:     DefaultLimit,
		},
	}
}

type providersFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// LoadProviders reads providers from a YAML or JSON file. File order is priority order.
func LoadProviders(path string) ([]Provider, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("providers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	var file providersFile
	data := []byte(os.ExpandEnv(string(raw)))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode providers file: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	seen := make(map[string]struct{}, len(file.Providers))
	out := make([]Provider, 0, len(file.Providers))
	for i, p := range file.Providers {
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		p.Name = strings.TrimSpace(p.Name)
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		p.SourceURL = strings.TrimSpace(p.SourceURL)
		if err := validateProvider(p); err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func validateProvider(p Provider) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", p.ID)
	}
	switch p.Type {
	case ProviderTypeWordPress, ProviderTypeRSS, ProviderTypeRSSOGImage:
	case "":
		return fmt.Errorf("type is required for provider %q", p.ID)
	default:
		return fmt.Errorf("type %q not supported for provider %q", p.Type, p.ID)
	}
	if p.Limit < 0 {
		return fmt.Errorf("limit cannot be negative for provider %q", p.ID)
	}
	return nil
}
