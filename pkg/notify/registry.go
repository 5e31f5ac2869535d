package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/samvad-hq/techwire/pkg/httpclient"
)

// Builder creates a Notifier from a config entry.
type Builder func(ctx context.Context, cfg NotifierConfig, deps Deps) (Notifier, error)

// Deps are the shared collaborators handed to builders.
type Deps struct {
	HTTP httpclient.Client
	Log  Logger
}

// Registry maps notifier types to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with the given builders.
func NewRegistry(builders map[string]Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// DefaultRegistry knows the webhook and queue notifier types.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Builder{
		TypeWebhook: newWebhookNotifier,
		TypeQueue:   newQueueNotifier,
	})
}

// Register associates a builder with a notifier type.
func (r *Registry) Register(typ string, builder Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// Build instantiates the notifier for cfg.
func (r *Registry) Build(ctx context.Context, cfg NotifierConfig, deps Deps) (Notifier, error) {
	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no notifier registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, deps)
}

// BuildAll instantiates every config in order, stopping at the first failure.
func (r *Registry) BuildAll(ctx context.Context, cfgs []NotifierConfig, deps Deps) ([]Notifier, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	deps.Log = ensureLogger(deps.Log)

	out := make([]Notifier, 0, len(cfgs))
	for _, cfg := range cfgs {
		n, err := r.Build(ctx, cfg, deps)
		if err != nil {
			return nil, fmt.Errorf("build notifier %q: %w", cfg.ID, err)
		}
		out = append(out, n)
	}
	return out, nil
}
