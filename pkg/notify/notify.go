package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/samvad-hq/techwire/internal/digest"
	"github.com/samvad-hq/techwire/internal/domain"
	"github.com/samvad-hq/techwire/internal/logger"
)

// Logger is the structured logger notifiers report through.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}

// Event is the payload delivered to every notifier for one digest.
type Event struct {
	DigestID    string               `json:"digest_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Sources     []string             `json:"sources"`
	Articles    []domain.Article     `json:"articles"`
	Errors      []digest.SourceError `json:"errors,omitempty"`
}

// NewEvent builds the notification payload for a digest.
func NewEvent(d digest.Digest) Event {
	return Event{
		DigestID:    d.ID,
		GeneratedAt: d.GeneratedAt,
		Sources:     d.Sources,
		Articles:    d.Articles,
		Errors:      d.Errors,
	}
}

// attributes are the message attributes queue providers attach to an event.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"digest_id":     e.DigestID,
		"article_count": strconv.Itoa(len(e.Articles)),
	}
}

// Notifier delivers digest events to one destination.
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, evt Event) error
}

// Dispatcher fans an event out to a fixed list of notifiers, one at a time.
type Dispatcher struct {
	notifiers []Notifier
	log       Logger
}

// NewDispatcher builds a dispatcher over the given notifiers.
func NewDispatcher(notifiers []Notifier, log Logger) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, log: ensureLogger(log)}
}

// Len returns the number of notifiers.
func (d *Dispatcher) Len() int { return len(d.notifiers) }

// Deliver sends evt to every notifier. A failing notifier does not stop the
// others; all failures are joined into the returned error.
func (d *Dispatcher) Deliver(ctx context.Context, evt Event) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, evt); err != nil {
			d.log.ErrorObj("digest notification failed", "notify_error", map[string]any{
				"notifier_id": n.ID(),
				"type":        n.Type(),
				"digest_id":   evt.DigestID,
				"error":       err.Error(),
			})
			errs = append(errs, fmt.Errorf("notifier %s: %w", n.ID(), err))
			continue
		}
		d.log.InfoObj("digest notification delivered", "notify_delivery", map[string]any{
			"notifier_id": n.ID(),
			"type":        n.Type(),
			"digest_id":   evt.DigestID,
		})
	}
	return errors.Join(errs...)
}
