package notify

import (
	"context"
	"fmt"
)

// queueSender abstracts provider-specific queue senders.
type queueSender interface {
	Send(ctx context.Context, evt Event) error
}

// queueNotifier dispatches events to a cloud queue provider.
type queueNotifier struct {
	id       string
	provider string
	sender   queueSender
}

// newQueueNotifier creates a queue notifier for the configured provider.
func newQueueNotifier(ctx context.Context, cfg NotifierConfig, deps Deps) (Notifier, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("notifier %q missing queue configuration", cfg.ID)
	}

	var (
		sender queueSender
		err    error
	)

	switch cfg.Queue.Provider {
	case QueueProviderAWSSQS:
		sender, err = newAWSSQSSender(ctx, cfg.Queue.SQS, deps.Log)
	case QueueProviderAWSSNS:
		sender, err = newAWSSNSSender(ctx, cfg.Queue.SNS, deps.Log)
	case QueueProviderGCP:
		sender, err = newGCPPubSubSender(ctx, cfg.Queue.PubSub, deps.Log)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &queueNotifier{
		id:       cfg.ID,
		provider: cfg.Queue.Provider,
		sender:   sender,
	}, nil
}

func (q *queueNotifier) ID() string   { return q.id }
func (q *queueNotifier) Type() string { return TypeQueue }

// Notify forwards the event to the configured queue provider.
func (q *queueNotifier) Notify(ctx context.Context, evt Event) error {
	if err := q.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("queue provider %s send failed: %w", q.provider, err)
	}
	return nil
}
