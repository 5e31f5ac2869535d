package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/techwire/pkg/httpclient"
)

type webhookNotifier struct {
	id      string
	url     string
	method  string
	headers map[string]string
	timeout time.Duration
	client  httpclient.Client
	log     Logger
}

func newWebhookNotifier(_ context.Context, cfg NotifierConfig, deps Deps) (Notifier, error) {
	if cfg.Webhook == nil {
		return nil, fmt.Errorf("notifier %q missing webhook configuration", cfg.ID)
	}

	client := deps.HTTP
	if client == nil {
		client = httpclient.NewRestyClient(time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range cfg.Webhook.Headers {
		headers[k] = v
	}

	timeout := time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = webhookDefaultTimeoutSeconds * time.Second
	}
	method := cfg.Webhook.Method
	if method == "" {
		method = webhookDefaultMethod
	}

	return &webhookNotifier{
		id:      cfg.ID,
		url:     cfg.Webhook.URL,
		method:  method,
		headers: headers,
		timeout: timeout,
		client:  client,
		log:     ensureLogger(deps.Log),
	}, nil
}

func (w *webhookNotifier) ID() string   { return w.id }
func (w *webhookNotifier) Type() string { return TypeWebhook }

// Notify sends the event as a JSON body and expects a 2xx reply.
func (w *webhookNotifier) Notify(ctx context.Context, evt Event) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.client.Do(ctx, w.method, w.url, w.headers, evt)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 256 {
			body = body[:256] + "..."
		}
		return fmt.Errorf("webhook returned status %d body: %s", resp.StatusCode(), body)
	}

	w.log.DebugObj("webhook accepted digest", "notify_webhook_delivery", map[string]any{
		"notifier_id": w.id,
		"status":      resp.StatusCode(),
	})
	return nil
}
