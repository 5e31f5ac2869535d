package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported notifier types.
	TypeQueue   = "queue"
	TypeWebhook = "webhook"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	webhookDefaultMethod         = "POST"
	webhookDefaultTimeoutSeconds = 5
)

type configFile struct {
	Notifiers []NotifierConfig `json:"notifiers" yaml:"notifiers"`
}

// NotifierConfig is one notifier entry of the notifiers file.
type NotifierConfig struct {
	ID      string         `json:"id" yaml:"id"`
	Type    string         `json:"type" yaml:"type"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
	Queue   *QueueConfig   `json:"queue" yaml:"queue"`
	Webhook *WebhookConfig `json:"webhook" yaml:"webhook"`
}

// QueueConfig selects a cloud queue provider and its settings.
type QueueConfig struct {
	Provider string        `json:"provider" yaml:"provider"`
	SQS      *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub   *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSCredentials are optional static keys; when empty the default AWS chain applies.
type AWSCredentials struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSConfig targets an SQS queue.
type SQSConfig struct {
	QueueURL       string `json:"queue_url" yaml:"queue_url"`
	AWSCredentials `yaml:",inline"`
}

// SNSConfig targets an SNS topic.
type SNSConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	AWSCredentials `yaml:",inline"`
}

// PubSubConfig targets a Google Cloud Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// WebhookConfig posts the event as JSON to a URL.
type WebhookConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// EnabledValue returns the enabled flag defaulting to true.
func (c NotifierConfig) EnabledValue() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// LoadConfigs reads notifier entries from a YAML or JSON file. Environment
// variables in the file are expanded before decoding.
func LoadConfigs(path string) ([]NotifierConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("notifiers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notifiers file: %w", err)
	}
	data := []byte(os.ExpandEnv(string(raw)))

	var file configFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("notifiers file %q: unsupported extension (expected .yaml, .yml or .json)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode notifiers file: %w", err)
	}
	if len(file.Notifiers) == 0 {
		return nil, errors.New("notifiers file contains no notifiers entries")
	}

	seen := make(map[string]struct{}, len(file.Notifiers))
	out := make([]NotifierConfig, 0, len(file.Notifiers))
	for i, cfg := range file.Notifiers {
		cfg = normalize(cfg)
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("notifiers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate notifier id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		out = append(out, cfg)
	}
	return out, nil
}

// Enabled filters out disabled entries.
func Enabled(cfgs []NotifierConfig) []NotifierConfig {
	out := make([]NotifierConfig, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

func normalize(cfg NotifierConfig) NotifierConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Queue != nil {
		q := *cfg.Queue
		q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
		if q.SQS != nil {
			s := *q.SQS
			s.QueueURL = strings.TrimSpace(s.QueueURL)
			s.AWSCredentials = trimCredentials(s.AWSCredentials)
			q.SQS = &s
		}
		if q.SNS != nil {
			s := *q.SNS
			s.TopicARN = strings.TrimSpace(s.TopicARN)
			s.AWSCredentials = trimCredentials(s.AWSCredentials)
			q.SNS = &s
		}
		if q.PubSub != nil {
			p := *q.PubSub
			p.ProjectID = strings.TrimSpace(p.ProjectID)
			p.Topic = strings.TrimSpace(p.Topic)
			p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
			q.PubSub = &p
		}
		cfg.Queue = &q
	}

	if cfg.Webhook != nil {
		w := *cfg.Webhook
		w.URL = strings.TrimSpace(w.URL)
		w.Method = strings.ToUpper(strings.TrimSpace(w.Method))
		if w.Method == "" {
			w.Method = webhookDefaultMethod
		}
		w.Headers = cleanHeaders(w.Headers)
		if w.TimeoutSeconds <= 0 {
			w.TimeoutSeconds = webhookDefaultTimeoutSeconds
		}
		cfg.Webhook = &w
	}

	return cfg
}

func trimCredentials(c AWSCredentials) AWSCredentials {
	return AWSCredentials{
		Region:          strings.TrimSpace(c.Region),
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
	}
}

// cleanHeaders drops headers with an empty name or value.
func cleanHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key, val := strings.TrimSpace(k), strings.TrimSpace(v)
		if key != "" && val != "" {
			out[key] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validate(cfg NotifierConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	switch cfg.Type {
	case TypeWebhook:
		if cfg.Webhook == nil || cfg.Webhook.URL == "" {
			return fmt.Errorf("webhook.url is required for notifier %q", cfg.ID)
		}
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for notifier %q", cfg.ID)
		}
		return validateQueue(cfg.ID, cfg.Queue)
	case "":
		return fmt.Errorf("type is required for notifier %q", cfg.ID)
	default:
		return fmt.Errorf("type %q not supported for notifier %q", cfg.Type, cfg.ID)
	}
	return nil
}

func validateQueue(id string, q *QueueConfig) error {
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.SQS == nil || q.SQS.QueueURL == "" {
			return fmt.Errorf("queue.sqs.queue_url is required for notifier %q", id)
		}
		return validateCredentials(id, "sqs", q.SQS.AWSCredentials)
	case QueueProviderAWSSNS:
		if q.SNS == nil || q.SNS.TopicARN == "" {
			return fmt.Errorf("queue.sns.topic_arn is required for notifier %q", id)
		}
		return validateCredentials(id, "sns", q.SNS.AWSCredentials)
	case QueueProviderGCP:
		if q.PubSub == nil || q.PubSub.ProjectID == "" {
			return fmt.Errorf("queue.pubsub.project_id is required for notifier %q", id)
		}
		if q.PubSub.Topic == "" {
			return fmt.Errorf("queue.pubsub.topic is required for notifier %q", id)
		}
	case "":
		return fmt.Errorf("queue.provider is required for notifier %q", id)
	default:
		return fmt.Errorf("queue provider %q not supported for notifier %q", q.Provider, id)
	}
	return nil
}

func validateCredentials(id, section string, c AWSCredentials) error {
	if c.Region == "" {
		return fmt.Errorf("queue.%s.region is required for notifier %q", section, id)
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("queue.%s access_key_id and secret_access_key must be set together for notifier %q", section, id)
	}
	return nil
}
