package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/techwire/internal/digest"
	"github.com/samvad-hq/techwire/internal/domain"
	"github.com/samvad-hq/techwire/internal/logger"
	"github.com/samvad-hq/techwire/pkg/httpclient"
)

func sampleEvent() Event {
	d := digest.New([]domain.SourceResult{
		{Source: "wired", Name: "Wired", Articles: []domain.Article{{
			Title: "Robots", Link: domain.StringPtr("https://wired.com/robots"),
			Image: domain.StringPtr("https://www.wired.com/favicon.ico"), Date: domain.StringPtr("Mon, 19 Oct 2026 07:00:00 +0000"),
		}}},
		{Source: "bbc-technology", Name: "BBC Technology", Err: errors.New("status 500")},
	}, time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC))
	return NewEvent(d)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigsYAML(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "s3cret")
	path := writeFile(t, "notifiers.yaml", `
notifiers:
  - id: " team-hook "
    type: Webhook
    webhook:
      url: https://hooks.example/digest
      headers:
        Authorization: Bearer ${HOOK_TOKEN}
        " ": dropped
  - id: digest-queue
    type: queue
    enabled: false
    queue:
      provider: AWS-SQS
      sqs:
        queue_url: https://sqs.eu-west-1.amazonaws.com/123/digests
        region: eu-west-1
  - id: digest-topic
    type: queue
    queue:
      provider: gcp
      pubsub:
        project_id: news-proj
        topic: digests
`)

	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 3)

	hook := cfgs[0]
	require.Equal(t, "team-hook", hook.ID)
	require.Equal(t, TypeWebhook, hook.Type)
	require.Equal(t, "POST", hook.Webhook.Method)
	require.Equal(t, webhookDefaultTimeoutSeconds, hook.Webhook.TimeoutSeconds)
	require.Equal(t, map[string]string{"Authorization": "Bearer s3cret"}, hook.Webhook.Headers)

	require.Equal(t, QueueProviderAWSSQS, cfgs[1].Queue.Provider)
	require.Equal(t, "eu-west-1", cfgs[1].Queue.SQS.Region)
	require.False(t, cfgs[1].EnabledValue())

	enabled := Enabled(cfgs)
	require.Len(t, enabled, 2)
	require.Equal(t, "digest-topic", enabled[1].ID)
}

func TestLoadConfigsJSON(t *testing.T) {
	path := writeFile(t, "notifiers.json", `{"notifiers":[{"id":"sns","type":"queue","queue":{"provider":"aws-sns","sns":{"topic_arn":"arn:aws:sns:us-east-1:1:d","region":"us-east-1","access_key_id":"AK","secret_access_key":"SK"}}}]}`)

	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	require.Equal(t, "AK", cfgs[0].Queue.SNS.AccessKeyID)
	require.Equal(t, "us-east-1", cfgs[0].Queue.SNS.Region)
}

func TestLoadConfigsValidation(t *testing.T) {
	cases := map[string]string{
		"empty":            `notifiers: []`,
		"no id":            "notifiers:\n  - type: webhook\n    webhook: {url: http://x}\n",
		"no type":          "notifiers:\n  - id: a\n",
		"unknown type":     "notifiers:\n  - id: a\n    type: email\n",
		"webhook no url":   "notifiers:\n  - id: a\n    type: webhook\n    webhook: {}\n",
		"queue missing":    "notifiers:\n  - id: a\n    type: queue\n",
		"queue provider":   "notifiers:\n  - id: a\n    type: queue\n    queue: {provider: azure}\n",
		"sqs no region":    "notifiers:\n  - id: a\n    type: queue\n    queue: {provider: aws-sqs, sqs: {queue_url: http://q}}\n",
		"sqs half keys":    "notifiers:\n  - id: a\n    type: queue\n    queue: {provider: aws-sqs, sqs: {queue_url: http://q, region: r, access_key_id: k}}\n",
		"pubsub no topic":  "notifiers:\n  - id: a\n    type: queue\n    queue: {provider: gcp, pubsub: {project_id: p}}\n",
		"duplicate ids":    "notifiers:\n  - id: a\n    type: webhook\n    webhook: {url: http://x}\n  - id: a\n    type: webhook\n    webhook: {url: http://y}\n",
		"sns no topic arn": "notifiers:\n  - id: a\n    type: queue\n    queue: {provider: aws-sns, sns: {region: r}}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigs(writeFile(t, "n.yaml", body))
			require.Error(t, err)
		})
	}

	_, err := LoadConfigs(writeFile(t, "n.toml", "x"))
	require.Error(t, err)
	_, err = LoadConfigs("")
	require.Error(t, err)
}

func TestWebhookNotifierPostsEvent(t *testing.T) {
	var gotMethod, gotAuth, gotType string
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := normalize(NotifierConfig{
		ID: "hook", Type: TypeWebhook,
		Webhook: &WebhookConfig{URL: srv.URL, Method: "put", Headers: map[string]string{"Authorization": "Bearer t"}},
	})
	n, err := DefaultRegistry().Build(context.Background(), cfg, Deps{HTTP: httpclient.NewRestyClient(time.Second)})
	require.NoError(t, err)
	require.Equal(t, TypeWebhook, n.Type())

	evt := sampleEvent()
	require.NoError(t, n.Notify(context.Background(), evt))
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "Bearer t", gotAuth)
	require.Contains(t, gotType, "application/json")
	require.Equal(t, evt.DigestID, got.DigestID)
	require.Len(t, got.Articles, 1)
	require.Equal(t, "Robots", got.Articles[0].Title)
	require.Len(t, got.Errors, 1)
}

func TestWebhookNotifierRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	n, err := newWebhookNotifier(context.Background(), normalize(NotifierConfig{
		ID: "hook", Type: TypeWebhook, Webhook: &WebhookConfig{URL: srv.URL},
	}), Deps{})
	require.NoError(t, err)

	err = n.Notify(context.Background(), sampleEvent())
	require.ErrorContains(t, err, "status 403")
}

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSSenderSendsJSONWithAttributes(t *testing.T) {
	fake := &fakeSQS{}
	s := &awsSQSSender{queueURL: "https://sqs/q", client: fake, log: logger.NopLogger{}}

	evt := sampleEvent()
	require.NoError(t, s.Send(context.Background(), evt))
	require.Equal(t, "https://sqs/q", aws.ToString(fake.input.QueueUrl))
	require.Equal(t, evt.DigestID, aws.ToString(fake.input.MessageAttributes["digest_id"].StringValue))
	require.Equal(t, "1", aws.ToString(fake.input.MessageAttributes["article_count"].StringValue))

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(fake.input.MessageBody)), &decoded))
	require.Equal(t, evt.DigestID, decoded.DigestID)

	fake.err = errors.New("throttled")
	require.ErrorContains(t, s.Send(context.Background(), evt), "throttled")
}

type fakeSNS struct {
	input *sns.PublishInput
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	return &sns.PublishOutput{MessageId: aws.String("m-2")}, nil
}

func TestSNSSenderPublishes(t *testing.T) {
	fake := &fakeSNS{}
	s := &awsSNSSender{topicARN: "arn:aws:sns:eu-west-1:1:d", client: fake, log: logger.NopLogger{}}

	require.NoError(t, s.Send(context.Background(), sampleEvent()))
	require.Equal(t, "arn:aws:sns:eu-west-1:1:d", aws.ToString(fake.input.TopicArn))
	require.Equal(t, "Tech news digest (1 articles)", aws.ToString(fake.input.Subject))
}

type fakeResult struct {
	id  string
	err error
}

func (r fakeResult) Get(context.Context) (string, error) { return r.id, r.err }

type fakeTopic struct {
	msg *pubsub.Message
	res fakeResult
}

func (f *fakeTopic) Publish(_ context.Context, msg *pubsub.Message) publishResult {
	f.msg = msg
	return f.res
}

func TestPubSubSender(t *testing.T) {
	topic := &fakeTopic{res: fakeResult{id: "p-1"}}
	s := &gcpPubSubSender{topic: topic, log: logger.NopLogger{}}

	evt := sampleEvent()
	require.NoError(t, s.Send(context.Background(), evt))
	require.Equal(t, evt.DigestID, topic.msg.Attributes["digest_id"])
	require.Contains(t, string(topic.msg.Data), `"digest_id"`)

	topic.res = fakeResult{err: errors.New("deadline")}
	require.ErrorContains(t, s.Send(context.Background(), evt), "deadline")
}

type recordingNotifier struct {
	id  string
	err error
	got []Event
}

func (r *recordingNotifier) ID() string   { return r.id }
func (r *recordingNotifier) Type() string { return "test" }
func (r *recordingNotifier) Notify(_ context.Context, evt Event) error {
	r.got = append(r.got, evt)
	return r.err
}

func TestDispatcherDeliversToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{id: "ok"}
	bad := &recordingNotifier{id: "bad", err: errors.New("down")}
	last := &recordingNotifier{id: "last"}

	d := NewDispatcher([]Notifier{ok, bad, last}, nil)
	require.Equal(t, 3, d.Len())

	err := d.Deliver(context.Background(), sampleEvent())
	require.ErrorContains(t, err, "notifier bad: down")
	require.Len(t, ok.got, 1)
	require.Len(t, bad.got, 1)
	require.Len(t, last.got, 1)

	require.NoError(t, NewDispatcher(nil, nil).Deliver(context.Background(), sampleEvent()))
}

func TestRegistryBuildAll(t *testing.T) {
	reg := NewRegistry(nil)
	built := &recordingNotifier{id: "r"}
	reg.Register("Test", func(context.Context, NotifierConfig, Deps) (Notifier, error) { return built, nil })
	reg.Register("", nil)

	ns, err := reg.BuildAll(context.Background(), []NotifierConfig{{ID: "r", Type: "test"}}, Deps{})
	require.NoError(t, err)
	require.Equal(t, []Notifier{built}, ns)

	_, err = reg.BuildAll(context.Background(), []NotifierConfig{{ID: "x", Type: "email"}}, Deps{})
	require.Error(t, err)
}
