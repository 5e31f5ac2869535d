package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"title":{"rendered":"TC story"},"link":"https://techcrunch.com/tc","date":"2026-10-19T06:00:00"}]`))
	})
	mux.HandleFunc("/feed/rss", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<rss version="2.0"><channel><item><title>Wired story</title><link>https://wired.com/w</link></item></channel></rss>`))
	})
	mux.HandleFunc("/news/technology/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setup(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	providersFile := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(providersFile, []byte(fmt.Sprintf(`
providers:
  - id: techcrunch
    name: TechCrunch
    type: wordpress
    source_url: %[1]s/wp-json/wp/v2/posts
  - id: wired
    name: Wired
    type: rss
    source_url: %[1]s/feed/rss
    fallback_image: https://www.wired.com/favicon.ico
  - id: bbc-technology
    name: BBC Technology
    type: rss-og-image
    source_url: %[1]s/news/technology/rss.xml
`, srv.URL)), 0o600))

	t.Setenv("TECHWIRE_PROVIDERS_FILE", providersFile)
	t.Setenv("TECHWIRE_HISTORY_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("TECHWIRE_LOG_LEVEL", "error")
	t.Setenv("TECHWIRE_NOTIFIERS_FILE", "")
	return dir
}

func TestRunPrintsDigestInPriorityOrder(t *testing.T) {
	setup(t, upstream(t))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--sources", "BBC Technology,Wired,TechCrunch"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	tc := strings.Index(out, "1. TC story")
	wired := strings.Index(out, "2. Wired story")
	bbc := strings.Index(out, "! Error fetching BBC Technology news:")
	require.True(t, tc >= 0 && wired > tc && bbc > wired, out)
	require.Contains(t, out, "Image: No Image Available")
	require.Contains(t, out, "Image: https://www.wired.com/favicon.ico")
}

func TestRunJSONAndHistory(t *testing.T) {
	setup(t, upstream(t))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-s", "wired", "-f", "json", "--save"}, &stdout, &stderr), stderr.String())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	require.Equal(t, []any{"wired"}, decoded["sources"])

	stdout.Reset()
	require.Equal(t, 0, run([]string{"--history", "1"}, &stdout, &stderr), stderr.String())
	require.Contains(t, stdout.String(), "1. Wired story")
}

func TestRunNotifyWithoutNotifiersFile(t *testing.T) {
	setup(t, upstream(t))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{"-s", "wired", "--notify"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "notifiers_file is not configured")
}

func TestRunNotifyWebhook(t *testing.T) {
	dir := setup(t, upstream(t))

	var hits int
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	notifiers := filepath.Join(dir, "notifiers.yaml")
	require.NoError(t, os.WriteFile(notifiers, []byte("notifiers:\n  - id: hook\n    type: webhook\n    webhook:\n      url: "+hook.URL+"\n"), 0o600))
	t.Setenv("TECHWIRE_NOTIFIERS_FILE", notifiers)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-s", "techcrunch", "--notify"}, &stdout, &stderr), stderr.String())
	require.Equal(t, 1, hits)
}

func TestParseFlagsRejectsUnknownFormat(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"--format", "xml"}, &stderr)
	require.Error(t, err)
	require.Contains(t, stderr.String(), "unknown format")
}

func TestRunEmptySelection(t *testing.T) {
	setup(t, upstream(t))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-s", "Hacker News"}, &stdout, &stderr))
	require.Equal(t, "No news found.\n", stdout.String())
}
