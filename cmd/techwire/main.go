package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/samvad-hq/techwire/internal/aggregator"
	"github.com/samvad-hq/techwire/internal/config"
	"github.com/samvad-hq/techwire/internal/crawler"
	"github.com/samvad-hq/techwire/internal/digest"
	"github.com/samvad-hq/techwire/internal/history"
	"github.com/samvad-hq/techwire/internal/logger"
	"github.com/samvad-hq/techwire/pkg/httpclient"
	"github.com/samvad-hq/techwire/pkg/notify"
	"github.com/samvad-hq/techwire/pkg/providers"
)

type options struct {
	configPath string
	sources    []string
	format     string
	save       bool
	history    int
	notify     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.history > 0 {
		return showHistory(cfg, opts, stdout, stderr)
	}

	sources := providers.DefaultProviders()
	if cfg.ProvidersFile != "" {
		if sources, err = providers.LoadProviders(cfg.ProvidersFile); err != nil {
			fmt.Fprintf(stderr, "load providers: %v\n", err)
			return 1
		}
	}

	client := httpclient.NewRestyClient(cfg.HTTPTimeout, httpclient.WithUserAgent(cfg.UserAgent))
	registry := providers.DefaultFetcherRegistry(client, crawler.NewScraper(client, log))
	agg := aggregator.New(registry, sources, aggregator.WithLimit(cfg.FetchLimit), aggregator.WithLogger(log))

	selected := opts.sources
	if len(selected) == 0 {
		for _, p := range agg.Sources() {
			selected = append(selected, p.ID)
		}
	}

	results := agg.Fetch(ctx, selected)
	d := digest.New(results, time.Now())

	if err := write(stdout, opts.format, d); err != nil {
		fmt.Fprintf(stderr, "render digest: %v\n", err)
		return 1
	}

	status := 0
	if opts.save {
		if err := saveDigest(cfg.HistoryPath, d); err != nil {
			log.ErrorObj("digest not saved", "history_error", map[string]any{"path": cfg.HistoryPath, "error": err.Error()})
			status = 1
		}
	}
	if opts.notify {
		if err := deliver(ctx, cfg, client, log, d); err != nil {
			fmt.Fprintf(stderr, "notify: %v\n", err)
			status = 1
		}
	}
	return status
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("techwire", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a config file (yaml, json or toml)")
	fs.StringSliceVarP(&opts.sources, "sources", "s", nil, "sources to fetch by id or name, e.g. TechCrunch,Wired (default: all)")
	fs.StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	fs.BoolVar(&opts.save, "save", false, "store the digest in the history database")
	fs.IntVar(&opts.history, "history", 0, "print the last N stored digests instead of fetching")
	fs.BoolVar(&opts.notify, "notify", false, "deliver the digest to the configured notifiers")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "unknown format %q\n", opts.format)
		return opts, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func write(w io.Writer, format string, d digest.Digest) error {
	if format == "json" {
		return digest.WriteJSON(w, d)
	}
	return digest.WriteText(w, d)
}

func saveDigest(path string, d digest.Digest) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(d)
}

func showHistory(cfg *config.Config, opts options, stdout, stderr io.Writer) int {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		fmt.Fprintf(stderr, "open history: %v\n", err)
		return 1
	}
	defer store.Close()

	digests, err := store.Latest(opts.history)
	if err != nil {
		fmt.Fprintf(stderr, "read history: %v\n", err)
		return 1
	}
	for _, d := range digests {
		fmt.Fprintf(stdout, "== %s (%s)\n", d.GeneratedAt.Format(time.RFC3339), d.ID)
		if err := write(stdout, opts.format, d); err != nil {
			fmt.Fprintf(stderr, "render digest: %v\n", err)
			return 1
		}
	}
	return 0
}

func deliver(ctx context.Context, cfg *config.Config, client httpclient.Client, log logger.Logger, d digest.Digest) error {
	if cfg.NotifiersFile == "" {
		return fmt.Errorf("notifiers_file is not configured")
	}
	cfgs, err := notify.LoadConfigs(cfg.NotifiersFile)
	if err != nil {
		return err
	}
	notifiers, err := notify.DefaultRegistry().BuildAll(ctx, notify.Enabled(cfgs), notify.Deps{HTTP: client, Log: log})
	if err != nil {
		return err
	}
	return notify.NewDispatcher(notifiers, log).Deliver(ctx, notify.NewEvent(d))
}
