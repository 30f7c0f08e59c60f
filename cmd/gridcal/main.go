package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"gridcal/internal/config"
	"gridcal/internal/event"
	"gridcal/internal/fetch"
	"gridcal/internal/ics"
	appLog "gridcal/internal/log"
	"gridcal/internal/model"
	"gridcal/internal/scrape"
	"gridcal/internal/timetable"
	"gridcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	out        string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("gridcal starting",
		"source_url", conf.SourceURL,
		"period_start", conf.PeriodStart,
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"strict", conf.Strict,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := runOnce(ctx, conf, flags.out); err != nil {
			appLog.Error("conversion failed", err)
			os.Exit(1)
		}
		return
	}

	if err := runServe(ctx, conf); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/gridcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one conversion, write the feed, and exit")
	flag.StringVar(&cfg.out, "out", "-", "Output path for -once ('-' for stdout)")

	flag.Parse()

	return cfg
}

// generate runs the whole conversion: fetch the page, select and walk
// the timetable grid, build the recurring events, serialize the feed.
func generate(ctx context.Context, conf *config.Config) ([]byte, error) {
	periodStart, err := conf.PeriodStartDate()
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewFetcher(conf.CacheDir)
	page, err := fetcher.Fetch(ctx, conf.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch timetable page: %w", err)
	}

	grid, err := scrape.Timetable(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("select timetable table: %w", err)
	}

	lessons, times, err := timetable.Walk(grid)
	if err != nil {
		return nil, fmt.Errorf("walk timetable grid: %w", err)
	}

	builder := &event.Builder{
		PeriodStart: periodStart,
		TimeLabels:  times,
		CourseNames: conf.CourseNames,
		Strict:      conf.Strict,
	}
	events, err := builder.BuildAll(lessons)
	if err != nil {
		return nil, fmt.Errorf("build events: %w", err)
	}

	appLog.Info("conversion complete", "lessons", len(lessons), "events", len(events), "from_cache", page.FromCache)

	doc := model.Document{Events: events}
	return ics.Marshal(doc, ics.Options{UseDTEnd: conf.UseDTEnd}), nil
}

func runOnce(ctx context.Context, conf *config.Config, out string) error {
	body, err := generate(ctx, conf)
	if err != nil {
		return err
	}

	if out == "" || out == "-" {
		_, err = os.Stdout.Write(body)
		return err
	}
	return os.WriteFile(out, body, 0o644)
}

func runServe(ctx context.Context, conf *config.Config) error {
	server := web.NewServer(conf, func(ctx context.Context) ([]byte, error) {
		return generate(ctx, conf)
	})

	// Prime the feed before accepting subscribers; a failure here is
	// logged and retried on the cron schedule.
	if err := server.Refresh(ctx); err != nil {
		appLog.Error("initial feed generation failed", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		_ = server.Refresh(context.Background())
	}); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", conf.RefreshCron, err)
	}
	c.Start()
	defer c.Stop()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
