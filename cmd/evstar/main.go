// Command evstar downloads (or reads) the Electric Vehicle Population CSV,
// imputes its missing values, models it as a star schema and loads the five
// tables into the configured storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"evstar/internal/config"
	"evstar/internal/logging"
	"evstar/internal/metrics"
	"evstar/internal/metrics/datadog"
	"evstar/internal/metrics/prompush"

	// register all backends with the storage factory.
	_ "evstar/internal/storage/all"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailed    = 1
	exitConfig    = 2
	exitExhausted = 3
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	fs := flag.NewFlagSet("evstar", flag.ContinueOnError)
	var (
		cfgPath        = fs.String("config", "configs/pipelines/ev_population.json", "pipeline config path (.json or .yaml)")
		validate       = fs.Bool("validate", false, "validate the configuration and exit")
		verbose        = fs.Bool("v", false, "enable debug logs")
		metricsBackend = fs.String("metrics-backend", "", "metrics backend: none, prometheus or datadog (overrides config)")
		pushGatewayURL = fs.String("pushgateway-url", "", "Pushgateway base URL (overrides config)")
	)
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	p, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitConfig
	}
	if *metricsBackend != "" {
		p.Metrics.Backend = *metricsBackend
	}
	if *pushGatewayURL != "" {
		p.Metrics.PushgatewayURL = *pushGatewayURL
	}
	if *verbose {
		p.Logging.Level = "debug"
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(os.Stderr, "configuration is invalid: %s\n", *cfgPath)
		return exitConfig
	}
	if *validate {
		fmt.Fprintf(os.Stderr, "configuration is valid: %s\n", *cfgPath)
		return exitOK
	}

	log := logging.New(p.Logging.Level, p.Logging.Format, os.Stderr)
	slog.SetDefault(log)

	if flush := setupMetrics(p, log); flush != nil {
		defer flush()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, p, log); err != nil {
		log.Error("run failed", slog.String("job", p.Job), slog.Any("err", err))
		if isExhausted(err) {
			return exitExhausted
		}
		return exitFailed
	}
	return exitOK
}

// setupMetrics installs the configured backend and returns its flush func,
// or nil when metrics are disabled.
func setupMetrics(p config.Pipeline, log *slog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "prometheus":
		b, err = prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  "evstar.",
			GlobalTags: []string{"job:" + p.Job},
		})
	case "", "none":
		log.Debug("metrics disabled")
		return nil
	default:
		log.Warn("unknown metrics backend; metrics disabled", slog.String("backend", p.Metrics.Backend))
		return nil
	}
	if err != nil {
		log.Warn("metrics backend init failed; using nop", slog.String("backend", p.Metrics.Backend), slog.Any("err", err))
		return nil
	}

	metrics.SetBackend(b)
	log.Info("metrics enabled", slog.String("backend", p.Metrics.Backend))
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", slog.Any("err", err))
		}
	}
}
