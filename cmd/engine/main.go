package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/tradeguard/config"
	"github.com/alejandrodnm/tradeguard/internal/adapters/notify"
	"github.com/alejandrodnm/tradeguard/internal/adapters/signalfeed"
	"github.com/alejandrodnm/tradeguard/internal/adapters/storage"
	"github.com/alejandrodnm/tradeguard/internal/adapters/terminal"
	"github.com/alejandrodnm/tradeguard/internal/application/engine"
	"github.com/alejandrodnm/tradeguard/internal/monitoring"
	"github.com/alejandrodnm/tradeguard/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one cycle and exit")
	dryRun := flag.Bool("dry-run", false, "simulate fills, never place real orders")
	table := flag.Bool("table", false, "print full per-signal table (default: compact 1-line)")
	summary := flag.Int("summary", 0, "print the trading summary for N days and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("tradeguard starting",
		"config", *configPath,
		"interval", cfg.CycleInterval(),
		"symbols", cfg.Engine.Symbols,
		"dry_run", *dryRun,
		"once", *once,
		"storage", cfg.Storage.Driver,
	)

	store, err := openStore(cfg)
	if err != nil {
		// no durability guarantee for positions without a store
		slog.Error("failed to open position store", "err", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	defer store.Close()

	alerts := openAlerts(cfg)
	defer alerts.Close()

	catalog := ports.StaticCatalog(cfg.Catalog())

	term := terminal.NewSim(cfg.Engine.PaperBalance)
	for symbol, ic := range cfg.Instruments {
		if ic.ReferencePrice > 0 {
			term.SetQuote(symbol, ic.ReferencePrice, ic.ReferencePrice+ic.Point)
		}
		if ic.Point > 0 {
			term.SetConversion(symbol, ic.PipValue/ic.Point)
		}
	}

	feed := signalfeed.NewClient(cfg.Signals.BaseURL, cfg.Signals.APIKey, cfg.SignalsTimeout())
	notifier := notify.NewConsole(*table)

	controller := engine.NewController(term, store, alerts, cfg.CallTimeout(), *dryRun)
	eng := engine.New(
		engine.Config{
			Symbols:        cfg.Engine.Symbols,
			CycleInterval:  cfg.CycleInterval(),
			DryRun:         *dryRun,
			MonitorWorkers: cfg.Engine.MonitorWorkers,
			FetchTimeout:   cfg.CallTimeout(),
		},
		cfg.RiskParams(), catalog, term, feed, store, notifier, controller,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *summary > 0 {
		agg := engine.NewAggregator(store, term, catalog)
		s, err := agg.TradingSummary(ctx, *summary)
		if err != nil {
			slog.Error("summary failed", "err", err)
			os.Exit(1)
		}
		_ = notifier.NotifySummary(ctx, s)
		return
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr)
	}

	if *once {
		report, err := eng.RunCycle(ctx)
		if err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		_ = notifier.NotifyCycle(ctx, report)
		return
	}

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("tradeguard stopped cleanly")
}

func openStore(cfg *config.Config) (ports.PositionStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return storage.NewPostgresStore(cfg.Storage.DSN)
	default:
		return storage.NewSQLiteStore(cfg.Storage.DSN)
	}
}

func openAlerts(cfg *config.Config) ports.AlertPublisher {
	if len(cfg.Alerts.Brokers) == 0 {
		return notify.LogAlerts{}
	}
	alerts, err := notify.NewKafkaAlerts(cfg.Alerts.Brokers, cfg.Alerts.Topic)
	if err != nil {
		slog.Warn("kafka alerts unavailable, falling back to log alerts", "err", err)
		return notify.LogAlerts{}
	}
	return alerts
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics server stopped", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
