package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eddiefleurent/trade_scribe/internal/analysis"
	"github.com/eddiefleurent/trade_scribe/internal/bot"
	"github.com/eddiefleurent/trade_scribe/internal/config"
	"github.com/eddiefleurent/trade_scribe/internal/notify"
	"github.com/eddiefleurent/trade_scribe/internal/scheduler"
	"github.com/eddiefleurent/trade_scribe/internal/server"
	"github.com/eddiefleurent/trade_scribe/internal/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "[BOT] ", log.LstdFlags|log.Lshortfile)
	logger.Printf("Starting trade scribe (storage driver: %s)", cfg.Storage.Driver)

	store, err := storage.NewStorage(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	var analyzer analysis.Analyzer = analysis.Noop{}
	if cfg.Analysis.Enabled {
		openai, err := analysis.NewOpenAIAnalyzer(cfg.Analysis.APIKey, cfg.Analysis.Model, cfg.Analysis.BaseURL)
		if err != nil {
			logger.Fatalf("Failed to build analyzer: %v", err)
		}
		analyzer = analysis.NewBreakerAnalyzer(openai)
		logger.Printf("Sell analysis enabled (model: %s)", cfg.Analysis.Model)
	}

	var notifier notify.Notifier = &notify.LogNotifier{Logger: logger}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL)
		logger.Println("Publishing announcements to webhook")
	}

	service := bot.NewService(store, analyzer, logger,
		bot.WithWriteRetries(cfg.Bot.WriteRetries),
		bot.WithSummaryUsers(cfg.Bot.SummaryUsers),
		bot.WithNotifier(notifier),
	)

	hour, minute, err := cfg.SummaryClock()
	if err != nil {
		logger.Fatalf("Invalid summary time: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Invalid timezone: %v", err)
	}
	daily := scheduler.NewDaily("dailySummary", hour, minute, loc, service.PublishDailySummary, logger)

	httpLogger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Environment.LogLevel); err == nil {
		httpLogger.SetLevel(lvl)
	}
	srv := server.NewServer(server.Config{Port: cfg.Server.Port, AuthToken: cfg.Server.AuthToken}, service, httpLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return daily.Run(ctx)
	})
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Println("Shutdown signal received, stopping...")
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("Bot error: %v", err)
	}
	logger.Println("Bot stopped successfully")
}
