package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqpAdapter "github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/amqp"
	httpAdapter "github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/http"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/logger"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/metrics"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/postgres"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/adapter/rabbitmq"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/board"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/app/stock"
	"github.com/intellixtechnologies0-dot/IARE-Canteen-Web-sub000/internal/config"
)

func main() {
	mode := flag.String("mode", "", "Service mode: board-service, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lgr := logger.New(*mode)

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "board-service":
		runBoardService(ctx, cancel, cfg, mqConn, lgr)
	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr)
	default:
		log.Fatalf("Unknown mode: %s", *mode)
	}
}

func runBoardService(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mqConn rabbitmq.Connection, lgr logger.Logger) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	metrics.Register()

	orderStore := postgres.NewOrderStore(db)
	stockStore := postgres.NewStockStore(db)
	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, lgr)

	ledger := stock.NewLedger(stockStore, lgr, stock.Options{
		MaxRetries:     cfg.Stock.MaxRetries,
		AttemptTimeout: cfg.Stock.AttemptTimeout(),
		BackoffBase:    cfg.Stock.BackoffBase(),
	})

	b := board.New(orderStore, ledger, publisher, lgr, board.Options{
		PollInterval:         cfg.Board.PollInterval(),
		PruneInterval:        cfg.Board.PruneInterval(),
		MutationTimeout:      cfg.Board.MutationTimeout(),
		RevertWindow:         cfg.Board.RevertWindow(),
		ActivityDisplayLimit: cfg.Board.ActivityDisplayLimit,
	})

	b.Start(ctx)

	if err := b.Bootstrap(ctx); err != nil {
		// The board stays unavailable; the API surfaces 503 until a retry
		// succeeds.
		lgr.Error("bootstrap_failed", "Initial bootstrap failed; will retry", "startup", nil, err)
		go retryBootstrap(ctx, b, lgr)
	}

	feedHandler := amqpAdapter.NewFeedHandler(b, lgr)
	go func() {
		if err := consumer.ConsumeOrderFeed(ctx, feedHandler.HandleFeedEvent); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming order feed", "runtime", nil, err)
		}
	}()

	boardHandler := httpAdapter.NewBoardHandler(b, ledger, lgr)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      httpAdapter.NewRouter(boardHandler, lgr),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Board service started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
		"port": cfg.HTTP.Port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down board service", "shutdown", nil)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

// retryBootstrap keeps re-running the full fetch until it succeeds or the
// service stops.
func retryBootstrap(ctx context.Context, b *board.Board, lgr logger.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Bootstrap(ctx); err == nil {
				lgr.Info("bootstrap_recovered", "Bootstrap succeeded after retry", "startup", nil)
				return
			}
		}
	}
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, lgr)
	handler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeNotifications(ctx, handler.HandleNotification); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down notification subscriber", "shutdown", nil)
}
