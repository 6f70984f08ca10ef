package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/auction-service/internal/db"
	"github.com/senyabanana/auction-service/internal/handlers"
	"github.com/senyabanana/auction-service/internal/metrics"
	"github.com/senyabanana/auction-service/internal/notify"
	"github.com/senyabanana/auction-service/internal/repository"
	"github.com/senyabanana/auction-service/internal/router"
	"github.com/senyabanana/auction-service/internal/router/config"
	"github.com/senyabanana/auction-service/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := initStore(ctx, cfg)
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	notifier, closeNotifier := initNotifier(cfg, logger)
	defer closeNotifier()

	dispatcher := notify.NewDispatcher(store, notifier, m, logger, cfg.NotifyWorkers, cfg.NotifyQueueSize)
	dispatcherDone := make(chan error, 1)
	go func() {
		dispatcherDone <- dispatcher.Run(context.Background())
	}()

	engineCfg := engineConfig(cfg)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	segmentService := services.NewSegmentService(store)
	userService := services.NewUserService(store, segmentService, tokens, engineCfg)
	auctionService := services.NewAuctionService(store, segmentService, dispatcher, m, engineCfg)
	proposalService := services.NewProposalService(store, dispatcher, m, engineCfg)
	dashboardService := services.NewDashboardService(store, engineCfg)
	notificationService := services.NewNotificationService(store)

	routes := router.InitRoutes(router.Handlers{
		Auth:          handlers.NewAuthMiddleware(tokens, logger),
		Users:         handlers.NewUserHandler(userService, logger, cfg.RequestTimeout),
		Segments:      handlers.NewSegmentHandler(segmentService, logger, cfg.RequestTimeout),
		Auctions:      handlers.NewAuctionHandler(auctionService, logger, cfg.RequestTimeout),
		Proposals:     handlers.NewProposalHandler(proposalService, logger, cfg.RequestTimeout),
		Dashboard:     handlers.NewDashboardHandler(dashboardService, logger, cfg.RequestTimeout),
		Notifications: handlers.NewNotificationHandler(notificationService, logger, cfg.RequestTimeout),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("server is listening on %s...", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Println("shutting down...")
	case err := <-serverErr:
		if err != nil {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("server shutdown: %v", err)
	}

	dispatcher.Close()
	select {
	case err := <-dispatcherDone:
		if err != nil {
			logger.Printf("notification dispatcher: %v", err)
		}
	case <-shutdownCtx.Done():
		logger.Println("notification queue was not drained in time")
	}
	log.Println("server stopped")
}

func initStore(ctx context.Context, cfg config.Config) (repository.Store, func()) {
	if cfg.Storage == config.StorageMemory {
		log.Println("using in-memory storage")
		return repository.NewMemoryStore(), func() {}
	}

	if err := db.RunMigrations(cfg.MigrationURL, cfg.PostgresConn); err != nil {
		log.Fatal(err)
	}
	log.Println("db migrated successfully")

	dbPool, err := db.InitDb(ctx, cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	return repository.NewPostgresStore(dbPool), dbPool.Close
}

func initNotifier(cfg config.Config, logger *log.Logger) (notify.Notifier, func()) {
	if cfg.Notifier != config.NotifierKafka {
		return notify.NewLogMailer(logger), func() {}
	}

	client, err := notify.NewKafkaClient(cfg.Brokers(), cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("error initializing kafka client: %v", err)
	}
	return notify.NewKafkaNotifier(client, cfg.KafkaTopic), client.Close
}

func engineConfig(cfg config.Config) services.Config {
	feeRate, err := decimal.NewFromString(cfg.FeeRate)
	if err != nil || feeRate.IsNegative() {
		log.Fatalf("invalid FEE_RATE %q", cfg.FeeRate)
	}
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid TIMEZONE: %v", err)
	}
	return services.Config{
		FeeRate:        feeRate,
		MinClosingDays: cfg.MinClosingDays,
		Location:       location,
	}
}
