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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/config"
	"github.com/xavierca1/ligue-leads/internal/infra/database"
	"github.com/xavierca1/ligue-leads/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/worker"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	// 1. Repositories
	clientRepo := database.NewClientRepository(db)
	leadRepo := database.NewLeadRepository(db)
	companyRepo := database.NewCompanyRepository(db)
	subRepo := database.NewSubscriptionRepository(db)
	allocRepo := database.NewAllocationRepository(db)

	// 2. Messaging (optional)
	var (
		rabbitMQ  *queue.RabbitMQ
		publisher usecase.ConversionPublisher
		broker    handlers.BrokerConn
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		publisher = queue.NewProducer(rabbitMQ.Ch)
		broker = rabbitMQ.Conn
	} else {
		logger.Warn("RABBITMQ_URL not set, conversion events disabled")
	}

	// 3. Use cases
	clk := clock.SystemClock{}
	resolver := usecase.NewResolveClientUseCase(clientRepo, logger.Named("resolver"))
	ledger := usecase.NewCreditLedgerUseCase(resolver, allocRepo, clk, logger.Named("ledger"))

	var charger usecase.CreditCharger
	if cfg.ChargeLeadCredits {
		charger = ledger
	}

	findUC := usecase.NewFindCandidatesUseCase(resolver, leadRepo, companyRepo, cfg.LeadScanLimit, logger.Named("search"))
	convertUC := usecase.NewConvertLeadsUseCase(resolver, leadRepo, charger, publisher, clk, logger.Named("convert"))
	allocUC := usecase.NewCreateAllocationUseCase(resolver, subRepo, allocRepo, clk, logger.Named("allocation"))

	// 4. HTTP
	router := handlers.NewRouter(handlers.RouterConfig{
		Client:      handlers.NewClientHandler(resolver, logger),
		Lead:        handlers.NewLeadHandler(findUC, convertUC, handlers.NewRateLimiter(cfg.ConvertRateLimit, time.Minute), logger),
		Credit:      handlers.NewCreditHandler(ledger, allocUC, logger),
		Health:      handlers.NewHealthHandler(db, broker, version),
		Logger:      logger.Named("http"),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Background work
	rollover := worker.NewAllocationRolloverWorker(subRepo, allocUC, clk, cfg.RolloverInterval, logger.Named("rollover"))
	rollover.OnCreated = func() { middleware.RecordAllocationCreated("rollover") }

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		rollover.Start(gctx)
		return nil
	})

	if rabbitMQ != nil && cfg.MailEnabled() {
		sender := mail.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
		notifications := queue.NewWorker(rabbitMQ.Ch, sender, logger.Named("notifications"))
		g.Go(func() error {
			return notifications.Start(gctx, queue.QueueName)
		})
	}

	return g.Wait()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
