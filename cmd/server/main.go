package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"logiledger/internal/auth"
	"logiledger/internal/bid"
	"logiledger/internal/config"
	"logiledger/internal/consignment"
	"logiledger/internal/events"
	"logiledger/internal/httpx"
	"logiledger/internal/infrastructure/logger"
	"logiledger/internal/infrastructure/mysql"
	"logiledger/internal/infrastructure/redis"
	"logiledger/internal/invoice"
	"logiledger/internal/job"
	"logiledger/internal/job/usecase"
	"logiledger/internal/server"
)

func main() {
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if cfg.Database.MigrateOnStart {
		if err := mysql.Migrate(db, cfg.Database.Name, zapLogger); err != nil {
			zapLogger.Fatal("running migrations", zap.Error(err))
		}
	}

	ctx := context.Background()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.Enabled {
		redisPublisher, err := redis.NewPublisher(ctx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer redisPublisher.Close()
		publisher = redisPublisher
		zapLogger.Info("publishing events to redis", zap.String("channel", cfg.Redis.Channel))
	}

	var extractor usecase.Extractor
	if cfg.Invoice.GeminiAPIKey != "" {
		gemini, err := invoice.NewGeminiExtractor(ctx, cfg.Invoice.GeminiAPIKey, cfg.Invoice.Model)
		if err != nil {
			zapLogger.Fatal("creating invoice extractor", zap.Error(err))
		}
		extractor = gemini
	} else {
		zapLogger.Info("invoice scanning disabled, no gemini api key")
	}

	validate := httpx.NewValidator()

	consignmentCtrl := consignment.NewModule(db, cfg, validate, zapLogger)
	bidCtrl := bid.NewModule(db, cfg, publisher, validate, zapLogger)
	jobCtrl := job.NewModule(db, cfg, extractor, publisher, validate, zapLogger)

	resolver := auth.NewResolver(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	router := server.NewRouter(consignmentCtrl, bidCtrl, jobCtrl, resolver, db, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		zapLogger.Fatal("server error", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
