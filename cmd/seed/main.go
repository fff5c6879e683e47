package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"logiledger/internal/auth"
	"logiledger/internal/commons"
	"logiledger/internal/config"
	consignmentrepo "logiledger/internal/consignment/repository"
	consignmentservice "logiledger/internal/consignment/service"
	"logiledger/internal/domain"
	"logiledger/internal/infrastructure/logger"
	"logiledger/internal/infrastructure/mysql"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	seedPath := flag.String("seed", "cmd/seed/seed.yaml", "path to the seed fixtures")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	seed, err := commons.LoadSeed(*seedPath)
	if err != nil {
		zapLogger.Fatal("loading seed", zap.Error(err))
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()

	if err := mysql.Migrate(db, cfg.Database.Name, zapLogger); err != nil {
		zapLogger.Fatal("running migrations", zap.Error(err))
	}

	ctx := context.Background()
	repo := consignmentrepo.NewMySQLConsignmentRepository(db)
	svc := consignmentservice.NewConsignmentService(mysql.NewTxManager(db), repo, zapLogger, cfg.Marketplace.TxTimeout)

	now := time.Now().UTC().Truncate(time.Microsecond)
	inserted := 0
	for _, c := range seed.Consignments(now) {
		existing, err := repo.FindByCompany(ctx, c.CompanyID)
		if err != nil {
			zapLogger.Fatal("listing existing consignments", zap.Error(err))
		}
		if hasTitle(existing, c.Title) {
			zapLogger.Info("consignment already seeded", zap.String("title", c.Title))
			continue
		}

		c := c
		if err := svc.Create(ctx, &c); err != nil {
			zapLogger.Fatal("seeding consignment", zap.String("title", c.Title), zap.Error(err))
		}
		inserted++
		zapLogger.Info("seeded consignment", zap.String("id", c.ID), zap.String("title", c.Title))
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	for _, u := range seed.Users {
		token, err := issuer.Issue(u.Caller())
		if err != nil {
			zapLogger.Fatal("issuing token", zap.String("userId", u.ID), zap.Error(err))
		}
		zapLogger.Info("dev token",
			zap.String("userId", u.ID),
			zap.String("role", u.Role),
			zap.String("token", token))
	}

	zapLogger.Info("seed complete", zap.Int("consignments", inserted), zap.Int("users", len(seed.Users)))
}

func hasTitle(consignments []domain.Consignment, title string) bool {
	for _, c := range consignments {
		if c.Title == title {
			return true
		}
	}
	return false
}
