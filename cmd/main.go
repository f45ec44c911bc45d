package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"secretariat_import/internal/adapters/opener"
	"secretariat_import/internal/config"
	"secretariat_import/internal/handlers"
	"secretariat_import/internal/identifiers"
	"secretariat_import/internal/logger"
	"secretariat_import/internal/metrics"
	"secretariat_import/internal/repository"
	"secretariat_import/internal/repository/database"
	"secretariat_import/internal/repository/imports"
	"secretariat_import/internal/server"
	"secretariat_import/internal/services/importer"
	"secretariat_import/internal/services/importer/processors"
	"secretariat_import/internal/transport/auth"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "secretariat-import")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cfg.Close(closeCtx)
	}()

	if err := cfg.Connect(setupCtx); err != nil {
		log.Fatal("[BOOT] connect failed", zap.Error(err))
	}
	if err := cfg.CheckConnections(setupCtx); err != nil {
		log.Fatal("[BOOT] connection check failed", zap.Error(err))
	}
	log.Info("[BOOT] connections ok")

	m := metrics.New(prometheus.DefaultRegisterer)
	validate := identifiers.NewValidator()
	store := imports.NewStore(cfg.Mongo, log)

	companies := database.NewCompanyRepo(cfg.Postgres, "")
	base := processors.NewBaseProcessor(store, m, log)
	registry := processors.NewRegistry(
		processors.NewCollaboratorsProcessor(base, database.NewCollaboratorRepo(cfg.Postgres, ""), companies, validate),
		processors.NewCompaniesProcessor(base, companies, validate),
		processors.NewAdminUsersProcessor(base, database.NewAdminUserRepo(cfg.Postgres, ""), validate),
	)

	files := opener.NewCompoundOpener(
		opener.NewHTTPOpener(&http.Client{Timeout: cfg.ImportTimeout}, log),
		opener.NewS3Opener(cfg.S3.Client, log),
		cfg.S3.Bucket,
	)
	svc := importer.NewService(files, registry, store, m, cfg.ImportBatchSize, log)

	h := handlers.New(handlers.Deps{
		Records:  store,
		Objects:  cfg.S3.Client,
		Bucket:   cfg.S3.Bucket,
		Importer: svc,
		Registry: registry,
		Checks: []handlers.HealthCheck{
			{Name: "postgres", Check: func(ctx context.Context) error { return cfg.Postgres.Pool.Ping(ctx) }},
			{Name: "mongo", Check: func(ctx context.Context) error { return cfg.Mongo.Client.Ping(ctx, nil) }},
			{Name: "s3", Check: cfg.S3.Ping},
		},
		Metrics:       m,
		Logger:        log,
		BatchSize:     cfg.ImportBatchSize,
		ImportTimeout: cfg.ImportTimeout,
	})

	tokens := repository.NewPersonalAccessTokenRepository(cfg.Postgres, cfg.AuthTokenableType, log)
	srv := server.NewServer(h, server.Options{
		Port:     cfg.Port,
		Auth:     auth.TokenMiddleware(tokens, log),
		Gatherer: prometheus.DefaultGatherer,
		Logger:   log,
	})

	if err := srv.Run(runCtx); err != nil {
		log.Error("[HTTP] server stopped", zap.Error(err))
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelDrain()
	if err := h.Drain(drainCtx); err != nil {
		log.Warn("[BOOT] background imports still running at exit", zap.Error(err))
	}
}
