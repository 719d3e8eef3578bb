package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callcenter-platform/internal/accounts"
	"callcenter-platform/internal/aiconfig"
	"callcenter-platform/internal/analytics"
	"callcenter-platform/internal/archive"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/campaigns"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/leads"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/pricing"
	"callcenter-platform/internal/ratelimit"
	"callcenter-platform/internal/store"
	"callcenter-platform/internal/telephony"
	"callcenter-platform/migrations"
	"callcenter-platform/pkg/logger"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.Version)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.DB.URL, utils.PostgresPoolConfig{MaxConns: cfg.DB.MaxConns})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.App.AutoMigrate {
		applied, err := store.NewMigrator(db, migrations.FS).Up(rootCtx)
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "count", len(applied))
	}

	// Redis is optional: without it revocation and import caps stay in process.
	var (
		revoker   auth.Revoker        = auth.NewMemoryRevoker()
		importCap leads.ImportLimiter = ratelimit.NewMemoryImportCap(cfg.HTTP.ImportConcurrency)
	)
	if cfg.Redis.URL != "" {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{URL: cfg.Redis.URL})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		revoker = auth.NewRedisRevoker(rdb)
		importCap = ratelimit.NewRedisImportCap(rdb, cfg.HTTP.ImportConcurrency)
	}

	leadOpts := []leads.Option{leads.WithImportLimiter(importCap)}
	if cfg.Storage.ArchiveEnabled() {
		files, err := archive.New(cfg.Storage)
		if err != nil {
			log.Error("archive init failed", "err", err)
			os.Exit(1)
		}
		if err := files.EnsureBucket(rootCtx); err != nil {
			log.Error("archive bucket check failed", "bucket", cfg.Storage.Bucket, "err", err)
			os.Exit(1)
		}
		leadOpts = append(leadOpts, leads.WithArchiver(files))
	}

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	accountsSvc := accounts.NewService(accounts.NewPostgresRepo(db), auth.NewHasher(0), tokens, revoker, auditSvc)
	leadsSvc := leads.NewService(leads.NewPostgresRepo(db), auditSvc, leadOpts...)
	campaignsSvc := campaigns.NewService(campaigns.NewPostgresRepo(db), leadsSvc, auditSvc)
	callsSvc := calls.NewService(calls.NewPostgresRepo(db), leadsSvc, campaignsSvc, auditSvc)
	campaignsSvc.SetCallCounter(callsSvc)
	aiSvc := aiconfig.NewService(aiconfig.NewPostgresRepo(db), auditSvc)

	bland := telephony.NewBlandClient(telephony.BlandConfig{APIKey: cfg.Bland.APIKey, BaseURL: cfg.Bland.BaseURL})
	m := metrics.New()

	r := newRouter(routeDeps{
		Log:    log,
		Tokens: tokens,
		Handlers: httpapi.Handlers{
			Accounts:      accountsSvc,
			Leads:         leadsSvc,
			Campaigns:     campaignsSvc,
			Calls:         callsSvc,
			Dialer:        telephony.NewDialer(bland, leadsSvc, campaignsSvc, aiSvc, callsSvc, cfg.Bland.WebhookURL),
			AIConfig:      aiSvc,
			Analytics:     analytics.NewService(analytics.NewPostgresRepo(db)),
			Metrics:       m,
			MaxUploadSize: cfg.HTTP.MaxUploadSize,
		},
		Platform: httpapi.Platform{Version: cfg.App.Version, DB: db},
		Webhook: telephony.WebhookHandler{
			Provider: bland,
			Calls:    callsSvc,
			Pricing:  pricing.NewService(pricing.DefaultRateCard()),
			Secret:   cfg.Bland.WebhookSecret,
			Observe: func(event, status string) {
				m.WebhookEvents.WithLabelValues(event, status).Inc()
			},
		},
		Metrics:        m,
		Limiter:        ratelimit.NewPerIP(cfg.HTTP.RateLimitPerMinute),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "version", cfg.App.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
