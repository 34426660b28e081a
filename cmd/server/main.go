package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"xpanel/internal/api"
	"xpanel/internal/billing"
	"xpanel/internal/config"
	"xpanel/internal/db"
	"xpanel/internal/notify"
	"xpanel/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	rdb, err := db.OpenRedis(ctx, cfg)
	if err != nil {
		logrus.Fatal(err)
	}

	svc := billing.NewService(gdb, notify.New(cfg.TelegramToken, cfg.TelegramChat), cfg.OrderTTL)

	go worker.NewSweeper(svc, rdb, cfg.SweepInterval).Start(ctx)

	router, err := api.NewRouter(api.Deps{
		DB:             gdb,
		Redis:          rdb,
		Billing:        svc,
		Tokens:         api.TokenIssuer{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL},
		CORSOrigins:    cfg.CORSOrigins,
		PublicBaseURL:  cfg.PublicBaseURL,
		RateLimit:      cfg.RateLimit,
		TrustedProxies: cfg.TrustedProxy,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
