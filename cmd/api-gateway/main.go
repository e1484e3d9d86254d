package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ward-mar-api/api/swagger"
	"github.com/noah-isme/ward-mar-api/internal/bootstrap"
	"github.com/noah-isme/ward-mar-api/internal/service"
	"github.com/noah-isme/ward-mar-api/pkg/config"
	"github.com/noah-isme/ward-mar-api/pkg/logger"
)

// @title Ward MAR API
// @version 1.0.0
// @description Medication administration record status summaries per ward visit.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if !cfg.JWT.Enabled {
		logr.Warn("authentication disabled for MAR routes")
	}

	source, err := bootstrap.OpenSource(cfg, logr)
	if err != nil {
		logr.Fatal("failed to open MAR source", zap.String("source", cfg.Mar.Source), zap.Error(err))
	}
	defer func() {
		if err := source.Close(); err != nil {
			logr.Warn("close MAR source", zap.Error(err))
		}
	}()

	router := bootstrap.NewRouter(cfg, logr, source, service.NewMetricsService())

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "source", source.Name, "timezone", cfg.Mar.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
