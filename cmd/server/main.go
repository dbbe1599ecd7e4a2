package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/app"
	"github.com/quirkcart/quirkcart/internal/cache"
	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/models"
	"github.com/quirkcart/quirkcart/internal/repository"
	"github.com/quirkcart/quirkcart/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.JWT.SecretKey) {
			stdLog.Fatalf("jwt secret is weak or still the default, configure a strong random key")
		}
		if isWeakSecret(cfg.CustomerJWT.SecretKey) {
			stdLog.Fatalf("customer jwt secret is weak or still the default, configure a strong random key")
		}
	} else if isWeakSecret(cfg.JWT.SecretKey) {
		stdLog.Printf("warning: jwt secret is weak or still the default, change it before production")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migration failed: %v", err)
	}

	adminRepo := repository.NewAdminRepository(models.DB)
	if err := service.InitDefaultAdmin(adminRepo, os.Getenv("QC_DEFAULT_ADMIN_EMAIL")); err != nil {
		stdLog.Printf("warning: default admin init failed: %v", err)
	}

	if err := cache.InitRedis(&cfg.Redis); err != nil {
		stdLog.Printf("warning: redis unavailable, falling back to in-process stores: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "run mode: all (default), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("service exited with error: %v", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
