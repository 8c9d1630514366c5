package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/c14220110/poliklinik-antrian/config"
	"github.com/c14220110/poliklinik-antrian/internal/routes"
	"github.com/c14220110/poliklinik-antrian/pkg/logger"
	"github.com/c14220110/poliklinik-antrian/pkg/monitoring"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/cache"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/mariadb"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel)
	db := mariadb.Connect(log)
	defer db.Close()

	rdb, err := cache.ConnectRedis(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis tidak tersedia, cache kategori obat dimatikan")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(log.EchoMiddleware())
	e.Use(monitoring.EchoMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))

	e.GET("/health", func(c echo.Context) error {
		if err := db.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "unhealthy", "db": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(monitoring.Handler()))

	limiter := routes.Init(e, db, rdb, cfg, log)
	done := make(chan struct{})
	go limiter.RunCleanup(done)

	go func() {
		log.Infof("Server berjalan pada port %s...", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Mematikan server...")
	close(done)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
}
