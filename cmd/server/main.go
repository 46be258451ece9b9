package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"

	"cloudsec-orchestrator/internal/adapter/rag_http"
	"cloudsec-orchestrator/internal/di"
	"cloudsec-orchestrator/internal/infra"
	"cloudsec-orchestrator/internal/infra/config"
	"cloudsec-orchestrator/internal/infra/logger"
	"cloudsec-orchestrator/internal/infra/otel"
)

func main() {
	cfg := config.Load()

	log := logger.NewWithOTel(cfg.OTelEnabled)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := otel.InitProvider(ctx, otel.ConfigFromEnv())
		if err != nil {
			log.Error("otel_init_failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn("otel_shutdown_failed", slog.String("error", err.Error()))
			}
		}()
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	dbPool, err := infra.NewPostgresDB(ctx, dsn)
	if err != nil {
		log.Error("db_connect_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	components, err := di.NewApplicationComponents(cfg, dbPool, log)
	if err != nil {
		log.Error("wiring_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	validator, err := rag_http.NewRequestValidator()
	if err != nil {
		log.Error("api_validator_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	e.Use(validator)

	components.Handler.RegisterRoutes(e)
	e.GET("/readyz", func(c echo.Context) error {
		if err := dbPool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server_starting", slog.String("addr", addr))
		// h2c lets local clients multiplex long-lived answer streams without
		// TLS termination in front of the service.
		if err := e.StartH2CServer(addr, &http2.Server{}); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("server_stopping")
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server_exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
