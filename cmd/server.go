package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/app"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/auth"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/config"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/handlers"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
)

// MAIN: inicializa configuración, caché, servicio y servidor HTTP
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Reemplazar logger global
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped unexpectedly", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = multierr.Append(err, deps.Close(closeCtx))
	}()

	users, err := auth.LoadUsers(cfg.Auth.UsersFile, cfg.Auth.DefaultUser, cfg.Auth.DefaultPassword, logger)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	sessions := auth.NewSessions(cfg.Auth.SessionTTL)

	// Cada reporte termina antes de que venza el WriteTimeout del servidor
	reportTimeout := cfg.Server.WriteTimeout - 10*time.Second
	router := handlers.NewRouter(
		handlers.NewReportHandler(deps.Service, reportTimeout, logger),
		handlers.NewLoginHandler(users, sessions, logger),
		sessions,
		logger,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server started",
			zap.String("port", cfg.Server.Port),
			zap.String("cache_backend", cfg.Cache.Backend),
			zap.Int("cached_orders", deps.Cache.Len()),
		)
		serveErr <- server.ListenAndServe()
	}()

	// GRACEFUL SHUTDOWN
	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
