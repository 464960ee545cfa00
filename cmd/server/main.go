package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	_ "github.com/mywatercloset/api/docs"
	"github.com/mywatercloset/api/infra/initializer"
	"github.com/mywatercloset/api/pkg/app"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/webapi"
)

const shutdownTimeout = 10 * time.Second

// @title MyWaterCloset API
// @version 1.0.0
// @description Restroom reservations, payments and payouts
// @contact.name API Support
// @contact.email support@mywatercloset.com
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	a := app.New(deps, cfg)
	fiberApp := webapi.SetupApp(a)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("🚀 Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
		"eventBus", cfg.EventBus.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		closeBus(deps.EventBus, logger)
		return err
	case s := <-sig:
		logger.Info("Shutting down", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	closeBus(deps.EventBus, logger)
	logger.Info("Server stopped")
	return nil
}

// closeBus drains and closes the event bus when it holds resources.
func closeBus(bus any, logger *slog.Logger) {
	closer, ok := bus.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err)
	}
}
