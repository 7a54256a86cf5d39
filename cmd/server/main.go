package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecosphere/core/internal/app"
	"github.com/ecosphere/core/internal/config"
	"github.com/ecosphere/core/internal/pkg/cluster"
	"github.com/ecosphere/core/internal/pkg/nativelog"
	"github.com/ecosphere/core/internal/pkg/proctitle"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	flag.Parse()

	logger, err := nativelog.NewZapLogger()
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("native log pipeline unavailable, fallback to zap production logger", zap.Error(err))
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	opts := cluster.Options{
		Enable:     cfg.Cluster,
		Workers:    cfg.ClusterWorkers,
		ListenAddr: fmt.Sprintf(":%d", cfg.Port),
	}
	if err := cluster.Run(logger, opts, func() error {
		return serve(logger, *configPath)
	}); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func serve(logger *zap.Logger, configPath string) error {
	if cluster.IsWorker() {
		_ = proctitle.Set(fmt.Sprintf("eco-core: worker %d", cluster.WorkerID()))
	}

	application, err := app.New(logger, configPath)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	// Clustered workers share the port via SO_REUSEPORT.
	ln, err := cluster.ListenTCP(application.Addr(), cluster.IsWorker())
	if err != nil {
		return fmt.Errorf("listen %s: %w", application.Addr(), err)
	}

	srv := &http.Server{Handler: application.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", application.Addr()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server...")
	application.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
