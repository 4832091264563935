package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kidandcat/todo/internal/config"
	"github.com/kidandcat/todo/internal/db"
	"github.com/kidandcat/todo/internal/flash"
	"github.com/kidandcat/todo/internal/handlers"
	"github.com/kidandcat/todo/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "todo [config]",
		Short:        "Personal to-do list web server",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				configPath = args[0]
			}
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (json, yaml or toml)")
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("data-dir", "data", "directory holding the SQLite database")
	cmd.Flags().String("log-level", "info", "debug, info, warn or error")
	cmd.Flags().String("log-file", "", "also write JSON logs to this rotating file")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := db.Open(cfg.DBPath(), db.Options{})
	if err != nil {
		logger.Error("open database", zap.String("path", cfg.DBPath()), zap.Error(err))
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handlers.New(store, flash.New(cfg.SecretKey), logger).Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("todo running", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
