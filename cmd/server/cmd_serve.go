package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"exoml-server/api/rest/routes"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the prediction and notebook API. SIGINT or SIGTERM drains in-flight
requests before exiting; a running notebook gets up to its timeout to finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides SERVER_PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.ServerPort = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	r := mux.NewRouter()
	routes.SetupRoutes(ctx, r, routes.Dependencies{
		DB:           a.db,
		Registry:     a.registry,
		Engine:       a.engine,
		Jobs:         a.jobs,
		Interpreter:  a.interp,
		Metrics:      a.metrics,
		Logger:       a.logger,
		Environment:  cfg.Environment,
		RunRateLimit: cfg.RunRateLimit,
		RunRateBurst: cfg.RunRateBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           routes.CORS(r, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		// a run-notebook request blocks for the whole run
		WriteTimeout: cfg.NotebookTimeout + 30*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting server",
			zap.String("port", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
			zap.Strings("models", a.registry.IDs()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.NotebookTimeout+5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	a.logger.Info("server exited")
	return nil
}
