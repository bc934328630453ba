package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invoice-api/internal/bootstrap"
	"invoice-api/internal/shared/config"
	"invoice-api/internal/shared/server"
	"invoice-api/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.load_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if cfg.IsDevLike() {
		telemetry.SetLevel("debug")
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		// An upload holds the connection through storage, two database writes and the parser call.
		WriteTimeout: cfg.LLM.Timeout() + 3*cfg.StepTimeout,
		IdleTimeout:  time.Minute,
	}

	serverErrors := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{
			"addr":         addr,
			"env":          cfg.Env,
			"object_store": cfg.Storage.Type,
			"auth_mode":    cfg.Auth.Mode,
			"llm_url":      cfg.LLM.ServerURL,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("server.failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	case sig := <-signals:
		telemetry.Info("server.stopping", map[string]any{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Error("server.shutdown_failed", map[string]any{"error": err.Error()})
		return
	}
	telemetry.Info("server.stopped", nil)
}
