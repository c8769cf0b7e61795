package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/paperpal/internal/api"
	"github.com/dgallion1/paperpal/internal/config"
	"github.com/dgallion1/paperpal/internal/pipeline"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/dgallion1/paperpal/internal/store"
	"github.com/dgallion1/paperpal/internal/version"
	"github.com/dgallion1/paperpal/internal/watch"
)

func main() {
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", cfg.AppName, "env", cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.DBPath, log)
	if err != nil {
		log.Error("open paper store", "error", err)
		os.Exit(1)
	}

	seg := sections.New(cfg.Policy())

	orch := pipeline.NewOrchestrator(cfg, st, seg, log)
	orch.Start(ctx)

	if cfg.WatchDir != "" {
		w, err := watch.New(cfg.WatchDir, orch, log, cfg.MaxUploadBytes)
		if err != nil {
			log.Error("start drop folder", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("drop folder stopped", "error", err)
			}
		}()
	}

	srv := api.NewServer(orch, st, seg, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		cancel()
		orch.Stop()
		if err := st.Close(); err != nil {
			log.Error("close paper store", "error", err)
		}
	}()

	log.Info("starting paperpal", "port", cfg.Port, "db", cfg.DBPath, "version", version.String())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
