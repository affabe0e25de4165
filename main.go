package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/middleware"
	"github.com/danielhkuo/live-poll/poll"
	"github.com/danielhkuo/live-poll/realtime"
	"github.com/danielhkuo/live-poll/router"
	"github.com/danielhkuo/live-poll/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the poll store (creates the schema for SQL backends)
	st, err := store.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()
	slog.Info("Store ready", "type", cfg.DatabaseType)

	hub := realtime.NewHub()
	svc := poll.NewService(poll.Config{
		Store:        st,
		Channel:      hub,
		HistoryLimit: cfg.HistoryLimit,
		CloseRetry:   cfg.CloseRetry,
	})
	defer svc.Shutdown()

	// Pick up a poll left active by a previous run
	if err := svc.Recover(ctx); err != nil {
		return err
	}

	mux := router.NewRouter(svc, hub, cfg)
	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
