package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-outbox/config"
	"github.com/marcelsud/webhook-outbox/internal/app"
	"github.com/marcelsud/webhook-outbox/internal/http/chi"
)

const TIMEOUT = 30 * time.Second

/* api is the entry and exit point of the delivery engine:
 * it builds the dependencies, starts the retry poller and the operator API,
 * and tears everything down on SIGINT/SIGTERM.
 * Imports only go one way, down: the app imports business packages, which
 * import storage packages.
 */

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := httplog.NewLogger("webhook-outbox", httplog.Options{
		JSON: true,
	}).Level(cfg.GetLogLevel())

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building delivery engine: %w", err)
	}
	defer func() {
		ctxTimeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
		defer cancel()
		if err := a.Close(ctxTimeout); err != nil {
			logger.Error().Err(err).Msg("closing delivery engine")
		}
	}()

	// the poller outlives the signal so Stop can let the running cycle finish
	if err := a.Scheduler.Start(context.WithoutCancel(ctx), a.Service); err != nil {
		return fmt.Errorf("starting retry poller: %w", err)
	}

	r := chi.Handlers(ctx, a.Service, a.Metrics.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, a.Scheduler.Stop, ctx, errShutdown)

	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		ctxTimeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
		defer cancel()
		if perr := a.Scheduler.Stop(ctxTimeout); perr != nil {
			logger.Error().Err(perr).Msg("stopping retry poller")
		}
		return err
	}
	return <-errShutdown
}

// shutdown stops accepting requests, then stops the poller so in-flight retries finish
func shutdown(server *http.Server, stopPoller func(context.Context) error, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	if perr := stopPoller(ctxTimeout); perr != nil && err == nil {
		err = perr
	}

	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server: %w", err)
	}
}
