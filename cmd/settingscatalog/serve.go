package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"settingscatalog/internal/handler"
	"settingscatalog/internal/hub"
	"settingscatalog/internal/service"
	"settingscatalog/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Serve the catalog over HTTP.

Endpoints:
  GET  /api/pages, /api/pages/{id}
  GET  /api/entries, /api/entries/{id}, /api/entries/{id}/path
  GET  /api/export/{format}, /api/status
  POST /api/reload
  GET  /events     server-sent catalog events
  GET  /metrics    Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Catalog.Watch = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the catalog when the provider table changes")
	return cmd
}

// serve runs the HTTP server, SSE hub and optional file watcher until ctx is done
func (a *app) serve(ctx context.Context) error {
	logger := a.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := service.NewEventBus()
	svc, err := a.openCatalog(service.Options{EventBus: bus, Registerer: reg})
	if err != nil {
		return err
	}

	events := hub.New(logger.WithPrefix("sse"))

	mux := http.NewServeMux()
	handler.NewCatalogHandler(svc, logger.WithPrefix("api")).Register(mux)
	mux.Handle("GET /events", events)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr: a.cfg.Server.Addr,
		Handler: handler.Chain(mux,
			handler.Recover(logger),
			handler.RequestID,
			handler.CORS,
			handler.Instrument(reg),
			handler.Logger(logger.WithPrefix("http")),
		),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	// Bind before starting anything else so a busy port fails fast
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		timeout := a.cfg.Server.ShutdownTimeout.Duration()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		logger.Info("shutting down server", "grace_period", timeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		return events.Run(gCtx)
	})

	// Forward catalog events to SSE clients
	g.Go(func() error {
		ch := make(chan service.Event, 100)
		bus.Subscribe(ch)
		defer bus.Unsubscribe(ch)
		for {
			select {
			case <-gCtx.Done():
				return nil
			case ev := <-ch:
				events.Broadcast(string(ev.Type), ev.Payload)
			}
		}
	})

	if a.cfg.Catalog.Watch {
		w := watcher.New(svc.ProvidersPath(), func() {
			// failures are logged and published by the service
			_ = svc.Reload()
		}).WithDebounce(a.cfg.Catalog.Debounce.Duration()).WithLogger(logger.WithPrefix("watch"))

		g.Go(func() error {
			return w.Watch(gCtx)
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
