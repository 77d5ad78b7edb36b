package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/prop/internal/config"
	"github.com/vango-dev/prop/internal/httpapi"
	"github.com/vango-dev/prop/pkg/prop"
	"github.com/vango-dev/prop/pkg/propws"
	"github.com/vango-dev/prop/pkg/reactor"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		logLevel   string
		props      []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve properties over HTTP",
		Long: `Serve a property collection over HTTP.

Properties come from the "properties" section of propctl.json and
from --prop flags. A flag replaces a configured property of the same
name. Changes are streamed to websocket clients on /watch.

Examples:
  propctl serve
  propctl serve --port 8080
  propctl serve --prop port:int=8080 --prop label:string=main`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cmd.Context(), serveOptions{cfg: cfg, props: props})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to propctl.json")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringArrayVar(&props, "prop", nil, "Property as name:type=value (repeatable)")

	return cmd
}

type serveOptions struct {
	cfg   *config.Config
	props []string
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg := opts.cfg
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	prop.SetLogger(logger.With("component", "prop"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rxOpts := reactorOptions(cfg, logger.With("component", "reactor"), reg)
	if err := reactor.Configure(rxOpts...); err != nil {
		return err
	}
	if err := reactor.Start(); err != nil {
		return err
	}
	defer func() {
		if err := reactor.Stop(); err != nil {
			errorMsg("Reactor stop: %v", err)
		}
	}()

	props, err := buildCollection(cfg, opts.props)
	if err != nil {
		return err
	}
	defer func() {
		// Let queued change messages finish before their properties go.
		reactor.Sync()
		props.Clear()
	}()

	hub := propws.NewHub(propws.WithLogger(logger.With("component", "propws")))
	defer hub.Close()
	props.Range(func(name string, p prop.Property) bool {
		propws.Watch(hub, p)
		return true
	})

	routerCfg := httpapi.Config{
		Props:       props,
		Reactor:     reactor.Default(),
		Hub:         hub,
		SyncTimeout: cfg.SyncTimeout(),
		Logger:      logger.With("component", "httpapi"),
	}
	if cfg.MetricsEnabled() {
		routerCfg.Gatherer = reg
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           httpapi.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	success("Serving %d properties on http://%s", props.Len(), cfg.Address())
	info("Reactor: %s", reactor.Default().Name())
	if cfg.MetricsEnabled() {
		info("Metrics: http://%s/metrics", cfg.Address())
	}
	info("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println()
	info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
