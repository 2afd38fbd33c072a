package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scenes/internal/config"
	"github.com/vango-dev/scenes/internal/watch"
	"github.com/vango-dev/scenes/pkg/dashboard"
	"github.com/vango-dev/scenes/pkg/live"
	"github.com/vango-dev/scenes/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a dashboard and push changes over WebSocket",
		Long: `Serve the dashboard named in scenes.json over HTTP.

Connected WebSocket clients receive a snapshot whenever the panels are
repeated or a variable they reference changes. When data.watch is set,
the data file is reloaded every time it changes on disk; data.refresh
reloads it on a fixed interval. Snapshots are also published to NATS
when nats.url is set.

Examples:
  scenes serve
  scenes serve -c deploy/scenes.json --port=8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to scenes.json (default: search from the working directory)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from scenes.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from scenes.json)")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel(), cfg.Log.Format)

	telemetry.Init(telemetry.WithNamespace(cfg.Telemetry.Namespace))
	telemetry.SetTracerName(cfg.Telemetry.TracerName)

	d, err := dashboard.Load(cfg.DashboardPath(), dashboard.WithLogger(logger))
	if err != nil {
		return err
	}
	defer d.Close()

	if p := cfg.DataPath(); p != "" {
		if err := d.LoadData(p); err != nil {
			logger.Warn("initial data not applied", "path", p, "error", err)
		}
	}

	srv := live.New(d,
		live.WithLogger(logger),
		live.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	)
	defer srv.Close()

	if cfg.Data.Watch && cfg.DataPath() != "" {
		debounce, _ := cfg.DebounceDuration()
		w, err := watch.New(watch.Config{
			Path:     cfg.DataPath(),
			Debounce: debounce,
			OnError:  func(err error) { srv.Hub().NotifyError(err.Error()) },
			Logger:   logger,
		}, d)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	if refresh, _ := cfg.RefreshInterval(); refresh > 0 && cfg.DataPath() != "" {
		p, err := watch.NewPoller(watch.Config{
			Path:    cfg.DataPath(),
			OnError: func(err error) { srv.Hub().NotifyError(err.Error()) },
			Logger:  logger,
		}, refresh, d)
		if err != nil {
			return err
		}
		p.Start()
		defer p.Stop()
	}

	if cfg.NATS.URL != "" {
		pub, err := live.DialNATS(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		defer d.OnChange(pub.Publish)()
	}

	success(cmd.ErrOrStderr(), "Serving %s on http://%s", d, cfg.Address())
	return srv.ListenAndServe(ctx, cfg.Address())
}
