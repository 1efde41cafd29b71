package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docforge/internal/build"
	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/metrics"
	"git.home.luguber.info/inful/docforge/internal/scheduler"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval    time.Duration `help:"Rebuild interval (default: daemon.interval)"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address, e.g. :9090"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	interval := cfg.Daemon.Interval
	if d.Interval > 0 {
		interval = d.Interval
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	_, err = sched.SchedulePeriodic(interval, "rebuild-all", true, func(ctx context.Context) error {
		results, err := build.BuildAll(ctx, rt.svc, cfg, rt.project)
		rt.flushMetrics()
		for _, r := range results {
			slog.Info("Scheduled build finished",
				logfields.BuildID(r.BuildID),
				logfields.Version(r.Version),
				logfields.Format(r.Format),
				slog.String("status", string(r.Status)))
		}
		return err
	})
	if err != nil {
		return err
	}

	var srv *http.Server
	if d.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(rt.recorder.Registry()))
		srv = &http.Server{Addr: d.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Serving metrics", logfields.URL("http://"+d.MetricsAddr+"/metrics"))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	slog.Info("Starting daemon mode", slog.Duration("interval", interval))
	sched.Start()
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if srv != nil {
		if err := srv.Shutdown(stopCtx); err != nil {
			slog.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}
	if err := sched.Stop(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	slog.Info("Daemon stopped successfully")
	return nil
}
