// Command milho serves the Milho News site.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milhonews/milho/internal/app"
	"github.com/milhonews/milho/internal/config"
	"github.com/milhonews/milho/internal/digest"
	"github.com/milhonews/milho/internal/logging"
	"github.com/milhonews/milho/internal/scheduler"
	"github.com/milhonews/milho/internal/server"
	"github.com/milhonews/milho/internal/upstream"
)

// version is set at build time via ldflags
var version = "dev"

const keepWarmJob = "keepwarm"

func main() {
	cfg := loadConfig()
	logging.Init(cfg.Log)

	a := app.New(cfg, upstream.New(cfg.Upstream, version))

	builder, err := digest.New(cfg.Server.SiteTitle, cfg.Server.DefaultTheme)
	if err != nil {
		slog.Error("failed to build page template", "error", err)
		os.Exit(1)
	}

	sched, err := startKeepWarm(cfg, a)
	if err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	e := server.New(a, builder, version)

	go func() {
		slog.Info("milho starting", "addr", cfg.Server.Addr, "version", version)
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for s := range sig {
		if s == syscall.SIGHUP {
			reload(a)
			continue
		}
		break
	}

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-ctx.Done():
		}
	}
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

// loadConfig reads the config file, creating it with defaults on first run
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err == nil {
		return cfg
	}

	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
		if err := cfg.Save(); err != nil {
			slog.Warn("could not save default config", "error", err)
		} else {
			path, _ := config.ConfigPath()
			slog.Info("created default config", "path", path)
		}
	} else {
		slog.Warn("could not load config, using defaults", "error", err)
	}

	cfg, err = config.FromEnv()
	if err != nil {
		slog.Error("invalid environment configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func startKeepWarm(cfg *config.Config, a *app.App) (*scheduler.Scheduler, error) {
	if !cfg.KeepWarm.Enabled {
		return nil, nil
	}

	sched, err := scheduler.New(cfg.KeepWarm.Timezone)
	if err != nil {
		return nil, err
	}
	if err := sched.AddJob(keepWarmJob, cfg.KeepWarm.Schedule, a.KeepWarm); err != nil {
		return nil, err
	}
	sched.Start()

	go func() { _ = sched.RunNow(keepWarmJob, a.KeepWarm) }()
	return sched, nil
}

// reload re-reads the config file. Settings read at startup, such as the
// listen address, need a restart.
func reload(a *app.App) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config reload failed, keeping current config", "error", err)
		return
	}
	logging.Init(cfg.Log)
	a.ReloadConfig(cfg, upstream.New(cfg.Upstream, version))
}
