package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	"echo/internal/config"
	"echo/internal/metrics"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return
		}
		log.Error("Bad configuration", "err", err)
		os.Exit(2)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: cfg.LogLevel,
	})))

	log.Info("Booting up", "mode", cfg.Mode, "response", cfg.Response, "backend", cfg.Brain.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error("Metrics server failed", "addr", cfg.MetricsAddr, "err", err)
			}
		}()
	}

	if cfg.Mode == config.ModeScan {
		err = scan(ctx, cfg, m)
	} else {
		err = serve(ctx, stop, cfg, m)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("Bye")
}
