package main

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"echo/internal/config"
	"echo/internal/metrics"
	"echo/pkg/audioconv"
	"echo/pkg/wakeword"
	"echo/pkg/wakeword/wsscore"
)

// scan replays an audio file through the monitor and reports detections.
func scan(ctx context.Context, cfg config.Config, m *metrics.Metrics) error {
	src, err := audioconv.NewFileSource(cfg.ScanFile, wakeword.FrameLength)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.ScanFile, err)
	}

	scorer, err := wsscore.Dial(cfg.ScorerURL, wsscore.Options{
		Models:      cfg.Wake.Models,
		ReadTimeout: 2 * time.Second,
	})
	if err != nil {
		return err
	}
	defer scorer.Close()

	mon, err := wakeword.New(cfg.Wake, scorer, wakeword.WithObserver(m))
	if err != nil {
		return err
	}

	detections := 0
	if err := mon.Run(ctx, src, func() { detections++ }); err != nil {
		return err
	}

	log.Info("Scan finished", "file", cfg.ScanFile, "frames", src.Frames(), "detections", detections)
	fmt.Println(detections)
	return nil
}
