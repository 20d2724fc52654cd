package wakeword

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"sort"
)

// Scorer wraps a pretrained keyword-spotting model.
// Score returns a raw activation in [0, 1] per model name for one frame.
type Scorer interface {
	Score(frame []int16) (map[string]float64, error)
}

type ScorerFunc func(frame []int16) (map[string]float64, error)

func (f ScorerFunc) Score(frame []int16) (map[string]float64, error) { return f(frame) }

// FrameSource yields fixed-size mono 16 kHz frames.
// An empty frame with a nil error is skipped. io.EOF ends the run cleanly.
type FrameSource interface {
	ReadFrame(ctx context.Context) ([]int16, error)
}

// Observer receives per-frame scoring events. Calls happen on the run goroutine.
type Observer interface {
	Scored(model string, raw, smoothed float64)
	Detected(model string, smoothed, peak float64)
}

type Option func(*Monitor)

func WithLogger(l *log.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.obs = o }
}

const debugEvery = 10

type Monitor struct {
	cfg     Config
	scorer  Scorer
	targets map[string]struct{}
	history map[string]*history

	log *log.Logger
	obs Observer

	frames uint64
}

func New(cfg Config, scorer Scorer, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: nil scorer", ErrInvalidConfig)
	}

	m := &Monitor{
		cfg:     cfg,
		scorer:  scorer,
		history: make(map[string]*history),
		log:     log.Default(),
	}

	if len(cfg.Models) > 0 {
		m.targets = make(map[string]struct{}, len(cfg.Models))
		for _, name := range cfg.Models {
			m.targets[name] = struct{}{}
		}
		// detach from the caller's slice
		m.cfg.Models = append([]string(nil), cfg.Models...)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *Monitor) Config() Config {
	c := m.cfg
	c.Models = append([]string(nil), m.cfg.Models...)
	return c
}

// History returns a copy of the raw score window for model.
func (m *Monitor) History(model string) []float64 {
	h, ok := m.history[model]
	if !ok {
		return nil
	}
	return h.snapshot()
}

// Run blocks reading frames from src until ctx is done, src reports io.EOF,
// or reading/scoring fails. onDetect runs synchronously on this goroutine;
// frames that arrive while it runs are the source's business.
func (m *Monitor) Run(ctx context.Context, src FrameSource, onDetect func()) error {
	targets := "any"
	if len(m.cfg.Models) > 0 {
		targets = fmt.Sprint(m.cfg.Models)
	}
	m.log.Info("Waiting for wake word",
		"models", targets,
		"threshold", m.cfg.Threshold,
		"window", m.cfg.Window,
		"peak", m.cfg.PeakBound(),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := src.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				m.log.Debug("Frame source exhausted", "frames", m.frames)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Error("Failed to read frame", "err", err)
			return fmt.Errorf("read frame: %w", err)
		}
		if len(frame) == 0 {
			continue
		}

		if _, err := m.Process(frame, onDetect); err != nil {
			m.log.Error("Failed to score frame", "err", err)
			return err
		}
	}
}

// Process scores one frame and applies the trigger rules.
// It returns the model that fired, or "" when nothing did.
func (m *Monitor) Process(frame []int16, onDetect func()) (string, error) {
	scores, err := m.scorer.Score(frame)
	if err != nil {
		return "", fmt.Errorf("score frame: %w", err)
	}
	m.frames++

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	if m.frames%debugEvery == 0 {
		m.log.Debug("Scores", "frame", m.frames, "raw", scores)
	}

	// every model sees every frame, even when an earlier one fires
	smoothed := make(map[string]float64, len(names))
	for _, name := range names {
		smoothed[name] = m.observe(name, scores[name])
	}

	for _, name := range names {
		if !m.shouldTrigger(name, smoothed[name]) || !m.accepts(name) {
			continue
		}

		peak := m.history[name].peak(m.cfg.PeakLookback)
		m.log.Info("Wake word detected", "model", name, "smoothed", smoothed[name], "peak", peak)
		if m.obs != nil {
			m.obs.Detected(name, smoothed[name], peak)
		}

		if onDetect != nil {
			onDetect()
		}
		m.history[name].reset()
		return name, nil
	}

	return "", nil
}

func (m *Monitor) observe(name string, raw float64) float64 {
	h, ok := m.history[name]
	if !ok {
		h = newHistory(m.cfg.Window)
		m.history[name] = h
	}
	h.push(raw)

	smoothed := h.mean()
	if m.obs != nil {
		m.obs.Scored(name, raw, smoothed)
	}
	return smoothed
}

func (m *Monitor) shouldTrigger(name string, smoothed float64) bool {
	h, ok := m.history[name]
	if !ok || h.len() == 0 {
		return false
	}

	peak := h.peak(m.cfg.PeakLookback)
	bySmooth := smoothed >= m.cfg.Threshold
	byPeak := peak >= m.cfg.PeakBound()

	if peak > 0.05 {
		m.log.Debug("Evaluate",
			"model", name,
			"smoothed", smoothed,
			"peak", peak,
			"smooth_hit", bySmooth,
			"peak_hit", byPeak,
		)
	}

	return bySmooth || byPeak
}

func (m *Monitor) accepts(name string) bool {
	if m.targets == nil {
		return true
	}
	_, ok := m.targets[name]
	return ok
}
