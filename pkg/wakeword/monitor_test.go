package wakeword

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedScorer hands out one score map per call.
type scriptedScorer struct {
	steps []map[string]float64
	calls int
	err   error
}

func (s *scriptedScorer) Score(frame []int16) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.steps) {
		return map[string]float64{}, nil
	}
	out := s.steps[s.calls]
	s.calls++
	return out, nil
}

func single(model string, scores ...float64) []map[string]float64 {
	out := make([]map[string]float64, 0, len(scores))
	for _, s := range scores {
		out = append(out, map[string]float64{model: s})
	}
	return out
}

// sliceSource serves frames then io.EOF.
type sliceSource struct {
	frames [][]int16
	pos    int
	err    error
}

func (s *sliceSource) ReadFrame(ctx context.Context) ([]int16, error) {
	if s.pos >= len(s.frames) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func frames(n int) [][]int16 {
	out := make([][]int16, n)
	for i := range out {
		out[i] = make([]int16, FrameLength)
	}
	return out
}

func newTestMonitor(t *testing.T, cfg Config, scorer Scorer) *Monitor {
	t.Helper()
	m, err := New(cfg, scorer)
	require.NoError(t, err)
	return m
}

// feed runs every score map through Process and returns the 1-based frame
// indexes on which a detection fired.
func feed(t *testing.T, m *Monitor, steps int) []int {
	t.Helper()
	var fired []int
	for i := 1; i <= steps; i++ {
		_, err := m.Process(make([]int16, FrameLength), func() { fired = append(fired, i) })
		require.NoError(t, err)
	}
	return fired
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"threshold one", func(c *Config) { c.Threshold = 1 }, false},
		{"threshold zero", func(c *Config) { c.Threshold = 0 }, true},
		{"threshold above one", func(c *Config) { c.Threshold = 1.01 }, true},
		{"window zero", func(c *Config) { c.Window = 0 }, true},
		{"negative multiplier", func(c *Config) { c.PeakMultiplier = -1 }, true},
		{"zero lookback", func(c *Config) { c.PeakLookback = 0 }, true},
		{"empty model name", func(c *Config) { c.Models = []string{"hey jarvis", ""} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRejectsNilScorer(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBelowBothBoundsNeverFires(t *testing.T) {
	scores := []float64{0.1, 0.4, 0.3, 0.49, 0.2, 0.45, 1.0, 0.1, 0.0, 0.3}
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{steps: single("hey jarvis", scores...)})

	// 1.0 is under the 1.25 peak bound and the window mean peaks at 0.488
	assert.Empty(t, feed(t, m, len(scores)))
}

func TestPeakFiresRegardlessOfHistoryLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0.3 // peak bound 0.75

	for prior := 0; prior <= 8; prior++ {
		scores := append(make([]float64, prior), 0.8)
		m := newTestMonitor(t, cfg, &scriptedScorer{steps: single("alexa", scores...)})

		fired := feed(t, m, len(scores))
		assert.Equal(t, []int{prior + 1}, fired, "prior=%d", prior)
		assert.Empty(t, m.History("alexa"))
	}
}

func TestSustainedMeanFiresWhenCrossing(t *testing.T) {
	scores := []float64{0.375, 0.4375, 0.5, 0.5625, 0.625}
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{steps: single("hey jarvis", scores...)})

	// running means: .375 .40625 .4375 .46875 .5
	assert.Equal(t, []int{5}, feed(t, m, 5))
}

func TestSpikeUnderPeakBoundNeedsSupport(t *testing.T) {
	scores := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.9}
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{steps: single("hey jarvis", scores...)})

	assert.Empty(t, feed(t, m, len(scores)))
	assert.InDeltaSlice(t, []float64{0.1, 0.1, 0.1, 0.1, 0.9}, m.History("hey jarvis"), 1e-9)
}

func TestSustainedRunFiresOnThirdFrame(t *testing.T) {
	scores := []float64{0, 0, 0.9, 0.9, 0.9}
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{steps: single("hey jarvis", scores...)})

	// (0+0+0.9+0.9+0.9)/5 = 0.54
	assert.Equal(t, []int{5}, feed(t, m, len(scores)))
}

func TestTriggerClearsHistoryAndDebounces(t *testing.T) {
	// .4375 tips the window mean to .5375 on frame 6; repeated alone it
	// stays under threshold
	scores := []float64{0, 0.5625, 0.5625, 0.5625, 0.5625, 0.4375, 0.4375, 0.4375}
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{steps: single("hey jarvis", scores...)})

	assert.Equal(t, []int{6}, feed(t, m, 6))
	assert.Empty(t, m.History("hey jarvis"))

	assert.Empty(t, feed(t, m, 2))
	assert.Equal(t, []float64{0.4375, 0.4375}, m.History("hey jarvis"))
}

func TestTrailingFramesDoNotRefire(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0.3 // peak bound 0.75
	// without the clear, [.2 .2 .2 .8 .25] would average .33 and refire
	scores := []float64{0.2, 0.2, 0.2, 0.8, 0.25, 0.2, 0.1}
	m := newTestMonitor(t, cfg, &scriptedScorer{steps: single("hey jarvis", scores...)})

	assert.Equal(t, []int{4}, feed(t, m, len(scores)))
}

func TestHistoryBoundedByWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window = 3
	scores := make([]float64, 50)
	for i := range scores {
		scores[i] = float64(i%4) * 0.05
	}
	m := newTestMonitor(t, cfg, &scriptedScorer{steps: single("computer", scores...)})

	for i := 0; i < len(scores); i++ {
		_, err := m.Process(make([]int16, FrameLength), nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(m.History("computer")), cfg.Window)
	}
}

func TestModelFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models = []string{"hey jarvis"}
	steps := []map[string]float64{
		{"alexa": 0.99, "hey jarvis": 0.1},
		{"alexa": 0.99, "hey jarvis": 0.95},
	}
	m := newTestMonitor(t, cfg, &scriptedScorer{steps: steps})

	name, err := m.Process(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, name, "alexa is not a target")
	assert.Len(t, m.History("alexa"), 1, "non-target history is still tracked")

	name, err = m.Process(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hey jarvis", name)
}

func TestFirstModelWinsLexicographically(t *testing.T) {
	steps := []map[string]float64{
		{"computer": 0.9, "alexa": 0.9, "jarvis": 0.9},
	}
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{steps: steps})

	calls := 0
	name, err := m.Process(nil, func() { calls++ })
	require.NoError(t, err)
	assert.Equal(t, "alexa", name)
	assert.Equal(t, 1, calls)

	assert.Empty(t, m.History("alexa"))
	assert.Equal(t, []float64{0.9}, m.History("computer"), "losing models still record the frame")
	assert.Equal(t, []float64{0.9}, m.History("jarvis"))
}

func TestLosingModelKeepsHistoryAcrossWin(t *testing.T) {
	steps := []map[string]float64{
		{"a": 0.6, "b": 0.6},
		{"a": 0, "b": 0.4},
	}
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{steps: steps})

	calls := 0
	name, err := m.Process(nil, func() { calls++ })
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, []float64{0.6}, m.History("b"))

	// b: mean(0.6, 0.4) = 0.5 reaches the threshold
	name, err = m.Process(nil, func() { calls++ })
	require.NoError(t, err)
	assert.Equal(t, "b", name)
	assert.Equal(t, 2, calls)
	assert.Empty(t, m.History("b"))
	assert.Equal(t, []float64{0}, m.History("a"))
}

func TestRunSkipsEmptyFrames(t *testing.T) {
	scorer := &scriptedScorer{steps: single("hey jarvis", 0.9)}
	m := newTestMonitor(t, DefaultConfig(), scorer)

	src := &sliceSource{frames: [][]int16{nil, {}, make([]int16, FrameLength)}}
	detections := 0
	err := m.Run(context.Background(), src, func() { detections++ })

	require.NoError(t, err)
	assert.Equal(t, 1, scorer.calls, "empty frames never reach the scorer")
	assert.Equal(t, 1, detections)
}

func TestRunPropagatesReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{})

	err := m.Run(context.Background(), &sliceSource{frames: frames(2), err: boom}, func() {})
	assert.ErrorIs(t, err, boom)
}

func TestRunPropagatesScorerError(t *testing.T) {
	boom := errors.New("model crashed")
	m := newTestMonitor(t, DefaultConfig(), &scriptedScorer{err: boom})

	err := m.Run(context.Background(), &sliceSource{frames: frames(3)}, func() {
		t.Fatal("no detection expected")
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scorer := &scriptedScorer{steps: single("hey jarvis", 0.9, 0.9, 0.9)}
	m := newTestMonitor(t, DefaultConfig(), scorer)

	err := m.Run(ctx, &sliceSource{frames: frames(3)}, cancel)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, scorer.calls, "the loop stops before the next frame")
}

type recordingObserver struct {
	scored   int
	detected []string
}

func (o *recordingObserver) Scored(model string, raw, smoothed float64) { o.scored++ }
func (o *recordingObserver) Detected(model string, smoothed, peak float64) {
	o.detected = append(o.detected, model)
}

func TestObserverSeesEveryScore(t *testing.T) {
	obs := &recordingObserver{}
	steps := []map[string]float64{
		{"alexa": 0.1, "hey jarvis": 0.1},
		{"alexa": 0.1, "hey jarvis": 0.95},
	}
	m, err := New(DefaultConfig(), &scriptedScorer{steps: steps}, WithObserver(obs))
	require.NoError(t, err)

	feed(t, m, 2)
	assert.Equal(t, 4, obs.scored)
	assert.Equal(t, []string{"hey jarvis"}, obs.detected)
}

func TestConfigIsDetachedFromCaller(t *testing.T) {
	models := []string{"hey jarvis"}
	cfg := DefaultConfig()
	cfg.Models = models
	m := newTestMonitor(t, cfg, &scriptedScorer{})

	models[0] = "alexa"
	assert.Equal(t, []string{"hey jarvis"}, m.Config().Models)
}
