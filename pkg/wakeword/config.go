package wakeword

import (
	"errors"
	"fmt"
)

const (
	SampleRate  = 16000
	FrameLength = SampleRate * 80 / 1000 // 80ms => 1280 samples
)

var ErrInvalidConfig = errors.New("invalid wakeword config")

type Config struct {
	Models         []string // empty => accept any model the scorer reports
	Threshold      float64  // (0, 1]
	Window         int      // smoothing window, frames
	PeakMultiplier float64  // raw score >= Threshold*PeakMultiplier fires without smoothing
	PeakLookback   int      // raw frames considered for the peak test
}

func DefaultConfig() Config {
	return Config{
		Threshold:      0.5,
		Window:         5,
		PeakMultiplier: 2.5,
		PeakLookback:   3,
	}
}

func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v not in (0, 1]", ErrInvalidConfig, c.Threshold)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window %d must be positive", ErrInvalidConfig, c.Window)
	}
	if c.PeakMultiplier <= 0 {
		return fmt.Errorf("%w: peak multiplier %v must be positive", ErrInvalidConfig, c.PeakMultiplier)
	}
	if c.PeakLookback <= 0 {
		return fmt.Errorf("%w: peak lookback %d must be positive", ErrInvalidConfig, c.PeakLookback)
	}
	for _, m := range c.Models {
		if m == "" {
			return fmt.Errorf("%w: empty model name", ErrInvalidConfig)
		}
	}
	return nil
}

// PeakBound is the raw score at which a single frame fires on its own.
func (c Config) PeakBound() float64 {
	return c.Threshold * c.PeakMultiplier
}
