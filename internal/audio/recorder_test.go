package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tone(n int, amp float32) []float32 {
	f := make([]float32, n)
	for i := range f {
		if i%2 == 0 {
			f[i] = amp
		} else {
			f[i] = -amp
		}
	}
	return f
}

func TestFrameRMS(t *testing.T) {
	assert.Equal(t, 0.0, frameRMS(nil))
	assert.Equal(t, 0.0, frameRMS(make([]float32, 320)))
	assert.InDelta(t, 0.5, frameRMS(tone(320, 0.5)), 1e-6)
}

func TestEndpointerDropsLeadingSilence(t *testing.T) {
	ep := newEndpointer(0.015, 600*time.Millisecond, 320)

	for i := 0; i < 100; i++ {
		keep, done := ep.push(make([]float32, 320))
		assert.False(t, keep)
		assert.False(t, done)
	}
}

func TestEndpointerStopsAfterHold(t *testing.T) {
	// 600ms of 20ms frames => 30 frames of hold
	ep := newEndpointer(0.015, 600*time.Millisecond, 320)

	keep, done := ep.push(tone(320, 0.2))
	assert.True(t, keep)
	assert.False(t, done)

	kept := 0
	for i := 0; i < 29; i++ {
		keep, done = ep.push(make([]float32, 320))
		assert.False(t, done)
		if keep {
			kept++
		}
	}
	assert.Equal(t, 29, kept, "trailing silence is part of the utterance")

	keep, done = ep.push(make([]float32, 320))
	assert.False(t, keep)
	assert.True(t, done)
}

func TestEndpointerSpeechResetsHold(t *testing.T) {
	ep := newEndpointer(0.015, 100*time.Millisecond, 320) // 5 frames

	ep.push(tone(320, 0.2))
	for i := 0; i < 4; i++ {
		_, done := ep.push(make([]float32, 320))
		assert.False(t, done)
	}
	ep.push(tone(320, 0.2))
	for i := 0; i < 4; i++ {
		_, done := ep.push(make([]float32, 320))
		assert.False(t, done)
	}
	_, done := ep.push(make([]float32, 320))
	assert.True(t, done)
}
