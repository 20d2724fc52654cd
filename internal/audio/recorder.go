package audio

import (
	"errors"
	log "log/slog"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const SampleRate = 16000

type Recorder struct {
	// Silence detection for RecordAuto.
	SilenceRMS  float64
	SilenceHold time.Duration
	MaxLength   time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{
		SilenceRMS:  0.015,
		SilenceHold: 600 * time.Millisecond,
		MaxLength:   10 * time.Second,
	}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures a fixed-length clip, mono float32 @ 16 kHz.
func (r *Recorder) Record(d time.Duration) ([]float32, error) {
	const frameSize = 1024

	if d <= 0 {
		return nil, errors.New("non-positive record duration")
	}

	log.Debug("Recording", "seconds", d.Seconds())

	total := int(d.Seconds() * SampleRate)
	buf := make([]float32, frameSize)
	out := make([]float32, 0, total+frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	for len(out) < total {
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
		out = append(out, buf...)
	}

	return out[:total], nil
}

// RecordAuto captures speech until SilenceHold of quiet follows it,
// or MaxLength passes.
func (r *Recorder) RecordAuto() ([]float32, error) {
	const frameSize = 320 // 20ms

	buf := make([]float32, frameSize)
	ep := newEndpointer(r.SilenceRMS, r.SilenceHold, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	maxFrames := int(r.MaxLength.Seconds() * SampleRate / frameSize)

	for i := 0; i < maxFrames; i++ {
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}

		keep, done := ep.push(buf)
		if keep {
			out = append(out, buf...)
		}
		if done {
			break
		}
	}

	return out, nil
}

// endpointer decides which 20ms frames belong to an utterance.
// Leading silence is dropped; trailing silence is kept until the hold
// time runs out.
type endpointer struct {
	thresh     float64
	holdFrames int

	speaking bool
	silent   int
}

func newEndpointer(thresh float64, hold time.Duration, frameSize int) *endpointer {
	frameDur := time.Duration(frameSize) * time.Second / SampleRate
	holdFrames := int(hold / frameDur)
	if holdFrames < 1 {
		holdFrames = 1
	}
	return &endpointer{thresh: thresh, holdFrames: holdFrames}
}

func (e *endpointer) push(f []float32) (keep, done bool) {
	if frameRMS(f) > e.thresh {
		e.speaking = true
		e.silent = 0
		return true, false
	}

	if !e.speaking {
		return false, false
	}

	e.silent++
	if e.silent >= e.holdFrames {
		return false, true
	}
	return true, false
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
