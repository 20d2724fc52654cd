package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

// SinkInput is one playback stream known to the sound server.
type SinkInput struct {
	ID      int
	Volume  int // percent
	AppName string
}

// Mixer lists and adjusts playback streams.
type Mixer interface {
	SinkInputs(ctx context.Context) ([]SinkInput, error)
	SetVolume(ctx context.Context, id, percent int) error
}

// Ducker lowers other applications while the assistant listens and
// speaks, then restores them. Streams owned by selfNames are left alone.
type Ducker struct {
	mu     sync.Mutex
	mixer  Mixer
	self   map[string]struct{}
	factor float64
	floor  int
	fade   time.Duration

	active bool
	saved  map[int]int // id -> volume before ducking
}

func NewDucker(mixer Mixer, selfNames []string, factor float64, floor int, fade time.Duration) *Ducker {
	self := make(map[string]struct{}, len(selfNames))
	for _, n := range selfNames {
		self[n] = struct{}{}
	}
	return &Ducker{
		mixer:  mixer,
		self:   self,
		factor: factor,
		floor:  clampVolume(floor),
		fade:   fade,
		saved:  make(map[int]int),
	}
}

func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := d.mixer.SinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	d.saved = make(map[int]int)
	var ramps []ramp
	for _, s := range streams {
		if _, mine := d.self[s.AppName]; mine {
			continue
		}
		to := int(math.Round(float64(s.Volume) * d.factor))
		if to < d.floor {
			to = d.floor
		}
		d.saved[s.ID] = s.Volume
		ramps = append(ramps, ramp{id: s.ID, from: s.Volume, to: clampVolume(to)})
	}

	if err := d.apply(ctx, ramps); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Restore brings ducked streams back. Streams that appeared after Duck
// are not touched.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := d.mixer.SinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	var ramps []ramp
	for _, s := range streams {
		orig, ok := d.saved[s.ID]
		if !ok {
			continue
		}
		ramps = append(ramps, ramp{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.apply(ctx, ramps); err != nil {
		return err
	}
	d.saved = make(map[int]int)
	d.active = false
	return nil
}

type ramp struct {
	id, from, to int
}

func (d *Ducker) apply(ctx context.Context, ramps []ramp) error {
	if len(ramps) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := int(d.fade / minStep)
	if steps < 1 {
		steps = 1
	}
	stepDur := d.fade / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frac := float64(i) / float64(steps)
		for _, r := range ramps {
			v := int(math.Round(float64(r.from) + float64(r.to-r.from)*frac))
			if err := d.mixer.SetVolume(ctx, r.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", r.id, err)
			}
		}

		if i < steps {
			time.Sleep(stepDur)
		}
	}
	return nil
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxVolume {
		return maxVolume
	}
	return v
}

// Pactl drives PulseAudio/PipeWire through the pactl CLI.
type Pactl struct{}

func (Pactl) SinkInputs(ctx context.Context) ([]SinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func (Pactl) SetVolume(ctx context.Context, id, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run()
}

func parseSinkInputs(text string) []SinkInput {
	blocks := strings.Split(text, "Sink Input #")
	if len(blocks) <= 1 {
		return nil
	}

	var res []SinkInput
	for _, block := range blocks[1:] {
		head, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			continue
		}

		s := SinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}
			}

			if rest, ok := strings.CutPrefix(line, "application.name = "); ok && s.AppName == "" {
				s.AppName = strings.Trim(rest, `"`)
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}
	return res
}
