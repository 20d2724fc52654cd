package assistant

import (
	"context"
	log "log/slog"
	"strings"
	"time"

	"echo/internal/metrics"
	"echo/internal/router"
	"echo/pkg/audioconv"
)

const (
	NotHeardReply = "I didn't catch that. Please try again."
	listenTimeout = 2 * time.Minute
)

// Listener captures one spoken command as mono float32 @ 16 kHz.
type Listener interface {
	Listen(ctx context.Context) ([]float32, error)
}

type ListenFunc func(ctx context.Context) ([]float32, error)

func (f ListenFunc) Listen(ctx context.Context) ([]float32, error) { return f(ctx) }

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

type Router interface {
	Route(ctx context.Context, text string) router.Result
}

// Responder delivers a reply to the user, by voice or on screen.
type Responder interface {
	Respond(text string) error
}

type ResponderFunc func(text string) error

func (f ResponderFunc) Respond(text string) error { return f(text) }

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Pipeline struct {
	listener Listener
	stt      Transcriber
	router   Router
	out      Responder

	// Optional hooks.
	Cue           func() error
	Ducker        Ducker
	Metrics       *metrics.Metrics
	RecordingPath string // last command is saved here as WAV when set

	log *log.Logger
}

func New(listener Listener, stt Transcriber, r Router, out Responder) *Pipeline {
	return &Pipeline{
		listener: listener,
		stt:      stt,
		router:   r,
		out:      out,
		log:      log.Default().With("component", "assistant"),
	}
}

// Handle runs one activation: cue, listen, transcribe, route, reply.
// Collaborator failures are logged and end the activation; Handle reports
// whether the user asked the assistant to exit.
func (p *Pipeline) Handle(ctx context.Context) bool {
	if p.Metrics != nil {
		p.Metrics.Activations.Inc()
	}

	if p.Cue != nil {
		if err := p.Cue(); err != nil {
			p.log.Warn("Failed to play cue", "err", err)
		}
	}

	if p.Ducker != nil {
		if err := p.Ducker.Duck(ctx); err != nil {
			p.log.Warn("Failed to duck audio", "err", err)
		}
		defer func() {
			// restore even when ctx is already cancelled
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.Ducker.Restore(rctx); err != nil {
				p.log.Warn("Failed to restore audio", "err", err)
			}
		}()
	}

	lctx, cancel := context.WithTimeout(ctx, listenTimeout)
	defer cancel()

	p.log.Info("Listening")
	pcm, err := p.listener.Listen(lctx)
	if err != nil {
		p.fail("record", err)
		return false
	}
	p.log.Debug("Recorded", "samples", len(pcm))

	if p.RecordingPath != "" {
		if err := audioconv.WriteWAV(p.RecordingPath, pcm); err != nil {
			p.log.Warn("Failed to save recording", "path", p.RecordingPath, "err", err)
		}
	}

	start := time.Now()
	text, err := p.stt.Transcribe(lctx, pcm)
	if p.Metrics != nil {
		p.Metrics.STTDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		p.fail("stt", err)
		return false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		if p.Metrics != nil {
			p.Metrics.EmptyCommands.Inc()
		}
		p.respond(NotHeardReply)
		return false
	}
	p.log.Info("Transcribed", "text", text)

	start = time.Now()
	res := p.router.Route(ctx, text)
	p.log.Info("Routed", "kind", res.Kind, "reply", res.Reply, "exit", res.Exit)
	if p.Metrics != nil {
		p.Metrics.Routes.WithLabelValues(string(res.Kind)).Inc()
	}

	p.respond(res.Reply)
	if p.Metrics != nil {
		p.Metrics.ReplyDuration.Observe(time.Since(start).Seconds())
	}

	return res.Exit
}

// OnWake adapts Handle to a wake-word callback. A routed exit calls stop.
func (p *Pipeline) OnWake(ctx context.Context, stop context.CancelFunc) func() {
	return func() {
		if p.Handle(ctx) {
			stop()
		}
	}
}

// Loop runs activations back to back until exit or cancellation.
func (p *Pipeline) Loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.Handle(ctx) {
			return nil
		}
	}
}

// Serve runs one activation per trigger until exit, cancellation or the
// trigger channel closes.
func (p *Pipeline) Serve(ctx context.Context, triggers <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-triggers:
			if !ok {
				return nil
			}
			if p.Handle(ctx) {
				return nil
			}
		}
	}
}

func (p *Pipeline) respond(text string) {
	if text == "" {
		return
	}
	if err := p.out.Respond(text); err != nil {
		p.fail("reply", err)
	}
}

func (p *Pipeline) fail(stage string, err error) {
	p.log.Error("Pipeline stage failed", "stage", stage, "err", err)
	if p.Metrics != nil {
		p.Metrics.PipelineErrors.WithLabelValues(stage).Inc()
	}
}
