package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"time"

	"echo/internal/assistant"
	"echo/internal/audio"
	"echo/internal/brain"
	"echo/internal/config"
	"echo/internal/ipc"
	"echo/internal/metrics"
	"echo/internal/notify"
	"echo/internal/proxy"
	"echo/internal/router"
	"echo/internal/skills"
	"echo/internal/tts"
	"echo/pkg/stt"
	"echo/pkg/wakeword"
	"echo/pkg/wakeword/wsscore"
)

func serve(ctx context.Context, stop context.CancelFunc, cfg config.Config, m *metrics.Metrics) error {
	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	log.Debug("Loaded proxy", "proxy", cfg.Proxy)

	settings := cfg.Brain
	settings.HTTPClient = httpClient
	backend, err := brain.NewBackend(ctx, settings)
	if err != nil {
		return err
	}
	log.Debug("Loaded brain", "backend", backend.Name())

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	apps, err := skills.LoadAppTable(cfg.AppsFile)
	if err != nil {
		return err
	}
	r := router.New(
		brain.New(backend, config.AssistantName),
		skills.XDG{},
		apps,
		skills.NewNotes(cfg.DataDir),
		skills.NewMemory(cfg.DataDir),
	)

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer rec.Close()
	log.Debug("Loaded recorder")

	whisper, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{Language: cfg.Language})
	if err != nil {
		return fmt.Errorf("init whisper: %w", err)
	}
	defer whisper.Close()
	log.Debug("Loaded whisper", "model", cfg.WhisperModel)

	p := assistant.New(listener(rec, cfg.RecordDuration()), whisper, r, responder(cfg))
	p.Cue = cue(cfg)
	p.Ducker = audio.NewDucker(audio.Pactl{}, []string{"echo", "espeak-ng"}, 0.3, 10, 150*time.Millisecond)
	p.Metrics = m
	if cfg.LogLevel <= log.LevelDebug {
		p.RecordingPath = filepath.Join(cfg.DataDir, "last_command.wav")
	}

	triggers := make(chan struct{}, 1)
	ipcDone, err := ipc.StartServer(ctx, cfg.Socket, func(_ context.Context, msg ipc.ControlMessage) error {
		switch msg.Cmd {
		case ipc.CmdStop:
			log.Info("Stop requested")
			stop()
		case ipc.CmdTrigger:
			if cfg.Mode != config.ModeHotkey {
				return fmt.Errorf("trigger needs hotkey mode, running %s", cfg.Mode)
			}
			select {
			case triggers <- struct{}{}:
			default:
				return errors.New("busy")
			}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return fmt.Errorf("unknown command %q", msg.Cmd)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ipc server: %w", err)
	}
	defer func() {
		stop()
		<-ipcDone
	}()

	log.Info("Boot up - successful")

	switch cfg.Mode {
	case config.ModeLoop:
		return p.Loop(ctx)
	case config.ModeHotkey:
		return p.Serve(ctx, triggers)
	default:
		return listenForWake(ctx, stop, cfg, m, p)
	}
}

func listenForWake(ctx context.Context, stop context.CancelFunc, cfg config.Config, m *metrics.Metrics, p *assistant.Pipeline) error {
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

	frames, err := audio.OpenFrameStream(wakeword.FrameLength)
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer frames.Close()

	return mon.Run(ctx, frames, p.OnWake(ctx, stop))
}

func listener(rec *audio.Recorder, d time.Duration) assistant.Listener {
	return assistant.ListenFunc(func(context.Context) ([]float32, error) {
		if d > 0 {
			return rec.Record(d)
		}
		return rec.RecordAuto()
	})
}

func responder(cfg config.Config) assistant.Responder {
	if cfg.Response == config.ResponsePopup {
		return assistant.ResponderFunc(notify.Popup{Title: config.AssistantName}.Show)
	}
	return assistant.ResponderFunc(tts.NewSpeaker(cfg.Language, 0, 0).Speak)
}

func cue(cfg config.Config) func() error {
	return func() error {
		if cfg.Response == config.ResponsePopup {
			if err := (notify.Popup{Title: config.AssistantName}).Show("Listening..."); err != nil {
				log.Warn("Failed to show popup", "err", err)
			}
		}
		return notify.Chime(cfg.ChimeFile)
	}
}
