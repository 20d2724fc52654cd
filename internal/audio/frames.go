package audio

import (
	"context"
	"errors"
	log "log/slog"

	"github.com/gordonklaus/portaudio"
)

// FrameStream is the always-on microphone feed for the wake-word monitor:
// mono int16 @ 16 kHz in fixed blocks.
type FrameStream struct {
	stream *portaudio.Stream
	buf    []int16

	overflows uint64
}

func OpenFrameStream(frameLength int) (*FrameStream, error) {
	buf := make([]int16, frameLength)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	log.Debug("Opened frame stream", "rate", SampleRate, "frame", frameLength)

	return &FrameStream{stream: stream, buf: buf}, nil
}

// ReadFrame blocks for one frame. An input overflow means frames were
// dropped while nobody was reading (e.g. during a wake callback); the
// fresh frame is still valid, so it is returned.
func (fs *FrameStream) ReadFrame(_ context.Context) ([]int16, error) {
	if err := fs.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
		fs.overflows++
		log.Debug("Input overflowed, frames dropped", "count", fs.overflows)
	}

	out := make([]int16, len(fs.buf))
	copy(out, fs.buf)
	return out, nil
}

func (fs *FrameStream) Close() error {
	if err := fs.stream.Stop(); err != nil {
		fs.stream.Close()
		return err
	}
	return fs.stream.Close()
}
