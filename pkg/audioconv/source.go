package audioconv

import (
	"context"
	"io"
)

// FileSource replays decoded audio as fixed-size int16 frames.
// It satisfies wakeword.FrameSource. The last partial frame is
// zero-padded, after which ReadFrame returns io.EOF.
type FileSource struct {
	samples []int16
	frame   int
	pos     int
}

func NewFileSource(path string, frameLength int) (*FileSource, error) {
	pcm, err := DecodeFile(path, Options{})
	if err != nil {
		return nil, err
	}
	return NewSliceSource(Float32ToInt16(pcm), frameLength), nil
}

func NewSliceSource(samples []int16, frameLength int) *FileSource {
	return &FileSource{samples: samples, frame: frameLength}
}

func (s *FileSource) ReadFrame(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.samples) {
		return nil, io.EOF
	}

	out := make([]int16, s.frame)
	n := copy(out, s.samples[s.pos:])
	s.pos += n
	return out, nil
}

// Frames is the number of frames the source yields in total.
func (s *FileSource) Frames() int {
	return (len(s.samples) + s.frame - 1) / s.frame
}
