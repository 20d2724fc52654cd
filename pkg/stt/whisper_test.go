package stt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinSegments(t *testing.T) {
	segs := []Segment{
		{Text: " open"},
		{Text: "   "},
		{Text: "firefox. "},
	}
	assert.Equal(t, "open firefox.", joinSegments(segs))
	assert.Equal(t, "", joinSegments(nil))
}

func TestNewTranscriberRejectsEmptyPath(t *testing.T) {
	_, err := NewTranscriber("", Options{})
	assert.Error(t, err)
}

func TestTranscribeWithoutModel(t *testing.T) {
	var tr Transcriber
	_, err := tr.Transcribe(context.Background(), []float32{0})
	assert.EqualError(t, err, "nil model")
}
