package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"привет мир", 7, "привет…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.n), tt.in)
	}
}

func TestChimeEmptyPath(t *testing.T) {
	assert.NoError(t, Chime(""))
}

func TestChimeMissingFile(t *testing.T) {
	assert.Error(t, Chime("/nonexistent/chime.mp3"))
}
