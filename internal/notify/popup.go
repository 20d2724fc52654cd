package notify

import (
	"strings"

	"github.com/gen2brain/beeep"
)

// popupLimit keeps desktop bubbles readable.
const popupLimit = 400

type Popup struct {
	Title string
}

func (p Popup) Show(message string) error {
	return beeep.Notify(p.Title, Truncate(message, popupLimit), "")
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
