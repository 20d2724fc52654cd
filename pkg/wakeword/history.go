package wakeword

// history is a bounded FIFO of raw scores for one model.
type history struct {
	scores []float64
	max    int
}

func newHistory(max int) *history {
	return &history{
		scores: make([]float64, 0, max),
		max:    max,
	}
}

func (h *history) push(score float64) {
	if len(h.scores) == h.max {
		copy(h.scores, h.scores[1:])
		h.scores = h.scores[:h.max-1]
	}
	h.scores = append(h.scores, score)
}

func (h *history) mean() float64 {
	if len(h.scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range h.scores {
		sum += s
	}
	return sum / float64(len(h.scores))
}

// peak returns the max of the last n raw scores.
func (h *history) peak(n int) float64 {
	if n > len(h.scores) {
		n = len(h.scores)
	}
	var best float64
	for _, s := range h.scores[len(h.scores)-n:] {
		if s > best {
			best = s
		}
	}
	return best
}

func (h *history) reset() {
	h.scores = h.scores[:0]
}

func (h *history) len() int {
	return len(h.scores)
}

func (h *history) snapshot() []float64 {
	return append([]float64(nil), h.scores...)
}
