package brain

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
)

type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Backend produces the assistant's next message for a conversation.
// msgs always starts with the system prompt and ends with the user turn.
type Backend interface {
	Name() string
	Complete(ctx context.Context, msgs []Message) (string, error)
}

const DefaultMaxHistory = 15

type Brain struct {
	mu         sync.Mutex
	backend    Backend
	history    []Message
	maxHistory int
}

func New(backend Backend, assistantName string) *Brain {
	prompt := fmt.Sprintf("You are %s, a desktop voice assistant. "+
		"You respond concisely and helpfully.", assistantName)

	return &Brain{
		backend:    backend,
		history:    []Message{{Role: System, Content: prompt}},
		maxHistory: DefaultMaxHistory,
	}
}

// Reply never fails: backend errors become the spoken answer.
func (b *Brain) Reply(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "I didn't hear anything."
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	msgs := make([]Message, 0, len(b.history)+1)
	msgs = append(msgs, b.history...)
	msgs = append(msgs, Message{Role: User, Content: text})

	reply, err := b.backend.Complete(ctx, msgs)
	if err != nil {
		log.Error("Brain backend failed", "backend", b.backend.Name(), "err", err)
		reply = fmt.Sprintf("There was an error talking to the %s backend: %v", b.backend.Name(), err)
	}
	reply = strings.TrimSpace(reply)

	b.history = append(msgs, Message{Role: Assistant, Content: reply})
	b.trim()

	return reply
}

// trim keeps the system prompt plus the newest messages.
func (b *Brain) trim() {
	if len(b.history) <= b.maxHistory {
		return
	}
	keep := b.maxHistory - 1
	tail := b.history[len(b.history)-keep:]

	trimmed := make([]Message, 0, b.maxHistory)
	trimmed = append(trimmed, b.history[0])
	trimmed = append(trimmed, tail...)
	b.history = trimmed
}

func (b *Brain) History() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.history...)
}
