package brain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Dummy answers a few canned questions without any network.
type Dummy struct {
	AssistantName string
	Now           func() time.Time
}

func (Dummy) Name() string { return "dummy" }

func (d Dummy) Complete(_ context.Context, msgs []Message) (string, error) {
	text := strings.TrimSpace(msgs[len(msgs)-1].Content)
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "your name"):
		return fmt.Sprintf("My name is %s.", d.AssistantName), nil

	case strings.Contains(lower, "what can you do"), strings.Contains(lower, "who are you"):
		return fmt.Sprintf("I'm %s, your local voice assistant. "+
			"I can open apps and websites, search the web, take notes and remember things.", d.AssistantName), nil

	case strings.Contains(lower, "time") && strings.Contains(lower, "what"):
		now := time.Now
		if d.Now != nil {
			now = d.Now
		}
		return fmt.Sprintf("It is currently %s.", now().Format("15:04")), nil
	}

	return fmt.Sprintf("You said: %s. I'm still a dummy brain; configure an LLM backend for real answers.", text), nil
}
