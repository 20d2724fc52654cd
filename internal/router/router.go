package router

import (
	"context"
	"strings"

	"echo/internal/skills"
)

type Kind string

const (
	Control Kind = "control"
	Chat    Kind = "chat"
)

type Result struct {
	Kind  Kind
	Reply string
	Exit  bool
}

// Brain answers anything no skill claims.
type Brain interface {
	Reply(ctx context.Context, text string) string
}

type Router struct {
	brain    Brain
	launcher skills.Launcher
	apps     *skills.AppTable
	notes    *skills.Notes
	memory   *skills.Memory

	NoteLimit int
}

func New(brain Brain, launcher skills.Launcher, apps *skills.AppTable, notes *skills.Notes, memory *skills.Memory) *Router {
	return &Router{
		brain:     brain,
		launcher:  launcher,
		apps:      apps,
		notes:     notes,
		memory:    memory,
		NoteLimit: 5,
	}
}

var (
	exitPhrases      = []string{"exit assistant", "stop assistant", "quit assistant"}
	noteSearchPrefix = []string{"search my notes for", "find notes about"}
	webSearchPrefix  = []string{"search for", "search"}
	notePrefix       = []string{"take a note", "create a note", "note that"}
	memoryPrefix     = []string{"remember that", "remember to", "remember"}
	recallPrefix     = []string{"what do you remember about", "what do you know about", "recall"}
	youtubeSuffix    = []string{"on youtube", "on you tube", "from youtube", "on yt"}
	showNotesPhrases = []string{
		"show my notes", "show me my notes", "read my notes",
		"list my notes", "display my notes", "open my notes",
	}
)

func (r *Router) Route(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	if containsAny(lower, exitPhrases) {
		return Result{Kind: Control, Reply: "Goodbye.", Exit: true}
	}

	if containsAny(lower, showNotesPhrases) {
		return control(r.notes.List(r.NoteLimit))
	}

	if rest, ok := cutPrefix(text, noteSearchPrefix); ok {
		return control(r.notes.Search(rest, r.NoteLimit))
	}

	if rest, ok := cutWord(text, "open"); ok {
		return control(skills.OpenApp(r.launcher, r.apps, rest))
	}

	if rest, ok := cutPrefix(text, webSearchPrefix); ok {
		return control(skills.SearchWeb(r.launcher, rest))
	}

	if rest, ok := cutPrefix(text, notePrefix); ok {
		return control(r.notes.Add(rest))
	}

	if rest, ok := cutWord(text, "play"); ok {
		return control(skills.PlayYouTube(r.launcher, trimSuffix(rest, youtubeSuffix)))
	}

	if rest, ok := cutPrefix(text, memoryPrefix); ok {
		return control(r.memory.Store(rest))
	}

	if rest, ok := cutPrefix(text, recallPrefix); ok {
		return control(r.memory.Recall(rest))
	}

	return Result{Kind: Chat, Reply: r.brain.Reply(ctx, text)}
}

func control(reply string) Result {
	return Result{Kind: Control, Reply: reply}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// cutPrefix strips the first matching phrase (case-insensitive) and
// trims separators STT tends to leave around the remainder.
func cutPrefix(text string, prefixes []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range prefixes {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		rest := text[len(p):]
		// "searching" must not match "search"
		if rest != "" && !isSeparator(rest[0]) {
			continue
		}
		return strings.Trim(rest, " :,."), true
	}
	return "", false
}

func cutWord(text, word string) (string, bool) {
	return cutPrefix(text, []string{word})
}

func isSeparator(b byte) bool {
	return b == ' ' || b == ':' || b == ',' || b == '.'
}

func trimSuffix(s string, suffixes []string) string {
	lower := strings.ToLower(s)
	for _, suf := range suffixes {
		if strings.HasSuffix(lower, suf) {
			return strings.Trim(s[:len(s)-len(suf)], " ,.")
		}
	}
	return s
}
