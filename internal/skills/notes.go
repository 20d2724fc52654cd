package skills

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const stampLayout = "2006-01-02 15:04"

type Notes struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewNotes(dataDir string) *Notes {
	return &Notes{path: filepath.Join(dataDir, "notes.txt"), now: time.Now}
}

func (n *Notes) Add(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "Empty note."
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(n.path), 0o755); err != nil {
		return "I couldn't save the note."
	}
	f, err := os.OpenFile(n.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "I couldn't save the note."
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", n.now().Format(stampLayout), text); err != nil {
		return "I couldn't save the note."
	}
	return "Note saved."
}

func (n *Notes) List(limit int) string {
	notes, err := n.load()
	if err != nil {
		return "I couldn't read your notes."
	}
	if len(notes) == 0 {
		return "You have no notes yet."
	}

	last := tail(notes, limit)
	return fmt.Sprintf("Your last %d notes are: %s", len(last), strings.Join(last, " | "))
}

func (n *Notes) Search(query string, limit int) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "What should I search for in your notes?"
	}

	notes, err := n.load()
	if err != nil {
		return "I couldn't read your notes."
	}
	if len(notes) == 0 {
		return "You have no notes yet."
	}

	var matches []string
	for _, note := range notes {
		if strings.Contains(strings.ToLower(note), q) {
			matches = append(matches, note)
		}
	}
	if len(matches) == 0 {
		return fmt.Sprintf("I couldn't find any notes containing '%s'.", query)
	}

	top := tail(matches, limit)
	return fmt.Sprintf("I found %d notes matching '%s'. Here are some: %s",
		len(matches), query, strings.Join(top, " | "))
}

func (n *Notes) load() ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	f, err := os.Open(n.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func tail(s []string, n int) []string {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
