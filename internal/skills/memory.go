package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Fact struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Fact      string   `json:"fact"`
	Tags      []string `json:"tags"`
}

type Memory struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewMemory(dataDir string) *Memory {
	return &Memory{path: filepath.Join(dataDir, "memory.json"), now: time.Now}
}

func (m *Memory) Store(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "Blank memory."
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	facts, err := m.load()
	if err != nil {
		return "I couldn't open my memory."
	}

	facts = append(facts, Fact{
		ID:        uuid.NewString(),
		Timestamp: m.now().Format(stampLayout),
		Fact:      text,
		Tags:      strings.Fields(strings.ToLower(text)),
	})

	if err := m.save(facts); err != nil {
		return "I couldn't save that memory."
	}
	return "Okay, I'll remember that."
}

func (m *Memory) Recall(query string) string {
	m.mu.Lock()
	facts, err := m.load()
	m.mu.Unlock()
	if err != nil {
		return "I couldn't open my memory."
	}
	if len(facts) == 0 {
		return "I don't remember anything yet."
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var hits []string
	for _, f := range facts {
		if strings.Contains(strings.ToLower(f.Fact), q) || hasTag(f.Tags, q) {
			hits = append(hits, f.Fact)
		}
	}
	if len(hits) == 0 {
		return fmt.Sprintf("I don't remember anything about %s.", query)
	}
	return fmt.Sprintf("Here's what I remember about %s: %s", query, strings.Join(hits, "; "))
}

func hasTag(tags []string, q string) bool {
	for _, t := range tags {
		if t == q {
			return true
		}
	}
	return false
}

func (m *Memory) load() ([]Fact, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var facts []Fact
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", m.path, err)
	}
	return facts, nil
}

func (m *Memory) save(facts []Fact) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
