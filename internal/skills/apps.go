package skills

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

var DefaultApps = map[string]string{
	"firefox":    "firefox",
	"chrome":     "google-chrome",
	"vs code":    "code",
	"vscode":     "code",
	"terminal":   "x-terminal-emulator",
	"files":      "nautilus",
	"calculator": "gnome-calculator",
	"settings":   "gnome-control-center",
	"spotify":    "spotify",
	"telegram":   "telegram-desktop",

	"youtube":       "https://www.youtube.com",
	"youtube music": "https://music.youtube.com",
	"google":        "https://www.google.com",
	"github":        "https://www.github.com",
	"stackoverflow": "https://stackoverflow.com",
	"reddit":        "https://www.reddit.com",
	"gmail":         "https://mail.google.com",
	"news":          "https://news.google.com",
	"weather":       "https://www.weather.com",
	"maps":          "https://www.google.com/maps",
	"calendar":      "https://calendar.google.com",
	"drive":         "https://drive.google.com",
	"translate":     "https://translate.google.com",
}

type AppTable struct {
	targets map[string]string
	keys    []string // longest first so "youtube music" beats "youtube"
}

func NewAppTable(targets map[string]string) *AppTable {
	t := &AppTable{targets: make(map[string]string, len(targets))}
	for k, v := range targets {
		t.targets[strings.ToLower(strings.TrimSpace(k))] = v
	}
	t.index()
	return t
}

// LoadAppTable merges a YAML name->target mapping over DefaultApps.
func LoadAppTable(path string) (*AppTable, error) {
	merged := make(map[string]string, len(DefaultApps))
	for k, v := range DefaultApps {
		merged[k] = v
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read apps file %s: %w", path, err)
		}
		var extra map[string]string
		if err := yaml.Unmarshal(data, &extra); err != nil {
			return nil, fmt.Errorf("parse apps file %s: %w", path, err)
		}
		for k, v := range extra {
			merged[k] = v
		}
	}

	return NewAppTable(merged), nil
}

func (t *AppTable) index() {
	t.keys = t.keys[:0]
	for k := range t.targets {
		t.keys = append(t.keys, k)
	}
	sort.Slice(t.keys, func(i, j int) bool {
		if len(t.keys[i]) != len(t.keys[j]) {
			return len(t.keys[i]) > len(t.keys[j])
		}
		return t.keys[i] < t.keys[j]
	})
}

// Lookup matches loosely: "my github." finds "github".
func (t *AppTable) Lookup(spoken string) (name, target string, ok bool) {
	spoken = normalizeName(spoken)
	if spoken == "" {
		return "", "", false
	}
	if target, ok := t.targets[spoken]; ok {
		return spoken, target, true
	}
	for _, k := range t.keys {
		if strings.Contains(spoken, k) {
			return k, t.targets[k], true
		}
	}
	return "", "", false
}

func normalizeName(s string) string {
	return strings.TrimFunc(strings.ToLower(strings.TrimSpace(s)), unicode.IsPunct)
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// OpenApp launches a program or site by spoken name and returns the reply.
func OpenApp(l Launcher, apps *AppTable, spoken string) string {
	name, target, ok := apps.Lookup(spoken)
	if !ok {
		return fmt.Sprintf("I don't know how to open %s yet.", normalizeName(spoken))
	}

	if isURL(target) {
		if err := l.OpenURL(target); err != nil {
			return fmt.Sprintf("Couldn't open %s.", name)
		}
		return fmt.Sprintf("Opening %s in browser.", name)
	}

	if !l.Available(target) {
		return fmt.Sprintf("Couldn't open %s. File or command not found.", name)
	}
	if err := l.Start(target); err != nil {
		return fmt.Sprintf("Couldn't open %s.", name)
	}
	return fmt.Sprintf("Opening %s", name)
}
