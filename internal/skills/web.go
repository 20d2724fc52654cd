package skills

import (
	"fmt"
	"net/url"
	"strings"
)

func SearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

func YouTubeURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}

func SearchWeb(l Launcher, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "What should I search for?"
	}
	if err := l.OpenURL(SearchURL(query)); err != nil {
		return "Couldn't open the browser."
	}
	return fmt.Sprintf("Searching the web for %s", query)
}

func PlayYouTube(l Launcher, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "What should I play on YouTube?"
	}
	if err := l.OpenURL(YouTubeURL(query)); err != nil {
		return "Couldn't open the browser."
	}
	return fmt.Sprintf("Playing %s on YouTube (opening results).", query)
}
