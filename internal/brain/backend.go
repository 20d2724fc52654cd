package brain

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type Settings struct {
	Backend       string // dummy, openai, ollama, perplexity, gemini
	AssistantName string

	OpenAIKey       string
	OpenAIModel     string
	PerplexityKey   string
	PerplexityModel string
	OllamaURL       string
	OllamaModel     string
	GeminiKey       string
	GeminiModel     string

	HTTPClient *http.Client
}

func NewBackend(ctx context.Context, s Settings) (Backend, error) {
	switch strings.ToLower(s.Backend) {
	case "", "dummy":
		return Dummy{AssistantName: s.AssistantName}, nil

	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("openai backend: OPENAI_API_KEY not set")
		}
		return NewOpenAI(OpenAIConfig{
			Name:       "openai",
			APIKey:     s.OpenAIKey,
			Model:      s.OpenAIModel,
			HTTPClient: s.HTTPClient,
		}), nil

	case "perplexity":
		if s.PerplexityKey == "" {
			return nil, fmt.Errorf("perplexity backend: PERPLEXITY_API_KEY not set")
		}
		return NewOpenAI(OpenAIConfig{
			Name:       "perplexity",
			APIKey:     s.PerplexityKey,
			BaseURL:    "https://api.perplexity.ai/",
			Model:      s.PerplexityModel,
			HTTPClient: s.HTTPClient,
		}), nil

	case "ollama":
		// local server, no proxy
		return NewOpenAI(OpenAIConfig{
			Name:    "ollama",
			APIKey:  "ollama",
			BaseURL: strings.TrimRight(s.OllamaURL, "/") + "/v1/",
			Model:   s.OllamaModel,
		}), nil

	case "gemini":
		return NewGemini(ctx, s.GeminiKey, s.GeminiModel, s.HTTPClient)

	default:
		return nil, fmt.Errorf("backend %q is not implemented", s.Backend)
	}
}
