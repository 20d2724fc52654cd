package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"echo/internal/brain"
	"echo/pkg/wakeword"
)

const AssistantName = "Echo"

var ErrUsage = errors.New("invalid usage")

var LogLevels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type Mode string

const (
	ModeWake   Mode = "wake"
	ModeLoop   Mode = "loop"
	ModeHotkey Mode = "hotkey"
	ModeScan   Mode = "scan"
)

type Response string

const (
	ResponsePopup Response = "popup"
	ResponseVoice Response = "voice"
)

type Config struct {
	EnvFile  string
	LogLevel log.Level

	Mode     Mode
	Response Response

	Wake      wakeword.Config
	ScorerURL string
	ScanFile  string

	WhisperModel  string
	Language      string
	RecordSeconds float64 // 0 => stop on silence

	ChimeFile   string
	Proxy       string
	DataDir     string
	AppsFile    string
	MetricsAddr string
	Socket      string

	Brain brain.Settings
}

func (c Config) RecordDuration() time.Duration {
	return time.Duration(c.RecordSeconds * float64(time.Second))
}

// Load parses args, loads the env file and reads backend settings from
// the environment.
func Load(args []string) (Config, error) {
	fs := cli.NewFlagSet("echo", cli.ContinueOnError)

	def := wakeword.DefaultConfig()

	envFile := fs.StringP("env", "e", ".env", "Env file path")
	logLevel := fs.StringP("log", "l", "info", "Log level")
	mode := fs.StringP("mode", "m", string(ModeWake), "Run mode: wake, loop, hotkey, scan")
	models := fs.StringSliceP("wake-models", "w", []string{"hey_jarvis"}, "Wake-word models to listen for")
	threshold := fs.Float64P("threshold", "t", def.Threshold, "Detection threshold in (0, 1]")
	window := fs.Int("window", def.Window, "Smoothing window in frames")
	peakMul := fs.Float64("peak-multiplier", def.PeakMultiplier, "Single-frame spike multiplier over threshold")
	scorerURL := fs.String("scorer-url", "ws://127.0.0.1:9002/score", "Wake-word scorer websocket")
	whisperModel := fs.String("whisper-model", "models/ggml-base.bin", "Whisper model path")
	language := fs.String("language", "en", "Transcription language or auto")
	recordSeconds := fs.Float64("record-seconds", 5, "Command length in seconds, 0 stops on silence")
	response := fs.StringP("response", "r", string(ResponseVoice), "Reply mode: popup or voice")
	proxyAddr := fs.StringP("proxy", "p", "", "Socks proxy address for LLM backends")
	dataDir := fs.String("data-dir", defaultDataDir(), "Directory for notes and memory")
	apps := fs.String("apps", "", "YAML file with app name overrides")
	metricsAddr := fs.String("metrics-addr", "", "Prometheus listen address, empty disables")
	scanFile := fs.StringP("file", "f", "", "Audio file for scan mode")
	socket := fs.String("socket", "", "Control socket path")
	chime := fs.String("chime", "", "Mp3 played when listening starts")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	level, ok := LogLevels[strings.ToLower(*logLevel)]
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown log level %q", ErrUsage, *logLevel)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := Config{
		EnvFile:  *envFile,
		LogLevel: level,
		Mode:     Mode(strings.ToLower(*mode)),
		Response: Response(strings.ToLower(*response)),
		Wake: wakeword.Config{
			Models:         *models,
			Threshold:      *threshold,
			Window:         *window,
			PeakMultiplier: *peakMul,
			PeakLookback:   def.PeakLookback,
		},
		ScorerURL:     *scorerURL,
		ScanFile:      *scanFile,
		WhisperModel:  *whisperModel,
		Language:      *language,
		RecordSeconds: *recordSeconds,
		ChimeFile:     *chime,
		Proxy:         *proxyAddr,
		DataDir:       *dataDir,
		AppsFile:      *apps,
		MetricsAddr:   *metricsAddr,
		Socket:        *socket,
		Brain:         brainFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeWake, ModeLoop, ModeHotkey:
	case ModeScan:
		if c.ScanFile == "" {
			return fmt.Errorf("%w: scan mode needs --file", ErrUsage)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrUsage, c.Mode)
	}

	switch c.Response {
	case ResponsePopup, ResponseVoice:
	default:
		return fmt.Errorf("%w: unknown response mode %q", ErrUsage, c.Response)
	}

	if c.RecordSeconds < 0 {
		return fmt.Errorf("%w: negative --record-seconds", ErrUsage)
	}
	if c.Mode == ModeLoop && c.RecordSeconds == 0 {
		return fmt.Errorf("%w: loop mode needs a fixed --record-seconds", ErrUsage)
	}

	if c.Mode == ModeWake || c.Mode == ModeScan {
		if err := c.Wake.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func brainFromEnv() brain.Settings {
	return brain.Settings{
		Backend:         getenv("LLM_BACKEND", "dummy"),
		AssistantName:   AssistantName,
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getenv("OPENAI_MODEL", "gpt-4.1-mini"),
		PerplexityKey:   os.Getenv("PERPLEXITY_API_KEY"),
		PerplexityModel: getenv("PERPLEXITY_MODEL", "sonar-reasoning"),
		OllamaURL:       getenv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:     getenv("OLLAMA_MODEL", "llama3.2"),
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "echo")
	}
	return ".echo"
}
