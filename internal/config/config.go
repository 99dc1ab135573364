package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the desktop app and the
// analysis backend. Both read the same file so a single .env can drive
// a local setup end to end.
type Config struct {
	Backend BackendConfig
	Audio   AudioConfig
	Session SessionConfig
	Rules   RulesConfig
	Server  ServerConfig
	STT     STTConfig
	Vision  VisionConfig
	Events  EventsConfig
	Log     LogConfig
}

// BackendConfig points the desktop app at the analysis backend.
type BackendConfig struct {
	BaseURL string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

// SessionConfig controls capture sessions on the app side.
type SessionConfig struct {
	MimePreferences []string
	ChunkInterval   time.Duration
	AnswerWait      time.Duration
	CopyAnswer      bool
}

type RulesConfig struct {
	Path           string
	IterationLimit int
}

// ServerConfig controls the analysis backend listeners.
type ServerConfig struct {
	Addr           string
	MetricsAddr    string
	AllowedOrigins []string
	StreamDelay    time.Duration
	Display        int
}

// STTConfig selects and configures the transcription provider.
type STTConfig struct {
	Provider string
	Language string

	DeepgramAPIKey  string
	DeepgramBaseURL string
	DeepgramModel   string
}

// VisionConfig selects and configures the screen analysis model.
type VisionConfig struct {
	Provider string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	OpenAIAPIKey string
	OpenAIModel  string
}

// EventsConfig controls the session event stream. Disabled by default;
// events are logged instead of published.
type EventsConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	defaultRules := filepath.Join(home, ".config", "screenknow", "question.rules")
	rulesPath := strings.TrimSpace(os.Getenv("SCREENKNOW_RULES_FILE"))
	if rulesPath == "" {
		rulesPath = firstExisting(defaultRules)
	}

	cfg := Config{
		Backend: BackendConfig{
			BaseURL: envOrDefault("SCREENKNOW_BACKEND_URL", "http://localhost:8000"),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("SCREENKNOW_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("SCREENKNOW_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice: firstNonEmpty(
				os.Getenv("SCREENKNOW_AUDIO_INPUT_DEVICE"),
				os.Getenv("SCREENKNOW_PULSE_SOURCE"),
				"default",
			),
			SampleRate: envOrDefaultInt("SCREENKNOW_SAMPLE_RATE", 16000),
			Channels:   envOrDefaultInt("SCREENKNOW_CHANNELS", 1),
		},
		Session: SessionConfig{
			MimePreferences: splitList(envOrDefault(
				"SCREENKNOW_MIME_PREFERENCES",
				"audio/webm;codecs=opus,audio/webm,audio/ogg;codecs=opus",
			)),
			ChunkInterval: time.Duration(envOrDefaultInt("SCREENKNOW_CHUNK_INTERVAL_MS", 1000)) * time.Millisecond,
			AnswerWait:    time.Duration(envOrDefaultInt("SCREENKNOW_ANSWER_WAIT_MS", 30000)) * time.Millisecond,
			CopyAnswer:    envOrDefaultBool("SCREENKNOW_COPY_ANSWER", true),
		},
		Rules: RulesConfig{
			Path:           rulesPath,
			IterationLimit: envOrDefaultInt("SCREENKNOW_RULE_ITERATION_LIMIT", 30),
		},
		Server: ServerConfig{
			Addr:           envOrDefault("SCREENKNOW_SERVER_ADDR", ":8000"),
			MetricsAddr:    envOrDefault("SCREENKNOW_METRICS_ADDR", ":9090"),
			AllowedOrigins: splitList(envOrDefault("SCREENKNOW_ALLOWED_ORIGINS", "*")),
			StreamDelay:    time.Duration(envOrDefaultInt("SCREENKNOW_STREAM_DELAY_MS", 50)) * time.Millisecond,
			Display:        envOrDefaultInt("SCREENKNOW_DISPLAY", 0),
		},
		STT: STTConfig{
			Provider: strings.ToLower(envOrDefault("SCREENKNOW_STT_PROVIDER", "deepgram")),
			Language: strings.TrimSpace(os.Getenv("SCREENKNOW_STT_LANGUAGE")),

			DeepgramAPIKey:  strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			DeepgramBaseURL: envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			DeepgramModel:   envOrDefault("DEEPGRAM_MODEL", "nova-2"),
		},
		Vision: VisionConfig{
			Provider: strings.ToLower(envOrDefault("SCREENKNOW_VISION_PROVIDER", "gemini")),

			GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			GeminiBaseURL: envOrDefault("GEMINI_API_BASE", "https://generativelanguage.googleapis.com/v1beta"),
			GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),

			OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			OpenAIModel:  envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Events: EventsConfig{
			Enabled: envOrDefaultBool("SCREENKNOW_EVENTS_ENABLED", false),
			Brokers: splitList(envOrDefault("SCREENKNOW_KAFKA_BROKERS", "localhost:9092")),
			Topic:   envOrDefault("SCREENKNOW_KAFKA_TOPIC", "screenknow.sessions"),
		},
		Log: LogConfig{
			Level:  envOrDefault("SCREENKNOW_LOG_LEVEL", "info"),
			Pretty: envOrDefaultBool("SCREENKNOW_LOG_PRETTY", false),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkInterval <= 0 {
		cfg.Session.ChunkInterval = time.Second
	}
	if cfg.Session.AnswerWait <= 0 {
		cfg.Session.AnswerWait = 30 * time.Second
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Server.StreamDelay < 0 {
		cfg.Server.StreamDelay = 50 * time.Millisecond
	}
	if cfg.Server.Display < 0 {
		cfg.Server.Display = 0
	}

	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
