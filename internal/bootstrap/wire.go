// Package bootstrap assembles the runtime graphs for the desktop app
// and the analysis backend.
package bootstrap

import (
	"context"
	"strings"

	"screenknow/internal/audio"
	"screenknow/internal/config"
	"screenknow/internal/events"
	"screenknow/internal/observability/logging"
	"screenknow/internal/ports"
	"screenknow/internal/providers/backend"
	"screenknow/internal/rules"
	"screenknow/internal/screen"
	"screenknow/internal/server"
	"screenknow/internal/stt"
	"screenknow/internal/usecase"
	"screenknow/internal/vision"
)

// Services is the assembled desktop runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Describe   ports.VisionClient
	Config     config.Config
}

// Build wires the desktop app dependencies for the current runtime.
func Build(eventSink ports.EventSink, clipboard ports.Clipboard) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	controller := usecase.NewSessionController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		backend.NewDialer(backend.Config{BaseURL: cfg.Backend.BaseURL}),
		clipboard,
		eventSink,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			MimePreferences: cfg.Session.MimePreferences,
			ChunkInterval:   cfg.Session.ChunkInterval,
			AnswerWait:      cfg.Session.AnswerWait,
			CopyAnswer:      cfg.Session.CopyAnswer,
		},
	)

	return Services{
		Controller: controller,
		Describe:   backend.NewDescribeClient(nil, cfg.Backend.BaseURL),
		Config:     cfg,
	}, nil
}

// ServerServices is the assembled backend runtime graph.
type ServerServices struct {
	Server    *server.Server
	Publisher *events.Publisher
	Config    config.Config
}

// BuildServer wires the analysis backend dependencies.
func BuildServer(ctx context.Context) (ServerServices, error) {
	cfg, err := config.Load()
	if err != nil {
		return ServerServices{}, err
	}

	rulesEngine, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return ServerServices{}, err
	}

	transcriber, err := newTranscriber(ctx, cfg)
	if err != nil {
		return ServerServices{}, err
	}

	publisher := events.New(&events.Config{
		Enabled: cfg.Events.Enabled,
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
	})

	srv := server.New(
		server.Config{
			Addr:           cfg.Server.Addr,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			StreamDelay:    cfg.Server.StreamDelay,
			Display:        cfg.Server.Display,
		},
		transcriber,
		newDescriber(cfg),
		screen.NewGrabber(),
		rulesEngine,
		publisher,
	)

	return ServerServices{Server: srv, Publisher: publisher, Config: cfg}, nil
}

func newTranscriber(ctx context.Context, cfg config.Config) (stt.Transcriber, error) {
	switch cfg.STT.Provider {
	case "google":
		return stt.NewGoogle(ctx, stt.GoogleConfig{
			LanguageCode: cfg.STT.Language,
			SampleRateHz: cfg.Audio.SampleRate,
			Channels:     cfg.Audio.Channels,
		})
	case "mock":
		return stt.NewMock(""), nil
	default:
		if strings.TrimSpace(cfg.STT.DeepgramAPIKey) == "" {
			log := logging.WithComponent("bootstrap")
			log.Warn().Msg("DEEPGRAM_API_KEY not set, transcription uses the mock provider")
			return stt.NewMock(""), nil
		}
		return stt.NewDeepgram(stt.DeepgramConfig{
			APIKey:      cfg.STT.DeepgramAPIKey,
			APIBaseURL:  cfg.STT.DeepgramBaseURL,
			Model:       cfg.STT.DeepgramModel,
			Language:    cfg.STT.Language,
			SmartFormat: true,
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
		}), nil
	}
}

func newDescriber(cfg config.Config) vision.Describer {
	switch cfg.Vision.Provider {
	case "openai":
		return vision.NewOpenAI(vision.OpenAIConfig{
			APIKey: cfg.Vision.OpenAIAPIKey,
			Model:  cfg.Vision.OpenAIModel,
		})
	default:
		return vision.NewGemini(nil, vision.GeminiConfig{
			APIKey:  cfg.Vision.GeminiAPIKey,
			BaseURL: cfg.Vision.GeminiBaseURL,
			Model:   cfg.Vision.GeminiModel,
		})
	}
}
