package ports

import (
	"context"
	"io"

	"screenknow/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
	// MimeType is the negotiated transport encoding. Empty means the
	// capture falls back to raw PCM and the receiver uses its default.
	MimeType string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
	// Supports reports whether the device can emit the given encoding.
	Supports(mimeType string) bool
}

// AnswerChannel is an open duplex channel to the analysis backend.
// Outbound writes carry audio chunks plus the one-shot config message;
// inbound frames are raw payloads in strict arrival order.
type AnswerChannel interface {
	SendConfig(audioMimeType string) error
	SendChunk(chunk []byte) error
	// CloseSend flushes pending chunks and sends the end-of-stream
	// sentinel. Safe to call more than once.
	CloseSend() error
	Frames() <-chan []byte
	// Wait blocks until the channel has fully shut down and returns the
	// terminal error, nil for a normal close.
	Wait() error
	Close() error
}

// ChannelDialer opens duplex channels to the analysis backend.
type ChannelDialer interface {
	Open(ctx context.Context) (AnswerChannel, error)
}

// VisionClient submits a typed question about the current screen and
// streams back the plain-text answer.
type VisionClient interface {
	Describe(ctx context.Context, question string) (io.ReadCloser, error)
}

// RulesEngine cleans up question text using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	ConnectionStateChanged(state domain.ConnectionState)
	BlocksUpdated(blocks []domain.ContentBlock)
	AnswerChunk(text string)
	AnswerReady(result domain.AskResult)
	SessionError(code domain.ErrorCode, detail string)
}
