package stt

import (
	"context"
	"sync"
)

// DefaultMockTranscript stands in for a real transcription when no
// provider credentials are configured.
const DefaultMockTranscript = "What can you see on my screen?"

// Mock implements Transcriber without calling any provider. Useful for
// local development and tests.
type Mock struct {
	transcript string

	mu         sync.Mutex
	audioBytes int
	calls      int
}

func NewMock(transcript string) *Mock {
	if transcript == "" {
		transcript = DefaultMockTranscript
	}
	return &Mock{transcript: transcript}
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	m.mu.Lock()
	m.audioBytes += len(audio)
	m.calls++
	m.mu.Unlock()
	return m.transcript, nil
}

// AudioBytes reports the total audio volume seen across calls.
func (m *Mock) AudioBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audioBytes
}

// Calls reports how many transcriptions were requested.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
