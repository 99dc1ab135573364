// Package stt turns recorded audio into question text.
package stt

import "context"

// Transcriber converts one complete utterance into text. The audio is
// a full recording in the negotiated container format; an empty mime
// type means raw signed 16-bit PCM.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
