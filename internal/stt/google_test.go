package stt

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
)

func TestEncodingForMime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  speechpb.RecognitionConfig_AudioEncoding
	}{
		{"audio/webm", speechpb.RecognitionConfig_WEBM_OPUS},
		{"audio/webm;codecs=opus", speechpb.RecognitionConfig_WEBM_OPUS},
		{"Audio/WebM; Codecs=Opus", speechpb.RecognitionConfig_WEBM_OPUS},
		{"audio/ogg", speechpb.RecognitionConfig_OGG_OPUS},
		{"audio/ogg;codecs=opus", speechpb.RecognitionConfig_OGG_OPUS},
		{"", speechpb.RecognitionConfig_LINEAR16},
		{"audio/mp4", speechpb.RecognitionConfig_LINEAR16},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := encodingForMime(tt.input); got != tt.want {
				t.Fatalf("encodingForMime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
