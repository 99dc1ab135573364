package main

import (
	"errors"
	"testing"

	"screenknow/internal/domain"
)

func TestSessionReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.SessionStateReason]string{
		domain.SessionReasonAppReady:           "Ready",
		domain.SessionReasonRecordingStarted:   "Recording. Ask your question",
		domain.SessionReasonRecordingRestarted: "Recording restarted; previous question discarded",
		domain.SessionReasonAwaitingAnswer:     "Recording stopped. Analyzing your screen...",
		domain.SessionReasonAnswerReady:        "Answer ready",
		domain.SessionReasonAnswerCopied:       "Answer copied to clipboard",
		domain.SessionReasonClipboardFailed:    "Answer ready (clipboard write failed)",
		domain.SessionReasonRecordingDiscarded: "Question discarded",
		domain.SessionReasonEmptyAnswer:        "No answer received",
		domain.SessionReasonChannelFailed:      "Connection to the analysis backend failed",
		domain.SessionReasonPermissionDenied:   "Microphone access denied",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := sessionReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := sessionReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:      "Startup failed",
		domain.ErrorCodePermission:   "Microphone access denied",
		domain.ErrorCodeConnectivity: "Connection to the analysis backend failed",
		domain.ErrorCodeDecode:       "Received a malformed answer message",
		domain.ErrorCodeUpstream:     "The analysis backend reported an error",
		domain.ErrorCodeAudioStop:    "Audio stop issue",
		domain.ErrorCodeAudioStream:  "Audio streaming issue",
		domain.ErrorCodeClipboard:    "Clipboard write failed",
		domain.ErrorCodeDescribe:     "Describe request failed",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.SessionStateIdle || status.Active {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot")
	status = app.GetStatus()
	if status.State != domain.SessionStateError || status.Active != false || status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
}
