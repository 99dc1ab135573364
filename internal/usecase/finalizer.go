package usecase

import (
	"context"

	"screenknow/internal/domain"
	"screenknow/internal/ports"
)

type answerFinalizer struct {
	clipboard  ports.Clipboard
	events     ports.EventSink
	copyAnswer bool
}

func newAnswerFinalizer(clipboard ports.Clipboard, events ports.EventSink, copyAnswer bool) answerFinalizer {
	return answerFinalizer{clipboard: clipboard, events: events, copyAnswer: copyAnswer}
}

// Finalize assembles the completed answer snapshot and, when enabled,
// hands the answer text to the clipboard. Clipboard failure is
// non-fatal.
func (f answerFinalizer) Finalize(ctx context.Context, blocks []domain.ContentBlock, errMsg string) (domain.AskResult, domain.SessionStateReason) {
	result := domain.AskResult{
		Blocks:       blocks,
		Rendered:     renderView(blocks),
		Answer:       answerText(blocks),
		ErrorMessage: errMsg,
	}
	reason := domain.SessionReasonAnswerReady

	if !f.copyAnswer || result.Answer == "" {
		return result, reason
	}

	if err := f.clipboard.SetText(ctx, result.Answer); err != nil {
		f.events.SessionError(domain.ErrorCodeClipboard, "answer ready but clipboard write failed")
		return result, domain.SessionReasonClipboardFailed
	}

	result.Copied = true
	return result, domain.SessionReasonAnswerCopied
}
