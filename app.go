package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"screenknow/internal/bootstrap"
	"screenknow/internal/config"
	"screenknow/internal/domain"
	"screenknow/internal/ports"
	"screenknow/internal/usecase"
)

const (
	eventSession    = "screenknow:session"
	eventConnection = "screenknow:connection"
	eventBlocks     = "screenknow:blocks"
	eventChunk      = "screenknow:chunk"
	eventAnswer     = "screenknow:answer"
	eventError      = "screenknow:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.SessionController
	describe   ports.VisionClient
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, &wailsClipboard{})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.describe = services.Describe
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonAppReady)
}

// StartAsk begins recording a spoken question.
func (a *App) StartAsk() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.controller.Start(a.ctx); err != nil {
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// StopAsk finishes the recording and waits for the screen answer.
func (a *App) StopAsk() (domain.AskResult, error) {
	if err := a.requireReady(); err != nil {
		return domain.AskResult{}, err
	}
	result, err := a.controller.Stop(a.ctx)
	if err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return domain.AskResult{}, nil
		}
		return result, err
	}
	return result, nil
}

// AbortAsk discards an in-progress question.
func (a *App) AbortAsk() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.controller.Abort(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return nil
		}
		return err
	}
	return nil
}

// DescribeScreen answers a typed question about the current screen.
func (a *App) DescribeScreen(question string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}

	stream, err := a.describe.Describe(a.ctx, question)
	if err != nil {
		a.SessionError(domain.ErrorCodeDescribe, err.Error())
		return "", err
	}
	defer stream.Close()

	var answer strings.Builder
	buf := make([]byte, 512)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			answer.WriteString(chunk)
			a.AnswerChunk(chunk)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			a.SessionError(domain.ErrorCodeDescribe, err.Error())
			return answer.String(), err
		}
	}
	return answer.String(), nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Active: false, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return a.controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"backendURL":       a.cfg.Backend.BaseURL,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"captureFormats":   strings.Join(a.cfg.Session.MimePreferences, ", "),
		"copyAnswer":       fmt.Sprintf("%t", a.cfg.Session.CopyAnswer),
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// ConnectionStateChanged emits answer channel lifecycle updates.
func (a *App) ConnectionStateChanged(state domain.ConnectionState) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventConnection, map[string]string{
		"state": string(state),
	})
}

// BlocksUpdated emits the rendered answer view.
func (a *App) BlocksUpdated(blocks []domain.ContentBlock) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventBlocks, blocks)
}

// AnswerChunk emits live answer text.
func (a *App) AnswerChunk(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventChunk, map[string]string{"text": text})
}

// AnswerReady emits the final answer.
func (a *App) AnswerReady(result domain.AskResult) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventAnswer, result)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonAppReady:
		return "Ready"
	case domain.SessionReasonRecordingStarted:
		return "Recording. Ask your question"
	case domain.SessionReasonRecordingRestarted:
		return "Recording restarted; previous question discarded"
	case domain.SessionReasonAwaitingAnswer:
		return "Recording stopped. Analyzing your screen..."
	case domain.SessionReasonAnswerReady:
		return "Answer ready"
	case domain.SessionReasonAnswerCopied:
		return "Answer copied to clipboard"
	case domain.SessionReasonClipboardFailed:
		return "Answer ready (clipboard write failed)"
	case domain.SessionReasonRecordingDiscarded:
		return "Question discarded"
	case domain.SessionReasonEmptyAnswer:
		return "No answer received"
	case domain.SessionReasonChannelFailed:
		return "Connection to the analysis backend failed"
	case domain.SessionReasonPermissionDenied:
		return "Microphone access denied"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePermission:
		return "Microphone access denied"
	case domain.ErrorCodeConnectivity:
		return "Connection to the analysis backend failed"
	case domain.ErrorCodeDecode:
		return "Received a malformed answer message"
	case domain.ErrorCodeUpstream:
		return "The analysis backend reported an error"
	case domain.ErrorCodeAudioStop:
		return "Audio stop issue"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	case domain.ErrorCodeDescribe:
		return "Describe request failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
