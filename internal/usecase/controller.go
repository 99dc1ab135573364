package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"screenknow/internal/domain"
	"screenknow/internal/ports"
)

var ErrNoActiveSession = errors.New("no active capture session")

// Config controls capture and transport behavior.
type Config struct {
	Audio ports.AudioConfig
	// MimePreferences is probed in order against the capture device;
	// the first supported encoding is announced in the config message.
	MimePreferences []string
	// ChunkInterval is the fixed flush cadence for captured audio.
	ChunkInterval time.Duration
	// AnswerWait bounds how long Stop waits for the answer stream to
	// finish after the end-of-stream sentinel.
	AnswerWait time.Duration
	CopyAnswer bool
}

// SessionController mediates between the capture device and the duplex
// channel to the analysis backend, and owns the session lifecycle.
type SessionController struct {
	audio     ports.AudioCapture
	dialer    ports.ChannelDialer
	events    ports.EventSink
	finalizer answerFinalizer
	conn      *channelLifecycle
	cfg       Config

	mu      sync.Mutex
	current *activeSession
}

func NewSessionController(
	audio ports.AudioCapture,
	dialer ports.ChannelDialer,
	clipboard ports.Clipboard,
	events ports.EventSink,
	cfg Config,
) *SessionController {
	if cfg.ChunkInterval <= 0 {
		cfg.ChunkInterval = time.Second
	}
	if cfg.AnswerWait <= 0 {
		cfg.AnswerWait = 30 * time.Second
	}
	return &SessionController{
		audio:     audio,
		dialer:    dialer,
		events:    events,
		finalizer: newAnswerFinalizer(clipboard, events, cfg.CopyAnswer),
		conn:      newChannelLifecycle(),
		cfg:       cfg,
	}
}

// Start begins a new capture session: microphone first, then the duplex
// channel, then the one-shot encoding config, then the chunk pump. A
// denied microphone leaves the connection state untouched and opens no
// channel. Starting over an active session stops the previous one.
func (c *SessionController) Start(ctx context.Context) error {
	var previous *activeSession

	c.mu.Lock()
	if c.current != nil {
		previous = c.current
		c.current = nil
	}
	c.mu.Unlock()

	if previous != nil {
		c.stopSession(previous)
	}

	sessionCtx, cancel := context.WithCancel(ctx)

	mimeType := negotiateMimeType(c.audio, c.cfg.MimePreferences)
	audioCfg := c.cfg.Audio
	audioCfg.MimeType = mimeType

	audioSession, err := c.audio.Start(sessionCtx, audioCfg)
	if err != nil {
		cancel()
		c.events.SessionError(domain.ErrorCodePermission, err.Error())
		return err
	}

	c.conn.Reset()
	_ = c.conn.MarkConnecting()
	c.events.ConnectionStateChanged(domain.ConnectionStateConnecting)

	channel, err := c.dialer.Open(sessionCtx)
	if err != nil {
		_ = audioSession.Stop()
		cancel()
		c.conn.MarkClosed()
		c.events.ConnectionStateChanged(domain.ConnectionStateClosed)
		c.events.SessionError(domain.ErrorCodeConnectivity, err.Error())
		return err
	}

	_ = c.conn.MarkOpen()
	c.events.ConnectionStateChanged(domain.ConnectionStateOpen)

	if err := channel.SendConfig(mimeType); err != nil {
		_ = audioSession.Stop()
		_ = channel.Close()
		cancel()
		c.conn.MarkClosed()
		c.events.ConnectionStateChanged(domain.ConnectionStateClosed)
		c.events.SessionError(domain.ErrorCodeConnectivity, err.Error())
		return err
	}

	active := &activeSession{
		cancel:     cancel,
		audio:      audioSession,
		channel:    channel,
		state:      domain.SessionStateRecording,
		assembler:  newResponseAssembler(),
		framesDone: make(chan struct{}),
		audioDone:  make(chan struct{}),
	}

	c.mu.Lock()
	c.current = active
	c.mu.Unlock()

	go consumeAnswerFrames(active.channel, active.assembler, c.conn, c.events, active.framesDone)
	go pumpAudioChunks(active.audio, active.channel, c.conn, c.cfg.ChunkInterval, c.events, active.audioDone)

	reason := domain.SessionReasonRecordingStarted
	if previous != nil {
		reason = domain.SessionReasonRecordingRestarted
	}
	c.events.SessionStateChanged(domain.SessionStateRecording, reason)
	return nil
}

// Stop halts capture, sends the end-of-stream sentinel, waits for the
// answer stream to finish, and returns the assembled result. Calling it
// with no active session returns ErrNoActiveSession and mutates
// nothing.
func (c *SessionController) Stop(ctx context.Context) (domain.AskResult, error) {
	active, err := c.getCurrent()
	if err != nil {
		return domain.AskResult{}, err
	}

	active.setState(domain.SessionStateTranscribing)
	c.events.SessionStateChanged(domain.SessionStateTranscribing, domain.SessionReasonAwaitingAnswer)

	if err := active.audio.Stop(); err != nil {
		c.events.SessionError(domain.ErrorCodeAudioStop, "failed to stop audio capture cleanly")
	}
	<-active.audioDone

	if c.conn.MarkClosing() == nil {
		c.events.ConnectionStateChanged(domain.ConnectionStateClosing)
	}
	_ = active.channel.CloseSend()

	channelErr := waitForChannel(active.channel, c.cfg.AnswerWait)
	<-active.framesDone

	blocks := active.assembler.Blocks()
	errMsg := active.assembler.ErrorMessage()

	if len(blocks) == 0 && errMsg == "" {
		if channelErr != nil {
			c.finishSession(active, domain.SessionStateError, domain.SessionReasonChannelFailed)
			return domain.AskResult{}, channelErr
		}
		c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonEmptyAnswer)
		return domain.AskResult{}, errors.New("no answer received")
	}

	result, reason := c.finalizer.Finalize(ctx, blocks, errMsg)
	c.events.AnswerReady(result)
	c.finishSession(active, domain.SessionStateIdle, reason)
	return result, nil
}

// Abort cancels and discards an active session without waiting for an
// answer.
func (c *SessionController) Abort() error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}

	c.stopSession(active)
	c.finishSession(active, domain.SessionStateIdle, domain.SessionReasonRecordingDiscarded)
	return nil
}

// Status returns the current backend status.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := domain.Status{State: domain.SessionStateIdle, Connection: c.conn.State()}
	if c.current == nil {
		return status
	}

	state := c.current.getState()
	status.State = state
	status.Active = state != domain.SessionStateIdle
	status.Transcribing = state == domain.SessionStateTranscribing
	return status
}

func (c *SessionController) getCurrent() (*activeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, ErrNoActiveSession
	}
	return c.current, nil
}

func (c *SessionController) stopSession(active *activeSession) {
	active.cancel()
	c.conn.MarkClosed()
	_ = active.audio.Stop()
	_ = active.channel.Close()
	<-active.framesDone
	<-active.audioDone
}

func (c *SessionController) finishSession(active *activeSession, state domain.SessionState, reason domain.SessionStateReason) {
	active.cancel()
	active.setState(state)

	c.mu.Lock()
	if c.current == active {
		c.current = nil
	}
	c.mu.Unlock()

	c.events.SessionStateChanged(state, reason)
}

// negotiateMimeType probes the preference list in order and returns the
// first encoding the device supports, or empty when none is.
func negotiateMimeType(capture ports.AudioCapture, preferences []string) string {
	for _, mimeType := range preferences {
		if capture.Supports(mimeType) {
			return mimeType
		}
	}
	return ""
}
