package usecase

import (
	"errors"
	"sync"

	"screenknow/internal/domain"
)

// Errors for invalid channel state transitions.
var (
	errChannelNotIdle       = errors.New("channel is not idle")
	errChannelNotConnecting = errors.New("channel is not connecting")
	errChannelNotOpen       = errors.New("channel is not open")
)

// channelLifecycle guards the duplex channel state machine.
//
// Transitions:
//
//	idle → connecting → open → closing → closed
//
// Opening from any state but idle is rejected; Reset returns a closed
// lifecycle to idle for the next session. MarkClosed is legal from any
// state and idempotent. Sending chunks is only allowed while open.
type channelLifecycle struct {
	mu    sync.RWMutex
	state domain.ConnectionState
}

func newChannelLifecycle() *channelLifecycle {
	return &channelLifecycle{state: domain.ConnectionStateIdle}
}

// State returns the current connection state.
func (l *channelLifecycle) State() domain.ConnectionState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// CanSend reports whether audio chunks may be sent right now.
func (l *channelLifecycle) CanSend() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == domain.ConnectionStateOpen
}

// MarkConnecting transitions idle → connecting.
func (l *channelLifecycle) MarkConnecting() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != domain.ConnectionStateIdle {
		return errChannelNotIdle
	}
	l.state = domain.ConnectionStateConnecting
	return nil
}

// MarkOpen transitions connecting → open.
func (l *channelLifecycle) MarkOpen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != domain.ConnectionStateConnecting {
		return errChannelNotConnecting
	}
	l.state = domain.ConnectionStateOpen
	return nil
}

// MarkClosing transitions open → closing. Called once the end-of-stream
// sentinel is on its way out.
func (l *channelLifecycle) MarkClosing() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != domain.ConnectionStateOpen {
		return errChannelNotOpen
	}
	l.state = domain.ConnectionStateClosing
	return nil
}

// MarkClosed transitions to closed. Legal from any state. Idempotent.
func (l *channelLifecycle) MarkClosed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = domain.ConnectionStateClosed
}

// Reset returns the lifecycle to idle for the next session.
func (l *channelLifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = domain.ConnectionStateIdle
}
