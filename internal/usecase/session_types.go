package usecase

import (
	"sync"

	"screenknow/internal/domain"
	"screenknow/internal/ports"
)

type activeSession struct {
	cancel  func()
	audio   ports.AudioSession
	channel ports.AnswerChannel

	stateMu sync.Mutex
	state   domain.SessionState

	assembler  *responseAssembler
	framesDone chan struct{}
	audioDone  chan struct{}
}

func (s *activeSession) setState(state domain.SessionState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state = state
}

func (s *activeSession) getState() domain.SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}
