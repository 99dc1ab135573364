package vision

import (
	"context"
	"strings"
	"sync"
)

// Mock implements Describer with a canned answer, emitted word by
// word like the real providers.
type Mock struct {
	answer string
	err    error

	mu        sync.Mutex
	questions []string
	imageLens []int
}

func NewMock(answer string, err error) *Mock {
	return &Mock{answer: answer, err: err}
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Describe(_ context.Context, question string, imagePNG []byte, emit func(chunk string) error) error {
	m.mu.Lock()
	m.questions = append(m.questions, question)
	m.imageLens = append(m.imageLens, len(imagePNG))
	m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	for _, word := range strings.Fields(m.answer) {
		if err := emit(word + " "); err != nil {
			return err
		}
	}
	return nil
}

// Questions returns the questions asked so far.
func (m *Mock) Questions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.questions...)
}
