package usecase

import (
	"encoding/json"
	"fmt"
	"sync"

	"screenknow/internal/domain"
	"screenknow/internal/ports"
)

// responseAssembler folds typed server messages into the ordered
// content block sequence plus the session error slot.
type responseAssembler struct {
	mu     sync.Mutex
	blocks []domain.ContentBlock
	errMsg string
}

func newResponseAssembler() *responseAssembler {
	return &responseAssembler{}
}

// OnMessage decodes one raw channel payload and folds it into the
// stored sequence. A malformed payload or unrecognized type returns
// domain.ErrDecode; only that message is lost, later messages still
// apply.
func (a *responseAssembler) OnMessage(raw []byte) (domain.ServerMessage, error) {
	var msg domain.ServerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.ServerMessage{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	switch msg.Type {
	case domain.MessageTypeText:
		a.appendText(msg.Data)
	case domain.MessageTypeImage:
		a.appendImage(msg.Data, msg.MimeType)
	case domain.MessageTypeError:
		a.setError(msg.Data)
	default:
		return domain.ServerMessage{}, fmt.Errorf("%w: unrecognized type %q", domain.ErrDecode, msg.Type)
	}
	return msg, nil
}

// appendText merges into the last block when it is a text block,
// otherwise starts a new one.
func (a *responseAssembler) appendText(data string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.blocks); n > 0 && a.blocks[n-1].Kind == domain.BlockKindText {
		a.blocks[n-1] = domain.TextBlock(a.blocks[n-1].Text + data)
		return
	}
	a.blocks = append(a.blocks, domain.TextBlock(data))
}

// appendImage always starts a new block. The payload stays opaque.
func (a *responseAssembler) appendImage(data string, mimeType string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blocks = append(a.blocks, domain.ImageBlock(data, mimeType))
}

// setError fills the session error slot without appending a block and
// without closing the channel.
func (a *responseAssembler) setError(data string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errMsg = data
}

// Blocks returns a copy of the stored sequence.
func (a *responseAssembler) Blocks() []domain.ContentBlock {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.ContentBlock, len(a.blocks))
	copy(out, a.blocks)
	return out
}

// ErrorMessage returns the session error slot, empty when unset.
func (a *responseAssembler) ErrorMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

// consumeAnswerFrames applies inbound frames in arrival order, then
// records the terminal channel outcome once the frame stream ends. The
// done channel closes only after the closing events have been emitted.
func consumeAnswerFrames(
	channel ports.AnswerChannel,
	assembler *responseAssembler,
	conn *channelLifecycle,
	events ports.EventSink,
	done chan struct{},
) {
	defer close(done)

	for raw := range channel.Frames() {
		msg, err := assembler.OnMessage(raw)
		if err != nil {
			events.SessionError(domain.ErrorCodeDecode, err.Error())
			continue
		}
		if msg.Type == domain.MessageTypeError {
			events.SessionError(domain.ErrorCodeUpstream, msg.Data)
			continue
		}
		if msg.Type == domain.MessageTypeText {
			events.AnswerChunk(msg.Data)
		}
		events.BlocksUpdated(renderView(assembler.Blocks()))
	}

	err := channel.Wait()
	conn.MarkClosed()
	events.ConnectionStateChanged(domain.ConnectionStateClosed)
	if err != nil {
		events.SessionError(domain.ErrorCodeConnectivity, err.Error())
	}
}
