package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"screenknow/internal/domain"
	"screenknow/internal/ports"
)

// Config controls the connection to the analysis backend.
type Config struct {
	// BaseURL is the backend HTTP base, e.g. http://localhost:8000.
	// The scheme is rewritten to ws/wss for the voice channel.
	BaseURL string
}

// Dialer opens duplex voice channels against the analysis backend.
type Dialer struct {
	cfg Config
}

func NewDialer(cfg Config) *Dialer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	return &Dialer{cfg: cfg}
}

// Open dials the voice endpoint and starts the channel loops. The
// returned channel is ready for the one-shot config message.
func (d *Dialer) Open(ctx context.Context) (ports.AnswerChannel, error) {
	wsURL, err := buildChannelURL(d.cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
	}

	channel := &answerChannel{
		conn:   conn,
		frames: make(chan []byte, 64),
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}

	channel.wg.Add(2)
	go channel.readLoop()
	go channel.writeLoop()
	go func() {
		channel.wg.Wait()
		close(channel.frames)
		close(channel.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = channel.Close()
	}()

	return channel, nil
}

// answerChannel is one live duplex session. Outbound audio is queued
// and written by a single writer goroutine; inbound payloads are handed
// to the consumer in strict arrival order. The frames channel closes
// only after both loops have ended, so consumers that drain until close
// observe every frame.
type answerChannel struct {
	conn *websocket.Conn

	frames chan []byte
	audio  chan []byte
	done   chan struct{}
	stop   chan struct{}

	wg sync.WaitGroup

	errMu          sync.Mutex
	err            error
	closedByClient bool

	configOnce    sync.Once
	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool

	writeMu sync.Mutex
}

// SendConfig writes the one-shot encoding announcement. Repeat calls
// are ignored.
func (c *answerChannel) SendConfig(audioMimeType string) error {
	var err error
	c.configOnce.Do(func() {
		payload, marshalErr := json.Marshal(domain.NewConfigMessage(audioMimeType))
		if marshalErr != nil {
			err = marshalErr
			return
		}
		err = c.writeMessage(websocket.TextMessage, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to send channel config: %w", err)
	}
	return nil
}

func (c *answerChannel) SendChunk(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	copied := append([]byte(nil), chunk...)

	// The lock is held across the send so CloseSend cannot close the
	// queue underneath an in-flight chunk.
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sendClosed {
		return errors.New("audio stream is already closed")
	}

	select {
	case c.audio <- copied:
		return nil
	case <-c.done:
		if err := c.waitErr(); err != nil {
			return err
		}
		return errors.New("channel closed")
	}
}

func (c *answerChannel) CloseSend() error {
	c.closeSendOnce.Do(func() {
		c.sendMu.Lock()
		c.sendClosed = true
		close(c.audio)
		c.sendMu.Unlock()
	})
	return nil
}

func (c *answerChannel) Frames() <-chan []byte {
	return c.frames
}

func (c *answerChannel) Wait() error {
	<-c.done
	return c.waitErr()
}

func (c *answerChannel) Close() error {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.closedByClient = true
		c.errMu.Unlock()

		close(c.stop)
		_ = c.CloseSend()
		_ = c.conn.Close()
	})
	<-c.done
	return c.waitErr()
}

func (c *answerChannel) waitErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *answerChannel) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.closedByClient {
		return
	}
	if c.err == nil {
		c.err = err
	}
}

func (c *answerChannel) writeMessage(messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, payload)
}

// writeLoop drains queued audio, then announces end-of-stream once the
// send side closes.
func (c *answerChannel) writeLoop() {
	defer c.wg.Done()

	for chunk := range c.audio {
		if err := c.writeMessage(websocket.BinaryMessage, chunk); err != nil {
			c.setErr(fmt.Errorf("failed to send audio: %w", err))
			return
		}
	}

	if err := c.writeMessage(websocket.TextMessage, []byte(domain.EndOfStream)); err != nil {
		c.setErr(fmt.Errorf("failed to send end of stream: %w", err))
	}
}

// readLoop hands every inbound payload to the consumer untouched.
// Decoding happens on the consumer side so a malformed record costs
// only itself.
func (c *answerChannel) readLoop() {
	defer c.wg.Done()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.setErr(fmt.Errorf("failed to read answer frame: %w", err))
			return
		}
		select {
		case c.frames <- payload:
		case <-c.stop:
			return
		}
	}
}

func buildChannelURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	channelURL, err := url.Parse(base + "/api/voice")
	if err != nil {
		return "", fmt.Errorf("invalid backend base URL: %w", err)
	}
	if channelURL.Scheme != "ws" && channelURL.Scheme != "wss" {
		return "", fmt.Errorf("invalid backend base URL: unsupported scheme %q", channelURL.Scheme)
	}
	return channelURL.String(), nil
}
