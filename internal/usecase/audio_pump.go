package usecase

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"screenknow/internal/domain"
	"screenknow/internal/ports"
)

// pumpAudioChunks flushes captured audio once per interval: everything
// read from the device since the previous tick goes out as one chunk.
// Chunks produced while the channel is not open are dropped silently;
// the device keeps running. A final flush happens when the device
// stops.
func pumpAudioChunks(
	audio ports.AudioSession,
	channel ports.AnswerChannel,
	conn *channelLifecycle,
	interval time.Duration,
	events ports.EventSink,
	done chan struct{},
) {
	defer close(done)

	if interval <= 0 {
		interval = time.Second
	}

	var mu sync.Mutex
	var pending []byte
	readEnd := make(chan error, 1)

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := audio.Read(buf)
			if n > 0 {
				mu.Lock()
				pending = append(pending, buf[:n]...)
				mu.Unlock()
			}
			if err != nil {
				readEnd <- err
				return
			}
		}
	}()

	flush := func() bool {
		mu.Lock()
		chunk := pending
		pending = nil
		mu.Unlock()

		if len(chunk) == 0 || !conn.CanSend() {
			return true
		}
		if err := channel.SendChunk(chunk); err != nil {
			events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("failed to stream audio: %v", err))
			return false
		}
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !flush() {
				return
			}
		case err := <-readEnd:
			if !errors.Is(err, io.EOF) {
				events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("audio capture error: %v", err))
			}
			flush()
			return
		}
	}
}

func waitForChannel(channel ports.AnswerChannel, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- channel.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = channel.Close()
		return <-done
	}
}
