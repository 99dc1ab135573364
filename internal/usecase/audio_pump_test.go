package usecase

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"screenknow/internal/domain"
)

func TestPumpAudioChunksFlushesCapturedAudio(t *testing.T) {
	t.Parallel()

	audio := &fakeAudioSession{chunks: [][]byte{[]byte("abc"), []byte("def")}}
	channel := newFakeChannel()
	conn := openLifecycle()
	events := &fakeEventSink{}
	done := make(chan struct{})

	go pumpAudioChunks(audio, channel, conn, 5*time.Millisecond, events, done)
	<-done

	var got []byte
	for _, chunk := range channel.snapshotChunks() {
		got = append(got, chunk...)
	}
	if !bytes.Equal(got, []byte("abcdef")) {
		t.Fatalf("got %q, want abcdef", got)
	}
	if len(events.snapshotErrors()) != 0 {
		t.Fatalf("unexpected error events: %v", events.snapshotErrors())
	}
}

func TestPumpAudioChunksDropsWhileChannelNotOpen(t *testing.T) {
	t.Parallel()

	audio := &fakeAudioSession{chunks: [][]byte{[]byte("abc")}}
	channel := newFakeChannel()
	events := &fakeEventSink{}
	done := make(chan struct{})

	go pumpAudioChunks(audio, channel, newChannelLifecycle(), 5*time.Millisecond, events, done)
	<-done

	if got := channel.snapshotChunks(); len(got) != 0 {
		t.Fatalf("expected chunks to be dropped silently, got %v", got)
	}
	if len(events.snapshotErrors()) != 0 {
		t.Fatalf("dropped chunks must not raise errors")
	}
}

func TestPumpAudioChunksReportsSendError(t *testing.T) {
	t.Parallel()

	audio := &fakeAudioSession{chunks: [][]byte{[]byte("abc")}}
	channel := newFakeChannel()
	channel.sendErr = errors.New("send failed")
	events := &fakeEventSink{}
	done := make(chan struct{})

	go pumpAudioChunks(audio, channel, openLifecycle(), 5*time.Millisecond, events, done)
	<-done

	errs := events.snapshotErrors()
	if len(errs) == 0 || errs[0].code != domain.ErrorCodeAudioStream {
		t.Fatalf("expected audio stream error")
	}
}

func TestPumpAudioChunksReportsReadError(t *testing.T) {
	t.Parallel()

	audio := &errorAudioSession{err: errors.New("read failed")}
	events := &fakeEventSink{}
	done := make(chan struct{})

	go pumpAudioChunks(audio, newFakeChannel(), openLifecycle(), 5*time.Millisecond, events, done)
	<-done

	errs := events.snapshotErrors()
	if len(errs) == 0 || errs[0].code != domain.ErrorCodeAudioStream {
		t.Fatalf("expected audio stream error")
	}
}

func TestWaitForChannelTimeoutClosesChannel(t *testing.T) {
	t.Parallel()

	channel := &blockingWaitChannel{done: make(chan struct{}), waitErr: errors.New("closed")}
	err := waitForChannel(channel, 10*time.Millisecond)
	if err == nil || err.Error() != "closed" {
		t.Fatalf("expected closed error, got %v", err)
	}
	if channel.closeCalls == 0 {
		t.Fatalf("expected close to be called on timeout")
	}
}

func openLifecycle() *channelLifecycle {
	conn := newChannelLifecycle()
	_ = conn.MarkConnecting()
	_ = conn.MarkOpen()
	return conn
}

type errorAudioSession struct {
	err error
}

func (s *errorAudioSession) Read(_ []byte) (int, error) { return 0, s.err }
func (s *errorAudioSession) Close() error               { return nil }
func (s *errorAudioSession) Stop() error                { return nil }

type blockingWaitChannel struct {
	done       chan struct{}
	waitErr    error
	closeCalls int
}

func (c *blockingWaitChannel) SendConfig(_ string) error { return nil }
func (c *blockingWaitChannel) SendChunk(_ []byte) error  { return nil }
func (c *blockingWaitChannel) CloseSend() error          { return nil }
func (c *blockingWaitChannel) Frames() <-chan []byte {
	ch := make(chan []byte)
	close(ch)
	return ch
}
func (c *blockingWaitChannel) Wait() error {
	<-c.done
	return c.waitErr
}
func (c *blockingWaitChannel) Close() error {
	c.closeCalls++
	close(c.done)
	return nil
}

var _ io.ReadCloser = (*errorAudioSession)(nil)
