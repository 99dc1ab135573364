package events

import (
	"context"
	"testing"
)

func TestDisabledPublisherLogsOnly(t *testing.T) {
	t.Parallel()

	p := New(&Config{Enabled: false, Topic: "screenknow.sessions"})
	if p.enabled {
		t.Fatalf("publisher enabled = true, want false")
	}
	if p.writer != nil {
		t.Fatalf("disabled publisher has a kafka writer")
	}

	err := p.Publish(context.Background(), SessionEvent{
		Type:      TypeSessionStarted,
		SessionID: "session-1",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestNilConfigDisablesPublisher(t *testing.T) {
	t.Parallel()

	p := New(nil)
	if p.enabled {
		t.Fatalf("publisher enabled = true, want false")
	}

	err := p.Publish(context.Background(), SessionEvent{Type: TypeSessionFailed})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func TestEnabledWithoutBrokersFallsBackToLogging(t *testing.T) {
	t.Parallel()

	p := New(&Config{Enabled: true, Topic: "screenknow.sessions"})
	if p.enabled {
		t.Fatalf("publisher without brokers should stay in log-only mode")
	}
}

func TestEnabledPublisherBuildsWriter(t *testing.T) {
	t.Parallel()

	p := New(&Config{
		Enabled: true,
		Brokers: []string{"localhost:9092"},
		Topic:   "screenknow.sessions",
	})
	if !p.enabled {
		t.Fatalf("publisher enabled = false, want true")
	}
	if p.writer == nil {
		t.Fatalf("enabled publisher has no kafka writer")
	}
	if p.writer.Topic != "screenknow.sessions" {
		t.Fatalf("writer topic = %q, want %q", p.writer.Topic, "screenknow.sessions")
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
