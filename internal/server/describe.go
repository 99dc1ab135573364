package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"screenknow/internal/events"
	"screenknow/internal/observability/logging"
)

type describeRequest struct {
	Question string `json:"question"`
}

// handleDescribe answers a typed question about the current screen,
// streamed as plain text.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordDescribeRequest()
	log := logging.WithComponent("describe")

	var req describeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}
	if s.rules != nil {
		if cleaned, err := s.rules.Apply(question); err == nil {
			question = cleaned
		}
	}
	log.Info().Str("question", question).Msg("describe requested")

	shot, err := s.source.Capture(s.cfg.Display)
	s.metrics.RecordScreenshot(err)
	if err != nil {
		log.Error().Err(err).Msg("screenshot failed")
		http.Error(w, "failed to take screenshot", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	start := time.Now()
	err = s.vision.Describe(r.Context(), question, shot, func(chunk string) error {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		time.Sleep(s.cfg.StreamDelay)
		return nil
	})
	s.metrics.RecordVision(s.vision.Name(), err, time.Since(start).Seconds())
	if err != nil {
		// Headers are already out; report the failure in-band like the
		// rest of the stream.
		log.Error().Err(err).Msg("describe stream failed")
		_, _ = io.WriteString(w, "Error: "+err.Error())
	}

	if s.events != nil {
		_ = s.events.Publish(r.Context(), events.SessionEvent{
			Type:      events.TypeDescribeServed,
			SessionID: uuid.NewString(),
			Question:  question,
			Provider:  s.vision.Name(),
			ElapsedMS: time.Since(start).Milliseconds(),
			Error:     errString(err),
		})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
