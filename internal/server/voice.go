package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"screenknow/internal/domain"
	"screenknow/internal/events"
	"screenknow/internal/observability/logging"
)

// voiceSession is one recording-to-answer exchange over the duplex
// channel.
type voiceSession struct {
	server *Server
	conn   *websocket.Conn
	id     string
	log    zerolog.Logger
	start  time.Time

	writeMu sync.Mutex

	audio  bytes.Buffer
	mime   string
	chunks int
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log := logging.WithComponent("server")
		log.Warn().Err(err).Msg("voice channel upgrade failed")
		return
	}

	id := uuid.NewString()
	session := &voiceSession{
		server: s,
		conn:   conn,
		id:     id,
		log:    logging.WithSession(id),
		start:  time.Now(),
	}
	session.run(r.Context())
}

func (v *voiceSession) run(ctx context.Context) {
	defer v.conn.Close()

	v.server.metrics.RecordSessionStart()
	success := false
	defer func() {
		v.server.metrics.RecordSessionEnd(success, time.Since(v.start).Seconds())
	}()

	v.log.Info().Msg("voice session opened")
	v.publish(ctx, events.TypeSessionStarted, "", "")

	v.conn.SetReadLimit(maxMessageLen)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go v.pingLoop(stopPing)

	for {
		msgType, payload, err := v.conn.ReadMessage()
		if err != nil {
			v.log.Debug().Err(err).Msg("voice channel closed before answer")
			v.publish(ctx, events.TypeSessionFailed, "", "client disconnected before answer")
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			v.audio.Write(payload)
			v.chunks++
			v.server.metrics.RecordAudioReceived(len(payload))
		case websocket.TextMessage:
			if string(payload) == domain.EndOfStream {
				if err := v.answer(ctx); err == nil {
					success = true
				}
				v.closeNormal()
				return
			}
			v.applyConfig(payload)
		}
	}
}

func (v *voiceSession) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			v.writeMu.Lock()
			err := v.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(writeWait))
			v.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// applyConfig folds the one-shot capture format announcement. Other
// text frames are ignored.
func (v *voiceSession) applyConfig(payload []byte) {
	var cfg domain.ConfigMessage
	if err := json.Unmarshal(payload, &cfg); err != nil || cfg.Type != domain.MessageTypeConfig {
		v.log.Warn().Str("frame", truncateForLog(string(payload))).Msg("ignoring unknown text frame")
		return
	}
	v.mime = cfg.AudioMimeType
	v.log.Info().Str("audioMimeType", v.mime).Msg("capture format announced")
}

// answer runs the recording through transcription, screenshots the
// desktop, and streams the analysis back.
func (v *voiceSession) answer(ctx context.Context) error {
	audio := v.audio.Bytes()
	v.log.Info().
		Int("audioBytes", len(audio)).
		Int("chunks", v.chunks).
		Msg("recording complete, answering")

	question, err := v.transcribe(ctx, audio)
	if err != nil {
		v.fail(ctx, "", "transcription failed: "+err.Error())
		return err
	}
	if question == "" {
		err := errors.New("could not hear a question in the recording")
		v.fail(ctx, "", err.Error())
		return err
	}
	v.log.Info().Str("question", question).Msg("question transcribed")

	if err := v.sendText("You said: " + question + "\n\nAnalyzing your screen...\n\n"); err != nil {
		return err
	}

	shot, err := v.server.source.Capture(v.server.cfg.Display)
	v.server.metrics.RecordScreenshot(err)
	if err != nil {
		v.fail(ctx, question, "screenshot failed: "+err.Error())
		return err
	}
	if err := v.sendImage(shot); err != nil {
		return err
	}

	visionStart := time.Now()
	err = v.server.vision.Describe(ctx, question, shot, func(chunk string) error {
		if err := v.sendText(chunk); err != nil {
			return err
		}
		v.server.metrics.RecordAnswerChunk()
		time.Sleep(v.server.cfg.StreamDelay)
		return nil
	})
	v.server.metrics.RecordVision(v.server.vision.Name(), err, time.Since(visionStart).Seconds())
	if err != nil {
		v.fail(ctx, question, "analysis failed: "+err.Error())
		return err
	}

	v.log.Info().Str("question", question).Msg("answer streamed")
	v.publish(ctx, events.TypeSessionAnswered, question, "")
	return nil
}

func (v *voiceSession) transcribe(ctx context.Context, audio []byte) (string, error) {
	start := time.Now()
	transcript, err := v.server.stt.Transcribe(ctx, audio, v.mime)
	v.server.metrics.RecordTranscription(v.server.stt.Name(), err, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" || v.server.rules == nil {
		return transcript, nil
	}

	cleaned, err := v.server.rules.Apply(transcript)
	if err != nil {
		v.log.Warn().Err(err).Msg("question cleanup failed, using raw transcript")
		return transcript, nil
	}
	return cleaned, nil
}

// fail reports an error to the client and the event stream. The
// channel stays usable; the caller decides whether to close it.
func (v *voiceSession) fail(ctx context.Context, question, message string) {
	v.log.Error().Str("detail", message).Msg("voice session failed")
	v.sendError(message)
	v.publish(ctx, events.TypeSessionFailed, question, message)
}

func (v *voiceSession) sendFrame(msg domain.ServerMessage) error {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return v.conn.WriteJSON(msg)
}

func (v *voiceSession) sendText(data string) error {
	return v.sendFrame(domain.ServerMessage{Type: domain.MessageTypeText, Data: data})
}

func (v *voiceSession) sendImage(png []byte) error {
	return v.sendFrame(domain.ServerMessage{
		Type:     domain.MessageTypeImage,
		Data:     base64.StdEncoding.EncodeToString(png),
		MimeType: "image/png",
	})
}

func (v *voiceSession) sendError(message string) {
	if err := v.sendFrame(domain.ServerMessage{Type: domain.MessageTypeError, Data: message}); err != nil {
		v.log.Warn().Err(err).Msg("failed to deliver error frame")
	}
}

func (v *voiceSession) closeNormal() {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	_ = v.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
}

func (v *voiceSession) publish(ctx context.Context, eventType, question, errMsg string) {
	if v.server.events == nil {
		return
	}
	_ = v.server.events.Publish(ctx, events.SessionEvent{
		Type:       eventType,
		SessionID:  v.id,
		Question:   question,
		Provider:   v.server.vision.Name(),
		AudioBytes: v.audio.Len(),
		ElapsedMS:  time.Since(v.start).Milliseconds(),
		Error:      errMsg,
	})
}

func truncateForLog(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
