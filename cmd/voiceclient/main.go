// voiceclient streams a recorded audio file to a running analysis
// backend and prints the answer frames. It exercises the same wire
// protocol the desktop app uses, which makes it handy for testing a
// backend without a microphone.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"screenknow/internal/domain"
)

func main() {
	audioFile := flag.String("audio", "question.webm", "path to a recorded audio file")
	serverAddr := flag.String("server", "localhost:8000", "analysis backend host:port")
	mimeType := flag.String("mime", "audio/webm", "audio MIME type announced in the config frame (empty for raw PCM)")
	chunkSize := flag.Int("chunk", 16*1024, "bytes per audio chunk")
	intervalMs := flag.Int("interval", 250, "delay between chunks in milliseconds")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("failed to open audio file: %v", err)
	}
	defer f.Close()

	wsURL := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/api/voice"}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatalf("failed to dial %s: %v", wsURL.String(), err)
	}
	defer conn.Close()

	log.Printf("connected to %s", wsURL.String())

	if *mimeType != "" {
		payload, err := json.Marshal(domain.NewConfigMessage(*mimeType))
		if err != nil {
			log.Fatalf("failed to encode config frame: %v", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Fatalf("failed to send config frame: %v", err)
		}
	}

	chunk := make([]byte, *chunkSize)
	var totalBytes int64
	var chunkNum int

	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("failed to read audio: %v", err)
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, chunk[:n]); err != nil {
			log.Fatalf("failed to send audio chunk: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)
		time.Sleep(time.Duration(*intervalMs) * time.Millisecond)
	}

	log.Printf("sent %d chunks (%d bytes), requesting answer", chunkNum, totalBytes)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(domain.EndOfStream)); err != nil {
		log.Fatalf("failed to send end of stream: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				fmt.Println()
				log.Println("answer complete")
				return
			}
			log.Fatalf("read failed: %v", err)
		}

		var msg domain.ServerMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("skipping unparseable frame: %v", err)
			continue
		}

		switch msg.Type {
		case domain.MessageTypeText:
			fmt.Print(msg.Data)
		case domain.MessageTypeImage:
			fmt.Printf("\n[screenshot: %d base64 bytes, %s]\n", len(msg.Data), msg.MimeType)
		case domain.MessageTypeError:
			log.Printf("backend error: %s", msg.Data)
		default:
			log.Printf("unknown frame type %q", msg.Type)
		}
	}
}
