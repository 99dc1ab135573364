package domain

// SessionState models the ask-your-screen session lifecycle.
type SessionState string

const (
	SessionStateIdle         SessionState = "idle"
	SessionStateRecording    SessionState = "recording"
	SessionStateTranscribing SessionState = "transcribing"
	SessionStateError        SessionState = "error"
)

// ConnectionState models the duplex channel lifecycle. Sending chunks is
// only legal while the channel is open.
type ConnectionState string

const (
	ConnectionStateIdle       ConnectionState = "idle"
	ConnectionStateConnecting ConnectionState = "connecting"
	ConnectionStateOpen       ConnectionState = "open"
	ConnectionStateClosing    ConnectionState = "closing"
	ConnectionStateClosed     ConnectionState = "closed"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonAppReady           SessionStateReason = "app_ready"
	SessionReasonRecordingStarted   SessionStateReason = "recording_started"
	SessionReasonRecordingRestarted SessionStateReason = "recording_restarted"
	SessionReasonAwaitingAnswer     SessionStateReason = "awaiting_answer"
	SessionReasonAnswerReady        SessionStateReason = "answer_ready"
	SessionReasonAnswerCopied       SessionStateReason = "answer_copied"
	SessionReasonClipboardFailed    SessionStateReason = "answer_clipboard_failed"
	SessionReasonRecordingDiscarded SessionStateReason = "recording_discarded"
	SessionReasonEmptyAnswer        SessionStateReason = "empty_answer"
	SessionReasonChannelFailed      SessionStateReason = "channel_failed"
	SessionReasonPermissionDenied   SessionStateReason = "permission_denied"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup      ErrorCode = "startup"
	ErrorCodePermission   ErrorCode = "permission"
	ErrorCodeConnectivity ErrorCode = "connectivity"
	ErrorCodeDecode       ErrorCode = "decode"
	ErrorCodeUpstream     ErrorCode = "upstream"
	ErrorCodeAudioStop    ErrorCode = "audio_stop"
	ErrorCodeAudioStream  ErrorCode = "audio_stream"
	ErrorCodeClipboard    ErrorCode = "clipboard"
	ErrorCodeDescribe     ErrorCode = "describe"
)

// BlockKind tags one assembled unit of response content.
type BlockKind string

const (
	BlockKindText  BlockKind = "text"
	BlockKindImage BlockKind = "image"
	BlockKindError BlockKind = "error"
)

// ContentBlock is one unit of assembled response content in display order.
// Text blocks carry Text; image blocks carry an encoded payload in Data
// plus its MimeType; error blocks carry Text.
type ContentBlock struct {
	Kind     BlockKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	Data     string    `json:"data,omitempty"`
	MimeType string    `json:"mimeType,omitempty"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Kind: BlockKindText, Text: text}
}

func ImageBlock(data string, mimeType string) ContentBlock {
	return ContentBlock{Kind: BlockKindImage, Data: data, MimeType: mimeType}
}

func ErrorBlock(text string) ContentBlock {
	return ContentBlock{Kind: BlockKindError, Text: text}
}

// Wire message types accepted over the duplex channel.
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeError  = "error"
	MessageTypeConfig = "config"
)

// EndOfStream is the literal sentinel sent after the last audio chunk.
const EndOfStream = "END_OF_STREAM"

// ServerMessage is one JSON record received from the analysis backend.
type ServerMessage struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	MimeType string `json:"mime_type,omitempty"`
}

// ConfigMessage is the one-shot client payload sent right after channel
// open. An empty AudioMimeType tells the receiver to use its default.
type ConfigMessage struct {
	Type          string `json:"type"`
	AudioMimeType string `json:"audio_mime_type"`
}

func NewConfigMessage(audioMimeType string) ConfigMessage {
	return ConfigMessage{Type: MessageTypeConfig, AudioMimeType: audioMimeType}
}

// AskResult is returned once recording stops and the answer stream has
// been fully assembled.
type AskResult struct {
	Blocks       []ContentBlock `json:"blocks"`
	Rendered     []ContentBlock `json:"rendered"`
	Answer       string         `json:"answer"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Copied       bool           `json:"copied"`
}

// Status summarizes the current runtime status.
type Status struct {
	State        SessionState    `json:"state"`
	Connection   ConnectionState `json:"connection"`
	Active       bool            `json:"active"`
	Transcribing bool            `json:"transcribing"`
	Message      string          `json:"message,omitempty"`
}
