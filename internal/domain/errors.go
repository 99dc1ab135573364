package domain

import "errors"

// Failure taxonomy for the capture/transport flow. All of these are
// recovered locally and surfaced to the user; none are fatal to the
// process.
var (
	// ErrPermissionDenied reports that microphone access was refused or
	// the capture device is unsupported.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrConnectivity reports a channel open or transport failure.
	ErrConnectivity = errors.New("connection to analysis backend failed")

	// ErrDecode reports a malformed or unrecognized inbound message.
	ErrDecode = errors.New("malformed message from analysis backend")
)
