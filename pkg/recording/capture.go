package recording

import (
	"context"
	"errors"
)

// Audio format of every capture stream and of the assembled artifact.
const (
	SampleRate  = 16000
	BitDepth    = 16
	NumChannels = 1
	MIMEType    = "audio/wav"
)

// ErrPermissionDenied is returned when the microphone cannot be acquired.
var ErrPermissionDenied = errors.New("microphone access denied")

// Capturer acquires the microphone.
//
// Open must either return a live Stream that owns the device, or an error
// wrapping ErrPermissionDenied when the device is unavailable or access is
// refused. Only one Stream is expected to be open at a time.
type Capturer interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open microphone.
//
// Chunks delivers raw little-endian 16-bit mono PCM blocks at SampleRate.
// The channel is closed after Close has released the device. While paused
// the stream keeps the device but delivers nothing.
type Stream interface {
	Chunks() <-chan []byte
	Pause() error
	Resume() error
	Close() error
}
