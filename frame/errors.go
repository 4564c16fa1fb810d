// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frame

import "errors"

var (
	// ErrInvalidArgument reports a nil reader/writer or a malformed call.
	ErrInvalidArgument = errors.New("frame: invalid argument")

	// ErrTooLong reports that Write was handed a payload exceeding the wire
	// format's 2^56-1 bound. A received length above the configured
	// ReadLimit is reported by Read as a *ReadError instead.
	ErrTooLong = errors.New("frame: message too long")

	// ErrProtocol reports well-formed bytes that are semantically invalid.
	// Read returns it directly for an unknown tag character arriving on the
	// wire; ProtocolError and the peer package's protocol errors unwrap to
	// it, so it also serves as the broad category for errors.Is.
	ErrProtocol = errors.New("frame: unknown tag (problem probably originated remotely)")
)

// ReadError is returned for any failure while decoding a frame header or
// payload. Err is the underlying cause, if any.
type ReadError struct {
	Msg string
	Err error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return "frame: read error: " + e.Msg + ": " + e.Err.Error()
	}
	return "frame: read error: " + e.Msg
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is returned for any failure while encoding or flushing a frame.
type WriteError struct {
	Msg string
	Err error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return "frame: write error: " + e.Msg + ": " + e.Err.Error()
	}
	return "frame: write error: " + e.Msg
}

func (e *WriteError) Unwrap() error { return e.Err }

// ProtocolError reports a well-formed frame sequence that is nonetheless
// semantically invalid — a reference to a connection nothing registered,
// a reply whose request number doesn't match the call it answers, and
// the like. Reason describes what specifically was wrong. It unwraps to
// ErrProtocol so callers that only care about the broad category can
// still match it with errors.Is.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "frame: protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }
