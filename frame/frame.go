// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package frame implements the wire codec for the remote-execution
// transport: one tag byte, one request-number byte, seven big-endian
// length bytes, then the payload.
//
// Write performs a single buffered emission of header-plus-payload,
// followed by a flush (if the writer supports it). Read consumes exactly
// nine header bytes and then exactly length payload bytes; a short read
// anywhere in that sequence is a fatal ReadError, since it almost always
// means the remote side died mid-message.
package frame

import (
	"encoding/binary"
	"io"
	"runtime"
	"time"

	"code.hybscloud.com/iox"
)

// Tag identifies the shape of a frame's payload. The set is closed: these
// nine characters are the only ones a conforming peer may emit.
type Tag byte

const (
	TagOpaque     Tag = 'o' // generic serialised value
	TagBytes      Tag = 'b' // raw byte buffer
	TagFile       Tag = 'f' // remote file handle (virtual-file id)
	TagIter       Tag = 'i' // remote lazy sequence (virtual-file id)
	TagPath       Tag = 'R' // path-with-peer record
	TagQuotedPath Tag = 'Q' // quoted path-with-peer record
	TagBarePath   Tag = 'r' // path-only record
	TagPeer       Tag = 'c' // peer reference (conn_number)
	TagQuit       Tag = 'q' // quit signal
)

func (t Tag) valid() bool {
	switch t {
	case TagOpaque, TagBytes, TagFile, TagIter, TagPath, TagQuotedPath, TagBarePath, TagPeer, TagQuit:
		return true
	default:
		return false
	}
}

// QuitReqNum is the request number reserved for the quit signal.
const QuitReqNum uint8 = 255

const (
	headerLen    = 9
	maxPayload56 = 1<<56 - 1
)

// Frame is a single decoded unit read off the wire.
type Frame struct {
	Tag     Tag
	ReqNum  uint8
	Payload []byte
}

// ErrWouldBlock means "no further progress without waiting". Re-exported
// from iox so callers need not import it directly.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrMore means "this completion is usable and more completions will
// follow". Re-exported from iox so callers need not import it directly.
var ErrMore = iox.ErrMore

// flusher is implemented by writers (such as bufio.Writer) that buffer
// internally and need an explicit flush after a frame is emitted.
type flusher interface{ Flush() error }

// Codec reads and writes frames on one pipe pair.
type Codec struct {
	r io.Reader
	w io.Writer

	readLimit  int64
	retryDelay time.Duration

	header [headerLen]byte
}

// NewCodec returns a Codec that reads from r and writes to w. Either may be
// nil if the Codec is only used in one direction.
func NewCodec(r io.Reader, w io.Writer, opts ...Option) *Codec {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	limit := o.ReadLimit
	if limit <= 0 || limit > maxPayload56 {
		limit = maxPayload56
	}
	return &Codec{r: r, w: w, readLimit: limit, retryDelay: o.RetryDelay}
}

func (c *Codec) waitOnceOnWouldBlock() bool {
	if c.retryDelay < 0 {
		return false
	}
	if c.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(c.retryDelay)
	return true
}

func (c *Codec) readFull(buf []byte) error {
	off := 0
	for off < len(buf) {
		n, err := c.r.Read(buf[off:])
		if n > 0 {
			off += n
			continue
		}
		if err == nil {
			return io.ErrNoProgress
		}
		if err == ErrWouldBlock || err == ErrMore {
			if c.waitOnceOnWouldBlock() {
				continue
			}
			return err
		}
		if err == io.EOF {
			if off == 0 {
				return io.EOF
			}
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

func (c *Codec) writeFull(buf []byte) error {
	off := 0
	for off < len(buf) {
		n, err := c.w.Write(buf[off:])
		if n > 0 {
			off += n
			continue
		}
		if err == nil {
			return io.ErrShortWrite
		}
		if err == ErrWouldBlock || err == ErrMore {
			if c.waitOnceOnWouldBlock() {
				continue
			}
			return err
		}
		return err
	}
	return nil
}

// Write encodes and sends one frame, then flushes the underlying writer if
// it buffers. The header and payload are concatenated into one buffer
// before the first Write call, so a frame reaches the transport as a
// single write unless the writer accepts only part of it, in which case
// the remainder is written by further calls.
func (c *Codec) Write(tag Tag, reqNum uint8, payload []byte) error {
	if c.w == nil {
		return ErrInvalidArgument
	}
	if !tag.valid() {
		return ErrInvalidArgument
	}
	if int64(len(payload)) > maxPayload56 {
		return ErrTooLong
	}
	buf := make([]byte, headerLen+len(payload))
	buf[0] = byte(tag)
	buf[1] = reqNum
	putUint56(buf[2:9], uint64(len(payload)))
	copy(buf[headerLen:], payload)

	if err := c.writeFull(buf); err != nil {
		return &WriteError{Msg: "send frame", Err: err}
	}
	if f, ok := c.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return &WriteError{Msg: "flush", Err: err}
		}
	}
	return nil
}

// Read decodes one frame. A tag of TagQuit short-circuits decoding into a
// Quit frame whatever its request number, though the payload bytes
// (conventionally zero of them) are still drained so the wire stays in
// sync. A quit frame whose length exceeds the read limit is rejected like
// any other.
func (c *Codec) Read() (Frame, error) {
	if c.r == nil {
		return Frame{}, ErrInvalidArgument
	}
	if err := c.readFull(c.header[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, &ReadError{Msg: "truncated header", Err: err}
	}
	tag := Tag(c.header[0])
	reqNum := c.header[1]
	length := getUint56(c.header[2:9])

	if length > uint64(c.readLimit) {
		// The allocation is refused without reading the payload; the
		// stream is not resynchronised after this error.
		return Frame{}, &ReadError{Msg: "impossibly high data amount"}
	}

	payload := make([]byte, length)
	if length > 0 {
		if err := c.readFull(payload); err != nil {
			return Frame{}, &ReadError{Msg: "truncated payload", Err: err}
		}
	}

	if tag == TagQuit {
		return Frame{Tag: TagQuit, ReqNum: QuitReqNum, Payload: payload}, nil
	}
	if !tag.valid() {
		return Frame{}, ErrProtocol
	}
	return Frame{Tag: tag, ReqNum: reqNum, Payload: payload}, nil
}

func putUint56(b []byte, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v<<8)
	copy(b, tmp[:7])
}

func getUint56(b []byte) uint64 {
	var tmp [8]byte
	copy(tmp[1:], b[:7])
	return binary.BigEndian.Uint64(tmp[:])
}
