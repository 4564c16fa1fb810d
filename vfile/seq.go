// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vfile

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/rdiffbackup-go/transport/wire"
)

// SeqToStream adapts a local wire.LazySeq into the io.ReadWriteCloser shape
// the virtual-file table expects, so a lazy sequence can ride the same
// per-byte-stream machinery as a plain file — the Go analogue of the
// source's MiscIterToFile. Each item is framed inside the stream as a
// 4-byte big-endian length prefix followed by that many bytes of opaque
// (CBOR) encoding.
type SeqToStream struct {
	seq wire.LazySeq
	buf []byte // unread bytes of the current encoded item
	eof bool
}

// NewSeqToStream wraps seq for registration in a Table.
func NewSeqToStream(seq wire.LazySeq) *SeqToStream {
	return &SeqToStream{seq: seq}
}

var errSeqToStreamIsReadOnly = errors.New("vfile: SeqToStream does not support Write")

func (s *SeqToStream) Write([]byte) (int, error) { return 0, errSeqToStreamIsReadOnly }

func (s *SeqToStream) Close() error { return s.seq.Close() }

func (s *SeqToStream) Read(p []byte) (int, error) {
	if len(s.buf) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		item, ok, err := s.seq.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			s.eof = true
			return 0, io.EOF
		}
		enc, err := wire.EncodeOpaque(item)
		if err != nil {
			return 0, err
		}
		framed := make([]byte, 4+len(enc))
		binary.BigEndian.PutUint32(framed, uint32(len(enc)))
		copy(framed[4:], enc)
		s.buf = framed
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// StreamToSeq adapts an io.ReadCloser carrying the SeqToStream wire shape
// back into a wire.LazySeq — the Go analogue of FileToMiscIter. decode is
// called once per item with the raw opaque payload and must unmarshal it
// into the caller's record type (typically via wire.DecodeOpaque into a
// concrete struct); a nil decode returns the item as a generic any via
// wire.DecodeOpaque into an interface{}.
type StreamToSeq struct {
	src    io.ReadCloser
	decode func([]byte) (any, error)
}

// NewStreamToSeq wraps src, decoding each item with decode. If decode is
// nil, items are decoded into a generic interface{} value.
func NewStreamToSeq(src io.ReadCloser, decode func([]byte) (any, error)) *StreamToSeq {
	if decode == nil {
		decode = func(b []byte) (any, error) {
			var v any
			if err := wire.DecodeOpaque(b, &v); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return &StreamToSeq{src: src, decode: decode}
}

func (s *StreamToSeq) Close() error { return s.src.Close() }

func (s *StreamToSeq) Next() (any, bool, error) {
	var lenBuf [4]byte
	_, err := io.ReadFull(s.src, lenBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, false, nil
		}
		return nil, false, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.src, buf); err != nil {
		return nil, false, err
	}
	item, err := s.decode(buf)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}
