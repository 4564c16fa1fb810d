package frame_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/rdiffbackup-go/transport/frame"
)

func TestRoundTrip_AllTags(t *testing.T) {
	tags := []frame.Tag{
		frame.TagOpaque, frame.TagBytes, frame.TagFile, frame.TagIter,
		frame.TagPath, frame.TagQuotedPath, frame.TagBarePath, frame.TagPeer,
	}
	for _, tag := range tags {
		var buf bytes.Buffer
		c := frame.NewCodec(&buf, &buf)
		payload := []byte("payload-for-" + string(rune(tag)))
		if err := c.Write(tag, 42, payload); err != nil {
			t.Fatalf("write %v: %v", tag, err)
		}
		got, err := c.Read()
		if err != nil {
			t.Fatalf("read %v: %v", tag, err)
		}
		if got.Tag != tag || got.ReqNum != 42 || !bytes.Equal(got.Payload, payload) {
			t.Fatalf("round trip mismatch for %v: got %+v", tag, got)
		}
	}
}

func TestQuitFrame_ShortCircuits(t *testing.T) {
	var buf bytes.Buffer
	c := frame.NewCodec(&buf, &buf)
	if err := c.Write(frame.TagQuit, frame.QuitReqNum, nil); err != nil {
		t.Fatalf("write quit: %v", err)
	}
	got, err := c.Read()
	if err != nil {
		t.Fatalf("read quit: %v", err)
	}
	if got.Tag != frame.TagQuit {
		t.Fatalf("want TagQuit, got %v", got.Tag)
	}
}

func TestRead_TruncatedHeader(t *testing.T) {
	buf := bytes.NewBuffer([]byte{'o', 1, 0, 0}) // short of the 9-byte header
	c := frame.NewCodec(buf, nil)
	_, err := c.Read()
	if err == nil {
		t.Fatalf("expected error on truncated header")
	}
	var re *frame.ReadError
	if !asReadError(err, &re) {
		t.Fatalf("expected *frame.ReadError, got %T: %v", err, err)
	}
}

func asReadError(err error, target **frame.ReadError) bool {
	if re, ok := err.(*frame.ReadError); ok {
		*target = re
		return true
	}
	return false
}

func TestRead_OversizedLengthRejected(t *testing.T) {
	header := []byte{'o', 1, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	c := frame.NewCodec(bytes.NewReader(header), nil, frame.WithReadLimit(1024))
	_, err := c.Read()
	if err == nil {
		t.Fatalf("expected error on oversized length")
	}
}

func TestWrite_UnknownTagRejected(t *testing.T) {
	var buf bytes.Buffer
	c := frame.NewCodec(&buf, &buf)
	err := c.Write(frame.Tag('z'), 0, nil)
	if err != frame.ErrInvalidArgument {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestRead_EOFAtBoundary(t *testing.T) {
	c := frame.NewCodec(bytes.NewReader(nil), nil)
	_, err := c.Read()
	if err != io.EOF {
		t.Fatalf("want io.EOF at clean boundary, got %v", err)
	}
}

func TestMultipleFramesSamePipe_PreserveOrder(t *testing.T) {
	var buf bytes.Buffer
	c := frame.NewCodec(&buf, &buf)
	msgs := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for i, m := range msgs {
		if err := c.Write(frame.TagBytes, uint8(i), m); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	for i, want := range msgs {
		got, err := c.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got.ReqNum != uint8(i) || !bytes.Equal(got.Payload, want) {
			t.Fatalf("frame %d mismatch: %+v", i, got)
		}
	}
}
