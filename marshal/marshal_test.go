package marshal_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rdiffbackup-go/transport/frame"
	"github.com/rdiffbackup-go/transport/marshal"
	"github.com/rdiffbackup-go/transport/session"
	"github.com/rdiffbackup-go/transport/vfile"
	"github.com/rdiffbackup-go/transport/wire"
)

type stubPeer struct{ n session.ConnNumber }

func (p stubPeer) ConnNumber() session.ConnNumber { return p.n }
func (p stubPeer) Reval(_ context.Context, name string, args ...any) (any, error) {
	return nil, nil
}

func newCtx() *session.Context {
	return session.New(nil)
}

func TestEncodeDecode_Bytes(t *testing.T) {
	ctx := newCtx()
	tag, payload, err := marshal.Encode(ctx, []byte("hello"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if tag != frame.TagBytes {
		t.Fatalf("want TagBytes, got %v", tag)
	}
	got, err := marshal.Decode(context.Background(), ctx, nil, tag, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.([]byte), []byte("hello")) {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestEncodeDecode_Peer(t *testing.T) {
	ctx := newCtx()
	p := stubPeer{n: 7}
	ctx.Registry.InsertAt(7, p)
	tag, payload, err := marshal.Encode(ctx, p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if tag != frame.TagPeer {
		t.Fatalf("want TagPeer, got %v", tag)
	}
	got, err := marshal.Decode(context.Background(), ctx, nil, tag, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(session.Peer).ConnNumber() != 7 {
		t.Fatalf("wrong peer resolved: %+v", got)
	}
}

func TestEncodeDecode_BarePath(t *testing.T) {
	ctx := newCtx()
	bp := wire.BarePath{Index: []string{"a", "b"}, Stat: wire.StatRecord{Exists: true, Size: 42}}
	tag, payload, err := marshal.Encode(ctx, bp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if tag != frame.TagBarePath {
		t.Fatalf("want TagBarePath, got %v", tag)
	}
	got, err := marshal.Decode(context.Background(), ctx, nil, tag, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gotBP := got.(wire.BarePath)
	if gotBP.Index[1] != "b" || gotBP.Stat.Size != 42 {
		t.Fatalf("round trip mismatch: %+v", gotBP)
	}
}

func TestEncodeDecode_Opaque(t *testing.T) {
	ctx := newCtx()
	tag, payload, err := marshal.Encode(ctx, map[string]any{"k": int64(9)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if tag != frame.TagOpaque {
		t.Fatalf("want TagOpaque, got %v", tag)
	}
	got, err := marshal.Decode(context.Background(), ctx, nil, tag, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := got.(map[any]any)
	if m["k"] != int64(9) {
		t.Fatalf("round trip mismatch: %+v", m)
	}
}

type memStream struct {
	*bytes.Buffer
}

func (memStream) Close() error { return nil }

func TestEncode_StreamRegistersInFileTable(t *testing.T) {
	ctx := newCtx()
	s := memStream{bytes.NewBufferString("contents")}
	tag, payload, err := marshal.Encode(ctx, s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if tag != frame.TagFile {
		t.Fatalf("want TagFile, got %v", tag)
	}
	if ctx.Files.Len() != 1 {
		t.Fatalf("want 1 registered stream, got %d", ctx.Files.Len())
	}

	var id vfile.ID
	if err := wire.DecodeOpaque(payload, &id); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	buf, err := ctx.Files.Read(id, -1)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(buf) != "contents" {
		t.Fatalf("got %q", buf)
	}
}

type finiteSeq struct {
	items []int
	i     int
}

func (s *finiteSeq) Next() (any, bool, error) {
	if s.i >= len(s.items) {
		return nil, false, nil
	}
	v := s.items[s.i]
	s.i++
	return v, true, nil
}
func (s *finiteSeq) Close() error { return nil }

type seqHolder struct{ seq wire.LazySeq }

func (h seqHolder) LazySeq() wire.LazySeq { return h.seq }

func TestEncode_LazySeqRegistersInFileTable(t *testing.T) {
	ctx := newCtx()
	holder := seqHolder{seq: &finiteSeq{items: []int{1, 2, 3}}}
	tag, payload, err := marshal.Encode(ctx, holder)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if tag != frame.TagIter {
		t.Fatalf("want TagIter, got %v", tag)
	}
	var id vfile.ID
	if err := wire.DecodeOpaque(payload, &id); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	buf, err := ctx.Files.Read(id, -1)
	if err != nil && err != io.EOF {
		t.Fatalf("drain: %v", err)
	}
	if len(buf) == 0 {
		t.Fatalf("expected encoded items, got none")
	}
}
