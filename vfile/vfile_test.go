package vfile_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rdiffbackup-go/transport/vfile"
)

type nopCloseBuf struct{ *bytes.Buffer }

func (nopCloseBuf) Close() error { return nil }

func TestTable_NewReadWriteClose(t *testing.T) {
	tbl := vfile.NewTable()
	var buf bytes.Buffer
	buf.WriteString("hello world")
	id := tbl.New(nopCloseBuf{&buf})
	if id != 0 {
		t.Fatalf("first id = %d, want 0", id)
	}
	got, err := tbl.Read(id, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("read = %q, want %q", got, "hello")
	}
	rest, err := tbl.Read(id, -1)
	if err != nil {
		t.Fatalf("read-to-end: %v", err)
	}
	if string(rest) != " world" {
		t.Fatalf("read-to-end = %q, want %q", rest, " world")
	}
	if err := tbl.Close(id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("table should be empty after close, has %d entries", tbl.Len())
	}
	if _, err := tbl.Read(id, 1); !errors.As(err, new(vfile.ErrUnknownID)) {
		t.Fatalf("read after close: want ErrUnknownID, got %v", err)
	}
}

func TestTable_IdsMonotoneNeverReused(t *testing.T) {
	tbl := vfile.NewTable()
	var prev vfile.ID = -1
	for i := 0; i < 5; i++ {
		id := tbl.New(nopCloseBuf{&bytes.Buffer{}})
		if id <= prev {
			t.Fatalf("id %d did not increase past %d", id, prev)
		}
		prev = id
	}
}

// fakePeer implements vfile.Revaler by forwarding to an in-memory Table,
// simulating what a real pipe peer would do on the far end.
type fakePeer struct{ tbl *vfile.Table }

func (p fakePeer) Reval(_ context.Context, name string, args ...any) (any, error) {
	switch name {
	case vfile.EndpointRead:
		return p.tbl.Read(vfile.ID(args[0].(int64)), args[1].(int))
	case vfile.EndpointWrite:
		n, err := p.tbl.Write(vfile.ID(args[0].(int64)), args[1].([]byte))
		return n, err
	case vfile.EndpointClose:
		return nil, p.tbl.Close(vfile.ID(args[0].(int64)))
	}
	return nil, errors.New("unknown endpoint")
}

func TestRemoteStream_ReadWriteClose(t *testing.T) {
	tbl := vfile.NewTable()
	var buf bytes.Buffer
	buf.WriteString("remote payload")
	id := tbl.New(nopCloseBuf{&buf})

	rs := vfile.NewRemoteStream(context.Background(), fakePeer{tbl: tbl}, id)
	got := make([]byte, 6)
	n, err := rs.Read(got)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got[:n]) != "remote" {
		t.Fatalf("read = %q", got[:n])
	}
	rest, err := rs.ReadAll()
	if err != nil {
		t.Fatalf("read-all: %v", err)
	}
	if string(rest) != " payload" {
		t.Fatalf("read-all = %q", rest)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type finiteSeq struct {
	items []string
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

func TestSeqToStream_StreamToSeq_RoundTrip(t *testing.T) {
	seq := &finiteSeq{items: []string{"alpha", "beta", "gamma"}}
	stream := vfile.NewSeqToStream(seq)

	var encoded bytes.Buffer
	if _, err := io.Copy(&encoded, stream); err != nil {
		t.Fatalf("copy: %v", err)
	}

	back := vfile.NewStreamToSeq(nopCloseBuf{&encoded}, nil)
	var got []string
	for {
		item, ok, err := back.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, item.(string))
	}
	if len(got) != 3 || got[0] != "alpha" || got[1] != "beta" || got[2] != "gamma" {
		t.Fatalf("round trip = %v", got)
	}
}
