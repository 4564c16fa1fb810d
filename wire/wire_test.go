package wire_test

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"github.com/rdiffbackup-go/transport/wire"
)

type fakePeer struct{ n wire.ConnNumber }

func (p fakePeer) ConnNumber() wire.ConnNumber { return p.n }

type fakeStream struct{ io.ReadWriteCloser }

type fakeSeqHolder struct{}

func (fakeSeqHolder) LazySeq() wire.LazySeq { return nil }

func TestClassify_Dispatch(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want wire.Kind
	}{
		{"bytes", []byte("hi"), wire.KindBytes},
		{"peer", fakePeer{n: 3}, wire.KindPeer},
		{"quoted-path", wire.QuotedPathWithPeer{Peer: 1, Base: "/x"}, wire.KindQuotedPath},
		{"path", wire.PathWithPeer{Peer: 1, Base: "/x"}, wire.KindPath},
		{"bare-path", wire.BarePath{Index: []string{"a"}}, wire.KindBarePath},
		{"lazy-seq", fakeSeqHolder{}, wire.KindLazySeq},
		{"opaque-int", 42, wire.KindOpaque},
		{"opaque-string", "hello", wire.KindOpaque},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := wire.Classify(tc.v); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestClassify_Stream(t *testing.T) {
	var buf bytes.Buffer
	s := fakeStream{ReadWriteCloser: nopCloser{&buf}}
	if got := wire.Classify(s); got != wire.KindStream {
		t.Fatalf("Classify(stream) = %v, want KindStream", got)
	}
}

type nopCloser struct{ io.ReadWriter }

func (nopCloser) Close() error { return nil }

func TestOpaqueRoundTrip(t *testing.T) {
	type rec struct {
		Name string
		N    int
		Tags []string
	}
	in := rec{Name: "a", N: 7, Tags: []string{"x", "y"}}
	buf, err := wire.EncodeOpaque(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out rec
	if err := wire.DecodeOpaque(buf, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestOpaqueRoundTrip_PathWithPeer(t *testing.T) {
	in := wire.PathWithPeer{
		Peer:  2,
		Base:  "/backup",
		Index: []string{"a", "b"},
		Stat:  wire.StatRecord{Exists: true, Size: 123},
	}
	buf, err := wire.EncodeOpaque(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out wire.PathWithPeer
	if err := wire.DecodeOpaque(buf, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}
