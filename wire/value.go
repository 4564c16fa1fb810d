// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire defines the tagged union of values that can cross a pipe,
// and the pure classification step that decides which frame.Tag an
// outbound value maps to. It has no knowledge of peers, sessions, or
// virtual files — those live one layer up, in marshal, which is the only
// package allowed to mutate a session's registry or virtual-file table
// while encoding or decoding.
package wire

import "io"

// ConnNumber identifies a peer, unique within one process.
type ConnNumber int

// Kind is the outbound classification of a Go value, mirroring the
// frame.Tag it will be encoded as.
type Kind int

const (
	KindBytes Kind = iota
	KindPeer
	KindQuotedPath
	KindPath
	KindBarePath
	KindStream
	KindLazySeq
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindPeer:
		return "peer"
	case KindQuotedPath:
		return "quoted-path"
	case KindPath:
		return "path"
	case KindBarePath:
		return "bare-path"
	case KindStream:
		return "stream"
	case KindLazySeq:
		return "lazy-seq"
	default:
		return "opaque"
	}
}

// StatRecord is the portable shape of the "stat_data" attached to a path
// record. The original source leaves this opaque (whatever the rpath
// metadata layer pickles); this is the minimal shape sufficient to
// round-trip identity, size, and link-target information across the wire,
// which is all this transport itself ever needs to preserve.
type StatRecord struct {
	Exists     bool
	IsDir      bool
	IsSymlink  bool
	Size       int64
	ModTimeSec int64
	Perms      uint32
	UID        int
	GID        int
	LinkTarget string
}

// PathWithPeer is the "R" record: a path anchored at a particular peer.
type PathWithPeer struct {
	Peer  ConnNumber
	Base  string
	Index []string
	Stat  StatRecord
}

// QuotedPathWithPeer is the "Q" record: identical shape to PathWithPeer,
// carrying filenames that have gone through the repository's quoting
// scheme (out of scope here — this transport only needs to preserve the
// tag distinction so the two never get decoded into each other).
type QuotedPathWithPeer PathWithPeer

// BarePath is the "r" record: a path with no peer reference. Any stream
// attached to the original record travels separately — see the package
// doc on marshal for the rationale.
type BarePath struct {
	Index []string
	Stat  StatRecord
}

// PeerRef is satisfied by anything that knows its own ConnNumber — in
// particular, any concrete peer type from the peer/session packages. wire
// depends only on this minimal structural interface, not on the peer type
// itself, to avoid an import cycle (session depends on wire, not the
// reverse).
type PeerRef interface {
	ConnNumber() ConnNumber
}

// LazySeq is a finite, pull-based sequence of records. It mirrors a Python
// iterator: Next returns the next item, or ok=false once exhausted.
// Implementations that hold a resource (e.g. backed by a remote stream)
// should free it once Next reports ok=false or once Close is called.
type LazySeq interface {
	Next() (item any, ok bool, err error)
	io.Closer
}

// HasLazySeq is satisfied by a value that exposes a LazySeq view of
// itself — the Go replacement for duck-typing "has __next__ and
// __iter__" in the source.
type HasLazySeq interface {
	LazySeq() LazySeq
}

// Classify inspects v and reports which wire Kind it maps to, implementing
// an eight-way dispatch:
//
//  1. []byte                      -> KindBytes
//  2. PeerRef                     -> KindPeer
//  3. QuotedPathWithPeer          -> KindQuotedPath
//  4. PathWithPeer                -> KindPath
//  5. BarePath                    -> KindBarePath
//  6. stream-like (Read/Write + Close) -> KindStream
//  7. HasLazySeq                  -> KindLazySeq
//  8. anything else               -> KindOpaque
func Classify(v any) Kind {
	switch v.(type) {
	case []byte:
		return KindBytes
	}
	if _, ok := v.(PeerRef); ok {
		return KindPeer
	}
	if _, ok := v.(QuotedPathWithPeer); ok {
		return KindQuotedPath
	}
	if _, ok := v.(PathWithPeer); ok {
		return KindPath
	}
	if _, ok := v.(BarePath); ok {
		return KindBarePath
	}
	if isStreamLike(v) {
		return KindStream
	}
	if _, ok := v.(HasLazySeq); ok {
		return KindLazySeq
	}
	return KindOpaque
}

func isStreamLike(v any) bool {
	closer, ok := v.(io.Closer)
	if !ok {
		return false
	}
	_, isReader := v.(io.Reader)
	_, isWriter := v.(io.Writer)
	return closer != nil && (isReader || isWriter)
}
