// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package marshal is the value marshaller proper: the only package
// allowed to mutate a session.Context's virtual-file table or peer
// registry as a side effect of encoding or decoding one argument or
// return value. wire.Classify decides the shape; marshal does the work of
// turning that shape into (frame.Tag, payload) and back, registering
// streams and resolving peer references along the way.
package marshal

import (
	"context"
	"fmt"

	"github.com/rdiffbackup-go/transport/frame"
	"github.com/rdiffbackup-go/transport/session"
	"github.com/rdiffbackup-go/transport/vfile"
	"github.com/rdiffbackup-go/transport/wire"
)

// Encode classifies v and produces the frame.Tag/payload pair that
// transports it. Streams and lazy sequences are registered into ctx.Files
// as a side effect; everything else is pure.
func Encode(ctx *session.Context, v any) (frame.Tag, []byte, error) {
	switch wire.Classify(v) {
	case wire.KindBytes:
		return frame.TagBytes, v.([]byte), nil

	case wire.KindPeer:
		n := v.(wire.PeerRef).ConnNumber()
		payload, err := wire.EncodeOpaque(n)
		return frame.TagPeer, payload, err

	case wire.KindQuotedPath:
		payload, err := wire.EncodeOpaque(v.(wire.QuotedPathWithPeer))
		return frame.TagQuotedPath, payload, err

	case wire.KindPath:
		payload, err := wire.EncodeOpaque(v.(wire.PathWithPeer))
		return frame.TagPath, payload, err

	case wire.KindBarePath:
		payload, err := wire.EncodeOpaque(v.(wire.BarePath))
		return frame.TagBarePath, payload, err

	case wire.KindStream:
		stream, ok := v.(streamLike)
		if !ok {
			return 0, nil, fmt.Errorf("marshal: %T classified as stream but is not a ReadWriteCloser", v)
		}
		id := ctx.Files.New(asReadWriteCloser(stream))
		payload, err := wire.EncodeOpaque(id)
		return frame.TagFile, payload, err

	case wire.KindLazySeq:
		seq := v.(wire.HasLazySeq).LazySeq()
		id := ctx.Files.New(vfile.NewSeqToStream(seq))
		payload, err := wire.EncodeOpaque(id)
		return frame.TagIter, payload, err

	default:
		payload, err := wire.EncodeOpaque(v)
		return frame.TagOpaque, payload, err
	}
}

// streamLike is the minimal shape Encode needs from a value classified as
// wire.KindStream: at least one of Read/Write, plus Close. asReadWriteCloser
// widens it to the full io.ReadWriteCloser the virtual-file table stores.
type streamLike interface {
	Close() error
}

func asReadWriteCloser(v streamLike) readWriteCloserAdapter {
	return readWriteCloserAdapter{v}
}

// readWriteCloserAdapter lets a value that implements only one of
// Read/Write (plus Close) sit in the virtual-file table, which always
// stores io.ReadWriteCloser; calling the missing half reports an error
// rather than panicking.
type readWriteCloserAdapter struct{ v streamLike }

func (a readWriteCloserAdapter) Read(p []byte) (int, error) {
	r, ok := a.v.(interface{ Read([]byte) (int, error) })
	if !ok {
		return 0, fmt.Errorf("marshal: %T is not readable", a.v)
	}
	return r.Read(p)
}

func (a readWriteCloserAdapter) Write(p []byte) (int, error) {
	w, ok := a.v.(interface{ Write([]byte) (int, error) })
	if !ok {
		return 0, fmt.Errorf("marshal: %T is not writable", a.v)
	}
	return w.Write(p)
}

func (a readWriteCloserAdapter) Close() error { return a.v.Close() }

// Decode reverses Encode. from is the peer the frame arrived on — needed
// to build RemoteStream handles for TagFile/TagIter payloads, since those
// ids are only meaningful on the sender's virtual-file table, not ours.
func Decode(ctx context.Context, sess *session.Context, from session.Peer, tag frame.Tag, payload []byte) (any, error) {
	switch tag {
	case frame.TagBytes:
		return payload, nil

	case frame.TagPeer:
		var n session.ConnNumber
		if err := wire.DecodeOpaque(payload, &n); err != nil {
			return nil, err
		}
		p, err := sess.Registry.Lookup(n)
		if err != nil {
			return nil, &frame.ProtocolError{Reason: fmt.Sprintf("peer reference to unregistered connection %d: %v", n, err)}
		}
		return p, nil

	case frame.TagQuotedPath:
		var p wire.QuotedPathWithPeer
		err := wire.DecodeOpaque(payload, &p)
		return p, err

	case frame.TagPath:
		var p wire.PathWithPeer
		err := wire.DecodeOpaque(payload, &p)
		return p, err

	case frame.TagBarePath:
		var p wire.BarePath
		err := wire.DecodeOpaque(payload, &p)
		return p, err

	case frame.TagFile:
		var id vfile.ID
		if err := wire.DecodeOpaque(payload, &id); err != nil {
			return nil, err
		}
		return vfile.NewRemoteStream(ctx, from, id), nil

	case frame.TagIter:
		var id vfile.ID
		if err := wire.DecodeOpaque(payload, &id); err != nil {
			return nil, err
		}
		stream := vfile.NewRemoteStream(ctx, from, id)
		return vfile.NewStreamToSeq(stream, nil), nil

	case frame.TagOpaque:
		var v any
		err := wire.DecodeOpaque(payload, &v)
		return v, err

	default:
		return nil, fmt.Errorf("marshal: unknown tag %q", tag)
	}
}
