// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vfile

import (
	"context"
	"fmt"
	"io"
)

// Revaler is the minimal shape of a peer that RemoteStream needs: the
// ability to invoke a named remote function. It is declared here,
// structurally identical to session.Peer, rather than imported from the
// session/peer packages, to keep vfile a leaf package with no dependency on
// the RPC machinery built on top of it.
type Revaler interface {
	Reval(ctx context.Context, name string, args ...any) (any, error)
}

// Endpoint names for the three virtual-file operations. These must be
// registered in every session's name resolver under these exact dotted
// names.
const (
	EndpointRead  = "VirtualFile.readfromid"
	EndpointWrite = "VirtualFile.writetoid"
	EndpointClose = "VirtualFile.closebyid"
)

// RemoteStream is the client-side handle obtained by decoding an "f" frame:
// the bytes live on the peer that sent the frame, and every Read/Write/Close
// call here is forwarded to it via Reval.
type RemoteStream struct {
	ctx  context.Context
	peer Revaler
	id   ID
}

// NewRemoteStream wraps id, reachable on peer, as an io.ReadWriteCloser.
// ctx is used for every forwarded call; RemoteStream does not support
// per-call cancellation distinct from the one it was built with, matching
// the io.ReadWriteCloser contract it implements.
func NewRemoteStream(ctx context.Context, peer Revaler, id ID) *RemoteStream {
	return &RemoteStream{ctx: ctx, peer: peer, id: id}
}

func (r *RemoteStream) ID() ID { return r.id }

func (r *RemoteStream) Read(p []byte) (int, error) {
	res, err := r.peer.Reval(r.ctx, EndpointRead, int64(r.id), len(p))
	if err != nil {
		return 0, err
	}
	buf, ok := res.([]byte)
	if !ok {
		return 0, fmt.Errorf("vfile: remote read returned %T, want []byte", res)
	}
	n := copy(p, buf)
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadAll reads the remaining bytes to end-of-stream, mirroring the
// source's read(length=None).
func (r *RemoteStream) ReadAll() ([]byte, error) {
	res, err := r.peer.Reval(r.ctx, EndpointRead, int64(r.id), -1)
	if err != nil {
		return nil, err
	}
	buf, ok := res.([]byte)
	if !ok {
		return nil, fmt.Errorf("vfile: remote read returned %T, want []byte", res)
	}
	return buf, nil
}

func (r *RemoteStream) Write(p []byte) (int, error) {
	res, err := r.peer.Reval(r.ctx, EndpointWrite, int64(r.id), p)
	if err != nil {
		return 0, err
	}
	n, ok := asInt(res)
	if !ok {
		return 0, fmt.Errorf("vfile: remote write returned %T, want int", res)
	}
	return n, nil
}

// asInt coerces the integer shapes a write count can arrive as: a bare Go
// int from an in-process fake peer that bypasses the codec, or an
// int64/uint64 once the value has actually round-tripped through CBOR,
// which never decodes a positive integer back to plain int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}

func (r *RemoteStream) Close() error {
	_, err := r.peer.Reval(r.ctx, EndpointClose, int64(r.id))
	return err
}
