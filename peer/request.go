// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/rdiffbackup-go/transport/frame"
	"github.com/rdiffbackup-go/transport/rpcerr"
)

// requestEnvelope is the first frame of a call: the dotted function name
// and how many argument frames follow, the Go analogue of
// connection.py's ConnectionRequest. It always travels opaque-encoded.
type requestEnvelope struct {
	FuncName string
	NumArgs  int
}

// resultEnvelope is the single frame a call's result travels in,
// regardless of whether the call succeeded. The source doesn't need this
// wrapper — a pickled exception is just another object, and the caller's
// isinstance check sorts it out after the fact — but Go's CBOR decode
// needs to know which shape it's holding before it can decode into it, so
// PipePeer always sends this fixed envelope and marshal.Encode/Decode only
// ever see the successful-value half of it.
type resultEnvelope struct {
	Failed       bool
	ValueTag     frame.Tag
	ValuePayload []byte
	Failure      rpcerr.Failure
}
