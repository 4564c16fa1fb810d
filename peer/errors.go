// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peer

import (
	"fmt"

	"github.com/rdiffbackup-go/transport/frame"
)

// ProtocolError reports a well-formed but semantically invalid sequence of
// frames on a pipe: an argument frame whose request number doesn't match
// the request it's supposed to belong to. The source trusts this via a
// bare assert; a release build can't afford to, since a confused remote
// peer would otherwise silently scramble one call's arguments with
// another's.
type ProtocolError struct {
	Want uint8
	Got  uint8
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("peer: argument frame for request %d arrived on request %d", e.Want, e.Got)
}

func (e *ProtocolError) Unwrap() error { return frame.ErrProtocol }

// ErrRedirectToLocal reports a RedirectedRun call naming the local
// connection as its target, which connection.py's RedirectedRun forbids
// by assertion since routing to yourself indicates a confused caller. It is
// a *frame.ProtocolError, so errors.Is(err, frame.ErrProtocol) matches it.
var ErrRedirectToLocal error = &frame.ProtocolError{Reason: "RedirectedRun must not target the local connection"}

// UnexpectedFrameError reports that getResponse received a frame shape it
// cannot interpret as either a matching response or a new request — e.g. a
// request-envelope frame where a plain value was expected.
type UnexpectedFrameError struct {
	Reason string
}

func (e *UnexpectedFrameError) Error() string { return "peer: " + e.Reason }

func (e *UnexpectedFrameError) Unwrap() error { return frame.ErrProtocol }
