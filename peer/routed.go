// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peer

import (
	"context"

	"github.com/rdiffbackup-go/transport/session"
)

// RoutedPeer represents a peer more than one hop away — the Go analogue
// of RedirectedConnection. If three processes are connected S1—C—S2, then
// from S1's point of view S2 is a RoutedPeer whose calls are rewritten
// into a RedirectedRun request sent to C.
type RoutedPeer struct {
	target  session.ConnNumber
	routing session.Peer
}

// NewRoutedPeer returns a peer representing target, reached by sending
// RedirectedRun requests through routing.
func NewRoutedPeer(target session.ConnNumber, routing session.Peer) *RoutedPeer {
	return &RoutedPeer{target: target, routing: routing}
}

func (r *RoutedPeer) ConnNumber() session.ConnNumber { return r.target }

// Reval rewrites the call as a RedirectedRun request evaluated by the
// routing peer, matching RedirectedConnection.reval.
func (r *RoutedPeer) Reval(ctx context.Context, name string, args ...any) (any, error) {
	rewritten := make([]any, 0, len(args)+2)
	rewritten = append(rewritten, int64(r.target), name)
	rewritten = append(rewritten, args...)
	return r.routing.Reval(ctx, "RedirectedRun", rewritten...)
}
