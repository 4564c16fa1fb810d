// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"strings"

	"github.com/rdiffbackup-go/transport/session"
)

// Call invokes name directly on p, the direct form of the call proxy —
// the Go analogue of conn.reval("os.chmod", path, mode) without going
// through a Proxy at all.
func Call(ctx context.Context, p session.Peer, name string, args ...any) (any, error) {
	return p.Reval(ctx, name, args...)
}

// Proxy accumulates a dotted name across successive NS calls, the Go
// replacement for EmulateCallable's __getattr__ interception: where the
// source builds conn.os.path.join by re-entering __getattr__ once per
// attribute access, Go has no such hook, so the caller spells out each
// segment via NS and finishes with Call. Call takes only the arguments:
// the last segment of the name is added with NS as well.
//
//	peer.NS(p, "os").NS("path").NS("join").Call(ctx, "/a", "b")
type Proxy struct {
	peer    session.Peer
	segment string
}

// NS starts (or continues) a dotted name rooted at p.
func NS(p session.Peer, segment string) *Proxy {
	return &Proxy{peer: p, segment: segment}
}

// NS extends the accumulated dotted name with another segment.
func (x *Proxy) NS(segment string) *Proxy {
	return &Proxy{peer: x.peer, segment: x.segment + "." + segment}
}

// Call evaluates the accumulated dotted name with args.
func (x *Proxy) Call(ctx context.Context, args ...any) (any, error) {
	return x.peer.Reval(ctx, x.segment, args...)
}

// String returns the dotted name accumulated so far, mainly for logging.
func (x *Proxy) String() string { return x.segment }

// RoutedProxy is the Proxy analogue for a call that must be routed
// through another peer — the Go replacement for EmulateCallableRedirected.
type RoutedProxy struct {
	target  session.ConnNumber
	routing session.Peer
	segment string
}

// RoutedNS starts a dotted name targeting target, routed through routing.
func RoutedNS(target session.ConnNumber, routing session.Peer, segment string) *RoutedProxy {
	return &RoutedProxy{target: target, routing: routing, segment: segment}
}

func (x *RoutedProxy) NS(segment string) *RoutedProxy {
	return &RoutedProxy{target: x.target, routing: x.routing, segment: x.segment + "." + segment}
}

func (x *RoutedProxy) Call(ctx context.Context, args ...any) (any, error) {
	rewritten := make([]any, 0, len(args)+2)
	rewritten = append(rewritten, int64(x.target), x.segment)
	rewritten = append(rewritten, args...)
	return x.routing.Reval(ctx, "RedirectedRun", rewritten...)
}

func (x *RoutedProxy) String() string {
	return strings.Join([]string{"routed", x.segment}, ":")
}
