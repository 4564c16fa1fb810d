// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package peer implements the three concrete Peer shapes the transport
// supports — local (LocalConnection), pipe (PipeConnection), and routed
// (RedirectedConnection) — plus the call proxy that gives a routed or pipe
// peer the conn.os.chmod(...) dotted-call ergonomics the source's
// EmulateCallable provides through __getattr__ interception. Go has no
// attribute interception, so Proxy accumulates the dotted name explicitly
// instead.
package peer

import (
	"context"

	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/session"
)

// LocalPeer evaluates a call directly against a resolver.Registry, with no
// pipe in between — the Go analogue of LocalConnection, whose reval just
// calls self._eval(function_string)(*args). It always sits at
// session.LocalConnNumber.
type LocalPeer struct {
	names *resolver.Registry
}

// NewLocalPeer builds the distinguished local peer evaluating calls
// against names.
func NewLocalPeer(names *resolver.Registry) *LocalPeer {
	return &LocalPeer{names: names}
}

func (p *LocalPeer) ConnNumber() session.ConnNumber { return session.LocalConnNumber }

// Bind adds or replaces a root-level name in the peer's resolver namespace,
// mirroring LocalConnection.__setattr__.
func (p *LocalPeer) Bind(name string, v any) { p.names.Bind(name, v) }

// Unbind removes a root-level name, mirroring LocalConnection.__delattr__.
func (p *LocalPeer) Unbind(name string) { p.names.Unbind(name) }

// Reval resolves name in the registry and invokes it with args, ignoring
// ctx: a local call has no I/O to cancel.
func (p *LocalPeer) Reval(_ context.Context, name string, args ...any) (any, error) {
	fn, err := p.names.Resolve(name)
	if err != nil {
		return nil, err
	}
	return resolver.Invoke(fn, args)
}
