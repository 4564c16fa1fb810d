// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package session holds the per-process state that used to live as module
// globals in the source's connection.py: the table mapping connection
// numbers to peers, the name resolver a local peer dispatches calls
// against, and the virtual-file table shared by every remote stream
// handle. The local peer itself is defined in package peer and is not held
// here. A Context bundles them so a process can, in principle, host more
// than one independent session without the two stepping on each other's
// peer numbering.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/vfile"
	"github.com/rdiffbackup-go/transport/wire"
)

// ConnNumber identifies a peer, unique within one Context.
type ConnNumber = wire.ConnNumber

// LocalConnNumber is the connection number reserved for the local peer —
// the process's own resolver, reachable without crossing a pipe.
const LocalConnNumber ConnNumber = 0

// Peer is anything that can answer a Reval call, whether it runs in this
// process (LocalPeer) or across a pipe, a route, or a proxy chain.
type Peer interface {
	wire.PeerRef
	Reval(ctx context.Context, name string, args ...any) (any, error)
}

// Registry maps connection numbers to peers, mirroring the source's
// connection_dict plus its companion ordered connection_list. Peer 0 is
// always the local peer; others are assigned as pipes and routes are set
// up, and are never reused once a peer disconnects.
type Registry struct {
	mu    sync.RWMutex
	peers map[ConnNumber]Peer
	next  ConnNumber
}

// NewRegistry returns an empty registry; numbering starts at 1 so that 0
// remains free for the local peer a Context installs separately.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[ConnNumber]Peer), next: LocalConnNumber + 1}
}

// UnknownPeerError reports a lookup or dispatch against a connection number
// nothing is registered under.
type UnknownPeerError struct {
	ConnNumber ConnNumber
}

func (e *UnknownPeerError) Error() string {
	return fmt.Sprintf("session: no peer registered for connection %d", e.ConnNumber)
}

// Insert assigns the next available connection number to p and returns it.
func (r *Registry) Insert(p Peer) ConnNumber {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.next
	r.next++
	r.peers[n] = p
	return n
}

// InsertAt installs p under an explicit connection number, used to place
// the distinguished local peer at 0 and to restore numbering agreed during
// a handshake. It overwrites any peer already at that number.
func (r *Registry) InsertAt(n ConnNumber, p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[n] = p
	if n >= r.next {
		r.next = n + 1
	}
}

// Remove drops the peer at n, e.g. once its pipe has been torn down.
func (r *Registry) Remove(n ConnNumber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, n)
}

// Lookup returns the peer registered at n.
func (r *Registry) Lookup(n ConnNumber) (Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[n]
	if !ok {
		return nil, &UnknownPeerError{ConnNumber: n}
	}
	return p, nil
}

// Peers returns every registered peer ordered by connection number, mirroring
// the source's connection_list used for broadcast-style operations (e.g.
// quitting every peer at shutdown).
func (r *Registry) Peers() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nums := make([]ConnNumber, 0, len(r.peers))
	for n := range r.peers {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	out := make([]Peer, len(nums))
	for i, n := range nums {
		out[i] = r.peers[n]
	}
	return out
}

// Len reports how many peers are currently registered, local peer included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Context bundles the state one side of a session needs: the peer
// registry, the virtual-file table backing remote stream handles, and the
// name resolver the local peer evaluates calls against. Where the source
// kept these as process-wide module globals, bundling them lets a single
// process host independent sessions (e.g. a test harness wiring up both
// ends of a pipe) without cross-talk.
type Context struct {
	Registry *Registry
	Files    *vfile.Table
	Names    *resolver.Registry
}

// New builds a Context with a fresh registry and file table, backed by the
// given resolver roots (typically resolver.Builtins() merged with the
// curated RPC endpoint tree). It does not install a local peer; callers
// that need one (anything evaluating calls locally) register it with
// Registry.InsertAt(LocalConnNumber, ...) once it's constructed, since the
// local peer type itself lives in package peer, one layer above session.
func New(roots map[string]any) *Context {
	return &Context{
		Registry: NewRegistry(),
		Files:    vfile.NewTable(),
		Names:    resolver.NewRegistry(roots),
	}
}
