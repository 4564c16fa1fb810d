// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reqnum manages the 8-bit request-number space that ties together
// all frames belonging to one call.
package reqnum

import (
	"errors"
	"sync"
)

// Max is the largest valid request number. 255 is reserved for the quit
// signal and is never handed out by a Pool.
const Max = 254

// None is not a valid wire request number (those are uint8); it is used
// internally by a server loop to mean "no response is being awaited, every
// inbound frame is a new request" (PipeConnection.Server's self._get_response(-1)).
const None int = -1

// ErrExhausted is returned when all 255 usable request numbers
// (0 through 254) are outstanding on one peer.
var ErrExhausted = errors.New("reqnum: exhausted possible request numbers")

// Pool is the "unused" set owned by one pipe peer. Although a peer's own
// request/response cycle is strictly single-threaded, Pool is still
// mutex-protected so that it is safe to inspect from a concurrent test (or
// a future debug/metrics goroutine) without racing the peer's own use of it.
type Pool struct {
	mu     sync.Mutex
	unused [Max + 1]bool
	count  int
}

// NewPool returns a pool with every number from 0 to Max available.
func NewPool() *Pool {
	p := &Pool{}
	for i := range p.unused {
		p.unused[i] = true
	}
	p.count = len(p.unused)
	return p
}

// Allocate pops an arbitrary available request number.
func (p *Pool) Allocate() (uint8, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count == 0 {
		return 0, ErrExhausted
	}
	for i := range p.unused {
		if p.unused[i] {
			p.unused[i] = false
			p.count--
			return uint8(i), nil
		}
	}
	// unreachable: count > 0 implies some slot is true
	return 0, ErrExhausted
}

// Claim marks reqNum as in use without requiring it be available first —
// used when a peer must temporarily hold the remote's own request number
// while it answers an inbound call.
func (p *Pool) Claim(reqNum uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unused[reqNum] {
		p.unused[reqNum] = false
		p.count--
	}
}

// Release returns reqNum to the available set.
func (p *Pool) Release(reqNum uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unused[reqNum] {
		p.unused[reqNum] = true
		p.count++
	}
}

// Available reports how many request numbers are currently free
// (test/diagnostic use — should return to its pre-call value once a Reval
// releases the number it allocated).
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}
