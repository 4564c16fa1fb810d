// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frame

import "time"

// Options configures a Codec's retry and size-limit behavior.
//
// The wire format itself (tag + request number + 7-byte big-endian length)
// is fixed by the protocol and is not configurable — unlike a general-purpose
// framing library, this transport's two peers must agree on exactly one
// format.
type Options struct {
	// ReadLimit caps the maximum accepted payload size in bytes. Zero means
	// the protocol maximum (2^56-1). A non-zero, lower cap guards a peer
	// against a corrupt or hostile header claiming an implausible length.
	ReadLimit int64

	// RetryDelay controls how Read/Write handle iox.ErrWouldBlock from the
	// underlying pipe:
	//   - negative: nonblocking, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	//
	// Pipes backing this transport are ordinary blocking os.Pipe file
	// descriptors in the common case, so the default is to block.
	RetryDelay time.Duration
}

var defaultOptions = Options{
	ReadLimit:  defaultReadLimit,
	RetryDelay: 0,
}

// defaultReadLimit is a configurable-by-default safety cap well below the
// protocol's 2^56-1 header limit, guarding a peer against a corrupt or
// hostile length field before it ever tries to allocate that much memory.
const defaultReadLimit = 64 * 1024 * 1024

type Option func(*Options)

// WithReadLimit sets the maximum accepted payload size.
func WithReadLimit(limit int64) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

// WithRetryDelay sets the wait policy used when the underlying pipe
// returns iox.ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior: Read/Write return ErrWouldBlock
// immediately instead of retrying.
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}
