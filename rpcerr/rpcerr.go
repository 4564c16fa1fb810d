// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rpcerr marshals the outcome of an evaluated request across the
// wire. A failing call doesn't get a special wire shape distinct from a
// successful one: both travel opaque-encoded, as the source pickles
// whatever sys.exc_info()[1] holds. What this package adds is a portable
// stand-in for Python's platform-specific errno, so an OS-level failure
// (file not found, permission denied, ...) raised on one platform is
// reconstructed as the locally-equivalent error on whichever platform
// receives it, rather than leaking a foreign errno value wholesale.
package rpcerr

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Kind distinguishes the handful of outcomes a caller needs to branch on
// without string-matching a message, mirroring the few isinstance checks
// connection.py performs on the returned exception (OSError, SystemExit,
// KeyboardInterrupt, anything else).
type Kind int

const (
	KindError Kind = iota
	KindOSError
	KindQuit
	KindInterrupt
)

// Symbol is the portable name for an OS errno, the Go analogue of the
// source's errno.errorcode table lookup (errno.errorcode.get(errno,
// "EUNKWN")). It is resolved back to a platform errno with ToError.
type Symbol string

const unknownSymbol Symbol = "EUNKWN"

// symbolTable covers the errno values the backup tool's filesystem and
// process operations actually raise; it is not exhaustive by design,
// matching the source's own fallback to "EUNKWN" for anything else.
var symbolTable = map[unix.Errno]Symbol{
	unix.ENOENT:  "ENOENT",
	unix.EACCES:  "EACCES",
	unix.EPERM:   "EPERM",
	unix.EEXIST:  "EEXIST",
	unix.ENOTDIR: "ENOTDIR",
	unix.EISDIR:  "EISDIR",
	unix.ENOSPC:  "ENOSPC",
	unix.EROFS:   "EROFS",
	unix.EMFILE:  "EMFILE",
	unix.ENFILE:  "ENFILE",
	unix.EINVAL:  "EINVAL",
	unix.EBUSY:   "EBUSY",
	unix.EXDEV:   "EXDEV",
	unix.ENOTEMPTY: "ENOTEMPTY",
	unix.EIO:     "EIO",
	unix.EAGAIN:  "EAGAIN",
}

var symbolToErrno = func() map[Symbol]unix.Errno {
	m := make(map[Symbol]unix.Errno, len(symbolTable))
	for errno, sym := range symbolTable {
		m[sym] = errno
	}
	return m
}()

func symbolFor(errno unix.Errno) Symbol {
	if sym, ok := symbolTable[errno]; ok {
		return sym
	}
	return unknownSymbol
}

// Failure is the portable record of a failed call, what actually crosses
// the wire as the opaque payload of a response frame that represents an
// error rather than a value.
type Failure struct {
	Kind     Kind
	Message  string
	OSSymbol Symbol // set only when Kind == KindOSError
	Path     string // set when the OSError carried a *PathError
}

// Capture builds a Failure from a Go error produced while evaluating a
// request, classifying it the way connection.py's _extract_exception does.
func Capture(err error) Failure {
	switch {
	case err == nil:
		return Failure{Kind: KindError, Message: ""}
	case errors.Is(err, ErrQuit):
		return Failure{Kind: KindQuit, Message: err.Error()}
	case errors.Is(err, ErrInterrupt):
		return Failure{Kind: KindInterrupt, Message: err.Error()}
	}

	var pathErr *fs.PathError
	var errno unix.Errno
	if errors.As(err, &pathErr) {
		if e, ok := pathErr.Err.(unix.Errno); ok {
			errno = e
		}
	} else {
		errors.As(err, &errno)
	}
	if errno != 0 {
		path := ""
		if pathErr != nil {
			path = pathErr.Path
		}
		sym := symbolFor(errno)
		return Failure{
			Kind:     KindOSError,
			Message:  fmt.Sprintf("[original: Errno %d %s] %s", int(errno), sym, err.Error()),
			OSSymbol: sym,
			Path:     path,
		}
	}
	return Failure{Kind: KindError, Message: err.Error()}
}

// ErrQuit and ErrInterrupt are sentinel markers a request evaluator may
// wrap its returned error in (via fmt.Errorf("...: %w", rpcerr.ErrQuit))
// to signal the two non-Exception control-flow cases the source special-
// cases: SystemExit and KeyboardInterrupt.
var (
	ErrQuit      = errors.New("rpcerr: quit requested")
	ErrInterrupt = errors.New("rpcerr: interrupted")
)

// ToError reconstructs a local error from a Failure received from a peer,
// translating its portable OSSymbol back to this platform's errno — the
// Go analogue of "result.errno = getattr(errno, result.errno_str,
// result.errno)".
func (f Failure) ToError() error {
	switch f.Kind {
	case KindQuit:
		return fmt.Errorf("%w: %s", ErrQuit, f.Message)
	case KindInterrupt:
		return fmt.Errorf("%w: %s", ErrInterrupt, f.Message)
	case KindOSError:
		errno, ok := symbolToErrno[f.OSSymbol]
		if !ok {
			return errors.New(f.Message)
		}
		if f.Path != "" {
			return &fs.PathError{Op: "remote", Path: f.Path, Err: errno}
		}
		return errno
	default:
		if f.Message == "" {
			return nil
		}
		return errors.New(f.Message)
	}
}

// IsFatal reports whether err should bring the connection down without
// further logging, mirroring the source's robust.is_routine_fatal check
// (the original consults a curated list of "routine" fatal conditions;
// here the curated list is just the two process-lifecycle signals, since
// this transport doesn't reimplement rdiff-backup's broader fatal-error
// taxonomy).
func IsFatal(err error) bool {
	return errors.Is(err, ErrQuit) || errors.Is(err, os.ErrClosed)
}
