// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package vfile implements the virtual-file table: a per-session mapping
// from small integer ids to open streams, so one peer can read, write, and
// close a stream that physically lives on the other side of a pipe.
package vfile

import (
	"io"
	"sync"
)

// ID identifies one entry in a Table. The counter that allocates ids is
// strictly monotone and never reuses a value within a session, and the
// first id handed out is 0.
type ID int64

// Table is the process-wide (per session.Context, never a package-level
// global — see the session package) registry of open streams. The three
// methods below are the only operations the wire protocol ever performs on
// a remote stream, and they back the three VirtualFile.* registry
// endpoints a peer exposes to its counterpart.
type Table struct {
	mu      sync.Mutex
	next    ID
	entries map[ID]io.ReadWriteCloser
}

// NewTable returns an empty virtual-file table.
func NewTable() *Table {
	return &Table{entries: make(map[ID]io.ReadWriteCloser)}
}

// New registers stream under a fresh id and returns it.
func (t *Table) New(stream io.ReadWriteCloser) ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.entries[id] = stream
	return id
}

// ErrUnknownID reports an operation against an id that is not (or is no
// longer) registered.
type ErrUnknownID ID

func (e ErrUnknownID) Error() string {
	return "vfile: unknown virtual-file id"
}

func (t *Table) get(id ID) (io.ReadWriteCloser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.entries[id]
	if !ok {
		return nil, ErrUnknownID(id)
	}
	return s, nil
}

// Read reads from the stream registered under id. n < 0 means read to end
// (the Go analogue of the source's length=None).
func (t *Table) Read(id ID, n int) ([]byte, error) {
	s, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return io.ReadAll(s)
	}
	buf := make([]byte, n)
	r, err := io.ReadFull(s, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:r], nil
}

// Write writes buf to the stream registered under id.
func (t *Table) Write(id ID, buf []byte) (int, error) {
	s, err := t.get(id)
	if err != nil {
		return 0, err
	}
	return s.Write(buf)
}

// Close removes id from the table, then closes the underlying stream.
func (t *Table) Close(id ID) error {
	t.mu.Lock()
	s, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	if !ok {
		return ErrUnknownID(id)
	}
	return s.Close()
}

// Len reports the number of currently open entries (test/diagnostic use).
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
