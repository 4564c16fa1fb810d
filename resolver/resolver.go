// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package resolver maps a dotted string such as "os.Chmod" or
// "VirtualFile.readfromid" to a callable, from a registry that is fixed at
// session construction — a curated table rather than a dynamic walk of the
// whole interpreter namespace, so the string-to-callable mapping stays
// auditable.
package resolver

import (
	"fmt"
	"strings"
)

// NameError reports that a dotted name could not be resolved, matching the
// exact message shape of the original source's NameError.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("name '%s' is not defined", e.Name)
}

// Attrs is implemented by a registered object that exposes named children
// for further dotted-segment traversal (the Go replacement for Python's
// getattr chain, since Go has no dynamic attribute lookup).
type Attrs interface {
	Attrs() map[string]any
}

// Registry is the curated, closed set of names reachable from a remote
// peer. It is built once per session and never mutated by inbound traffic.
type Registry struct {
	roots map[string]any
}

// NewRegistry returns a Registry seeded with roots — typically a mix of
// built-ins (len, pow) and curated module-like objects (vfile.Table, an
// os-wrapper, the RedirectedRun function, the logging endpoints).
func NewRegistry(roots map[string]any) *Registry {
	r := &Registry{roots: make(map[string]any, len(roots))}
	for k, v := range roots {
		r.roots[k] = v
	}
	return r
}

// Bind adds or replaces a single root-level name (used by a LocalPeer to
// inject references, mirroring LocalConnection.__setattr__).
func (r *Registry) Bind(name string, v any) { r.roots[name] = v }

// Unbind removes a root-level name (mirrors LocalConnection.__delattr__).
func (r *Registry) Unbind(name string) { delete(r.roots, name) }

// Resolve walks a dotted name through the registry and returns the leaf
// value (typically a func value, or, for pure container segments, another
// Attrs-implementing object — the caller is responsible for type-asserting
// the leaf into something callable).
func (r *Registry) Resolve(dotted string) (any, error) {
	segments := strings.Split(dotted, ".")
	head := segments[0]
	cur, ok := r.roots[head]
	if !ok {
		return nil, &NameError{Name: dotted}
	}
	for _, seg := range segments[1:] {
		attrs, ok := cur.(Attrs)
		if !ok {
			return nil, &NameError{Name: dotted}
		}
		next, ok := attrs.Attrs()[seg]
		if !ok {
			return nil, &NameError{Name: dotted}
		}
		cur = next
	}
	return cur, nil
}
