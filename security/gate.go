// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package security implements the per-session inbound request gate. The
// actual location-based ACL logic that decides whether, say, a backup
// session may touch a given path is application policy, not transport
// machinery; this package defines the contract every inbound request is
// vetted against, plus a couple of reference policies.
package security

import "fmt"

// Class is the security posture a session was opened under.
type Class int

const (
	ClassBackup Class = iota
	ClassRestore
	ClassValidate
	ClassServer
)

func (c Class) String() string {
	switch c {
	case ClassBackup:
		return "backup"
	case ClassRestore:
		return "restore"
	case ClassValidate:
		return "validate"
	case ClassServer:
		return "server"
	default:
		return "unknown"
	}
}

// Request is the minimal shape of an inbound call the gate inspects — the
// decoded function name and its arguments, before resolution or evaluation.
type Request struct {
	FuncName string
	Args     []any
}

// Error reports that a request was rejected by the gate. It is marshaled
// back to the caller exactly like any other failure.
type Error struct {
	FuncName string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("security: request %q rejected: %s", e.FuncName, e.Reason)
}

// Policy vets one inbound request. A nil error means the request may
// proceed to name resolution and evaluation.
type Policy interface {
	Vet(class Class, req Request) error
}

// AllowAll never rejects a request. Suitable for the local peer and for
// tests; never for a pipe peer handling untrusted input.
type AllowAll struct{}

func (AllowAll) Vet(Class, Request) error { return nil }

// DenyAll rejects every request, useful for negative tests and for a
// session class that should never receive inbound calls.
type DenyAll struct{}

func (DenyAll) Vet(_ Class, req Request) error {
	return &Error{FuncName: req.FuncName, Reason: "session does not accept inbound requests"}
}

// PathPrefixPolicy restricts any request whose first string argument looks
// like a filesystem path to one of a set of allowed prefixes — a minimal
// reconstruction of the original Security.vet_request's real job (the
// source file implementing it was not part of the retained original_source
// set, only connection.py was; see DESIGN.md).
type PathPrefixPolicy struct {
	Class    Class
	Allowed  []string
	PathFns  map[string]bool // function names whose first arg is vetted as a path
}

func (p PathPrefixPolicy) Vet(class Class, req Request) error {
	if class != p.Class {
		return nil
	}
	if !p.PathFns[req.FuncName] {
		return nil
	}
	if len(req.Args) == 0 {
		return nil
	}
	path, ok := req.Args[0].(string)
	if !ok {
		return nil
	}
	for _, prefix := range p.Allowed {
		if hasPrefix(path, prefix) {
			return nil
		}
	}
	return &Error{FuncName: req.FuncName, Reason: fmt.Sprintf("path %q outside permitted locations", path)}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
