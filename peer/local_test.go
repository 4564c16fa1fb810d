package peer_test

import (
	"context"
	"testing"

	"github.com/rdiffbackup-go/transport/peer"
	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/session"
)

func TestLocalPeer_RevalBuiltin(t *testing.T) {
	names := resolver.NewRegistry(resolver.Builtins())
	lp := peer.NewLocalPeer(names)
	if lp.ConnNumber() != session.LocalConnNumber {
		t.Fatalf("want LocalConnNumber, got %v", lp.ConnNumber())
	}
	got, err := lp.Reval(context.Background(), "pow", 2, 10)
	if err != nil {
		t.Fatalf("reval: %v", err)
	}
	if got != int64(1024) {
		t.Fatalf("pow(2,10) = %v, want 1024", got)
	}
}

func TestLocalPeer_UnresolvedNameError(t *testing.T) {
	names := resolver.NewRegistry(nil)
	lp := peer.NewLocalPeer(names)
	if _, err := lp.Reval(context.Background(), "nope", 1); err == nil {
		t.Fatalf("expected error for unresolved name")
	}
}
