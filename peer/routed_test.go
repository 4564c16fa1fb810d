package peer_test

import (
	"context"
	"testing"

	"github.com/rdiffbackup-go/transport/peer"
	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/session"
)

type recordingPeer struct {
	n        session.ConnNumber
	lastName string
	lastArgs []any
}

func (r *recordingPeer) ConnNumber() session.ConnNumber { return r.n }
func (r *recordingPeer) Reval(_ context.Context, name string, args ...any) (any, error) {
	r.lastName = name
	r.lastArgs = args
	return "handled:" + name, nil
}

func TestRoutedPeer_RewritesCallThroughRedirectedRun(t *testing.T) {
	sess := session.New(resolver.Builtins())
	peer.RegisterEndpoints(sess, nil)

	target := &recordingPeer{n: 5}
	sess.Registry.InsertAt(5, target)

	routing := peer.NewLocalPeer(sess.Names)
	routed := peer.NewRoutedPeer(5, routing)

	if routed.ConnNumber() != 5 {
		t.Fatalf("want ConnNumber 5, got %v", routed.ConnNumber())
	}

	got, err := routed.Reval(context.Background(), "os.chmod", "/tmp/x", 0o644)
	if err != nil {
		t.Fatalf("reval: %v", err)
	}
	if got != "handled:os.chmod" {
		t.Fatalf("unexpected result: %v", got)
	}
	if target.lastName != "os.chmod" {
		t.Fatalf("target did not receive rewritten call: %+v", target)
	}
	if len(target.lastArgs) != 2 || target.lastArgs[0] != "/tmp/x" {
		t.Fatalf("unexpected forwarded args: %+v", target.lastArgs)
	}
}

func TestRoutedPeer_RejectsLocalTarget(t *testing.T) {
	sess := session.New(resolver.Builtins())
	peer.RegisterEndpoints(sess, nil)
	sess.Registry.InsertAt(session.LocalConnNumber, peer.NewLocalPeer(sess.Names))

	routing := peer.NewLocalPeer(sess.Names)
	routed := peer.NewRoutedPeer(session.LocalConnNumber, routing)

	if _, err := routed.Reval(context.Background(), "os.chmod", "/tmp/x"); err == nil {
		t.Fatalf("expected rejection when routing to the local connection")
	}
}
