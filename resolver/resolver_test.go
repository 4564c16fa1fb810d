package resolver_test

import (
	"os"
	"testing"

	"github.com/rdiffbackup-go/transport/resolver"
)

type osShim struct{}

func (osShim) Attrs() map[string]any {
	return map[string]any{
		"Chmod": os.Chmod,
	}
}

func TestResolve_BuiltinPow(t *testing.T) {
	reg := resolver.NewRegistry(resolver.Builtins())
	fn, err := reg.Resolve("pow")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := resolver.Invoke(fn, []any{2, 8})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != int64(256) {
		t.Fatalf("pow(2,8) = %v (%T), want 256", got, got)
	}
}

func TestResolve_BuiltinLen(t *testing.T) {
	reg := resolver.NewRegistry(resolver.Builtins())
	fn, err := reg.Resolve("len")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := resolver.Invoke(fn, []any{[]any{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != 3 {
		t.Fatalf("len = %v, want 3", got)
	}
}

func TestResolve_NestedModule(t *testing.T) {
	reg := resolver.NewRegistry(map[string]any{"os": osShim{}})
	fn, err := reg.Resolve("os.Chmod")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if fn == nil {
		t.Fatalf("resolved nil")
	}
}

func TestResolve_UnknownNameError(t *testing.T) {
	reg := resolver.NewRegistry(nil)
	_, err := reg.Resolve("nonexistent.thing")
	if err == nil {
		t.Fatalf("expected NameError")
	}
	ne, ok := err.(*resolver.NameError)
	if !ok {
		t.Fatalf("want *NameError, got %T", err)
	}
	want := "name 'nonexistent.thing' is not defined"
	if ne.Error() != want {
		t.Fatalf("message = %q, want %q", ne.Error(), want)
	}
}

func TestRegistry_BindUnbind(t *testing.T) {
	reg := resolver.NewRegistry(nil)
	reg.Bind("greeting", "hello")
	v, err := reg.Resolve("greeting")
	if err != nil || v != "hello" {
		t.Fatalf("resolve after bind: %v, %v", v, err)
	}
	reg.Unbind("greeting")
	if _, err := reg.Resolve("greeting"); err == nil {
		t.Fatalf("expected NameError after unbind")
	}
}
