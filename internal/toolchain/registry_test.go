package toolchain

import (
	"context"
	"testing"
)

type stubToolchain struct{ name string }

func (s stubToolchain) Name() string                                { return s.name }
func (s stubToolchain) ListDevices(ctx context.Context) error       { return nil }
func (s stubToolchain) Run(ctx context.Context, _ RunRequest) error { return nil }

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubToolchain{name: "flutter"})
	reg.Register(stubToolchain{name: "expo"})

	tc, err := reg.Get("flutter")
	if err != nil {
		t.Fatalf("get flutter: %v", err)
	}
	if tc.Name() != "flutter" {
		t.Fatalf("expected flutter, got %s", tc.Name())
	}
	if _, err := reg.Get("gradle"); err == nil {
		t.Fatalf("expected error for unregistered toolchain")
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "expo" || names[1] != "flutter" {
		t.Fatalf("unexpected names: %v", names)
	}
}
