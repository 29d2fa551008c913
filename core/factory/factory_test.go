package factory

import (
	"strings"
	"testing"
)

type stubSink struct{ Bucket string }

type stubConf struct {
	Bucket string `json:"bucket"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*stubSink]()
	if err := reg.Register("influx", func(conf map[string]any) (*stubSink, error) {
		var c stubConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &stubSink{Bucket: c.Bucket}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "influx", Conf: map[string]any{"bucket": "fleet"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Bucket != "fleet" {
		t.Fatalf("expected fleet got %s", inst.Bucket)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	_, err := reg.Create(ModuleConfig{Type: "missing"})
	if err == nil || !strings.Contains(err.Error(), "unknown module type") {
		t.Fatalf("expected unknown type error, got %v", err)
	}
	if !strings.Contains(err.Error(), "x") {
		t.Fatalf("error should list registered types, got %v", err)
	}
}

func TestRegistry_Types(t *testing.T) {
	reg := NewRegistry[int]()
	for _, name := range []string{"b", "a"} {
		if err := reg.Register(name, func(map[string]any) (int, error) { return 0, nil }); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	got := reg.Types()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", got)
	}
}
