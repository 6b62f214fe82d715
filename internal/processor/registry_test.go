package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/kingrea/flowbench/internal/feature"
)

func echo() Processor {
	return Simple(func(_ context.Context, inputs map[string]any) (any, error) {
		return inputs["text"], nil
	})
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("echo", Static(echo()))
	if err := reg.Register("echo", Static(echo())); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	p, err := reg.Resolve(feature.Descriptor{ID: "echo"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	res, err := p.Run(context.Background(), map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.IsPaused() || res.Value() != "hi" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := reg.Resolve(feature.Descriptor{ID: "missing"}); err == nil {
		t.Fatalf("expected unknown id to fail")
	}
}

func TestRegistryReplaceAndIDs(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("b", Static(echo()))
	boom := errors.New("boom")
	if err := reg.Replace("b", func(feature.Descriptor) (Processor, error) { return nil, boom }); err != nil {
		t.Fatalf("replace: %v", err)
	}
	reg.MustRegister("a", Static(echo()))
	if _, err := reg.Resolve(feature.Descriptor{ID: "b"}); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
	ids := reg.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if err := reg.Register("", Static(echo())); err == nil {
		t.Fatalf("expected empty id to fail")
	}
}

func TestPausedResult(t *testing.T) {
	res := Paused(Pause{SessionID: "child", NodeID: "n", RequiredInput: feature.Port{Name: "file"}})
	p, ok := res.Pause()
	if !ok || !res.IsPaused() {
		t.Fatalf("expected paused result")
	}
	if p.Waiting() != "child" {
		t.Fatalf("expected waiting session to default to child, got %s", p.Waiting())
	}
	if res.Value() != nil {
		t.Fatalf("paused result should carry no value")
	}
}
