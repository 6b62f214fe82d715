package session

import (
	"sync"
	"testing"
	"time"

	"github.com/kingrea/flowbench/internal/graph"
)

func sampleGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "A", Data: graph.NodeData{FeatureID: "reader", Inputs: map[string]any{"path": "x"}}},
			{ID: "B", Data: graph.NodeData{FeatureID: "writer"}},
		},
		Edges: []graph.Edge{{Source: "A", Target: "B", TargetHandle: graph.Handle("text")}},
	}
}

func TestCreateInstallsPendingSession(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time { return fixed }))
	g := sampleGraph()
	sess := store.Create("s1", g, []string{"A", "B"})

	if sess.Status != StatusPending || len(sess.Context) != 0 || len(sess.ManualInputs) != 0 {
		t.Fatalf("unexpected initial state: %+v", sess)
	}
	if !sess.CreatedAt.Equal(fixed) {
		t.Fatalf("expected clock to be used, got %v", sess.CreatedAt)
	}
	g.Nodes[0].Data.Inputs["path"] = "changed"
	if v, _ := sess.Nodes["A"].StaticInput("path"); v != "x" {
		t.Fatalf("session shares node inputs with caller graph")
	}
	got, ok := store.Get("s1")
	if !ok || got != sess {
		t.Fatalf("expected to find created session")
	}
	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session to be deleted")
	}
	store.Delete("s1")
}

func TestSessionMarkers(t *testing.T) {
	store := NewStore()
	sess := store.Create("s", sampleGraph(), []string{"A", "B"})
	sess.WaitForInput("B", "text")
	if sess.Status != StatusPaused || sess.PendingSubSessionID != "" {
		t.Fatalf("unexpected markers %+v", sess)
	}
	sess.WaitForSession("B", "child")
	if sess.PendingInputName != "" || sess.PendingSubSessionID != "child" || sess.PendingNodeID != "B" {
		t.Fatalf("expected only the sub-session marker, got %+v", sess)
	}
	sess.ClearPending()
	if sess.PendingNodeID != "" || sess.PendingSubSessionID != "" {
		t.Fatalf("expected markers cleared")
	}
	sess.SetManualInput("B", "text", "hi")
	if v, ok := sess.ManualInput("B", "text"); !ok || v != "hi" {
		t.Fatalf("expected manual input, got %v", v)
	}
	sess.Context["A"] = nil
	if !sess.HasRun("A") || sess.Finished() {
		t.Fatalf("nil result should count as run, B should not")
	}
}

func TestHandoffIsOneShot(t *testing.T) {
	store := NewStore()
	store.PutResult("child", map[string]any{"out": 1})
	got, ok := store.TakeResult("child")
	if !ok || got.Failed || got.Results["out"] != 1 {
		t.Fatalf("expected stored result, got %+v", got)
	}
	if _, ok := store.TakeResult("child"); ok {
		t.Fatalf("expected result to be consumed")
	}
}

func TestFailureHandoff(t *testing.T) {
	store := NewStore()
	store.PutFailure("child", "Error in ask: rejected")
	got, ok := store.TakeResult("child")
	if !ok || !got.Failed || got.Message != "Error in ask: rejected" || got.Results != nil {
		t.Fatalf("expected failure handoff, got %+v", got)
	}
	store.PutFailure("other", "boom")
	store.Create("other", sampleGraph(), []string{"A", "B"})
	if _, ok := store.TakeResult("other"); ok {
		t.Fatalf("recreating a session should discard its stale handoff")
	}
}

func TestConcurrentSessionsDoNotBlock(t *testing.T) {
	store := NewStore()
	held := store.Create("held", sampleGraph(), []string{"A", "B"})
	held.Lock()
	defer held.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			sess := store.Create(id, sampleGraph(), []string{"A", "B"})
			sess.Lock()
			sess.Context["A"] = i
			sess.Unlock()
		}(i)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("sessions blocked on an unrelated session lock")
	}
	if ids := store.IDs(); len(ids) != 9 {
		t.Fatalf("expected 9 sessions, got %v", ids)
	}
}
