package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/flowbench/internal/engine"
	"github.com/kingrea/flowbench/internal/feature"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/processor"
	"github.com/kingrea/flowbench/internal/session"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	catalog := feature.NewCatalog()
	registry := processor.NewRegistry()
	if err := catalog.Register(feature.Descriptor{
		ID:     "greet",
		Inputs: []feature.Port{{Name: "name", Type: "string", Label: "Your name"}},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	registry.MustRegister("greet", processor.Static(processor.Simple(func(_ context.Context, in map[string]any) (any, error) {
		name, _ := in["name"].(string)
		if name == "boom" {
			return nil, errors.New("refused")
		}
		return "hello " + name, nil
	})))
	eng, err := engine.New(session.NewStore(), catalog, registry)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func greetGraph() graph.Graph {
	return graph.Graph{Nodes: []graph.Node{{ID: "G", Data: graph.NodeData{FeatureID: "greet"}}}}
}

// start runs the model's start command and feeds the result back.
func start(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(m.startCmd()())
	return next.(Model)
}

// findStep executes cmd and returns the engine result it produced, if any.
func findStep(cmd tea.Cmd) (stepFinishedMsg, bool) {
	if cmd == nil {
		return stepFinishedMsg{}, false
	}
	switch msg := cmd().(type) {
	case stepFinishedMsg:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if found, ok := findStep(c); ok {
				return found, true
			}
		}
	}
	return stepFinishedMsg{}, false
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func TestPauseThenResumeCompletes(t *testing.T) {
	eng := newEngine(t)
	m := start(t, New(eng, greetGraph()))
	if m.state != stateWaiting {
		t.Fatalf("expected waiting state, got %v (%v)", m.state, m.err)
	}
	if view := m.View(); !strings.Contains(view, "Your name") || !strings.Contains(view, "node G") {
		t.Fatalf("expected prompt for the required input, got:\n%s", view)
	}

	m = typeText(m, "ada")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.state != stateRunning {
		t.Fatalf("expected running after submit, got %v", m.state)
	}
	msg, ok := findStep(cmd)
	if !ok {
		t.Fatalf("expected submit to resume the session")
	}
	next, _ = m.Update(msg)
	m = next.(Model)
	if m.state != stateDone || m.Outcome().Results["G"] != "hello ada" {
		t.Fatalf("expected completion, got state %v outcome %+v", m.state, m.Outcome())
	}
	if !strings.Contains(m.View(), "hello ada") {
		t.Fatalf("expected results rendered, got:\n%s", m.View())
	}
}

func TestEmptyRequiredInputIsIgnored(t *testing.T) {
	m := start(t, New(newEngine(t), greetGraph()))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(Model).state != stateWaiting || cmd != nil {
		t.Fatalf("expected empty submit to keep waiting")
	}
}

func TestProcessorErrorRendersFailure(t *testing.T) {
	m := start(t, New(newEngine(t), greetGraph()))
	m = typeText(m, "boom")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, _ := findStep(cmd)
	next, _ = next.(Model).Update(msg)
	m = next.(Model)
	if m.state != stateFailed || !strings.Contains(m.View(), "Error in greet: refused") {
		t.Fatalf("expected failure view, got:\n%s", m.View())
	}
}

func TestEscCancelsSession(t *testing.T) {
	eng := newEngine(t)
	m := start(t, New(eng, greetGraph()))
	if eng.Store().Len() != 1 {
		t.Fatalf("expected live session")
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(Model).state != stateCancelled || cmd == nil {
		t.Fatalf("expected cancel and quit")
	}
	if eng.Store().Len() != 0 {
		t.Fatalf("expected session removed on cancel")
	}
}

func TestStartErrorFails(t *testing.T) {
	cyclic := graph.Graph{
		Nodes: []graph.Node{{ID: "a", Data: graph.NodeData{FeatureID: "greet"}}},
		Edges: []graph.Edge{{Source: "a", Target: "a"}},
	}
	m := start(t, New(newEngine(t), cyclic))
	if m.state != stateFailed || !errors.Is(m.Err(), graph.ErrCycle) {
		t.Fatalf("expected cycle failure, got %v", m.Err())
	}
}

func TestFormatValueTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	if got := []rune(formatValue(long, 0)); len(got) != 120 {
		t.Fatalf("expected truncation to 120 runes, got %d", len(got))
	}
	if got := formatValue(map[string]any{"a": 1}, 0); got != `{"a":1}` {
		t.Fatalf("unexpected json rendering %q", got)
	}
	if got := formatValue("a\nb", 0); got != "a ⏎ b" {
		t.Fatalf("unexpected newline rendering %q", got)
	}
}
