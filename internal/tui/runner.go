// Package tui runs a single workflow in the terminal. It follows The Elm
// Architecture used by bubbletea: engine calls run as commands, their
// outcomes come back as messages, and View renders the current state.
package tui

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/flowbench/internal/engine"
	"github.com/kingrea/flowbench/internal/graph"
	"github.com/kingrea/flowbench/internal/processors"
)

// Runner is the slice of the engine the terminal runner drives.
type Runner interface {
	Start(ctx context.Context, g graph.Graph) (engine.Outcome, error)
	Resume(ctx context.Context, sessionID, nodeID string, data any) (engine.Outcome, error)
	Cancel(sessionID string) bool
}

type runState int

const (
	stateRunning runState = iota
	stateWaiting
	stateDone
	stateFailed
	stateCancelled
)

// stepFinishedMsg carries the result of Start or Resume back into Update.
type stepFinishedMsg struct {
	outcome engine.Outcome
	err     error
}

// Model is the bubbletea model for one workflow run.
type Model struct {
	ctx    context.Context
	runner Runner
	graph  graph.Graph
	title  string

	state   runState
	outcome engine.Outcome
	err     error
	steps   int

	spinner spinner.Model
	input   textinput.Model
	width   int
}

// Option customizes the model.
type Option func(*Model)

// WithContext sets the context passed to engine calls.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithTitle overrides the header text.
func WithTitle(title string) Option {
	return func(m *Model) {
		if strings.TrimSpace(title) != "" {
			m.title = title
		}
	}
}

// New prepares a model that starts g when the program starts.
func New(runner Runner, g graph.Graph, opts ...Option) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.Width = 60
	m := Model{
		ctx:     context.Background(),
		runner:  runner,
		graph:   g,
		title:   "flowbench",
		state:   stateRunning,
		spinner: sp,
		input:   ti,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Outcome returns the last outcome reported by the engine.
func (m Model) Outcome() engine.Outcome { return m.outcome }

// Err returns the error that stopped the run, if any.
func (m Model) Err() error { return m.err }

// Init starts the spinner and the workflow.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCmd())
}

func (m Model) startCmd() tea.Cmd {
	ctx, runner, g := m.ctx, m.runner, m.graph
	return func() tea.Msg {
		out, err := runner.Start(ctx, g)
		return stepFinishedMsg{outcome: out, err: err}
	}
}

func (m Model) resumeCmd(sessionID, nodeID string, data any) tea.Cmd {
	ctx, runner := m.ctx, m.runner
	return func() tea.Msg {
		out, err := runner.Resume(ctx, sessionID, nodeID, data)
		return stepFinishedMsg{outcome: out, err: err}
	}
}

// Update handles key presses, spinner ticks, and engine results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepFinishedMsg:
		return m.handleStep(msg)
	}
	if m.state == stateWaiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		if m.state == stateWaiting || m.state == stateRunning {
			if id := m.outcome.SessionID; id != "" {
				m.runner.Cancel(id)
			}
			m.state = stateCancelled
		}
		return m, tea.Quit
	}
	switch m.state {
	case stateWaiting:
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case stateDone, stateFailed, stateCancelled:
		return m, tea.Quit
	}
	return m, nil
}

// submit resumes the paused session with the typed value.
func (m Model) submit() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" && !m.inputOptional() {
		return m, nil
	}
	var data any
	switch {
	case m.fileInput():
		path := raw
		if abs, err := filepath.Abs(raw); err == nil {
			path = abs
		}
		data = path
	case raw != "":
		data = decodeValue(raw)
	}
	m.input.Reset()
	m.input.Blur()
	m.state = stateRunning
	m.steps++
	return m, tea.Batch(m.spinner.Tick, m.resumeCmd(m.outcome.SessionID, m.outcome.NodeID, data))
}

func (m Model) handleStep(msg stepFinishedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		m.state = stateFailed
		return m, nil
	}
	m.outcome = msg.outcome
	switch {
	case msg.outcome.Paused():
		m.state = stateWaiting
		m.input.Placeholder = m.placeholder()
		return m, m.input.Focus()
	case msg.outcome.Completed():
		m.state = stateDone
	default:
		m.state = stateFailed
	}
	return m, nil
}

func (m Model) fileInput() bool {
	port := m.outcome.RequiredInput
	return port != nil && strings.EqualFold(port.Type, "file")
}

func (m Model) inputOptional() bool {
	port := m.outcome.RequiredInput
	return port != nil && port.Optional
}

func (m Model) placeholder() string {
	if m.fileInput() {
		return "path to file"
	}
	return "text or JSON"
}

func decodeValue(text string) any {
	value, err := processors.DecodeValue(text)
	if err != nil {
		return text
	}
	return value
}
