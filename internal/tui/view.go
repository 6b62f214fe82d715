package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	nodeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Bold(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// View renders the current state.
func (m Model) View() string {
	header := titleStyle.Render(m.title)
	var body string
	switch m.state {
	case stateRunning:
		body = fmt.Sprintf("%s %s", m.spinner.View(), runningStyle.Render("running workflow…"))
	case stateWaiting:
		body = m.renderPrompt()
	case stateDone:
		body = lipgloss.JoinVertical(lipgloss.Left, doneStyle.Render("✓ completed"), m.renderResults())
	case stateFailed:
		body = errorStyle.Render("✗ " + m.failure())
	case stateCancelled:
		body = mutedStyle.Render("cancelled")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, boxStyle.Render(body), mutedStyle.Render(m.hint())) + "\n"
}

func (m Model) renderPrompt() string {
	out := m.outcome
	name, typ := "input", "any"
	if out.RequiredInput != nil {
		name = out.RequiredInput.Name
		if label := strings.TrimSpace(out.RequiredInput.Label); label != "" {
			name = label
		}
		typ = out.RequiredInput.TypeOrAny()
	}
	lines := []string{
		waitingStyle.Render(fmt.Sprintf("node %s needs %s (%s)", out.NodeID, name, typ)),
	}
	if out.SubSessionID != "" && out.SubSessionID != out.SessionID {
		lines = append(lines, mutedStyle.Render("inside nested workflow "+out.SubSessionID))
	}
	if desc := m.portDescription(); desc != "" {
		lines = append(lines, mutedStyle.Render(desc))
	}
	lines = append(lines, m.input.View())
	return strings.Join(lines, "\n")
}

func (m Model) portDescription() string {
	if m.outcome.RequiredInput == nil {
		return ""
	}
	return strings.TrimSpace(m.outcome.RequiredInput.Description)
}

func (m Model) renderResults() string {
	results := m.outcome.Results
	if len(results) == 0 {
		return mutedStyle.Render("no results")
	}
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, nodeStyle.Render(id)+" "+formatValue(results[id], m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) failure() string {
	if m.err != nil {
		return m.err.Error()
	}
	if m.outcome.Message != "" {
		return m.outcome.Message
	}
	return "workflow failed"
}

func (m Model) hint() string {
	switch m.state {
	case stateWaiting:
		return "enter: submit · esc: cancel"
	case stateRunning:
		return "esc: cancel"
	default:
		return "any key: quit"
	}
}

// formatValue renders a result on one line, trimmed to the terminal width.
func formatValue(v any, width int) string {
	var text string
	switch val := v.(type) {
	case nil:
		text = "∅"
	case string:
		text = val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			text = fmt.Sprint(val)
		} else {
			text = string(data)
		}
	}
	text = strings.ReplaceAll(text, "\n", " ⏎ ")
	limit := width - 12
	if limit < 40 {
		limit = 120
	}
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit-1]) + "…"
	}
	return text
}
