package status

import (
	"errors"
	"fmt"
	"io"

	"github.com/bnema/kbtrain/internal/application"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// agentMsg asks the model to draw the agent at index next.
type agentMsg struct {
	next int
}

// reportModel draws the header, one section per agent, then a tally footer,
// and quits once the footer is in place.
type reportModel struct {
	status   application.Status
	opts     RenderOptions
	styles   styles
	sections []string
	tally    tally
	done     bool
}

type tally struct {
	stale, fresh, failing, unconfigured int
}

func (t *tally) add(agent application.AgentStatus) {
	switch {
	case !agent.Staleness.Configured:
		t.unconfigured++
	case agent.CheckErr != nil:
		t.failing++
	case agent.Staleness.Stale:
		t.stale++
	default:
		t.fresh++
	}
}

func (m reportModel) Init() tea.Cmd {
	return nextAgent(0)
}

func (m reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	step, ok := msg.(agentMsg)
	if !ok {
		return m, nil
	}

	if step.next >= len(m.status.Agents) {
		m.done = true
		return m, tea.Quit
	}

	agent := m.status.Agents[step.next]
	m.tally.add(agent)
	m.sections = append(m.sections, m.styles.section.Render(renderAgent(agent, m.status.CheckedAt, m.opts, m.styles)))

	return m, nextAgent(step.next + 1)
}

func (m reportModel) View() string {
	if !m.done {
		return ""
	}

	lines := []string{renderHeader(m.status, m.styles)}
	if len(m.status.Agents) == 0 {
		lines = append(lines, m.styles.empty.Render("No agents configured. Add one with `kbt agent add`."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, m.sections...)
	lines = append(lines, m.styles.detail.Render(fmt.Sprintf("%d stale, %d fresh, %d failing, %d not configured",
		m.tally.stale, m.tally.fresh, m.tally.failing, m.tally.unconfigured)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func nextAgent(index int) tea.Cmd {
	return func() tea.Msg {
		return agentMsg{next: index}
	}
}

// Render draws the status report through a one-shot bubbletea program.
func Render(status application.Status, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		reportModel{status: status, opts: opts, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("render status: %w", err)
	}

	report, ok := final.(reportModel)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return report.View(), nil
}
