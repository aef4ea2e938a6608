// Package dashboard renders a live terminal view of a console run.
// It consumes the console runner's event stream and shows the test in
// flight, rolling counts, and the most recent results.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deckhand-dev/deckhand/console"
	"github.com/deckhand-dev/deckhand/internal/version"
	"github.com/deckhand-dev/deckhand/pkg/render"
)

// recentLimit bounds the scrollback of finished tests kept on screen.
const recentLimit = 12

// Run executes the runner under a live view and returns its summary.
// The runner should be created with console.WithEvents(events) and a
// writer that does not fight the TUI for the terminal, typically
// io.Discard:
//
//	events := make(chan console.Event, 64)
//	r := console.New(console.WithWriter(io.Discard), console.WithEvents(events))
//	// register suites...
//	sum, err := dashboard.Run(r, events)
func Run(r *console.Runner, events <-chan console.Event) (console.Summary, error) {
	resCh := make(chan runOutcome, 1)
	go func() {
		sum, err := r.Run()
		resCh <- runOutcome{sum: sum, err: err}
	}()

	if _, err := tea.NewProgram(newModel(events)).Run(); err != nil {
		go drain(events)
		return console.Summary{}, err
	}
	return awaitRun(resCh, events)
}

type runOutcome struct {
	sum console.Summary
	err error
}

// awaitRun waits for the runner to finish. The view may have quit
// before the run did (q, ctrl+c), leaving nobody on the channel; keep
// draining so emit never blocks on a full buffer.
func awaitRun(resCh <-chan runOutcome, events <-chan console.Event) (console.Summary, error) {
	go drain(events)
	out := <-resCh
	return out.sum, out.err
}

func drain(events <-chan console.Event) {
	for range events {
	}
}

type model struct {
	spin   spinner.Model
	theme  render.Theme
	events <-chan console.Event

	current string
	recent  []console.Result
	passed  int
	failed  int
	skipped int
	pending int
	done    bool
}

type eventMsg console.Event
type drainedMsg struct{}

func newModel(events <-chan console.Event) model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	return model{spin: sp, theme: render.DefaultTheme(), events: events}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.listen())
}

func (m model) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return drainedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case eventMsg:
		m.apply(console.Event(msg))
		return m, m.listen()
	case drainedMsg:
		m.done = true
		m.current = ""
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) apply(ev console.Event) {
	switch ev.Kind {
	case console.EventTestStarted:
		m.current = joinPath(ev.Path, ev.Name)
	case console.EventTestFinished:
		if ev.Result == nil {
			return
		}
		switch ev.Result.Outcome {
		case console.OutcomePassed:
			m.passed++
		case console.OutcomeFailed:
			m.failed++
		case console.OutcomeSkipped:
			m.skipped++
		case console.OutcomePending:
			m.pending++
		}
		m.recent = append(m.recent, *ev.Result)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
	}
}

func (m model) View() string {
	var sb strings.Builder

	sb.WriteString(m.theme.Bold.Render("deckhand " + version.Version))
	sb.WriteString("  ")
	sb.WriteString(m.countsLine())
	sb.WriteString("\n\n")

	for _, res := range m.recent {
		icon, style := m.theme.Icons.Pass, m.theme.Success
		switch res.Outcome {
		case console.OutcomeFailed:
			icon, style = m.theme.Icons.Fail, m.theme.Error
		case console.OutcomeSkipped:
			icon, style = m.theme.Icons.Skip, m.theme.Muted
		case console.OutcomePending:
			icon, style = m.theme.Icons.Pending, m.theme.Muted
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", style.Render(icon), joinPath(res.Path, res.Name)))
	}

	if m.current != "" {
		sb.WriteString(fmt.Sprintf("\n  %s %s\n", m.spin.View(), m.theme.Primary.Render(m.current)))
	}
	if m.done {
		sb.WriteString("\n" + m.theme.Muted.Render("run finished - press q to close") + "\n")
	}
	return sb.String()
}

func (m model) countsLine() string {
	parts := []string{m.theme.Success.Render(fmt.Sprintf("%d passed", m.passed))}
	if m.failed > 0 {
		parts = append(parts, m.theme.Error.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	if m.skipped > 0 {
		parts = append(parts, m.theme.Muted.Render(fmt.Sprintf("%d skipped", m.skipped)))
	}
	if m.pending > 0 {
		parts = append(parts, m.theme.Muted.Render(fmt.Sprintf("%d pending", m.pending)))
	}
	return strings.Join(parts, ", ")
}

func joinPath(path []string, name string) string {
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, " › ") + " › " + name
}
