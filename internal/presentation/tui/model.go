package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/program"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TickInterval is how far the virtual clock moves per animation frame.
const TickInterval = 50 * time.Millisecond

type tickMsg time.Time

// KeyMap lists the bindings of the play screen.
type KeyMap struct {
	Forward key.Binding
	Back    key.Binding
	Left    key.Binding
	Right   key.Binding
	Call1   key.Binding
	Call2   key.Binding
	Undo    key.Binding
	Program key.Binding
	Run     key.Binding
	Stop    key.Binding
	Reset   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Forward: key.NewBinding(key.WithKeys("f", "up"), key.WithHelp("f/↑", "forward")),
		Back:    key.NewBinding(key.WithKeys("b", "down"), key.WithHelp("b/↓", "back")),
		Left:    key.NewBinding(key.WithKeys("l", "left"), key.WithHelp("l/←", "turn left")),
		Right:   key.NewBinding(key.WithKeys("r", "right"), key.WithHelp("r/→", "turn right")),
		Call1:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "call sub 1")),
		Call2:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "call sub 2")),
		Undo:    key.NewBinding(key.WithKeys("backspace", "x"), key.WithHelp("x", "remove last")),
		Program: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next program")),
		Run:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "run")),
		Stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Reset:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "reset")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Program, k.Run, k.Stop, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Forward, k.Back, k.Left, k.Right},
		{k.Call1, k.Call2, k.Undo, k.Program},
		{k.Run, k.Stop, k.Reset, k.Quit},
	}
}

// Model is the interactive play screen: programs are edited from the keyboard
// and runs are animated by advancing the session clock one frame at a time.
type Model struct {
	session *mazecode.Session
	ctx     context.Context
	keys    KeyMap
	help    help.Model
	theme   theme

	title    string
	briefing string
	selected int
	status   string
	err      error
	width    int
}

// NewModel creates the play screen over a session.
func NewModel(ctx context.Context, session *mazecode.Session, title, briefing string) Model {
	return Model{
		session:  session,
		ctx:      ctx,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		theme:    defaultTheme(),
		title:    title,
		briefing: briefing,
		status:   "ready",
	}
}

// Selected returns the program receiving new instructions.
func (m Model) Selected() domain.ProgramName {
	return domain.ProgramNames[m.selected]
}

// Status returns the status line.
func (m Model) Status() string { return m.status }

// Err returns the last edit or run error.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if !m.session.Running() {
			return m, nil
		}
		m.session.AdvanceBy(TickInterval)
		if m.session.Running() {
			return m, tickCmd()
		}
		m = m.settle()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Quit):
		m.session.Close()
		return m, tea.Quit
	case key.Matches(k, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(k, m.keys.Stop):
		if m.session.Stop() {
			m = m.settle()
		}
		return m, nil
	case key.Matches(k, m.keys.Reset):
		m.session.Reset()
		m.status = "reset"
		m.err = nil
		return m, nil
	}

	if m.session.Running() {
		m.status = "running: edits are locked"
		return m, nil
	}

	switch {
	case key.Matches(k, m.keys.Program):
		m.selected = (m.selected + 1) % len(domain.ProgramNames)
		m.status = fmt.Sprintf("editing %s", m.Selected())
	case key.Matches(k, m.keys.Run):
		m.err = nil
		if err := m.session.Run(m.ctx); err != nil {
			m.err = err
			m.status = "run refused"
			return m, nil
		}
		m.status = "running"
		return m, tickCmd()
	case key.Matches(k, m.keys.Undo):
		m.removeLast()
	case key.Matches(k, m.keys.Forward):
		m.add(domain.KindMoveForward)
	case key.Matches(k, m.keys.Back):
		m.add(domain.KindMoveBack)
	case key.Matches(k, m.keys.Left):
		m.add(domain.KindTurnLeft)
	case key.Matches(k, m.keys.Right):
		m.add(domain.KindTurnRight)
	case key.Matches(k, m.keys.Call1):
		m.add(domain.KindCallSubprogram1)
	case key.Matches(k, m.keys.Call2):
		m.add(domain.KindCallSubprogram2)
	}
	return m, nil
}

func (m *Model) add(kind domain.Kind) {
	if _, err := m.session.AddInstruction(m.Selected(), kind, -1); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("added %s to %s", kind, m.Selected())
}

func (m *Model) removeLast() {
	p := m.session.Workspace().Program(m.Selected())
	if p.Len() == 0 {
		return
	}
	last := p.At(p.Len() - 1)
	if err := m.session.RemoveInstruction(last.ID); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("removed %s from %s", last.Kind, m.Selected())
}

func (m Model) settle() Model {
	res, ok := m.session.Last()
	if !ok {
		return m
	}
	switch res.Status {
	case domain.RunFailed:
		m.err = res.Err
		m.status = "run failed"
	default:
		m.status = fmt.Sprintf("run %s after %d steps (%d blocked)", res.Status, len(res.Steps), res.Blocked())
	}
	return m
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Header.Render(m.title))
	sb.WriteString("\n")
	if m.briefing != "" {
		sb.WriteString(m.briefing)
		sb.WriteString("\n")
	}

	board := m.theme.Board.Render(renderBoard(m.session.Grid(), m.session.Agent(), &m.theme))
	var panels []string
	for i, name := range domain.ProgramNames {
		style := m.theme.Panel
		if i == m.selected {
			style = m.theme.Active
		}
		body := renderProgram(m.session.Workspace().Program(name))
		panels = append(panels, style.Render(string(name)+"\n"+body))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, board, lipgloss.JoinVertical(lipgloss.Left, panels...)))
	sb.WriteString("\n")

	switch {
	case m.err != nil:
		sb.WriteString(m.theme.Danger.Render(describe(m.err)))
	case m.session.Running():
		sb.WriteString(m.theme.Mark.Render(m.status))
	default:
		sb.WriteString(m.theme.Success.Render(m.status))
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func renderProgram(p *program.Program) string {
	if p.Len() == 0 {
		return "(empty)"
	}
	return strings.TrimPrefix(program.Stringify(p), string(p.Name)+":")
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrCallDepthExceeded):
		return "too many nested calls: " + err.Error()
	default:
		return err.Error()
	}
}
