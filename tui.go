package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	previewCols = 32
	previewRows = previewCols / 2
)

type state int

const (
	stateWaiting state = iota
	stateMetering
)

type tickMsg time.Time

type pointerMsg struct{}

type requestMsg struct{}

type sampledMsg struct{}

type snapshotMsg ApertureSnapshot

type keyMap struct {
	Sample     key.Binding
	Continuous key.Binding
	ZoomIn     key.Binding
	ZoomOut    key.Binding
	Grow       key.Binding
	Shrink     key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Sample, k.Continuous, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Sample, k.Continuous},
		{k.ZoomIn, k.ZoomOut, k.Grow, k.Shrink},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Sample:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "sample")),
	Continuous: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continuous")),
	ZoomIn:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
	Grow:       key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "larger aperture")),
	Shrink:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "smaller aperture")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "nudge up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "nudge down")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "nudge left")),
	Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "nudge right")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type model struct {
	state    state
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	ctx      context.Context
	tracker  *CursorTracker
	aperture *Aperture
	interval time.Duration
	pointer  <-chan struct{}
	method   string

	snap ApertureSnapshot
	prev LabColor
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(4)
	valueStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle = lipgloss.NewStyle().PaddingLeft(2)
)

func newModel(ctx context.Context, tracker *CursorTracker, aperture *Aperture, interval time.Duration, pointer <-chan struct{}, method string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	return model{
		state:    stateWaiting,
		spinner:  s,
		help:     help.New(),
		keys:     keys,
		ctx:      ctx,
		tracker:  tracker,
		aperture: aperture,
		interval: interval,
		pointer:  pointer,
		method:   method,
	}
}

func (m model) Init() tea.Cmd {
	m.aperture.Request()
	cmds := []tea.Cmd{m.spinner.Tick, tickCmd(m.interval), waitForRequest(m.ctx, m.aperture)}
	if m.pointer != nil {
		cmds = append(cmds, waitForPointer(m.pointer))
	}
	return tea.Batch(cmds...)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForRequest(ctx context.Context, a *Aperture) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.Pending():
			return requestMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func waitForPointer(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return pointerMsg{}
	}
}

// sampleCmd runs one aperture update off the UI loop. The new state arrives
// through the aperture's delegate as a snapshotMsg.
func sampleCmd(ctx context.Context, a *Aperture) tea.Cmd {
	return func() tea.Msg {
		a.Update(ctx)
		return sampledMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.state != stateWaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.tracker.Update()
		if m.aperture.UpdatesContinuously() {
			m.aperture.Request()
		}
		return m, tickCmd(m.interval)

	case pointerMsg:
		m.tracker.Update()
		return m, waitForPointer(m.pointer)

	case requestMsg:
		return m, sampleCmd(m.ctx, m.aperture)

	case sampledMsg:
		return m, waitForRequest(m.ctx, m.aperture)

	case snapshotMsg:
		if m.snap.Status != StatusIdle {
			m.prev = m.snap.Color
		}
		m.snap = ApertureSnapshot(msg)
		m.state = stateMetering
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.aperture
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Sample):
	case key.Matches(msg, m.keys.Continuous):
		a.SetUpdatesContinuously(!a.UpdatesContinuously())
	case key.Matches(msg, m.keys.ZoomIn):
		a.SetZoomLevel(a.ZoomLevel() + 1)
	case key.Matches(msg, m.keys.ZoomOut):
		a.SetZoomLevel(a.ZoomLevel() - 1)
	case key.Matches(msg, m.keys.Grow):
		a.SetApertureSize(a.ApertureSize() + 1)
	case key.Matches(msg, m.keys.Shrink):
		a.SetApertureSize(a.ApertureSize() - 1)
	case key.Matches(msg, m.keys.Up):
		m.tracker.MovePositionBy(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.tracker.MovePositionBy(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.tracker.MovePositionBy(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.tracker.MovePositionBy(1, 0)
	default:
		return m, nil
	}
	// Setters never sample on their own.
	a.Request()
	return m, nil
}

func (m model) View() string {
	mode := "on demand"
	if m.aperture.UpdatesContinuously() {
		mode = "continuous"
	}
	header := titleStyle.Render("Lab Color Meter") +
		helpStyle.Render(fmt.Sprintf("  %s · %s · zoom %dx · aperture %d",
			m.method, mode, m.aperture.ZoomLevel(), m.aperture.ApertureSize()))

	if m.state == stateWaiting {
		return fmt.Sprintf("\n %s\n\n %s %s\n\n", header, m.spinner.View(), "Waiting for first capture...")
	}

	preview := renderPreview(m.snap.Image, m.snap.ApertureRect, previewCols, previewRows)
	readout := panelStyle.Render(m.readoutView())

	s := "\n " + header + "\n\n"
	s += lipgloss.JoinHorizontal(lipgloss.Top, preview, readout) + "\n\n"
	s += " " + m.help.View(m.keys) + "\n"
	return s
}

func (m model) readoutView() string {
	c := m.snap.Color
	rgb := c.RGB()
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render("      ")

	s := labelStyle.Render("L*") + valueStyle.Render(fmt.Sprintf("%7.2f", c.L)) + "\n"
	s += labelStyle.Render("a*") + valueStyle.Render(fmt.Sprintf("%7.2f", c.A)) + "\n"
	s += labelStyle.Render("b*") + valueStyle.Render(fmt.Sprintf("%7.2f", c.B)) + "\n\n"
	s += swatch + " " + c.Hex() + "\n"
	s += helpStyle.Render(fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)) + "\n"
	s += helpStyle.Render(fmt.Sprintf("ΔE %.2f · %.1fx · at %d,%d",
		c.DeltaE(m.prev), m.snap.ScaleFactor, m.snap.Offset.X, m.snap.Offset.Y)) + "\n\n"

	switch m.snap.Status {
	case StatusCaptureFailed:
		s += errStyle.Render("capture failed: "+m.snap.Err.Error()) + "\n"
	case StatusDegenerateAperture:
		s += warnStyle.Render("aperture outside capture, holding last color") + "\n"
	}
	return s
}
