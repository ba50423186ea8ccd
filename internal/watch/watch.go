// Package watch is the interactive session monitor: a full-screen list
// of live multiplexer sessions annotated with registry state, with a
// preview of the selected session's recent output and a text-input mode
// for sending a line to the selection.
package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/pane-wrangler/internal/model"
	"github.com/timvw/pane-wrangler/internal/mux"
	"github.com/timvw/pane-wrangler/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	commandStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const previewLines = 20

// view mode
type viewMode int

const (
	modeList viewMode = iota
	modeTextInput
)

// row is one session in the list: always a live multiplexer session,
// optionally enriched with what the registry knows about it.
type row struct {
	info    mux.SessionInfo
	tracked *model.Session
}

type refreshMsg struct {
	rows []row
	err  error
}

type previewMsg struct {
	name string
	text string
}

type tickMsg struct{}

// Watch runs the interactive monitor.
type Watch struct {
	Manager         *session.Manager
	RefreshInterval time.Duration // 0 disables auto-refresh
}

type watchModel struct {
	mgr             *session.Manager
	ctx             context.Context
	refreshInterval time.Duration

	rows    []row
	cursor  int
	preview string
	mode    viewMode

	// text input state
	textInput  textinput.Model
	textTarget string // session the typed line goes to

	width  int
	height int

	refreshing bool
	message    string
}

func (w *Watch) Run(ctx context.Context) error {
	ti := textinput.New()
	ti.Placeholder = "Type a line and press Enter..."
	ti.CharLimit = 2048
	ti.Width = 80

	m := &watchModel{
		mgr:             w.Manager,
		ctx:             ctx,
		refreshInterval: w.RefreshInterval,
		textInput:       ti,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *watchModel) Init() tea.Cmd {
	m.refreshing = true
	return m.doRefresh()
}

func (m *watchModel) scheduleTick() tea.Cmd {
	if m.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *watchModel) doRefresh() tea.Cmd {
	mgr := m.mgr
	ctx := m.ctx
	return func() tea.Msg {
		live, err := mgr.List(ctx)
		if err != nil {
			return refreshMsg{err: err}
		}
		tracked := map[string]model.Session{}
		for _, s := range mgr.Registry().Snapshot() {
			tracked[s.Name] = s
		}
		rows := make([]row, 0, len(live))
		for _, info := range live {
			r := row{info: info}
			if s, ok := tracked[info.Name]; ok {
				sess := s
				r.tracked = &sess
			}
			rows = append(rows, r)
		}
		return refreshMsg{rows: rows}
	}
}

func (m *watchModel) doPreview() tea.Cmd {
	name := m.selectedName()
	if name == "" {
		return nil
	}
	mgr := m.mgr
	ctx := m.ctx
	return func() tea.Msg {
		res, err := mgr.Capture(ctx, name, previewLines)
		if err != nil {
			return previewMsg{name: name, text: ""}
		}
		return previewMsg{name: name, text: res.Text}
	}
}

func (m *watchModel) selectedName() string {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.cursor].info.Name
}

func (m *watchModel) killSelected() tea.Cmd {
	name := m.selectedName()
	if name == "" {
		return nil
	}
	res, err := m.mgr.Kill(m.ctx, name)
	if err != nil {
		m.message = errorStyle.Render(fmt.Sprintf("kill %s: %v", name, err))
	} else if res.LockReleased {
		m.message = fmt.Sprintf("killed %s (released lock %s)", name, res.LockName)
	} else {
		m.message = fmt.Sprintf("killed %s", name)
	}
	m.refreshing = true
	return m.doRefresh()
}

// sendToSelected forwards the typed line through the manager, so the
// interference debounce applies to TUI sends exactly as to CLI sends.
func (m *watchModel) sendToSelected(text string) tea.Cmd {
	_, err := m.mgr.Send(m.ctx, m.textTarget, text, true)
	var serr *session.Error
	switch {
	case err == nil:
		m.message = fmt.Sprintf("sent to %s", m.textTarget)
	case errors.As(err, &serr) && serr.Advisory():
		m.message = warnStyle.Render(fmt.Sprintf("withheld: %s (retry to override)", serr.Message))
	default:
		m.message = errorStyle.Render(fmt.Sprintf("send to %s: %v", m.textTarget, err))
	}
	m.refreshing = true
	return m.doRefresh()
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.refreshing = false
		if msg.err != nil {
			m.message = errorStyle.Render(fmt.Sprintf("refresh: %v", msg.err))
		} else {
			m.rows = msg.rows
			if m.cursor >= len(m.rows) {
				m.cursor = len(m.rows) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
		}
		cmds := []tea.Cmd{m.doPreview()}
		if tick := m.scheduleTick(); tick != nil {
			cmds = append(cmds, tick)
		}
		return m, tea.Batch(cmds...)

	case previewMsg:
		// A stale preview for a session the cursor has left is dropped.
		if msg.name == m.selectedName() {
			m.preview = msg.text
		}
		return m, nil

	case tickMsg:
		// Skip auto-refresh while a refresh is in flight or a line is
		// being typed.
		if m.refreshing || m.mode == modeTextInput {
			return m, m.scheduleTick()
		}
		m.refreshing = true
		return m, m.doRefresh()
	}

	return m, nil
}

func (m *watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeTextInput {
		return m.handleTextInputKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			return m, m.doPreview()
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			return m, m.doPreview()
		}

	case "t":
		if name := m.selectedName(); name != "" {
			m.mode = modeTextInput
			m.textTarget = name
			m.textInput.SetValue("")
			m.textInput.Focus()
			return m, textinput.Blink
		}

	case "K":
		return m, m.killSelected()

	case "r":
		m.refreshing = true
		m.message = ""
		return m, m.doRefresh()
	}

	return m, nil
}

func (m *watchModel) handleTextInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "escape":
		m.mode = modeList
		m.textInput.Blur()
		return m, nil

	case "enter":
		text := m.textInput.Value()
		m.mode = modeList
		m.textInput.Blur()
		if text == "" || m.textTarget == "" {
			return m, nil
		}
		return m, m.sendToSelected(text)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *watchModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.mode == modeTextInput {
		return m.viewTextInput()
	}
	return m.viewList()
}

func (m *watchModel) viewList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pane Wrangler"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("↑↓=select  t=type  K=kill  r=refresh  q=quit"))
	if m.refreshing {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("refreshing..."))
	}
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("  no sessions\n"))
	}

	for i, r := range m.rows {
		line := fmt.Sprintf("  %s %s", kindIcon(r), r.info.Name)
		if r.tracked != nil && r.tracked.LockName != "" {
			line += dimStyle.Render("  [" + r.tracked.LockName + "]")
		}
		if r.info.Attached {
			line += dimStyle.Render("  (attached)")
		}
		if i == m.cursor {
			line = selectedStyle.Render("→" + line[1:])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.preview != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", min(m.width, 60))))
		b.WriteString("\n")
		for _, l := range previewTail(m.preview, m.previewHeight()) {
			b.WriteString("  ")
			b.WriteString(l)
			b.WriteString("\n")
		}
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  " + m.message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *watchModel) viewTextInput() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  Send to " + m.textTarget))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Enter=send  Escape=cancel"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.textInput.View())
	b.WriteString("\n")
	return b.String()
}

// previewHeight is the vertical budget left for the preview pane after
// the header and list rows.
func (m *watchModel) previewHeight() int {
	h := m.height - len(m.rows) - 6
	if h < 3 {
		h = 3
	}
	if h > previewLines {
		h = previewLines
	}
	return h
}

func previewTail(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func kindIcon(r row) string {
	if r.tracked == nil {
		return dimStyle.Render("·")
	}
	if r.tracked.Kind == model.KindAgent {
		return agentStyle.Render("✓")
	}
	return commandStyle.Render("$")
}
