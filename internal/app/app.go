package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/pixel-agents/pixel-agents/internal/monitor"
	"github.com/pixel-agents/pixel-agents/internal/session"
	"github.com/pixel-agents/pixel-agents/internal/theme"
)

// Focus identifies which panel receives navigation keys.
type Focus int

const (
	FocusSidebar Focus = iota
	FocusOffice
)

const (
	desksPerRow   = 3
	deskWidth     = 12
	toolLabelLen  = 40
	promptLen     = 35
	headerHeight  = 3
	footerHeight  = 1
	minBodyHeight = 6
)

type tickMsg time.Time

type wakeMsg struct{}

// Model is the root Bubble Tea model. It owns the Monitor and is the only
// goroutine that touches it.
type Model struct {
	mon      *monitor.Monitor
	tickRate time.Duration
	wake     <-chan struct{}

	keys KeyMap
	help help.Model

	width  int
	height int

	focus    Focus
	selected uint32
	hasSel   bool
	scroll   int
}

// New creates the root model. wake, if non-nil, delivers filesystem
// notifications that request an early discovery pass.
func New(mon *monitor.Monitor, tickRate time.Duration, wake <-chan struct{}) Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(theme.ColorKey)
	h.Styles.FullKey = h.Styles.ShortKey
	return Model{
		mon:      mon,
		tickRate: tickRate,
		wake:     wake,
		keys:     DefaultKeyMap(),
		help:     h,
		focus:    FocusSidebar,
	}
}

// Init runs the first tick immediately and starts listening for wake-ups.
func (m Model) Init() tea.Cmd {
	first := func() tea.Msg { return tickMsg(time.Now()) }
	return tea.Batch(first, m.waitForWake())
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.tickRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForWake() tea.Cmd {
	if m.wake == nil {
		return nil
	}
	wake := m.wake
	return func() tea.Msg {
		if _, ok := <-wake; !ok {
			return nil
		}
		return wakeMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.applyTick(m.mon.Tick())
		return m, m.scheduleTick()

	case wakeMsg:
		m.mon.RequestScan()
		return m, m.waitForWake()
	}

	return m, nil
}

func (m *Model) applyTick(r monitor.TickReport) {
	for _, id := range r.Removed {
		if m.hasSel && m.selected == id {
			m.hasSel = false
		}
	}
	m.clampScroll()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		m.ToggleFocus()

	case key.Matches(msg, m.keys.Up):
		if m.focus == FocusOffice {
			m.cycleSelection(-1)
		} else {
			m.ScrollUp()
		}

	case key.Matches(msg, m.keys.Down):
		if m.focus == FocusOffice {
			m.cycleSelection(1)
		} else {
			m.ScrollDown()
		}

	case key.Matches(msg, m.keys.Select):
		if n, err := strconv.Atoi(msg.String()); err == nil {
			m.SelectAgent(uint32(n))
		}

	case key.Matches(msg, m.keys.Deselect):
		m.hasSel = false
		m.clampScroll()

	case key.Matches(msg, m.keys.Rescan):
		m.mon.RequestScan()
	}

	return m, nil
}

// SelectAgent selects the agent with the given id if it is tracked.
func (m *Model) SelectAgent(id uint32) bool {
	if !m.mon.Store().Contains(id) {
		return false
	}
	m.selected = id
	m.hasSel = true
	return true
}

// Selected returns the selected agent id.
func (m Model) Selected() (uint32, bool) {
	return m.selected, m.hasSel
}

func (m *Model) ToggleFocus() {
	if m.focus == FocusOffice {
		m.focus = FocusSidebar
	} else {
		m.focus = FocusOffice
	}
}

func (m Model) Focus() Focus { return m.focus }

// ScrollUp moves the sidebar up one line, stopping at the top.
func (m *Model) ScrollUp() {
	if m.scroll > 0 {
		m.scroll--
	}
}

// ScrollDown moves the sidebar down one line, stopping at the last line.
func (m *Model) ScrollDown() {
	m.scroll++
	m.clampScroll()
}

func (m Model) Scroll() int { return m.scroll }

func (m *Model) clampScroll() {
	limit := len(m.sidebarLines(0)) - 1
	if m.scroll > limit {
		m.scroll = limit
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) cycleSelection(delta int) {
	ids := m.mon.Store().SortedIDs()
	if len(ids) == 0 {
		return
	}
	idx := -1
	if m.hasSel {
		for i, id := range ids {
			if id == m.selected {
				idx = i
				break
			}
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(ids) - 1
	default:
		idx = (idx + delta + len(ids)) % len(ids)
	}
	m.selected = ids[idx]
	m.hasSel = true
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	bodyHeight := m.height - headerHeight - footerHeight
	if bodyHeight < minBodyHeight {
		bodyHeight = minBodyHeight
	}
	officeWidth := m.width * 55 / 100
	sidebarWidth := m.width - officeWidth

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderOffice(officeWidth, bodyHeight),
		m.renderSidebar(sidebarWidth, bodyHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.help.View(m.keys),
	)
}

func (m Model) renderHeader() string {
	store := m.mon.Store()
	parts := []string{
		theme.StyleTitle.Render("◉ Pixel Agents"),
		theme.StyleValue.Render(fmt.Sprintf("%d agents", store.Len())),
		theme.StyleValue.Render(fmt.Sprintf("%d active", store.ActiveCount())),
	}
	if p := furthestPhase(store.GetAll()); p != session.PhaseNone {
		parts = append(parts, theme.StylePhase.Render("SDD: "+phaseDisplay(p)))
	}
	line := ansi.Truncate(strings.Join(parts, "   "), m.width-4, "…")
	return theme.StyleBorder.Width(m.width - 2).Render(line)
}

func (m Model) renderOffice(width, height int) string {
	inner := width - 2
	var rows []string
	var row []string
	for _, a := range m.mon.Store().GetAll() {
		row = append(row, m.renderDesk(a))
		if len(row) == desksPerRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	content := theme.StyleDimmed.Render("No sessions detected")
	if len(rows) > 0 {
		content = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	return theme.PanelBorder(m.focus == FocusOffice).
		Width(inner).
		Height(height - 2).
		MaxHeight(height).
		Render(clipLines(content, inner))
}

func (m Model) renderDesk(a *session.AgentState) string {
	color := lipgloss.NewStyle().Foreground(theme.AgentColor(a.ID))
	if m.hasSel && m.selected == a.ID {
		color = color.Bold(true).Underline(true)
	}
	activity := a.Activity()
	lines := []string{
		theme.StyleDimmed.Render("▄▄▄▄▄"),
		color.Render(" " + theme.ActivityGlyph(activity) + " "),
		color.Render(fmt.Sprintf("◉%d", a.ID)) + " " + theme.StyleDimmed.Render(activity.String()),
	}
	return lipgloss.NewStyle().Width(deskWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) renderSidebar(width, height int) string {
	inner := width - 2
	lines := m.sidebarLines(inner)
	if m.scroll < len(lines) {
		lines = lines[m.scroll:]
	} else {
		lines = nil
	}
	if visible := height - 2; len(lines) > visible {
		lines = lines[:visible]
	}

	return theme.PanelBorder(m.focus == FocusSidebar).
		Width(inner).
		Height(height - 2).
		Render(clipLines(strings.Join(lines, "\n"), inner))
}

// sidebarLines renders every agent entry, expanding the selected one. width
// only affects separator length.
func (m Model) sidebarLines(width int) []string {
	var lines []string
	for _, a := range m.mon.Store().GetAll() {
		selected := m.hasSel && m.selected == a.ID
		style := lipgloss.NewStyle().Foreground(theme.AgentColor(a.ID))
		marker := "  "
		if selected {
			style = style.Bold(true)
			marker = "▸ "
		}
		status := lipgloss.NewStyle().Foreground(theme.StatusColor(a.Status)).
			Render(a.Status.Symbol() + " " + a.Status.Label())
		lines = append(lines, style.Render(marker+fmt.Sprintf("Agent #%d ", a.ID))+"["+status+"]")

		if !selected {
			continue
		}
		if tool, ok := a.CurrentToolDisplay(); ok {
			lines = append(lines, detail("Tool", theme.StyleValue.Render(ansi.Truncate(tool, toolLabelLen, ""))))
		}
		if p := a.PromptSummary(); p != "" {
			lines = append(lines, detail("Prompt", theme.StyleValue.Render(`"`+ansi.Truncate(p, promptLen, "")+`..."`)))
		}
		if a.Phase != session.PhaseNone {
			lines = append(lines, detail("SDD", theme.StylePhase.Render(phaseDisplay(a.Phase))))
		}
		if len(a.SubAgents) > 0 {
			lines = append(lines, theme.StyleDimmed.Render("   Sub-agents:"))
			for _, sub := range a.SubAgents {
				lines = append(lines, theme.StyleDimmed.Render("   └─ "+sub.AgentType+": "+sub.ParentToolID))
			}
		}
		if width > 0 {
			lines = append(lines, theme.StyleDimmed.Render(strings.Repeat("─", width)))
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("Waiting for sessions..."))
	}
	return lines
}

func detail(label, value string) string {
	return theme.StyleDimmed.Render("   "+label+": ") + value
}

// phaseDisplay formats a phase as "Apply (6/8)".
func phaseDisplay(p session.Phase) string {
	return fmt.Sprintf("%s (%d/%d)", p.Label(), p.Index()+1, session.PhaseCount)
}

// furthestPhase returns the most advanced phase among agents.
func furthestPhase(agents []*session.AgentState) session.Phase {
	best := session.PhaseNone
	for _, a := range agents {
		if a.Phase.Index() > best.Index() {
			best = a.Phase
		}
	}
	return best
}

// clipLines truncates every line of s to width cells.
func clipLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "…")
	}
	return strings.Join(lines, "\n")
}
