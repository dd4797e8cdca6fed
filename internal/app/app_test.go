package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pixel-agents/pixel-agents/internal/config"
	"github.com/pixel-agents/pixel-agents/internal/monitor"
	"github.com/pixel-agents/pixel-agents/internal/session"
)

type fixture struct {
	dir string
	mon *monitor.Monitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.ClaudeDir = t.TempDir()
	cfg.Monitor.ScanInterval = 1000
	dir := filepath.Join(cfg.ProjectsDir(), "-home-user-proj")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return &fixture{dir: dir, mon: monitor.NewMonitor(cfg, session.NewStore())}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func toolLine(id, name, input string) string {
	return fmt.Sprintf(`{"type":"assistant","message":{"content":[{"type":"tool_use","id":%q,"name":%q,"input":%s}]}}`+"\n", id, name, input)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModelDefaults(t *testing.T) {
	f := newFixture(t)
	m := New(f.mon, 100*time.Millisecond, nil)

	if m.Focus() != FocusSidebar {
		t.Errorf("Focus() = %v, want sidebar", m.Focus())
	}
	if _, ok := m.Selected(); ok {
		t.Error("new model has a selection")
	}
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before size = %q", got)
	}
}

func TestToggleFocus(t *testing.T) {
	m := New(newFixture(t).mon, time.Second, nil)
	m = update(t, m, keyMsg("tab"))
	if m.Focus() != FocusOffice {
		t.Errorf("after tab: %v, want office", m.Focus())
	}
	m = update(t, m, keyMsg("tab"))
	if m.Focus() != FocusSidebar {
		t.Errorf("after second tab: %v, want sidebar", m.Focus())
	}
}

func TestSelectAgentByDigit(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.jsonl", toolLine("t1", "Read", `{"file_path":"/x.go"}`))
	m := New(f.mon, time.Second, nil)
	m = update(t, m, tickMsg(time.Now()))

	m = update(t, m, keyMsg("9"))
	if _, ok := m.Selected(); ok {
		t.Error("selecting an unknown id should be ignored")
	}

	m = update(t, m, keyMsg("1"))
	if id, ok := m.Selected(); !ok || id != 1 {
		t.Errorf("Selected() = %d, %v; want 1", id, ok)
	}

	m = update(t, m, keyMsg("esc"))
	if _, ok := m.Selected(); ok {
		t.Error("esc should clear the selection")
	}
}

func TestSelectionClearedOnRemoval(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "a.jsonl", toolLine("t1", "Read", `{}`))
	f.write(t, "b.jsonl", toolLine("t1", "Bash", `{"command":"ls"}`))
	m := New(f.mon, time.Second, nil)
	m = update(t, m, tickMsg(time.Now()))

	if !m.SelectAgent(1) {
		t.Fatal("SelectAgent(1) failed")
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	m = update(t, m, keyMsg("r"))
	m = update(t, m, tickMsg(time.Now()))

	if _, ok := m.Selected(); ok {
		t.Error("selection survived removal of the selected agent")
	}
	if f.mon.Store().Len() != 1 {
		t.Errorf("store has %d agents, want 1", f.mon.Store().Len())
	}
}

func TestScrollSaturates(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.jsonl", toolLine("t1", "Read", `{}`))
	f.write(t, "b.jsonl", toolLine("t1", "Read", `{}`))
	m := New(f.mon, time.Second, nil)
	m = update(t, m, tickMsg(time.Now()))

	m = update(t, m, keyMsg("up"))
	if m.Scroll() != 0 {
		t.Errorf("scroll above top = %d, want 0", m.Scroll())
	}

	m = update(t, m, keyMsg("down"))
	if m.Scroll() != 1 {
		t.Errorf("scroll = %d, want 1", m.Scroll())
	}
	for i := 0; i < 10; i++ {
		m = update(t, m, keyMsg("down"))
	}
	if m.Scroll() != 1 {
		t.Errorf("scroll past end = %d, want 1 (two sidebar lines)", m.Scroll())
	}
}

func TestOfficeFocusCyclesSelection(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.jsonl", toolLine("t1", "Read", `{}`))
	f.write(t, "b.jsonl", toolLine("t1", "Read", `{}`))
	m := New(f.mon, time.Second, nil)
	m = update(t, m, tickMsg(time.Now()))
	m = update(t, m, keyMsg("tab"))

	var got []uint32
	for i := 0; i < 3; i++ {
		m = update(t, m, keyMsg("down"))
		id, _ := m.Selected()
		got = append(got, id)
	}
	want := []uint32{1, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selection sequence = %v, want %v", got, want)
		}
	}

	m = update(t, m, keyMsg("up"))
	if id, _ := m.Selected(); id != 2 {
		t.Errorf("up from 1 selected %d, want 2", id)
	}
}

func TestViewShowsAgentDetails(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.jsonl",
		`{"type":"assistant","message":{"content":[{"type":"text","text":"Refactoring the parser"}]}}`+"\n"+
			toolLine("t1", "Skill", `{"skill":"sdd-design"}`)+
			toolLine("t2", "Task", `{"description":"Survey callers"}`)+
			toolLine("t3", "Edit", `{"file_path":"/src/parser.go"}`))
	m := New(f.mon, time.Second, nil)
	m = update(t, m, tickMsg(time.Now()))
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})

	v := m.View()
	for _, want := range []string{"Pixel Agents", "1 agents", "Agent #1", "active", "SDD: Design (4/8)"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(v, "Editing parser.go") {
		t.Error("details shown before the agent was selected")
	}

	m = update(t, m, keyMsg("1"))
	v = m.View()
	for _, want := range []string{"Tool: Editing parser.go", "Prompt: \"Refactoring the parser", "Sub-agents:", "task: t2"} {
		if !strings.Contains(v, want) {
			t.Errorf("selected View() missing %q", want)
		}
	}
}

func TestViewEmpty(t *testing.T) {
	m := New(newFixture(t).mon, time.Second, nil)
	m = update(t, m, tickMsg(time.Now()))
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	if v := m.View(); !strings.Contains(v, "No sessions detected") {
		t.Errorf("empty View() = %q", v)
	}
}

func TestWakeRequestsScan(t *testing.T) {
	f := newFixture(t)
	wake := make(chan struct{}, 1)
	m := New(f.mon, time.Second, wake)
	m = update(t, m, tickMsg(time.Now()))

	f.write(t, "late.jsonl", toolLine("t1", "Read", `{}`))
	m = update(t, m, tickMsg(time.Now()))
	if f.mon.Store().Len() != 0 {
		t.Fatal("session found without a scan")
	}

	next, cmd := m.Update(wakeMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("wake should re-arm the listener")
	}
	m = update(t, m, tickMsg(time.Now()))
	if f.mon.Store().Len() != 1 {
		t.Errorf("store has %d agents after wake, want 1", f.mon.Store().Len())
	}
}

func TestQuit(t *testing.T) {
	m := New(newFixture(t).mon, time.Second, nil)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestFurthestPhase(t *testing.T) {
	a := session.NewAgentState(1, "/a", time.Now())
	b := session.NewAgentState(2, "/b", time.Now())
	a.Phase = session.PhaseSpec
	b.Phase = session.PhaseVerify

	if got := furthestPhase([]*session.AgentState{a, b}); got != session.PhaseVerify {
		t.Errorf("furthestPhase() = %v, want Verify", got)
	}
	if got := furthestPhase(nil); got != session.PhaseNone {
		t.Errorf("furthestPhase(nil) = %v, want none", got)
	}
}
