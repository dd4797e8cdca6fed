package session

import (
	"encoding/json"
	"time"
)

type Status int

const (
	Active Status = iota
	Waiting
	Dormant
)

var statusNames = map[Status]string{
	Active:  "active",
	Waiting: "waiting",
	Dormant: "dormant",
}

var statusSymbols = map[Status]string{
	Active:  "●",
	Waiting: "○",
	Dormant: "◌",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Label is the lowercase display name of the status.
func (s Status) Label() string { return s.String() }

// Symbol is the single-glyph marker shown next to an agent.
func (s Status) Symbol() string {
	if sym, ok := statusSymbols[s]; ok {
		return sym
	}
	return "?"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Activity is the rendering classification derived from the active tools.
type Activity int

const (
	Idle Activity = iota
	Reading
	Typing
)

var activityNames = map[Activity]string{
	Idle:    "idle",
	Reading: "reading",
	Typing:  "typing",
}

func (a Activity) String() string {
	if s, ok := activityNames[a]; ok {
		return s
	}
	return "unknown"
}

func (a Activity) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// ToolUse is a tool invocation observed in an assistant record. It is built
// once by the parser and never mutated afterwards.
type ToolUse struct {
	ToolID       string `json:"toolId"`
	ToolName     string `json:"toolName"`
	DisplayLabel string `json:"displayLabel"`
	IsReadOnly   bool   `json:"isReadOnly"`
}

// SubAgent tracks a Task tool invocation. It lives until the parent tool
// finishes or the turn ends.
type SubAgent struct {
	ParentToolID string `json:"parentToolId"`
	AgentType    string `json:"agentType"`
}

// AgentState is the live status of one tracked session file.
type AgentState struct {
	ID           uint32     `json:"id"`
	SessionFile  string     `json:"sessionFile"`
	Status       Status     `json:"status"`
	ActiveTools  []ToolUse  `json:"activeTools,omitempty"`
	SubAgents    []SubAgent `json:"subAgents,omitempty"`
	Phase        Phase      `json:"sddPhase,omitempty"`
	LastActivity time.Time  `json:"lastActivity"`

	// promptSummary is write-once; see SetPromptSummary.
	promptSummary string
}

const (
	promptSummaryLen = 150
	subAgentTypeTask = "task"
)

// NewAgentState returns an agent in the Waiting state with no tools.
func NewAgentState(id uint32, sessionFile string, now time.Time) *AgentState {
	return &AgentState{
		ID:           id,
		SessionFile:  sessionFile,
		Status:       Waiting,
		LastActivity: now,
	}
}

// Apply folds one semantic event into the agent.
func (a *AgentState) Apply(ev Event, now time.Time) {
	switch ev.Type {
	case EventToolStarted:
		a.AddTool(ev.Tool, now)
	case EventToolFinished:
		a.RemoveTool(ev.ToolID, now)
	case EventText:
		a.SetPromptSummary(ev.Text)
	case EventTurnEnd:
		a.MarkWaiting(now)
	}
}

// AddTool marks the agent active and records the tool. A tool id that is
// already active is not appended again: a truncated file is re-read from the
// start and re-delivers tool starts that were already applied.
func (a *AgentState) AddTool(tool ToolUse, now time.Time) {
	a.Status = Active
	a.LastActivity = now

	if phase, ok := DetectPhase(tool); ok {
		a.Phase = phase
	}

	if a.hasTool(tool.ToolID) {
		return
	}

	if tool.ToolName == "Task" {
		a.SubAgents = append(a.SubAgents, SubAgent{
			ParentToolID: tool.ToolID,
			AgentType:    subAgentTypeTask,
		})
	}
	a.ActiveTools = append(a.ActiveTools, tool)
}

// RemoveTool drops the tool and any sub-agent it spawned. Unknown ids are
// ignored apart from refreshing the activity time.
func (a *AgentState) RemoveTool(toolID string, now time.Time) {
	n := 0
	for _, t := range a.ActiveTools {
		if t.ToolID != toolID {
			a.ActiveTools[n] = t
			n++
		}
	}
	a.ActiveTools = a.ActiveTools[:n]

	n = 0
	for _, s := range a.SubAgents {
		if s.ParentToolID != toolID {
			a.SubAgents[n] = s
			n++
		}
	}
	a.SubAgents = a.SubAgents[:n]

	a.LastActivity = now
}

// MarkWaiting ends the current turn. Phase and prompt summary survive.
func (a *AgentState) MarkWaiting(now time.Time) {
	a.Status = Waiting
	a.ActiveTools = nil
	a.SubAgents = nil
	a.LastActivity = now
}

// SetPromptSummary stores the first promptSummaryLen characters of text if no
// summary has been recorded yet. It reports whether the summary was set.
func (a *AgentState) SetPromptSummary(text string) bool {
	if a.promptSummary != "" {
		return false
	}
	runes := []rune(text)
	if len(runes) > promptSummaryLen {
		runes = runes[:promptSummaryLen]
	}
	a.promptSummary = string(runes)
	return a.promptSummary != ""
}

// PromptSummary returns the recorded summary, or "" if none has been seen.
func (a *AgentState) PromptSummary() string { return a.promptSummary }

// IsDormant reports whether the agent has been silent for at least timeout.
func (a *AgentState) IsDormant(now time.Time, timeout time.Duration) bool {
	return now.Sub(a.LastActivity) >= timeout
}

// CurrentToolDisplay returns the label of the most recently started tool that
// is still active.
func (a *AgentState) CurrentToolDisplay() (string, bool) {
	if len(a.ActiveTools) == 0 {
		return "", false
	}
	return a.ActiveTools[len(a.ActiveTools)-1].DisplayLabel, true
}

// Activity classifies what the agent is doing for rendering purposes.
func (a *AgentState) Activity() Activity {
	if len(a.ActiveTools) == 0 {
		return Idle
	}
	for _, t := range a.ActiveTools {
		if t.IsReadOnly {
			return Reading
		}
	}
	return Typing
}

func (a *AgentState) hasTool(toolID string) bool {
	for _, t := range a.ActiveTools {
		if t.ToolID == toolID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the AgentState, duplicating slice fields so
// the copy can be handed to readers without exposing the live record.
func (a *AgentState) Clone() *AgentState {
	c := *a
	if len(a.ActiveTools) > 0 {
		c.ActiveTools = append([]ToolUse(nil), a.ActiveTools...)
	}
	if len(a.SubAgents) > 0 {
		c.SubAgents = append([]SubAgent(nil), a.SubAgents...)
	}
	return &c
}

// MarshalJSON includes the unexported prompt summary.
func (a *AgentState) MarshalJSON() ([]byte, error) {
	type plain AgentState
	return json.Marshal(struct {
		plain
		PromptSummary string `json:"promptSummary,omitempty"`
	}{
		plain:         plain(*a),
		PromptSummary: a.promptSummary,
	})
}
