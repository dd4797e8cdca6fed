package session

// EventType classifies the semantic events derived from a log record.
type EventType int

const (
	EventToolStarted  EventType = iota // assistant tool_use block
	EventToolFinished                  // user tool_result block
	EventText                          // concatenated assistant text
	EventTurnEnd                       // system turn_duration record
)

var eventNames = map[EventType]string{
	EventToolStarted:  "tool_started",
	EventToolFinished: "tool_finished",
	EventText:         "text",
	EventTurnEnd:      "turn_end",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return "unknown"
}

// Event is one state-machine input. Only the field matching Type is set.
type Event struct {
	Type   EventType
	Tool   ToolUse // EventToolStarted
	ToolID string  // EventToolFinished
	Text   string  // EventText
}
