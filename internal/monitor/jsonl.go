package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pixel-agents/pixel-agents/internal/session"
)

// RecordType discriminates the top-level "type" field of a log line.
type RecordType int

const (
	RecordUnknown RecordType = iota
	RecordAssistant
	RecordUser
	RecordSystem
	RecordProgress
)

var recordTypes = map[string]RecordType{
	"assistant": RecordAssistant,
	"user":      RecordUser,
	"system":    RecordSystem,
	"progress":  RecordProgress,
}

func (t RecordType) String() string {
	for name, rt := range recordTypes {
		if rt == t {
			return name
		}
	}
	return "unknown"
}

// BlockType discriminates a content block inside an assistant or user message.
type BlockType int

const (
	BlockOther BlockType = iota
	BlockToolUse
	BlockToolResult
	BlockText
)

// ContentBlock is one entry of message.content. Only the fields belonging to
// Type are populated.
type ContentBlock struct {
	Type BlockType

	// BlockToolUse
	ID    string
	Name  string
	Input map[string]any

	// BlockToolResult
	ToolUseID string

	// BlockText
	Text string
}

// Record is a decoded log line.
type Record struct {
	Type RecordType

	// RecordAssistant, RecordUser
	Content []ContentBlock

	// RecordSystem, RecordProgress
	Subtype    string
	DurationMs *uint64
}

type jsonlEntry struct {
	Type    *string         `json:"type"`
	Message json.RawMessage `json:"message"`
	Subtype *string         `json:"subtype"`

	DurationMs *uint64 `json:"duration_ms"`
}

type messageContent struct {
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	ID        *string         `json:"id"`
	Name      *string         `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID *string         `json:"tool_use_id"`
	Text      *string         `json:"text"`
}

// ParseLine decodes one log line. It returns nil for blank lines, invalid
// JSON, and records that lack a field their type requires.
func ParseLine(line []byte) *Record {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil
	}
	rec, err := decodeRecord(trimmed)
	if err != nil {
		return nil
	}
	return rec
}

func decodeRecord(data []byte) (*Record, error) {
	var entry jsonlEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if entry.Type == nil {
		return nil, fmt.Errorf("missing type")
	}

	rec := &Record{Type: recordTypes[*entry.Type]}
	switch rec.Type {
	case RecordAssistant, RecordUser:
		blocks, err := decodeMessage(entry.Message)
		if err != nil {
			return nil, err
		}
		rec.Content = blocks
	case RecordSystem:
		if entry.Subtype != nil {
			rec.Subtype = *entry.Subtype
		}
		rec.DurationMs = entry.DurationMs
	case RecordProgress:
		if entry.Subtype != nil {
			rec.Subtype = *entry.Subtype
		}
	}
	return rec, nil
}

func decodeMessage(raw json.RawMessage) ([]ContentBlock, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("missing message")
	}
	var msg messageContent
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	if isNull(msg.Content) {
		return nil, fmt.Errorf("missing message content")
	}

	// User prompts are written with a plain string as content; they carry
	// no blocks the monitor cares about.
	var text string
	if json.Unmarshal(msg.Content, &text) == nil {
		return nil, nil
	}

	var raws []contentBlock
	if err := json.Unmarshal(msg.Content, &raws); err != nil {
		return nil, err
	}

	blocks := make([]ContentBlock, 0, len(raws))
	for _, rb := range raws {
		b, err := decodeBlock(rb)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func decodeBlock(rb contentBlock) (ContentBlock, error) {
	switch rb.Type {
	case "tool_use":
		if rb.ID == nil || rb.Name == nil {
			return ContentBlock{}, fmt.Errorf("tool_use block missing id or name")
		}
		b := ContentBlock{Type: BlockToolUse, ID: *rb.ID, Name: *rb.Name}
		if !isNull(rb.Input) {
			// Non-object inputs are kept as an empty map; every lookup
			// falls back to its default.
			_ = json.Unmarshal(rb.Input, &b.Input)
		}
		return b, nil
	case "tool_result":
		if rb.ToolUseID == nil {
			return ContentBlock{}, fmt.Errorf("tool_result block missing tool_use_id")
		}
		return ContentBlock{Type: BlockToolResult, ToolUseID: *rb.ToolUseID}, nil
	case "text":
		if rb.Text == nil {
			return ContentBlock{}, fmt.Errorf("text block missing text")
		}
		return ContentBlock{Type: BlockText, Text: *rb.Text}, nil
	default:
		return ContentBlock{Type: BlockOther}, nil
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// ExtractToolUses returns a ToolUse for every tool_use block of an assistant
// record.
func ExtractToolUses(rec *Record) []session.ToolUse {
	if rec == nil || rec.Type != RecordAssistant {
		return nil
	}
	var tools []session.ToolUse
	for _, b := range rec.Content {
		if b.Type != BlockToolUse {
			continue
		}
		tools = append(tools, session.ToolUse{
			ToolID:       b.ID,
			ToolName:     b.Name,
			DisplayLabel: FormatToolStatus(b.Name, b.Input),
			IsReadOnly:   IsReadOnlyTool(b.Name),
		})
	}
	return tools
}

// ExtractToolResults returns the tool_use_id of every tool_result block of a
// user record.
func ExtractToolResults(rec *Record) []string {
	if rec == nil || rec.Type != RecordUser {
		return nil
	}
	var ids []string
	for _, b := range rec.Content {
		if b.Type == BlockToolResult {
			ids = append(ids, b.ToolUseID)
		}
	}
	return ids
}

// ExtractText concatenates the text blocks of an assistant record. The second
// return value is false when the record has no text blocks.
func ExtractText(rec *Record) (string, bool) {
	if rec == nil || rec.Type != RecordAssistant {
		return "", false
	}
	var sb strings.Builder
	found := false
	for _, b := range rec.Content {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
			found = true
		}
	}
	return sb.String(), found
}

// IsTurnEnd reports whether the record is the system turn_duration marker.
func IsTurnEnd(rec *Record) bool {
	return rec != nil && rec.Type == RecordSystem && rec.Subtype == "turn_duration"
}

// Events derives the state-machine inputs of a record: tool starts, tool
// finishes, narrative text, then turn end.
func Events(rec *Record) []session.Event {
	var events []session.Event
	for _, tool := range ExtractToolUses(rec) {
		events = append(events, session.Event{Type: session.EventToolStarted, Tool: tool})
	}
	for _, id := range ExtractToolResults(rec) {
		events = append(events, session.Event{Type: session.EventToolFinished, ToolID: id})
	}
	if text, ok := ExtractText(rec); ok {
		events = append(events, session.Event{Type: session.EventText, Text: text})
	}
	if IsTurnEnd(rec) {
		events = append(events, session.Event{Type: session.EventTurnEnd})
	}
	return events
}

var readOnlyTools = map[string]bool{
	"Read":      true,
	"Grep":      true,
	"Glob":      true,
	"WebFetch":  true,
	"WebSearch": true,
}

// IsReadOnlyTool reports whether the named tool never mutates the workspace.
func IsReadOnlyTool(name string) bool {
	return readOnlyTools[name]
}

const labelBudget = 30

// FormatToolStatus returns the human-readable label for a tool invocation.
func FormatToolStatus(name string, input map[string]any) string {
	switch name {
	case "Read", "Write", "Edit":
		verb := map[string]string{"Read": "Reading", "Write": "Writing", "Edit": "Editing"}[name]
		return verb + " " + baseName(inputString(input, "file_path", "unknown"))
	case "Bash":
		return "Running: " + truncate(inputString(input, "command", ""), labelBudget)
	case "Grep":
		return "Searching code"
	case "Glob":
		return "Searching files"
	case "WebFetch":
		return "Fetching web content"
	case "WebSearch":
		return "Searching the web"
	case "Task":
		return "Subtask: " + truncate(inputString(input, "description", ""), labelBudget)
	case "Skill":
		return "Skill: " + inputString(input, "skill", "unknown")
	case "AskUserQuestion":
		return "Waiting for answer"
	default:
		return "Using " + name
	}
}

func inputString(input map[string]any, key, fallback string) string {
	if s, ok := input[key].(string); ok {
		return s
	}
	return fallback
}

// baseName returns the last "/"-separated segment. Log paths are always
// slash-separated regardless of the platform reading them.
func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// truncate limits s to limit characters, replacing the tail with "…" when it
// does not fit.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
