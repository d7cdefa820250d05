package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	InvocationStarted  Type = "InvocationStarted"
	ToolCallStarted    Type = "ToolCallStarted"
	ToolCallFinished   Type = "ToolCallFinished"
	ToolCallFailed     Type = "ToolCallFailed"
	InvocationFinished Type = "InvocationFinished"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// InvocationStartedPayload is emitted before the tool is looked up.
type InvocationStartedPayload struct {
	Version      string    `json:"version"`
	InvocationID string    `json:"invocation_id"`
	ToolName     string    `json:"tool_name"`
	StartedAt    time.Time `json:"started_at"`
}

// ToolCallStartedPayload marks tool call start.
type ToolCallStartedPayload struct {
	ToolName  string    `json:"tool_name"`
	Input     any       `json:"input"`
	StartedAt time.Time `json:"started_at"`
}

// ToolCallFinishedPayload marks tool call end.
type ToolCallFinishedPayload struct {
	ToolName   string `json:"tool_name"`
	Status     string `json:"status"`
	Output     string `json:"output"`
	Preview    string `json:"preview"`
	LineCount  int    `json:"line_count"`
	ByteCount  int    `json:"byte_count"`
	Truncated  bool   `json:"truncated"`
	DurationMs int64  `json:"duration_ms"`
}

// InvocationFinishedPayload closes the invocation.
type InvocationFinishedPayload struct {
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
}
