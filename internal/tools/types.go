package tools

import (
	"context"
	"time"
)

// Params is the argument map a caller passes to a single tool invocation.
type Params map[string]any

// Meta provides execution context to tools.
type Meta struct {
	ToolTimeout time.Duration
	MaxBytes    int
}

// Result is a structured tool execution result.
type Result struct {
	ToolName   string
	Output     string
	Preview    string
	LineCount  int
	ByteCount  int
	Truncated  bool
	DurationMs int64
}

// Tool describes a callable tool.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, params Params, meta Meta) (Result, error)
}
