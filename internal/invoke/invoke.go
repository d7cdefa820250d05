package invoke

import (
	"context"
	"fmt"
	"time"

	"talk-tools/internal/config"
	"talk-tools/internal/events"
	"talk-tools/internal/render"
	"talk-tools/internal/tools"
	"talk-tools/internal/util"
	"talk-tools/internal/version"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Record captures a single invocation for JSON output.
type Record struct {
	InvocationID string         `json:"invocation_id"`
	ToolName     string         `json:"tool_name"`
	Params       map[string]any `json:"params"`
	Output       string         `json:"output"`
	Status       string         `json:"status"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"timestamp_start"`
	FinishedAt   time.Time      `json:"timestamp_end"`
	DurationMs   int64          `json:"duration_ms"`
	Events       []events.Event `json:"events"`
}

// Invoker runs one named tool with a parameter map.
type Invoker struct {
	tools    *tools.Registry
	renderer render.Renderer
	logger   *zap.Logger
	cfg      config.Config
}

// NewInvoker constructs an Invoker. renderer may be nil.
func NewInvoker(toolsReg *tools.Registry, renderer render.Renderer, logger *zap.Logger, cfg config.Config) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{tools: toolsReg, renderer: renderer, logger: logger, cfg: cfg}
}

// Run executes the tool once. A failed call still yields a Record whose Output is the
// failure text an engine would receive; the error is returned alongside it.
func (i *Invoker) Run(ctx context.Context, name string, params tools.Params) (Record, error) {
	started := time.Now()
	record := Record{
		InvocationID: uuid.NewString(),
		ToolName:     name,
		Params:       util.RedactParams(params),
		Status:       StatusError,
		StartedAt:    started,
	}

	emit := func(event events.Event) {
		record.Events = append(record.Events, event)
		if i.renderer != nil {
			i.renderer.Emit(event)
		}
	}
	finish := func(status string) {
		record.Status = status
		record.FinishedAt = time.Now()
		record.DurationMs = record.FinishedAt.Sub(started).Milliseconds()
		emit(events.Event{Type: events.InvocationFinished, Timestamp: record.FinishedAt, Payload: events.InvocationFinishedPayload{Status: status, FinishedAt: record.FinishedAt}})
	}

	emit(events.Event{Type: events.InvocationStarted, Timestamp: started, Payload: events.InvocationStartedPayload{
		Version:      version.Version,
		InvocationID: record.InvocationID,
		ToolName:     name,
		StartedAt:    started,
	}})

	tool, ok := i.tools.Get(name)
	if !ok {
		err := fmt.Errorf("%w: %s", tools.ErrUnknownTool, name)
		i.fail(&record, err, 0, emit)
		finish(StatusError)
		return record, err
	}

	start := time.Now()
	emit(events.Event{Type: events.ToolCallStarted, Timestamp: start, Payload: events.ToolCallStartedPayload{ToolName: name, Input: record.Params, StartedAt: start}})
	i.logger.Info("executing tool", zap.String("tool", name), zap.String("invocation_id", record.InvocationID), zap.Any("params", record.Params))

	meta := tools.Meta{
		ToolTimeout: i.cfg.ToolTimeout,
		MaxBytes:    i.cfg.MaxOutputBytes,
	}
	res, err := tool.Execute(ctx, params, meta)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		i.logger.Error("failed to execute tool", zap.String("tool", name), zap.String("invocation_id", record.InvocationID), zap.Error(err))
		i.fail(&record, err, duration, emit)
		finish(StatusError)
		return record, err
	}

	record.Output = res.Output
	emit(events.Event{Type: events.ToolCallFinished, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{
		ToolName:   name,
		Status:     StatusSuccess,
		Output:     res.Output,
		Preview:    res.Preview,
		LineCount:  res.LineCount,
		ByteCount:  res.ByteCount,
		Truncated:  res.Truncated,
		DurationMs: duration,
	}})
	finish(StatusSuccess)
	return record, nil
}

func (i *Invoker) fail(record *Record, err error, duration int64, emit func(events.Event)) {
	text := tools.FailureText(err)
	record.Output = text
	record.Error = err.Error()
	emit(events.Event{Type: events.ToolCallFailed, Timestamp: time.Now(), Payload: events.ToolCallFinishedPayload{
		ToolName:   record.ToolName,
		Status:     StatusError,
		Output:     text,
		Preview:    text,
		LineCount:  1,
		ByteCount:  len(text),
		DurationMs: duration,
	}})
}
