package invoke

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"talk-tools/internal/config"
	"talk-tools/internal/events"
	"talk-tools/internal/render"
	"talk-tools/internal/tools"

	"go.uber.org/zap"
)

type fakeTool struct {
	err  error
	seen tools.Meta
}

func (f *fakeTool) Name() string        { return "echo" }
func (f *fakeTool) Description() string { return "fake tool" }
func (f *fakeTool) Schema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{"text": map[string]any{"type": "string"}}}
}
func (f *fakeTool) Execute(ctx context.Context, params tools.Params, meta tools.Meta) (tools.Result, error) {
	f.seen = meta
	if f.err != nil {
		return tools.Result{}, f.err
	}
	text, _ := params["text"].(string)
	return tools.Result{ToolName: "echo", Output: text, Preview: text, LineCount: 1, ByteCount: len(text)}, nil
}

var testConfig = config.Config{ToolTimeout: 3 * time.Second, MaxOutputBytes: 512}

func eventTypes(record Record) []events.Type {
	out := make([]events.Type, 0, len(record.Events))
	for _, event := range record.Events {
		out = append(out, event.Type)
	}
	return out
}

func TestInvokerRunSuccess(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	tool := &fakeTool{}
	inv := NewInvoker(tools.NewRegistry(tool), nil, logger, testConfig)

	record, err := inv.Run(context.Background(), "echo", tools.Params{"text": "hello", "token": "s3cret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != StatusSuccess || record.Output != "hello" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.InvocationID == "" {
		t.Fatalf("expected invocation id")
	}
	if record.Params["token"] != "[REDACTED]" {
		t.Fatalf("expected params to be redacted, got %v", record.Params["token"])
	}
	if tool.seen.ToolTimeout != 3*time.Second || tool.seen.MaxBytes != 512 {
		t.Fatalf("unexpected meta: %+v", tool.seen)
	}
	want := []events.Type{events.InvocationStarted, events.ToolCallStarted, events.ToolCallFinished, events.InvocationFinished}
	got := eventTypes(record)
	if len(got) != len(want) {
		t.Fatalf("unexpected events: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected events: %v", got)
		}
	}
}

func TestInvokerRunToolError(t *testing.T) {
	tool := &fakeTool{err: tools.ErrInvalidParams}
	var buf bytes.Buffer
	inv := NewInvoker(tools.NewRegistry(tool), render.NewStdoutRenderer(&buf, false), nil, testConfig)

	record, err := inv.Run(context.Background(), "echo", tools.Params{})
	if !errors.Is(err, tools.ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	if record.Status != StatusError || !tools.IsFailureText(record.Output) {
		t.Fatalf("unexpected record: %+v", record)
	}
	if !strings.HasPrefix(buf.String(), "执行失败: ") {
		t.Fatalf("expected failure text rendered, got %q", buf.String())
	}
}

func TestInvokerUnknownTool(t *testing.T) {
	inv := NewInvoker(tools.NewRegistry(), nil, nil, testConfig)
	record, err := inv.Run(context.Background(), "missing", nil)
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if !strings.Contains(record.Output, "missing") {
		t.Fatalf("expected tool name in failure text, got %q", record.Output)
	}
	if got := eventTypes(record); got[len(got)-1] != events.InvocationFinished {
		t.Fatalf("expected invocation to be closed, got %v", got)
	}
}

func TestInvokerWeatherThroughCatalog(t *testing.T) {
	catalog, err := tools.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	reg := catalog.Build(tools.Builtins(tools.Deps{}), nil)
	inv := NewInvoker(reg, nil, nil, testConfig)

	record, err := inv.Run(context.Background(), "get_weather", tools.Params{"city": "北京", "unit": "fahrenheit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(record.Output, "59.0°F") || !strings.Contains(record.Output, "晴") {
		t.Fatalf("unexpected output: %s", record.Output)
	}
}

func TestInvokerKeepsSubSecondToolTimeout(t *testing.T) {
	tool := &fakeTool{}
	cfg := config.Config{ToolTimeout: 500 * time.Millisecond, MaxOutputBytes: 512}
	inv := NewInvoker(tools.NewRegistry(tool), nil, nil, cfg)

	if _, err := inv.Run(context.Background(), "echo", tools.Params{"text": "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.seen.ToolTimeout != 500*time.Millisecond {
		t.Fatalf("unexpected tool timeout: %s", tool.seen.ToolTimeout)
	}
}
