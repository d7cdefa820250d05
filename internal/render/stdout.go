package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"talk-tools/internal/events"
)

// StdoutRenderer streams events to a plain text writer.
type StdoutRenderer struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool
}

// NewStdoutRenderer creates a renderer for plain text output.
func NewStdoutRenderer(w io.Writer, verbose bool) *StdoutRenderer {
	return &StdoutRenderer{w: w, verbose: verbose}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.InvocationStarted:
		if payload, ok := event.Payload.(events.InvocationStartedPayload); ok && r.verbose {
			fmt.Fprintf(r.w, "talk-tools v%s | tool: %s | invocation: %s\n", payload.Version, payload.ToolName, payload.InvocationID)
		}
	case events.ToolCallStarted:
		if payload, ok := event.Payload.(events.ToolCallStartedPayload); ok && r.verbose {
			fmt.Fprintf(r.w, "tool: %s start\n", payload.ToolName)
			fmt.Fprintf(r.w, "input: %v\n", payload.Input)
		}
	case events.ToolCallFinished, events.ToolCallFailed:
		if payload, ok := event.Payload.(events.ToolCallFinishedPayload); ok {
			if r.verbose {
				status := "ok"
				if payload.Status == "error" {
					status = "err"
				}
				trunc := ""
				if payload.Truncated {
					trunc = ", preview truncated"
				}
				fmt.Fprintf(r.w, "tool: %s %s (%dms, %d lines, %d bytes%s)\n", payload.ToolName, status, payload.DurationMs, payload.LineCount, payload.ByteCount, trunc)
			}
			fmt.Fprintln(r.w, strings.TrimRight(payload.Output, "\n"))
		}
	}
}

func (r *StdoutRenderer) Close() error {
	return nil
}
