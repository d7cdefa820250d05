package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"talk-tools/internal/httpclient"
	"talk-tools/internal/util"

	"go.uber.org/zap"
)

// HTTP is the remote capability the post and user tools call into.
type HTTP interface {
	Get(ctx context.Context, url string) (httpclient.Response, error)
	Post(ctx context.Context, url string, body []byte) (httpclient.Response, error)
	Put(ctx context.Context, url string, body []byte) (httpclient.Response, error)
	Delete(ctx context.Context, url string) (httpclient.Response, error)
}

// Deps carries what the built-in tools need to reach their endpoints.
type Deps struct {
	HTTP    HTTP
	BaseURL string
	Logger  *zap.Logger
}

func (d Deps) endpoint(path string) string {
	return strings.TrimRight(d.BaseURL, "/") + path
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func withToolTimeout(ctx context.Context, meta Meta) (context.Context, context.CancelFunc) {
	if meta.ToolTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, meta.ToolTimeout)
}

func remoteError(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteCallFailed, err)
}

func marshalPayload(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}

// normalizeID turns JSON numbers into plain Go integers when they are integral so the
// identifier prints and re-encodes the way the caller wrote it.
func normalizeID(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if n, err := CoerceInt(v); err == nil {
			return n
		}
		return v
	case float64:
		if n, err := CoerceInt(v); err == nil {
			return n
		}
	}
	return value
}

func newResult(name, output string, meta Meta, start time.Time) Result {
	preview := util.Preview(output, 12, meta.MaxBytes)
	lineCount := 0
	if preview != "" {
		lineCount = strings.Count(preview, "\n") + 1
	}
	return Result{
		ToolName:   name,
		Output:     output,
		Preview:    preview,
		LineCount:  lineCount,
		ByteCount:  len(output),
		Truncated:  len(preview) < len(output),
		DurationMs: time.Since(start).Milliseconds(),
	}
}
