package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultRetryWaitMin   = 200 * time.Millisecond
	DefaultRetryWaitMax   = 2 * time.Second
)

// ErrRequestFailed wraps every transport-level failure.
var ErrRequestFailed = errors.New("http request failed")

// Options configures a Client.
type Options struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	RatePerMinute  float64
	Logger         *zap.Logger
}

// Response is what a remote endpoint answered. Non-2xx statuses are not errors.
type Response struct {
	Status  int            `json:"status"`
	Body    string         `json:"body"`
	Headers map[string]any `json:"headers"`
}

// Envelope renders the response as the JSON string tools hand back unmodified.
func (r Response) Envelope() string {
	headers := r.Headers
	if headers == nil {
		headers = map[string]any{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(struct {
		Status  int            `json:"status"`
		Body    string         `json:"body"`
		Headers map[string]any `json:"headers"`
	}{r.Status, r.Body, headers})
	return strings.TrimSuffix(buf.String(), "\n")
}

// Client is the HTTP collaborator tools call into.
type Client struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New constructs a retrying client from opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = DefaultRetryWaitMin
	}
	if opts.RetryWaitMax < opts.RetryWaitMin {
		opts.RetryWaitMax = DefaultRetryWaitMax
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.DialContext = (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Transport: transport, Timeout: opts.Timeout}
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.CheckRetry = checkRetry
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{logger.Sugar()}

	c := &Client{client: client, logger: logger}
	if opts.RatePerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerMinute/60), int(opts.RatePerMinute/60)+1)
	}
	return c
}

func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *Client) Post(ctx context.Context, url string, body []byte) (Response, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *Client) Put(ctx context.Context, url string, body []byte) (Response, error) {
	return c.do(ctx, http.MethodPut, url, body)
}

func (c *Client) Delete(ctx context.Context, url string) (Response, error) {
	return c.do(ctx, http.MethodDelete, url, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, url, err)
		}
	}

	if method == http.MethodPost {
		ctx = context.WithValue(ctx, singleAttemptKey{}, true)
	}

	var payload any
	if body != nil {
		payload = bytes.NewReader(body)
	}
	request, err := retryablehttp.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, url, err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	start := time.Now()
	resp, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("http request failed", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return Response{}, fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: reading %s %s: %v", ErrRequestFailed, method, url, err)
	}
	c.logger.Debug("http request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Response{Status: resp.StatusCode, Body: string(data), Headers: flattenHeaders(resp.Header)}, nil
}

type singleAttemptKey struct{}

// checkRetry applies the default policy, but a POST is re-sent only after a failed dial.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if single, _ := ctx.Value(singleAttemptKey{}).(bool); single {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		var opErr *net.OpError
		if resp == nil && errors.As(err, &opErr) && opErr.Op == "dial" {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func flattenHeaders(header http.Header) map[string]any {
	out := make(map[string]any, len(header))
	for key, values := range header {
		name := strings.ToLower(key)
		if len(values) == 1 {
			out[name] = values[0]
			continue
		}
		out[name] = append([]string(nil), values...)
	}
	return out
}

// leveledLogger routes retryablehttp logging into zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
