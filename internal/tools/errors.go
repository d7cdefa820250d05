package tools

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidParams reports a missing or malformed invocation parameter.
	ErrInvalidParams = errors.New("invalid params")
	// ErrRemoteCallFailed reports a transport failure talking to a remote endpoint.
	ErrRemoteCallFailed = errors.New("remote call failed")
	// ErrMalformedResponse reports a remote body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnknownTool reports a lookup for a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
)

const failurePrefix = "执行失败: "

// FailureText renders err as the string handed back to a tool-calling engine.
func FailureText(err error) string {
	if err == nil {
		return ""
	}
	return failurePrefix + err.Error()
}

// IsFailureText reports whether s was produced by FailureText.
func IsFailureText(s string) bool {
	return strings.HasPrefix(s, failurePrefix)
}
