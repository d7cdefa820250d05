package tools

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// UserTool fetches a user profile and returns the remote response envelope.
type UserTool struct {
	deps Deps
}

// NewUserTool constructs the user lookup.
func NewUserTool(deps Deps) *UserTool {
	return &UserTool{deps: deps}
}

func (u *UserTool) Name() string { return "get_user" }

func (u *UserTool) Description() string {
	return "Fetch a user's profile."
}

func (u *UserTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"userId": idSchema,
		},
		"required": []string{"userId"},
	}
}

type userInput struct {
	UserID any `mapstructure:"userId"`
}

func (u *UserTool) Execute(ctx context.Context, params Params, meta Meta) (Result, error) {
	if err := params.Require("userId"); err != nil {
		return Result{}, err
	}
	var args userInput
	if err := params.Decode(&args); err != nil {
		return Result{}, err
	}

	start := time.Now()
	ctx, cancel := withToolTimeout(ctx, meta)
	defer cancel()

	id := url.PathEscape(fmt.Sprint(normalizeID(args.UserID)))
	resp, err := u.deps.HTTP.Get(ctx, u.deps.endpoint("/users/"+id))
	if err != nil {
		return Result{}, remoteError(err)
	}
	return newResult(u.Name(), resp.Envelope(), meta, start), nil
}
