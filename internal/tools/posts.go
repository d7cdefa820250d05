package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"talk-tools/internal/util"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var idSchema = map[string]any{"type": []string{"string", "integer"}}

// PostCountTool counts the posts a user has authored.
type PostCountTool struct {
	deps Deps
}

// NewPostCountTool constructs the post-count lookup.
func NewPostCountTool(deps Deps) *PostCountTool {
	return &PostCountTool{deps: deps}
}

func (p *PostCountTool) Name() string { return "count_user_posts" }

func (p *PostCountTool) Description() string {
	return "Count the posts published by a user."
}

func (p *PostCountTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"userId": idSchema,
		},
		"required": []string{"userId"},
	}
}

type postCountInput struct {
	UserID any `mapstructure:"userId"`
}

type postCountOutput struct {
	UserID    any    `json:"userId"`
	PostCount int    `json:"postCount"`
	Message   string `json:"message"`
}

func (p *PostCountTool) Execute(ctx context.Context, params Params, meta Meta) (Result, error) {
	if err := params.Require("userId"); err != nil {
		return Result{}, err
	}
	var args postCountInput
	if err := params.Decode(&args); err != nil {
		return Result{}, err
	}
	userID := normalizeID(args.UserID)

	start := time.Now()
	ctx, cancel := withToolTimeout(ctx, meta)
	defer cancel()

	query := url.Values{"userId": {fmt.Sprint(userID)}}
	resp, err := p.deps.HTTP.Get(ctx, p.deps.endpoint("/posts?"+query.Encode()))
	if err != nil {
		return Result{}, remoteError(err)
	}
	if !gjson.Valid(resp.Body) {
		return Result{}, fmt.Errorf("%w: posts body is not JSON (status %d)", ErrMalformedResponse, resp.Status)
	}
	snippet, _ := util.TruncateBytes(resp.Body, 512)
	p.deps.logger().Debug("posts response", zap.Int("status", resp.Status), zap.String("body", snippet))

	posts := gjson.Parse(resp.Body)
	count := 0
	if posts.IsArray() {
		count = len(posts.Array())
	}
	out := postCountOutput{
		UserID:    userID,
		PostCount: count,
		Message:   fmt.Sprintf("用户 %v 共有 %d 篇帖子", userID, count),
	}
	return newResult(p.Name(), string(marshalPayload(out)), meta, start), nil
}

// CreatePostTool publishes a new post and returns the remote response envelope.
type CreatePostTool struct {
	deps Deps
}

// NewCreatePostTool constructs the post-creation tool.
func NewCreatePostTool(deps Deps) *CreatePostTool {
	return &CreatePostTool{deps: deps}
}

func (c *CreatePostTool) Name() string { return "create_post" }

func (c *CreatePostTool) Description() string {
	return "Create a new post for a user."
}

func (c *CreatePostTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":  map[string]any{"type": "string"},
			"body":   map[string]any{"type": "string"},
			"userId": idSchema,
		},
		"required": []string{"title", "body", "userId"},
	}
}

type createPostInput struct {
	Title  string `mapstructure:"title"`
	Body   string `mapstructure:"body"`
	UserID int64  `mapstructure:"userId"`
}

type createPostPayload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int64  `json:"userId"`
}

func (c *CreatePostTool) Execute(ctx context.Context, params Params, meta Meta) (Result, error) {
	if err := params.Require("title", "body", "userId"); err != nil {
		return Result{}, err
	}
	var args createPostInput
	if err := params.Decode(&args); err != nil {
		return Result{}, err
	}

	start := time.Now()
	ctx, cancel := withToolTimeout(ctx, meta)
	defer cancel()

	payload := marshalPayload(createPostPayload{Title: args.Title, Body: args.Body, UserID: args.UserID})
	resp, err := c.deps.HTTP.Post(ctx, c.deps.endpoint("/posts"), payload)
	if err != nil {
		return Result{}, remoteError(err)
	}
	return newResult(c.Name(), resp.Envelope(), meta, start), nil
}

// UpdatePostTool replaces an existing post.
type UpdatePostTool struct {
	deps Deps
}

// NewUpdatePostTool constructs the post-update tool.
func NewUpdatePostTool(deps Deps) *UpdatePostTool {
	return &UpdatePostTool{deps: deps}
}

func (u *UpdatePostTool) Name() string { return "update_post" }

func (u *UpdatePostTool) Description() string {
	return "Update the title and body of an existing post."
}

func (u *UpdatePostTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"postId": idSchema,
			"title":  map[string]any{"type": "string"},
			"body":   map[string]any{"type": "string"},
		},
		"required": []string{"postId", "title", "body"},
	}
}

type updatePostInput struct {
	PostID int64  `mapstructure:"postId"`
	Title  string `mapstructure:"title"`
	Body   string `mapstructure:"body"`
}

type updatePostPayload struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int64  `json:"userId"`
}

// updatedPostOwner is the fixed author every update is attributed to.
const updatedPostOwner = 1

func (u *UpdatePostTool) Execute(ctx context.Context, params Params, meta Meta) (Result, error) {
	if err := params.Require("postId", "title", "body"); err != nil {
		return Result{}, err
	}
	var args updatePostInput
	if err := params.Decode(&args); err != nil {
		return Result{}, err
	}

	start := time.Now()
	ctx, cancel := withToolTimeout(ctx, meta)
	defer cancel()

	payload := marshalPayload(updatePostPayload{ID: args.PostID, Title: args.Title, Body: args.Body, UserID: updatedPostOwner})
	resp, err := u.deps.HTTP.Put(ctx, u.deps.endpoint("/posts/"+strconv.FormatInt(args.PostID, 10)), payload)
	if err != nil {
		return Result{}, remoteError(err)
	}
	return newResult(u.Name(), resp.Envelope(), meta, start), nil
}

// DeletePostTool removes a post.
type DeletePostTool struct {
	deps Deps
}

// NewDeletePostTool constructs the post-deletion tool.
func NewDeletePostTool(deps Deps) *DeletePostTool {
	return &DeletePostTool{deps: deps}
}

func (d *DeletePostTool) Name() string { return "delete_post" }

func (d *DeletePostTool) Description() string {
	return "Delete a post by id."
}

func (d *DeletePostTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"postId": idSchema,
		},
		"required": []string{"postId"},
	}
}

type deletePostInput struct {
	PostID int64 `mapstructure:"postId"`
}

func (d *DeletePostTool) Execute(ctx context.Context, params Params, meta Meta) (Result, error) {
	if err := params.Require("postId"); err != nil {
		return Result{}, err
	}
	var args deletePostInput
	if err := params.Decode(&args); err != nil {
		return Result{}, err
	}

	start := time.Now()
	ctx, cancel := withToolTimeout(ctx, meta)
	defer cancel()

	resp, err := d.deps.HTTP.Delete(ctx, d.deps.endpoint("/posts/"+strconv.FormatInt(args.PostID, 10)))
	if err != nil {
		return Result{}, remoteError(err)
	}
	return newResult(d.Name(), resp.Envelope(), meta, start), nil
}
