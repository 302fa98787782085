// Package anthropic sends single-turn prompts to the Anthropic Messages API.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// StopMaxTokens is the stop reason reported when output hit MaxTokens.
const StopMaxTokens = "max_tokens"

// Client completes one prompt at a time. There is no conversation state.
type Client interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Request is a single user prompt with an optional system prompt.
type Request struct {
	Model     string
	MaxTokens int64
	System    string
	// CacheSystem marks the system prompt with a 5 minute cache breakpoint.
	CacheSystem bool
	Prompt      string
}

// Completion is the text reply to a Request.
type Completion struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      Usage
}

// Truncated reports whether the reply was cut off by the token limit.
func (c *Completion) Truncated() bool {
	return c != nil && c.StopReason == StopMaxTokens
}

// Usage counts tokens billed for one call.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}

// model → {input $/MTok, output $/MTok}
var modelPricing = map[string][2]float64{
	"claude-haiku-4-5-20251001":  {1.00, 5.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
}

// Cost estimates the USD cost of u under model's pricing. Unknown models
// cost 0.
func (u Usage) Cost(model string) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return 0
	}
	in := float64(u.InputTokens) * p[0]
	out := float64(u.OutputTokens) * p[1]
	write := float64(u.CacheWriteTokens) * p[0] * 1.25
	read := float64(u.CacheReadTokens) * p[0] * 0.1
	return (in + out + write + read) / 1e6
}

// Log records token counts and estimated cost for one classifier step.
func (u Usage) Log(model, step string) {
	zap.L().Info("anthropic: usage",
		zap.String("model", model),
		zap.String("step", step),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheWriteTokens),
		zap.Int64("cache_read_tokens", u.CacheReadTokens),
		zap.Float64("estimated_cost_usd", u.Cost(model)),
	)
}

type sdkClient struct {
	client sdk.Client
}

// NewClient creates a Client backed by the SDK. SDK retries are disabled;
// a failed call is reported to the operator instead. Extra options (base
// URL, HTTP client) are passed through.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &sdkClient{client: sdk.NewClient(opts...)}
}

func (c *sdkClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	msg, err := c.client.Messages.New(ctx, toParams(req))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return fromMessage(msg), nil
}

func toParams(req Request) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		block := sdk.TextBlockParam{Text: req.System}
		if req.CacheSystem {
			cc := sdk.NewCacheControlEphemeralParam()
			cc.TTL = sdk.CacheControlEphemeralTTL("5m")
			block.CacheControl = cc
		}
		params.System = []sdk.TextBlockParam{block}
	}
	return params
}

// fromMessage joins the text blocks of msg; other block types are dropped.
func fromMessage(msg *sdk.Message) *Completion {
	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	return &Completion{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       text.String(),
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:      msg.Usage.InputTokens,
			OutputTokens:     msg.Usage.OutputTokens,
			CacheWriteTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadTokens:  msg.Usage.CacheReadInputTokens,
		},
	}
}
