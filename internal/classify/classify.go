// Package classify analyzes HOA replies with an LLM and drafts follow-ups.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/resolve"
	"github.com/sells-group/hoa-onboard/pkg/anthropic"
)

// ErrLLM wraps failures of the model call itself.
var ErrLLM = errors.New("classify: llm call failed")

const (
	defaultSubject   = "Re: " + resolve.SubjectMarker
	defaultBody      = "Thank you for your response."
	defaultReasoning = "Generated response based on AI analysis"
	fallbackBody     = "Thank you for your response. We will review it and get back to you soon."
)

// Team identifies who signs follow-ups and which contact HOAs should add.
type Team struct {
	Name  string
	Email string
}

// Contact renders the team as "Name (email)".
func (t Team) Contact() string {
	if t.Email == "" {
		return t.Name
	}
	return fmt.Sprintf("%s (%s)", t.Name, t.Email)
}

// Config controls model selection and call limits.
type Config struct {
	Model     string
	MaxTokens int64
	Timeout   time.Duration
	Team      Team
}

// Classifier runs the analysis and drafting prompts.
type Classifier struct {
	client anthropic.Client
	cfg    Config
}

// New creates a Classifier. Zero config values fall back to defaults.
func New(client anthropic.Client, cfg Config) *Classifier {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Team.Name == "" {
		cfg.Team.Name = "Property Management Team"
	}
	return &Classifier{client: client, cfg: cfg}
}

// Analyze categorizes a reply and extracts the onboarding answers. It never
// fails: a failed call or unparseable output yields CategoryError with
// confidence 0 and the cause in Reasoning.
func (c *Classifier) Analyze(ctx context.Context, hoa model.HOA, propertyCount int, content string) model.AnalysisResult {
	text, err := c.complete(ctx, "analyze", analysisPrompt(hoa, propertyCount, content))
	if err != nil {
		zap.L().Error("classify: analysis call failed", zap.Int64("hoa_id", hoa.ID), zap.Error(err))
		return errorResult(fmt.Sprintf("Error during analysis: %v", err))
	}

	result, err := parseAnalysis(text)
	if err != nil {
		zap.L().Error("classify: failed to parse analysis", zap.Int64("hoa_id", hoa.ID), zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to parse AI response: %v", err))
	}
	zap.L().Info("classify: analyzed response",
		zap.Int64("hoa_id", hoa.ID),
		zap.String("category", string(result.Category)),
		zap.Float64("confidence", result.Confidence),
	)
	return result
}

// Draft writes a follow-up for the reply given its analysis. It never fails:
// a failed call falls back to "Re: {original subject}" and unparseable output
// to the generic onboarding subject, both with a generic body.
func (c *Classifier) Draft(ctx context.Context, hoa model.HOA, resp model.EmailResponse, analysis model.AnalysisResult) model.FollowUp {
	text, err := c.complete(ctx, "draft", followUpPrompt(hoa, resp.Content(), analysis, c.cfg.Team))
	if err != nil {
		zap.L().Error("classify: draft call failed", zap.Int64("response_id", resp.ID), zap.Error(err))
		return model.FollowUp{
			Subject:   "Re: " + resp.Subject,
			Body:      fallbackBody,
			Reasoning: fmt.Sprintf("Error during response generation: %v", err),
		}
	}

	followUp, err := parseFollowUp(text)
	if err != nil {
		zap.L().Error("classify: failed to parse draft", zap.Int64("response_id", resp.ID), zap.Error(err))
		return model.FollowUp{
			Subject:   defaultSubject,
			Body:      fallbackBody,
			Reasoning: fmt.Sprintf("Failed to parse AI response: %v", err),
		}
	}
	return followUp
}

// complete sends one prompt under the configured timeout and returns the
// text of the reply.
func (c *Classifier) complete(ctx context.Context, step, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Complete(ctx, anthropic.Request{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      systemPrompt,
		CacheSystem: true,
		Prompt:      prompt,
	})
	if err != nil {
		return "", eris.Wrapf(ErrLLM, "%s: %v", step, err)
	}
	if resp == nil {
		return "", eris.Wrapf(ErrLLM, "%s: empty completion", step)
	}
	resp.Usage.Log(c.cfg.Model, step)
	if resp.Truncated() {
		zap.L().Warn("classify: reply hit the token limit",
			zap.String("step", step),
			zap.Int64("max_tokens", c.cfg.MaxTokens),
		)
	}
	return resp.Text, nil
}

func errorResult(reasoning string) model.AnalysisResult {
	return model.AnalysisResult{
		Category:   model.CategoryError,
		Confidence: 0,
		Reasoning:  reasoning,
	}
}

func parseAnalysis(text string) (model.AnalysisResult, error) {
	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
		return model.AnalysisResult{}, eris.Wrap(err, "classify: decode analysis")
	}
	if result.Category == "" {
		return model.AnalysisResult{}, eris.New("classify: analysis has no category")
	}
	return result, nil
}

func parseFollowUp(text string) (model.FollowUp, error) {
	var raw struct {
		Subject   *string `json:"subject"`
		Body      *string `json:"body"`
		Reasoning *string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return model.FollowUp{}, eris.Wrap(err, "classify: decode follow-up")
	}
	return model.FollowUp{
		Subject:   orDefault(raw.Subject, defaultSubject),
		Body:      orDefault(raw.Body, defaultBody),
		Reasoning: orDefault(raw.Reasoning, defaultReasoning),
	}, nil
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// cleanJSON strips markdown fences and surrounding prose from a model reply.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
