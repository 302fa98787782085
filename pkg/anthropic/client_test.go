package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageBody(text, stopReason string) map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stopReason,
		"usage": map[string]any{
			"input_tokens":                900,
			"output_tokens":               150,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     800,
		},
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name          string
		req           Request
		wantSystem    bool
		wantCache     bool
		stopReason    string
		wantTruncated bool
	}{
		{
			name:       "cached system prompt",
			req:        Request{Model: "claude-haiku-4-5-20251001", MaxTokens: 2048, System: "You classify HOA replies.", CacheSystem: true, Prompt: "Analyze this"},
			wantSystem: true,
			wantCache:  true,
			stopReason: "end_turn",
		},
		{
			name:       "uncached system prompt",
			req:        Request{Model: "claude-haiku-4-5-20251001", MaxTokens: 2048, System: "You classify HOA replies.", Prompt: "Analyze this"},
			wantSystem: true,
			stopReason: "end_turn",
		},
		{
			name:          "no system prompt, truncated",
			req:           Request{Model: "claude-haiku-4-5-20251001", MaxTokens: 16, Prompt: "Draft a reply"},
			stopReason:    "max_tokens",
			wantTruncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Contains(t, r.URL.Path, "/messages")

				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.EqualValues(t, tt.req.MaxTokens, body["max_tokens"])

				messages := body["messages"].([]any)
				require.Len(t, messages, 1)
				assert.Equal(t, "user", messages[0].(map[string]any)["role"])

				system, hasSystem := body["system"].([]any)
				assert.Equal(t, tt.wantSystem, hasSystem)
				if hasSystem {
					block := system[0].(map[string]any)
					assert.Equal(t, tt.req.System, block["text"])
					_, cached := block["cache_control"]
					assert.Equal(t, tt.wantCache, cached)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(messageBody(`{"category":"complete_response"}`, tt.stopReason)) //nolint:errcheck
			}))
			defer ts.Close()

			client := NewClient("test-key", option.WithBaseURL(ts.URL))
			resp, err := client.Complete(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "msg_test_001", resp.ID)
			assert.Equal(t, `{"category":"complete_response"}`, resp.Text)
			assert.Equal(t, tt.wantTruncated, resp.Truncated())
			assert.Equal(t, int64(900), resp.Usage.InputTokens)
			assert.Equal(t, int64(800), resp.Usage.CacheReadTokens)
		})
	}
}

func TestComplete_ErrorNotRetried(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "Internal server error"},
		})
	}))
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL))
	_, err := client.Complete(context.Background(), Request{Model: "m", MaxTokens: 10, Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
	assert.Equal(t, 1, calls)
}

func TestFromMessage_JoinsTextBlocks(t *testing.T) {
	msg := &sdk.Message{
		ID:    "msg_1",
		Model: "claude-haiku-4-5-20251001",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: `{"subject":`},
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: `"Re: dues"}`},
		},
		StopReason: "end_turn",
		Usage:      sdk.Usage{InputTokens: 100, OutputTokens: 20, CacheCreationInputTokens: 7},
	}
	resp := fromMessage(msg)
	assert.Equal(t, `{"subject":"Re: dues"}`, resp.Text)
	assert.False(t, resp.Truncated())
	assert.Equal(t, int64(7), resp.Usage.CacheWriteTokens)

	var nilResp *Completion
	assert.False(t, nilResp.Truncated())
}

func TestUsage_Cost(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		model string
		want  float64
	}{
		{"haiku in and out", Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, "claude-haiku-4-5-20251001", 6.00},
		{"sonnet cache", Usage{CacheWriteTokens: 1_000_000, CacheReadTokens: 1_000_000}, "claude-sonnet-4-5-20250929", 3.75 + 0.30},
		{"unknown model", Usage{InputTokens: 1000}, "gpt-unknown", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.usage.Cost(tt.model), 0.0001)
		})
	}
}

func TestUsage_Log(t *testing.T) {
	assert.NotPanics(t, func() {
		Usage{InputTokens: 10}.Log("claude-haiku-4-5-20251001", "analyze")
	})
}
