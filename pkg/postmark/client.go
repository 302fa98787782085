// Package postmark sends transactional email through the Postmark API.
package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.postmarkapp.com"

// Client sends single emails.
type Client interface {
	SendEmail(ctx context.Context, email Email) (*SendResponse, error)
}

// Email is the request body for POST /email.
type Email struct {
	From          string   `json:"From"`
	To            string   `json:"To"`
	Subject       string   `json:"Subject"`
	HTMLBody      string   `json:"HtmlBody,omitempty"`
	TextBody      string   `json:"TextBody,omitempty"`
	ReplyTo       string   `json:"ReplyTo,omitempty"`
	Tag           string   `json:"Tag,omitempty"`
	Headers       []Header `json:"Headers,omitempty"`
	MessageStream string   `json:"MessageStream,omitempty"`
}

// Header is a custom email header.
type Header struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// SendResponse is the response from POST /email.
type SendResponse struct {
	To          string    `json:"To"`
	SubmittedAt time.Time `json:"SubmittedAt"`
	MessageID   string    `json:"MessageID"`
	ErrorCode   int       `json:"ErrorCode"`
	Message     string    `json:"Message"`
}

// APIError is returned when Postmark rejects a request.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("postmark: status %d (code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Postmark client authenticated with a server token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SendEmail(ctx context.Context, email Email) (*SendResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "postmark: rate limit")
		}
	}

	body, err := json.Marshal(email)
	if err != nil {
		return nil, eris.Wrap(err, "postmark: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "postmark: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "postmark: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "postmark: read response")
	}

	var result SendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		}
		return nil, eris.Wrap(err, "postmark: unmarshal response")
	}
	if resp.StatusCode != http.StatusOK || result.ErrorCode != 0 {
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorCode: result.ErrorCode, Message: result.Message}
	}
	return &result, nil
}
