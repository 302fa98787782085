package mail

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/pkg/postmark"
)

// ErrSendFailed wraps a rejected or failed provider call.
var ErrSendFailed = errors.New("mail: send failed")

// PlaceholderToken is the sample token shipped in example configs. It counts
// as unconfigured.
const PlaceholderToken = "your_postmark_api_token_here"

// Message is an outbound email.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
	HTML    bool
	ReplyTo string

	// Threading headers; empty values are omitted.
	InReplyTo  string
	References string
}

// SendResult describes an accepted message.
type SendResult struct {
	MessageID string `json:"message_id"`
	Simulated bool   `json:"simulated"`
}

// Sender delivers messages through Postmark. A Sender without a client
// simulates delivery.
type Sender struct {
	client  postmark.Client
	from    string
	timeout time.Duration
}

// SenderConfig configures NewSender.
type SenderConfig struct {
	Token     string
	BaseURL   string
	From      string
	Timeout   time.Duration
	RateLimit float64
}

// Configured reports whether token is a usable Postmark server token.
func Configured(token string) bool {
	return token != "" && token != PlaceholderToken
}

// NewSender builds a Sender. When the token is unset or the placeholder,
// sending is simulated and no network call is ever made.
func NewSender(cfg SenderConfig) *Sender {
	var client postmark.Client
	if Configured(cfg.Token) {
		client = postmark.NewClient(cfg.Token,
			postmark.WithBaseURL(cfg.BaseURL),
			postmark.WithRateLimit(cfg.RateLimit),
		)
	} else {
		zap.L().Warn("mail: postmark token not configured, email sending will be simulated")
	}
	return newSender(client, cfg.From, cfg.Timeout)
}

func newSender(client postmark.Client, from string, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{client: client, from: from, timeout: timeout}
}

// Simulated reports whether the sender runs without a provider.
func (s *Sender) Simulated() bool {
	return s.client == nil
}

// Send delivers msg once. Failures are not retried.
func (s *Sender) Send(ctx context.Context, msg Message) (SendResult, error) {
	if msg.From == "" {
		msg.From = s.from
	}

	if s.client == nil {
		preview := []rune(msg.Body)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		zap.L().Info("mail: simulated email send",
			zap.String("to", msg.To),
			zap.String("from", msg.From),
			zap.String("subject", msg.Subject),
			zap.String("body_preview", string(preview)),
		)
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(msg.To+msg.Subject))
		return SendResult{MessageID: "simulated-" + id.String(), Simulated: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.SendEmail(ctx, toPostmark(msg))
	if err != nil {
		zap.L().Error("mail: send failed", zap.String("to", msg.To), zap.Error(err))
		return SendResult{}, eris.Wrapf(ErrSendFailed, "to %s: %v", msg.To, err)
	}

	zap.L().Info("mail: email sent",
		zap.String("to", msg.To),
		zap.String("message_id", resp.MessageID),
	)
	return SendResult{MessageID: resp.MessageID}, nil
}

func toPostmark(msg Message) postmark.Email {
	email := postmark.Email{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		ReplyTo: msg.ReplyTo,
	}
	if msg.HTML {
		email.HTMLBody = msg.Body
	} else {
		email.TextBody = msg.Body
	}
	if msg.InReplyTo != "" {
		email.Headers = append(email.Headers, postmark.Header{Name: "In-Reply-To", Value: msg.InReplyTo})
	}
	if msg.References != "" {
		email.Headers = append(email.Headers, postmark.Header{Name: "References", Value: msg.References})
	}
	return email
}
