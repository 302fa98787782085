// Package ingest turns inbound webhook deliveries into stored email responses.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/resolve"
	"github.com/sells-group/hoa-onboard/internal/store"
)

var (
	// ErrMalformedPayload is returned when the webhook body is not a JSON object.
	ErrMalformedPayload = errors.New("ingest: malformed payload")

	// ErrDuplicate is returned when the message id was already ingested.
	// Redelivery is expected and safe to acknowledge.
	ErrDuplicate = errors.New("ingest: duplicate message")
)

// HOAResolver finds the HOA an email belongs to.
type HOAResolver interface {
	Resolve(ctx context.Context, from, subject string) (*model.HOA, error)
}

// ResponseStore is the subset of store.Store the ingestor writes to.
type ResponseStore interface {
	EmailResponseExists(ctx context.Context, messageID string) (bool, error)
	CreateEmailResponse(ctx context.Context, r *model.EmailResponse) error
}

// ParsePayload decodes a webhook body. Absent fields are left empty and the
// body is kept verbatim in Raw.
func ParsePayload(body []byte) (model.InboundEmail, error) {
	var in model.InboundEmail
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return in, eris.Wrap(ErrMalformedPayload, "expected a JSON object")
	}
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return model.InboundEmail{}, eris.Wrapf(ErrMalformedPayload, "decode: %v", err)
	}
	in.Raw = string(body)
	return in, nil
}

// Result identifies a stored response and the HOA it was matched to.
type Result struct {
	ResponseID int64
	HOA        model.HOA
}

// Ingestor stores inbound replies against the HOA they came from. It does not
// parse content; classification happens later on operator request.
type Ingestor struct {
	resolver HOAResolver
	store    ResponseStore
}

// New creates an Ingestor.
func New(resolver HOAResolver, s ResponseStore) *Ingestor {
	return &Ingestor{resolver: resolver, store: s}
}

// Ingest resolves the HOA, rejects duplicates, and creates a new response.
// Errors wrap resolve.ErrHOANotFound or
// ErrDuplicate for the expected rejections.
func (in *Ingestor) Ingest(ctx context.Context, email model.InboundEmail) (*Result, error) {
	hoa, err := in.resolver.Resolve(ctx, email.From, email.Subject)
	if err != nil {
		if errors.Is(err, resolve.ErrHOANotFound) {
			return nil, eris.Wrapf(err, "ingest: could not find HOA for email from %s", email.From)
		}
		return nil, eris.Wrap(err, "ingest: resolve hoa")
	}

	exists, err := in.store.EmailResponseExists(ctx, email.MessageID)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: check duplicate")
	}
	if exists {
		return nil, in.duplicate(email)
	}

	raw := email.Raw
	if raw == "" {
		b, err := json.Marshal(email)
		if err != nil {
			return nil, eris.Wrap(err, "ingest: marshal raw content")
		}
		raw = string(b)
	}

	resp := &model.EmailResponse{
		HOAID:       hoa.ID,
		MessageID:   email.MessageID,
		FromEmail:   email.From,
		Subject:     email.Subject,
		RawContent:  raw,
		HTMLContent: email.HTMLBody,
		TextContent: email.TextBody,
		Status:      model.ResponseStatusNew,
	}
	if err := in.store.CreateEmailResponse(ctx, resp); err != nil {
		if errors.Is(err, store.ErrDuplicateMessage) {
			return nil, in.duplicate(email)
		}
		return nil, eris.Wrap(err, "ingest: create email response")
	}

	zap.L().Info("ingest: stored email response",
		zap.Int64("response_id", resp.ID),
		zap.Int64("hoa_id", hoa.ID),
		zap.String("message_id", email.MessageID),
	)
	return &Result{ResponseID: resp.ID, HOA: *hoa}, nil
}

func (in *Ingestor) duplicate(email model.InboundEmail) error {
	zap.L().Info("ingest: message already processed",
		zap.String("message_id", email.MessageID),
		zap.String("from", email.From),
	)
	return eris.Wrapf(ErrDuplicate, "email %s already processed", email.MessageID)
}
