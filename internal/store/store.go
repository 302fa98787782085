// Package store persists HOAs, their properties, and inbound email responses.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/hoa-onboard/internal/model"
)

var (
	// ErrNotFound is returned when a record lookup by id finds nothing.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateMessage is returned when an email response with the same
	// message id already exists. The unique constraint on message_id is the
	// authoritative guard.
	ErrDuplicateMessage = errors.New("store: duplicate message id")

	// ErrAlreadySent is returned when a generated response was already
	// marked as sent.
	ErrAlreadySent = errors.New("store: generated response already sent")
)

// PageFilter limits list queries.
type PageFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ResponseFilter specifies criteria for listing email responses.
type ResponseFilter struct {
	HOAID  int64                `json:"hoa_id,omitempty"`
	Status model.ResponseStatus `json:"status,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// PropertyFilter narrows property listings and counts.
type PropertyFilter struct {
	HOAID      int64 `json:"hoa_id,omitempty"`
	ActiveOnly bool  `json:"active_only,omitempty"`
}

// HOAStore is the read side of the HOA directory used for resolution.
type HOAStore interface {
	// FindHOAsByContactEmail returns HOAs whose contact email equals email,
	// ignoring case.
	FindHOAsByContactEmail(ctx context.Context, email string) ([]model.HOA, error)
	// FindHOAsByName returns HOAs whose name equals name, ignoring case.
	FindHOAsByName(ctx context.Context, name string) ([]model.HOA, error)
	// ListHOAs returns HOAs ordered by name, then id.
	ListHOAs(ctx context.Context, page PageFilter) ([]model.HOA, error)
}

// Store defines the persistence interface for the onboarding workflow.
type Store interface {
	HOAStore

	// HOAs
	CreateHOA(ctx context.Context, h *model.HOA) error
	GetHOA(ctx context.Context, id int64) (*model.HOA, error)
	CountHOAs(ctx context.Context) (int, error)
	RecentHOAs(ctx context.Context, limit int) ([]model.HOA, error)
	SetDemoEmailUsed(ctx context.Context, hoaID int64, email string) error
	DeleteHOA(ctx context.Context, id int64) error
	DeleteAllHOAs(ctx context.Context) error

	// Properties
	CreateProperty(ctx context.Context, p *model.Property) error
	ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error)
	CountProperties(ctx context.Context, filter PropertyFilter) (int, error)

	// Email responses
	CreateEmailResponse(ctx context.Context, r *model.EmailResponse) error
	GetEmailResponse(ctx context.Context, id int64) (*model.EmailResponse, error)
	EmailResponseExists(ctx context.Context, messageID string) (bool, error)
	ListEmailResponses(ctx context.Context, filter ResponseFilter) ([]model.EmailResponse, error)
	LatestEmailResponse(ctx context.Context, hoaID int64) (*model.EmailResponse, error)
	SaveAnalysis(ctx context.Context, r *model.EmailResponse) error
	MarkReviewed(ctx context.Context, id int64, reviewedBy string, at time.Time) error
	MarkGeneratedSent(ctx context.Context, id int64, at time.Time) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100
