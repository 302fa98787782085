// Package server exposes the onboarding workflow over HTTP: the inbound
// email webhook plus a JSON API for the directory and the review queue.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/ingest"
	"github.com/sells-group/hoa-onboard/internal/mail"
	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

const maxWebhookBytes = 10 << 20

// Ingester stores inbound webhook deliveries.
type Ingester interface {
	Ingest(ctx context.Context, email model.InboundEmail) (*ingest.Result, error)
}

// Processor classifies a stored response and drafts a follow-up.
type Processor interface {
	Process(ctx context.Context, responseID int64) (*model.EmailResponse, error)
}

// Mailer composes and sends outbound email.
type Mailer interface {
	Preview(ctx context.Context, hoaID int64) (*model.HOA, mail.Email, error)
	SendOnboarding(ctx context.Context, hoaID int64, override string) (*mail.OnboardingResult, error)
	SendGenerated(ctx context.Context, responseID int64) (*mail.GeneratedResult, error)
}

// Deps are the collaborators the router dispatches to. Processor may be nil
// when no LLM credential is configured.
type Deps struct {
	Store       store.Store
	Ingester    Ingester
	Processor   Processor
	Mailer      Mailer
	PageSize    int
	CORSOrigins []string
}

type server struct {
	Deps
	now func() time.Time
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	if d.PageSize <= 0 {
		d.PageSize = 12
	}
	s := &server{Deps: d, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)
	r.Post("/webhook/postmark-inbound", s.postmarkInbound)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.dashboard)

		r.Get("/hoas", s.listHOAs)
		r.Route("/hoas/{id}", func(r chi.Router) {
			r.Get("/", s.getHOA)
			r.Get("/email-preview", s.emailPreview)
			r.Post("/send-email", s.sendEmail)
		})

		r.Get("/responses", s.listResponses)
		r.Route("/responses/{id}", func(r chi.Router) {
			r.Get("/", s.getResponse)
			r.Post("/mark-reviewed", s.markReviewed)
			r.Post("/parse-and-generate", s.parseAndGenerate)
			r.Post("/send-generated-response", s.sendGenerated)
		})
	})

	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

// apiError is the body of every failed request.
type apiError struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	SentAt  *time.Time `json:"sent_at,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Status: "error", Message: message})
}

// idParam parses the {id} URL parameter. It writes a 400 and returns false
// when the id is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
