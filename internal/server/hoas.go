package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/mail"
	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

const recentHOACount = 6

type dashboardBody struct {
	TotalHOAs        int         `json:"total_hoas"`
	TotalProperties  int         `json:"total_properties"`
	ActiveProperties int         `json:"active_properties"`
	RecentHOAs       []model.HOA `json:"recent_hoas"`
}

func (s *server) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body dashboardBody
	var err error

	if body.TotalHOAs, err = s.Store.CountHOAs(ctx); err != nil {
		s.internalError(w, "count hoas", err)
		return
	}
	if body.TotalProperties, err = s.Store.CountProperties(ctx, store.PropertyFilter{}); err != nil {
		s.internalError(w, "count properties", err)
		return
	}
	if body.ActiveProperties, err = s.Store.CountProperties(ctx, store.PropertyFilter{ActiveOnly: true}); err != nil {
		s.internalError(w, "count active properties", err)
		return
	}
	if body.RecentHOAs, err = s.Store.RecentHOAs(ctx, recentHOACount); err != nil {
		s.internalError(w, "recent hoas", err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

type hoaPage struct {
	HOAs       []model.HOA `json:"hoas"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	Total      int         `json:"total"`
}

// listHOAs pages through the directory by name. An unparseable page falls
// back to the first page and a page past the end to the last one.
func (s *server) listHOAs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := s.Store.CountHOAs(ctx)
	if err != nil {
		s.internalError(w, "count hoas", err)
		return
	}

	totalPages := max(1, (total+s.PageSize-1)/s.PageSize)
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	page = min(page, totalPages)

	hoas, err := s.Store.ListHOAs(ctx, store.PageFilter{Limit: s.PageSize, Offset: (page - 1) * s.PageSize})
	if err != nil {
		s.internalError(w, "list hoas", err)
		return
	}
	if hoas == nil {
		hoas = []model.HOA{}
	}
	writeJSON(w, http.StatusOK, hoaPage{
		HOAs:       hoas,
		Page:       page,
		PageSize:   s.PageSize,
		TotalPages: totalPages,
		Total:      total,
	})
}

type hoaDetail struct {
	HOA            model.HOA            `json:"hoa"`
	Properties     []model.Property     `json:"properties"`
	LatestResponse *model.EmailResponse `json:"latest_response"`
}

func (s *server) getHOA(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	hoa, err := s.Store.GetHOA(ctx, id)
	if err != nil {
		s.lookupError(w, "HOA", err)
		return
	}
	props, err := s.Store.ListProperties(ctx, store.PropertyFilter{HOAID: id, ActiveOnly: true})
	if err != nil {
		s.internalError(w, "list properties", err)
		return
	}
	if props == nil {
		props = []model.Property{}
	}
	latest, err := s.Store.LatestEmailResponse(ctx, id)
	if err != nil {
		s.internalError(w, "latest response", err)
		return
	}
	writeJSON(w, http.StatusOK, hoaDetail{HOA: *hoa, Properties: props, LatestResponse: latest})
}

type emailPreview struct {
	HOA     model.HOA `json:"hoa"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}

func (s *server) emailPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	hoa, email, err := s.Mailer.Preview(r.Context(), id)
	if err != nil {
		s.lookupError(w, "HOA", err)
		return
	}
	writeJSON(w, http.StatusOK, emailPreview{HOA: *hoa, Subject: email.Subject, Body: email.HTML})
}

type sendEmailRequest struct {
	DemoEmail string `json:"demo_email"`
}

type sendEmailBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*mail.OnboardingResult
}

func (s *server) sendEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req sendEmailRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	res, err := s.Mailer.SendOnboarding(r.Context(), id, strings.TrimSpace(req.DemoEmail))
	switch {
	case err == nil:
	case errors.Is(err, mail.ErrSendFailed):
		writeError(w, http.StatusBadGateway, "Failed to send email: "+err.Error())
		return
	default:
		s.lookupError(w, "HOA", err)
		return
	}

	msg := "Email sent to " + res.DemoEmail
	if res.Simulated {
		msg = "Email simulated for " + res.DemoEmail + " (Postmark not configured)"
	}
	writeJSON(w, http.StatusOK, sendEmailBody{Status: "success", Message: msg, OnboardingResult: res})
}

// decodeOptional decodes a JSON body into v. An empty body is not an error.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// lookupError maps store.ErrNotFound to 404 and anything else to 500.
func (s *server) lookupError(w http.ResponseWriter, entity string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, entity+" not found")
		return
	}
	s.internalError(w, "load "+strings.ToLower(entity), err)
}

func (s *server) internalError(w http.ResponseWriter, action string, err error) {
	zap.L().Error("server: "+action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal error: "+action)
}
