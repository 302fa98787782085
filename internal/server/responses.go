package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/classify"
	"github.com/sells-group/hoa-onboard/internal/mail"
	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

func (s *server) listResponses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.ResponseFilter

	if v := q.Get("status"); v != "" {
		status := model.ResponseStatus(v)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", v))
			return
		}
		filter.Status = status
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+key)
				return
			}
			*dst = n
		}
	}
	if v := q.Get("hoa_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid hoa_id")
			return
		}
		filter.HOAID = id
	}

	list, err := s.Store.ListEmailResponses(r.Context(), filter)
	if err != nil {
		s.internalError(w, "list responses", err)
		return
	}
	if list == nil {
		list = []model.EmailResponse{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"email_responses": list})
}

type responseDetail struct {
	EmailResponse *model.EmailResponse `json:"email_response"`
	HOA           *model.HOA           `json:"hoa"`
}

func (s *server) getResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	resp, err := s.Store.GetEmailResponse(r.Context(), id)
	if err != nil {
		s.lookupError(w, "Email response", err)
		return
	}
	hoa, err := s.Store.GetHOA(r.Context(), resp.HOAID)
	if err != nil {
		s.lookupError(w, "HOA", err)
		return
	}
	writeJSON(w, http.StatusOK, responseDetail{EmailResponse: resp, HOA: hoa})
}

type markReviewedRequest struct {
	ReviewedBy string `json:"reviewed_by"`
}

type responseResult struct {
	Status        string               `json:"status"`
	Message       string               `json:"message"`
	EmailResponse *model.EmailResponse `json:"email_response"`
}

func (s *server) markReviewed(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req markReviewedRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	ctx := r.Context()
	if err := s.Store.MarkReviewed(ctx, id, req.ReviewedBy, s.now().UTC()); err != nil {
		s.lookupError(w, "Email response", err)
		return
	}
	resp, err := s.Store.GetEmailResponse(ctx, id)
	if err != nil {
		s.lookupError(w, "Email response", err)
		return
	}
	writeJSON(w, http.StatusOK, responseResult{
		Status:        "success",
		Message:       "Response marked as reviewed",
		EmailResponse: resp,
	})
}

func (s *server) parseAndGenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if s.Processor == nil {
		writeError(w, http.StatusServiceUnavailable, "LLM analysis is not configured: set HOA_ANTHROPIC_KEY")
		return
	}

	resp, err := s.Processor.Process(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Email response not found")
			return
		}
		zap.L().Error("server: parse and generate failed", zap.Int64("response_id", id), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, classify.ErrLLM) {
			status = http.StatusBadGateway
		}
		writeError(w, status, "Error processing response: "+err.Error())
		return
	}

	msg := fmt.Sprintf("Response analyzed as %s with %d%% completeness", resp.AIAnalysis.Category, resp.CompletenessScore)
	if resp.AIAnalysis.Category == model.CategoryError {
		msg = "Analysis failed: " + resp.AIAnalysis.Reasoning
	}
	writeJSON(w, http.StatusOK, responseResult{Status: "success", Message: msg, EmailResponse: resp})
}

type sendGeneratedBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*mail.GeneratedResult
}

func (s *server) sendGenerated(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	res, err := s.Mailer.SendGenerated(r.Context(), id)
	if err != nil {
		var already *mail.AlreadySentError
		switch {
		case errors.As(err, &already):
			sentAt := already.SentAt
			writeJSON(w, http.StatusConflict, apiError{
				Status:  "error",
				Message: "Generated response was already sent",
				SentAt:  &sentAt,
			})
		case errors.Is(err, mail.ErrNothingToSend):
			writeError(w, http.StatusBadRequest, "No generated response to send. Run parse-and-generate first.")
		case errors.Is(err, mail.ErrSendFailed):
			writeError(w, http.StatusBadGateway, "Failed to send email: "+err.Error())
		default:
			s.lookupError(w, "Email response", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, sendGeneratedBody{
		Status:          "success",
		Message:         "Generated response sent to " + res.To,
		GeneratedResult: res,
	})
}
