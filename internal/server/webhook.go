package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/ingest"
	"github.com/sells-group/hoa-onboard/internal/resolve"
)

type webhookBody struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	EmailResponseID int64  `json:"email_response_id"`
}

// postmarkInbound receives Postmark's inbound webhook. Rejections the sender
// cannot fix by retrying (unknown HOA, duplicate) get a 400.
func (s *server) postmarkInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	email, err := ingest.ParsePayload(body)
	if err != nil {
		zap.L().Error("server: invalid json in webhook payload", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	res, err := s.Ingester.Ingest(r.Context(), email)
	switch {
	case err == nil:
	case errors.Is(err, resolve.ErrHOANotFound):
		zap.L().Warn("server: webhook rejected", zap.String("from", email.From), zap.Error(err))
		writeError(w, http.StatusBadRequest, "Could not identify HOA for email from "+email.From)
		return
	case errors.Is(err, ingest.ErrDuplicate):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Email with message ID %s already processed", email.MessageID))
		return
	default:
		zap.L().Error("server: webhook processing error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Processing error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, webhookBody{
		Status:          "success",
		Message:         "Successfully received email from " + res.HOA.Name,
		EmailResponseID: res.ResponseID,
	})
}
