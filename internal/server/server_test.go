package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hoa-onboard/internal/classify"
	"github.com/sells-group/hoa-onboard/internal/ingest"
	"github.com/sells-group/hoa-onboard/internal/mail"
	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/resolve"
	"github.com/sells-group/hoa-onboard/internal/store"
)

type fakeProcessor struct {
	st  store.Store
	err error
}

func (f *fakeProcessor) Process(ctx context.Context, id int64) (*model.EmailResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp, err := f.st.GetEmailResponse(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	resp.AIAnalysis = &model.AnalysisResult{Category: model.CategoryCompleteResponse, Confidence: 90}
	resp.AIGeneratedSubject = "Re: thanks"
	resp.AIGeneratedResponse = "<p>Thanks</p>"
	resp.AIProcessedAt = &now
	resp.CompletenessScore = 100
	if err := f.st.SaveAnalysis(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type testEnv struct {
	handler http.Handler
	store   *store.SQLiteStore
}

func newTestEnv(t *testing.T, processor Processor) *testEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	if fp, ok := processor.(*fakeProcessor); ok {
		fp.st = st
	}
	svc := mail.NewService(st,
		mail.NewComposer("noreply@example.com", ""),
		mail.NewSender(mail.SenderConfig{From: "noreply@example.com"}),
		mail.ServiceConfig{InboundAddress: "in@inbound.example"},
	)
	h := NewRouter(Deps{
		Store:       st,
		Ingester:    ingest.New(resolve.NewResolver(st), st),
		Processor:   processor,
		Mailer:      svc,
		PageSize:    2,
		CORSOrigins: []string{"https://admin.example.com"},
	})
	return &testEnv{handler: h, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) seedHOA(t *testing.T, name, email string, activeProps int) *model.HOA {
	t.Helper()
	ctx := context.Background()
	h := &model.HOA{Name: name, ContactEmail: email}
	require.NoError(t, e.store.CreateHOA(ctx, h))
	for i := 0; i < activeProps; i++ {
		require.NoError(t, e.store.CreateProperty(ctx, &model.Property{
			HOAID: h.ID, Address: fmt.Sprintf("%d %s Way", i+1, name),
			PropertyType: model.PropertyTypeCondo, UnitCount: 1, IsActive: true,
		}))
	}
	return h
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/hoas", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)

	assert.Equal(t, "https://admin.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebhook_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.seedHOA(t, "Oak Ridge", "board@oakridge.example", 1)

	rr := env.do(t, http.MethodPost, "/webhook/postmark-inbound",
		`{"From":"board@oakridge.example","Subject":"Re: info","TextBody":"yes","MessageID":"m-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Successfully received email from Oak Ridge", body["message"])

	id := int64(body["email_response_id"].(float64))
	got, err := env.store.GetEmailResponse(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.HOAID)
}

func TestWebhook_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedHOA(t, "Oak Ridge", "board@oakridge.example", 0)
	payload := `{"From":"board@oakridge.example","Subject":"Re: info","MessageID":"m-1"}`
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/webhook/postmark-inbound", payload).Code)

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed", `{"From":`, "Invalid JSON payload"},
		{"not an object", `[1,2]`, "Invalid JSON payload"},
		{"duplicate", payload, "Email with message ID m-1 already processed"},
		{"unknown sender", `{"From":"x@nowhere.example","Subject":"hello","MessageID":"m-2"}`, "Could not identify HOA for email from x@nowhere.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/webhook/postmark-inbound", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.seedHOA(t, "Alpha", "a@example.com", 2)
	env.seedHOA(t, "Beta", "b@example.com", 1)
	require.NoError(t, env.store.CreateProperty(context.Background(), &model.Property{
		HOAID: h.ID, Address: "9 Old Rd", PropertyType: model.PropertyTypeOther, UnitCount: 1, IsActive: false,
	}))

	body := decode(t, env.do(t, http.MethodGet, "/api/dashboard", ""))
	assert.EqualValues(t, 2, body["total_hoas"])
	assert.EqualValues(t, 4, body["total_properties"])
	assert.EqualValues(t, 3, body["active_properties"])
	assert.Len(t, body["recent_hoas"], 2)
}

func TestListHOAs_Paging(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, name := range []string{"Cedar", "Alpha", "Birch"} {
		env.seedHOA(t, name, name+"@example.com", 0)
	}

	first := decode(t, env.do(t, http.MethodGet, "/api/hoas", ""))
	assert.EqualValues(t, 1, first["page"])
	assert.EqualValues(t, 2, first["total_pages"])
	assert.EqualValues(t, 3, first["total"])
	hoas := first["hoas"].([]any)
	require.Len(t, hoas, 2)
	assert.Equal(t, "Alpha", hoas[0].(map[string]any)["name"])
	assert.Equal(t, "Birch", hoas[1].(map[string]any)["name"])

	last := decode(t, env.do(t, http.MethodGet, "/api/hoas?page=99", ""))
	assert.EqualValues(t, 2, last["page"])
	require.Len(t, last["hoas"], 1)

	bad := decode(t, env.do(t, http.MethodGet, "/api/hoas?page=abc", ""))
	assert.EqualValues(t, 1, bad["page"])
}

func TestGetHOA(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.seedHOA(t, "Alpha", "a@example.com", 2)

	rr := env.do(t, http.MethodGet, fmt.Sprintf("/api/hoas/%d", h.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Alpha", body["hoa"].(map[string]any)["name"])
	assert.Len(t, body["properties"], 2)
	assert.Nil(t, body["latest_response"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/hoas/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/hoas/abc", "").Code)
}

func TestEmailPreviewAndSend(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.seedHOA(t, "Alpha", "a@example.com", 1)

	preview := decode(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/hoas/%d/email-preview", h.ID), ""))
	assert.Equal(t, "Property Management Information Request - Alpha", preview["subject"])
	assert.Contains(t, preview["body"], "1 Alpha Way")

	rr := env.do(t, http.MethodPost, fmt.Sprintf("/api/hoas/%d/send-email", h.ID), `{"demo_email":" me@example.com "}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "me@example.com", body["demo_email"])
	assert.Equal(t, "a@example.com", body["original_email"])
	assert.Equal(t, true, body["is_custom_demo_email"])
	assert.Equal(t, true, body["simulated"])

	// An empty body sends to the contact address.
	rr = env.do(t, http.MethodPost, fmt.Sprintf("/api/hoas/%d/send-email", h.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a@example.com", decode(t, rr)["demo_email"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/hoas/999/send-email", "").Code)
}

func ingestOne(t *testing.T, env *testEnv) int64 {
	t.Helper()
	env.seedHOA(t, "Oak Ridge", "board@oakridge.example", 1)
	rr := env.do(t, http.MethodPost, "/webhook/postmark-inbound",
		`{"From":"board@oakridge.example","Subject":"Re: info","TextBody":"yes","MessageID":"m-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	return int64(decode(t, rr)["email_response_id"].(float64))
}

func TestResponses_ListAndShow(t *testing.T) {
	env := newTestEnv(t, nil)
	id := ingestOne(t, env)

	body := decode(t, env.do(t, http.MethodGet, "/api/responses?status=new", ""))
	assert.Len(t, body["email_responses"], 1)

	body = decode(t, env.do(t, http.MethodGet, "/api/responses?status=reviewed", ""))
	assert.Len(t, body["email_responses"], 0)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/responses?status=bogus", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/responses?hoa_id=x", "").Code)

	detail := decode(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/responses/%d", id), ""))
	assert.Equal(t, "m-1", detail["email_response"].(map[string]any)["message_id"])
	assert.Equal(t, "Oak Ridge", detail["hoa"].(map[string]any)["name"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/responses/999", "").Code)
}

func TestMarkReviewed(t *testing.T) {
	env := newTestEnv(t, nil)
	id := ingestOne(t, env)

	rr := env.do(t, http.MethodPost, fmt.Sprintf("/api/responses/%d/mark-reviewed", id), `{"reviewed_by":"ops"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)["email_response"].(map[string]any)
	assert.Equal(t, "reviewed", resp["status"])
	assert.Equal(t, "ops", resp["reviewed_by"])
	assert.NotEmpty(t, resp["reviewed_at"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/responses/999/mark-reviewed", "").Code)
}

func TestParseAndGenerate_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	id := ingestOne(t, env)

	rr := env.do(t, http.MethodPost, fmt.Sprintf("/api/responses/%d/parse-and-generate", id), "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, decode(t, rr)["message"], "HOA_ANTHROPIC_KEY")
}

func TestParseAndGenerate_Failure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"store failure", errors.New("save failed"), http.StatusInternalServerError},
		{"llm failure", eris.Wrap(classify.ErrLLM, "draft: 529 overloaded"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &fakeProcessor{err: tt.err})
			id := ingestOne(t, env)

			rr := env.do(t, http.MethodPost, fmt.Sprintf("/api/responses/%d/parse-and-generate", id), "")
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, decode(t, rr)["message"], tt.err.Error())
		})
	}
}

func TestParseAndGenerateThenSend(t *testing.T) {
	env := newTestEnv(t, &fakeProcessor{})
	id := ingestOne(t, env)

	// Nothing drafted yet.
	rr := env.do(t, http.MethodPost, fmt.Sprintf("/api/responses/%d/send-generated-response", id), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, fmt.Sprintf("/api/responses/%d/parse-and-generate", id), "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Response analyzed as complete_response with 100% completeness", body["message"])

	rr = env.do(t, http.MethodPost, fmt.Sprintf("/api/responses/%d/send-generated-response", id), "")
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode(t, rr)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "board@oakridge.example", body["to"])
	assert.Equal(t, "Re: thanks", body["subject"])

	rr = env.do(t, http.MethodPost, fmt.Sprintf("/api/responses/%d/send-generated-response", id), "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	body = decode(t, rr)
	assert.NotEmpty(t, body["sent_at"])

	got, err := env.store.GetEmailResponse(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.ResponseStatusProcessed, got.Status)
}

func TestSendGenerated_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/responses/42/send-generated-response", "").Code)
}
