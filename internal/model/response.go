package model

import "time"

// ResponseStatus is the review workflow state of an email response.
type ResponseStatus string

const (
	ResponseStatusNew       ResponseStatus = "new"
	ResponseStatusReviewed  ResponseStatus = "reviewed"
	ResponseStatusProcessed ResponseStatus = "processed"
)

var statusRank = map[ResponseStatus]int{
	ResponseStatusNew:       0,
	ResponseStatusReviewed:  1,
	ResponseStatusProcessed: 2,
}

// Valid reports whether s is a known status.
func (s ResponseStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next is a forward move.
// Status never moves backwards.
func (s ResponseStatus) CanAdvanceTo(next ResponseStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// EmailResponse is an inbound reply from an HOA plus everything derived
// from it by classification and review.
type EmailResponse struct {
	ID        int64  `json:"id"`
	HOAID     int64  `json:"hoa_id"`
	MessageID string `json:"message_id"`
	FromEmail string `json:"from_email"`
	Subject   string `json:"subject"`

	RawContent  string `json:"raw_content"`
	HTMLContent string `json:"html_content,omitempty"`
	TextContent string `json:"text_content,omitempty"`

	// Answers to the seven onboarding questions, filled by classification.
	Extracted ExtractedData `json:"extracted"`

	AIAnalysis          *AnalysisResult `json:"ai_analysis_result,omitempty"`
	AIGeneratedSubject  string          `json:"ai_generated_subject,omitempty"`
	AIGeneratedResponse string          `json:"ai_generated_response,omitempty"`
	AIReasoning         string          `json:"ai_reasoning,omitempty"`
	AIProcessedAt       *time.Time      `json:"ai_processed_at,omitempty"`
	CompletenessScore   int             `json:"response_completeness_score"`

	Status     ResponseStatus `json:"status"`
	ReviewedBy string         `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`

	GeneratedResponseSent   bool       `json:"generated_response_sent"`
	GeneratedResponseSentAt *time.Time `json:"generated_response_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content returns the text body, falling back to the HTML body.
func (r EmailResponse) Content() string {
	if r.TextContent != "" {
		return r.TextContent
	}
	return r.HTMLContent
}

// ContentPreview returns the first 200 characters of the content.
func (r EmailResponse) ContentPreview() string {
	content := []rune(r.Content())
	if len(content) > 200 {
		return string(content[:200]) + "..."
	}
	return string(content)
}

// InboundEmail is the subset of the email provider's inbound webhook payload
// used for ingestion. Field names match the provider's JSON schema.
type InboundEmail struct {
	From      string `json:"From"`
	Subject   string `json:"Subject"`
	TextBody  string `json:"TextBody"`
	HTMLBody  string `json:"HtmlBody"`
	MessageID string `json:"MessageID"`

	// Raw is the full payload as received.
	Raw string `json:"-"`
}
