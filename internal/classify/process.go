package classify

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/scorer"
	"github.com/sells-group/hoa-onboard/internal/store"
)

// Analyzer is implemented by Classifier.
type Analyzer interface {
	Analyze(ctx context.Context, hoa model.HOA, propertyCount int, content string) model.AnalysisResult
	Draft(ctx context.Context, hoa model.HOA, resp model.EmailResponse, analysis model.AnalysisResult) model.FollowUp
}

// Processor runs analysis and drafting for a stored response and saves the
// outcome in one transaction.
type Processor struct {
	store    store.Store
	analyzer Analyzer
	now      func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(s store.Store, a Analyzer) *Processor {
	return &Processor{store: s, analyzer: a, now: time.Now}
}

// Process classifies the response, drafts a follow-up, merges the extracted
// answers onto the response, scores it, and persists everything atomically.
// On error the stored record is left as it was.
func (p *Processor) Process(ctx context.Context, responseID int64) (*model.EmailResponse, error) {
	resp, err := p.store.GetEmailResponse(ctx, responseID)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: load response %d", responseID)
	}
	hoa, err := p.store.GetHOA(ctx, resp.HOAID)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: load hoa %d", resp.HOAID)
	}
	count, err := p.store.CountProperties(ctx, store.PropertyFilter{HOAID: hoa.ID})
	if err != nil {
		return nil, eris.Wrapf(err, "classify: count properties for hoa %d", hoa.ID)
	}

	analysis := p.analyzer.Analyze(ctx, *hoa, count, resp.Content())
	followUp := p.analyzer.Draft(ctx, *hoa, *resp, analysis)

	updated := Apply(*resp, analysis, followUp, p.now().UTC())
	if err := p.store.SaveAnalysis(ctx, &updated); err != nil {
		zap.L().Error("classify: failed to save analysis",
			zap.Int64("response_id", responseID),
			zap.Error(err),
		)
		return nil, eris.Wrapf(err, "classify: save response %d", responseID)
	}

	zap.L().Info("classify: processed response",
		zap.Int64("response_id", responseID),
		zap.Int64("hoa_id", hoa.ID),
		zap.String("category", string(analysis.Category)),
		zap.Int("score", updated.CompletenessScore),
	)
	return &updated, nil
}

// Apply returns a copy of resp carrying the analysis and draft. Answered
// fields overwrite earlier values; unanswered ones keep them. The score is
// computed from this analysis's answers alone.
func Apply(resp model.EmailResponse, analysis model.AnalysisResult, followUp model.FollowUp, at time.Time) model.EmailResponse {
	a := analysis
	resp.AIAnalysis = &a
	resp.AIGeneratedSubject = followUp.Subject
	resp.AIGeneratedResponse = followUp.Body
	resp.AIReasoning = followUp.Reasoning
	resp.AIProcessedAt = &at

	// MergeInto swaps pointers, so the caller's copy is not modified.
	analysis.ExtractedData.MergeInto(&resp.Extracted)

	resp.CompletenessScore = scorer.Completeness(analysis.ExtractedData)
	return resp
}
