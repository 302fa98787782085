package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

var (
	// ErrAlreadySent matches an *AlreadySentError.
	ErrAlreadySent = store.ErrAlreadySent

	// ErrNothingToSend is returned when a response has no drafted reply.
	ErrNothingToSend = errors.New("mail: no generated response to send")
)

// AlreadySentError reports when a generated response went out.
type AlreadySentError struct {
	ResponseID int64
	SentAt     time.Time
}

func (e *AlreadySentError) Error() string {
	return fmt.Sprintf("mail: generated response for %d already sent at %s", e.ResponseID, e.SentAt.Format(time.RFC3339))
}

// Is lets errors.Is(err, ErrAlreadySent) match.
func (e *AlreadySentError) Is(target error) bool {
	return target == ErrAlreadySent
}

// ServiceConfig holds the addresses the Service sends from and redirects to.
type ServiceConfig struct {
	// DemoEmail receives every outbound message when set.
	DemoEmail string
	// InboundAddress is the reply-to address that feeds the inbound webhook.
	InboundAddress string
}

// Service sends onboarding requests and drafted follow-ups.
type Service struct {
	store    store.Store
	composer *Composer
	sender   *Sender
	cfg      ServiceConfig
	now      func() time.Time
}

// NewService creates a Service.
func NewService(s store.Store, composer *Composer, sender *Sender, cfg ServiceConfig) *Service {
	return &Service{store: s, composer: composer, sender: sender, cfg: cfg, now: time.Now}
}

// OnboardingResult describes a sent onboarding email.
type OnboardingResult struct {
	SendResult
	Subject           string `json:"subject"`
	DemoEmail         string `json:"demo_email"`
	OriginalEmail     string `json:"original_email"`
	IsCustomDemoEmail bool   `json:"is_custom_demo_email"`
}

// Preview composes the onboarding email for an HOA without sending it.
func (s *Service) Preview(ctx context.Context, hoaID int64) (*model.HOA, Email, error) {
	hoa, err := s.store.GetHOA(ctx, hoaID)
	if err != nil {
		return nil, Email{}, eris.Wrapf(err, "mail: load hoa %d", hoaID)
	}
	props, err := s.store.ListProperties(ctx, store.PropertyFilter{HOAID: hoaID, ActiveOnly: true})
	if err != nil {
		return nil, Email{}, eris.Wrapf(err, "mail: list properties for hoa %d", hoaID)
	}
	email, err := s.composer.Onboarding(*hoa, props)
	if err != nil {
		return nil, Email{}, err
	}
	return hoa, email, nil
}

// SendOnboarding composes and sends the onboarding email for an HOA. The
// recipient is override when given, else the configured demo address, else
// the HOA's contact email. The address used is recorded on the HOA.
func (s *Service) SendOnboarding(ctx context.Context, hoaID int64, override string) (*OnboardingResult, error) {
	hoa, email, err := s.Preview(ctx, hoaID)
	if err != nil {
		return nil, err
	}

	to := firstNonEmpty(override, s.cfg.DemoEmail, hoa.ContactEmail)
	if to != hoa.ContactEmail {
		zap.L().Info("mail: redirecting onboarding email",
			zap.Int64("hoa_id", hoa.ID),
			zap.String("original", hoa.ContactEmail),
			zap.String("to", to),
		)
	}

	res, err := s.sender.Send(ctx, Message{
		To:      to,
		Subject: email.Subject,
		Body:    email.HTML,
		HTML:    true,
		ReplyTo: s.cfg.InboundAddress,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.SetDemoEmailUsed(ctx, hoa.ID, to); err != nil {
		return nil, eris.Wrapf(err, "mail: record recipient for hoa %d", hoa.ID)
	}

	return &OnboardingResult{
		SendResult:        res,
		Subject:           email.Subject,
		DemoEmail:         to,
		OriginalEmail:     hoa.ContactEmail,
		IsCustomDemoEmail: override != "",
	}, nil
}

// GeneratedResult describes a sent follow-up.
type GeneratedResult struct {
	SendResult
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	SentAt  time.Time `json:"sent_at"`
}

// SendGenerated sends the drafted follow-up for a response as a threaded
// reply, then marks it sent. A response is sent at most once.
func (s *Service) SendGenerated(ctx context.Context, responseID int64) (*GeneratedResult, error) {
	resp, err := s.store.GetEmailResponse(ctx, responseID)
	if err != nil {
		return nil, eris.Wrapf(err, "mail: load response %d", responseID)
	}
	if resp.GeneratedResponseSent {
		return nil, alreadySent(resp)
	}
	if resp.AIGeneratedResponse == "" {
		return nil, eris.Wrapf(ErrNothingToSend, "response %d", responseID)
	}

	hoa, err := s.store.GetHOA(ctx, resp.HOAID)
	if err != nil {
		return nil, eris.Wrapf(err, "mail: load hoa %d", resp.HOAID)
	}

	subject := resp.AIGeneratedSubject
	if subject == "" {
		subject = "Re: " + resp.Subject
	}
	to := firstNonEmpty(hoa.DemoEmailUsed, s.cfg.DemoEmail, resp.FromEmail)

	res, err := s.sender.Send(ctx, Message{
		To:         to,
		Subject:    subject,
		Body:       resp.AIGeneratedResponse,
		HTML:       true,
		ReplyTo:    s.cfg.InboundAddress,
		InReplyTo:  resp.MessageID,
		References: resp.MessageID,
	})
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.store.MarkGeneratedSent(ctx, responseID, at); err != nil {
		if errors.Is(err, store.ErrAlreadySent) {
			// Another request marked it between our read and write.
			zap.L().Warn("mail: generated response sent concurrently", zap.Int64("response_id", responseID))
			if latest, getErr := s.store.GetEmailResponse(ctx, responseID); getErr == nil {
				return nil, alreadySent(latest)
			}
		}
		return nil, eris.Wrapf(err, "mail: mark response %d sent", responseID)
	}

	zap.L().Info("mail: generated response sent",
		zap.Int64("response_id", responseID),
		zap.Int64("hoa_id", hoa.ID),
		zap.String("to", to),
	)
	return &GeneratedResult{SendResult: res, To: to, Subject: subject, SentAt: at}, nil
}

func alreadySent(resp *model.EmailResponse) error {
	e := &AlreadySentError{ResponseID: resp.ID}
	if resp.GeneratedResponseSentAt != nil {
		e.SentAt = *resp.GeneratedResponseSentAt
	}
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
