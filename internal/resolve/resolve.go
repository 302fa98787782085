// Package resolve maps an inbound email's sender and subject to the HOA it
// came from.
package resolve

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

// ErrHOANotFound is returned when no pass matches an HOA.
var ErrHOANotFound = errors.New("resolve: hoa not found")

// SubjectMarker identifies replies to the onboarding email. The outbound
// subject is "Property Management Information Request - {HOA name}".
const SubjectMarker = "Property Management Information Request"

const nameSeparator = " - "

// Resolver finds the HOA an inbound email belongs to.
type Resolver struct {
	store store.HOAStore
}

// NewResolver creates a Resolver backed by the HOA directory.
func NewResolver(s store.HOAStore) *Resolver {
	return &Resolver{store: s}
}

// Resolve runs three passes in order and returns the first match:
//  1. Sender address equals a contact email (case-insensitive, exactly one HOA)
//  2. Name after the last " - " in an onboarding reply subject (exactly one HOA)
//  3. First HOA, by name then id, whose name appears in the subject
//
// When nothing matches it returns an error wrapping ErrHOANotFound.
func (r *Resolver) Resolve(ctx context.Context, from, subject string) (*model.HOA, error) {
	addr := Address(from)

	// Pass 1: contact email.
	if addr != "" {
		hoas, err := r.store.FindHOAsByContactEmail(ctx, addr)
		if err != nil {
			return nil, eris.Wrap(err, "resolve: by contact email")
		}
		if len(hoas) == 1 {
			zap.L().Debug("resolve: matched by contact email",
				zap.String("from", addr),
				zap.Int64("hoa_id", hoas[0].ID),
			)
			return &hoas[0], nil
		}
		if len(hoas) > 1 {
			zap.L().Debug("resolve: contact email is ambiguous",
				zap.String("from", addr),
				zap.Int("matches", len(hoas)),
			)
		}
	}

	// Pass 2: name embedded in the onboarding subject.
	if name, ok := NameFromSubject(subject); ok {
		hoas, err := r.store.FindHOAsByName(ctx, name)
		if err != nil {
			return nil, eris.Wrap(err, "resolve: by subject name")
		}
		if len(hoas) == 1 {
			zap.L().Debug("resolve: matched by subject name",
				zap.String("name", name),
				zap.Int64("hoa_id", hoas[0].ID),
			)
			return &hoas[0], nil
		}
	}

	// Pass 3: any HOA name contained in the subject.
	hoas, err := r.store.ListHOAs(ctx, store.PageFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "resolve: list hoas")
	}
	fold := cases.Fold()
	folded := fold.String(subject)
	for i := range hoas {
		name := fold.String(strings.TrimSpace(hoas[i].Name))
		if name == "" {
			continue
		}
		if strings.Contains(folded, name) {
			zap.L().Debug("resolve: matched by subject substring",
				zap.String("subject", subject),
				zap.Int64("hoa_id", hoas[i].ID),
			)
			return &hoas[i], nil
		}
	}

	zap.L().Warn("resolve: no hoa matched inbound email",
		zap.String("from", from),
		zap.String("subject", subject),
	)
	return nil, eris.Wrapf(ErrHOANotFound, "no HOA found for sender %s", from)
}

// NameFromSubject extracts the HOA name from an onboarding reply subject: the
// trimmed text after the last " - ". ok is false when the subject lacks the
// marker or the separator.
func NameFromSubject(subject string) (string, bool) {
	if !strings.Contains(subject, SubjectMarker) {
		return "", false
	}
	i := strings.LastIndex(subject, nameSeparator)
	if i < 0 {
		return "", false
	}
	name := strings.TrimSpace(subject[i+len(nameSeparator):])
	return name, name != ""
}

// Address returns the bare address of an RFC 5322 sender such as
// "Jane Doe <jane@example.com>". Unparseable input is returned trimmed.
func Address(from string) string {
	from = strings.TrimSpace(from)
	if a, err := mail.ParseAddress(from); err == nil {
		return a.Address
	}
	return from
}
