// Package mail composes onboarding emails and sends outbound mail through
// Postmark, or simulates sending when Postmark is not configured.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/resolve"
)

const (
	htmlPropertyLimit = 15
	textPropertyLimit = 10
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var onboardingTmpl = template.Must(template.ParseFS(templateFS, "templates/onboarding.html.tmpl"))

type question struct {
	Title  string
	Prompt string
}

var onboardingQuestions = []question{
	{"Property Management Verification", "Do you currently manage all the properties listed above? If not, please specify which properties should be added or removed."},
	{"Regular Dues Amount", "What is the amount of regular HOA dues in dollars (monthly/quarterly/annually)?"},
	{"Preferred Payment Method", "What is your preferred payment method? (Check, ACH transfer, online payment, wire transfer, etc.)"},
	{"Payment Address", "What is the mailing address for HOA payments and correspondence?"},
	{"Master HOA", "Is there a master HOA that oversees your HOA? If yes, please provide the name."},
	{"Phone Number", "Please confirm or provide the primary phone number for HOA business."},
	{"Management Company", "Please confirm the name of your management company, or indicate if the HOA is self-managed."},
}

// Email is a composed message ready to send.
type Email struct {
	Subject string `json:"subject"`
	HTML    string `json:"body"`
	Text    string `json:"text_body"`
}

// Composer renders onboarding emails.
type Composer struct {
	From     string
	TeamName string
}

// NewComposer creates a Composer signing as teamName from the given address.
func NewComposer(from, teamName string) *Composer {
	if teamName == "" {
		teamName = "Property Management Services Team"
	}
	return &Composer{From: from, TeamName: teamName}
}

// OnboardingSubject is the subject line of the onboarding email. Replies
// keep it, which lets the resolver match the HOA by name.
func OnboardingSubject(hoaName string) string {
	return resolve.SubjectMarker + " - " + hoaName
}

// Onboarding composes the request for information sent to an HOA. props are
// the HOA's active properties in display order.
func (c *Composer) Onboarding(hoa model.HOA, props []model.Property) (Email, error) {
	shown := props
	if len(shown) > htmlPropertyLimit {
		shown = shown[:htmlPropertyLimit]
	}

	var buf bytes.Buffer
	err := onboardingTmpl.Execute(&buf, struct {
		HOA        model.HOA
		Properties []model.Property
		Total      int
		Remaining  int
		Questions  []question
		From       string
		TeamName   string
	}{
		HOA:        hoa,
		Properties: shown,
		Total:      len(props),
		Remaining:  len(props) - len(shown),
		Questions:  onboardingQuestions,
		From:       c.From,
		TeamName:   c.TeamName,
	})
	if err != nil {
		return Email{}, eris.Wrapf(err, "mail: render onboarding for hoa %d", hoa.ID)
	}

	return Email{
		Subject: OnboardingSubject(hoa.Name),
		HTML:    buf.String(),
		Text:    propertyList(props),
	}, nil
}

// propertyList is the plain-text bullet list of properties.
func propertyList(props []model.Property) string {
	var b strings.Builder
	for i, p := range props {
		if i == textPropertyLimit {
			fmt.Fprintf(&b, "... and %d more properties\n", len(props)-textPropertyLimit)
			break
		}
		fmt.Fprintf(&b, "• %s (%s)\n", p.Address, p.PropertyType.Label())
	}
	return strings.TrimSuffix(b.String(), "\n")
}
