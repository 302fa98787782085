package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/hoa-onboard/internal/mail"
	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

// ErrNoHOAs is returned when a sample response is requested for an empty
// directory.
var ErrNoHOAs = errors.New("seed: no HOAs found, run seed first")

type fixtureFile struct {
	HOAs []Fixture `yaml:"hoas"`
}

// LoadFixtures reads fixtures from a YAML document with a top-level "hoas"
// list.
func LoadFixtures(r io.Reader) ([]Fixture, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "seed: decode fixtures")
	}
	return f.HOAs, nil
}

// LoadFixtureFile reads fixtures from path.
func LoadFixtureFile(path string) ([]Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: open %s", path)
	}
	defer fh.Close() //nolint:errcheck
	return LoadFixtures(fh)
}

const sampleBody = `Dear Property Management Services Team,

Thank you for reaching out. Here are the answers to your questions:

1. Property Management Verification: Yes, we currently manage all the properties listed in your email.

2. Regular Dues Amount: Our monthly HOA dues are $275 per unit.

3. Preferred Payment Method: We prefer ACH transfers for all payments.

4. Payment Address: Please send all correspondence to:
   %[1]s
   123 Management Way
   Property City, CA 90210

5. Master HOA: There is no master HOA that oversees our association.

6. Phone Number: Our primary business phone number is (555) 123-4567.

7. Management Company: We are currently self-managed.

Please let me know if you need any additional information.

Best regards,
John Smith
Board President
%[1]s`

// SampleResponse stores a complete reply from the first HOA in the
// directory, for trying classification without a live webhook.
func SampleResponse(ctx context.Context, st store.Store) (*model.EmailResponse, error) {
	hoas, err := st.ListHOAs(ctx, store.PageFilter{Limit: 1})
	if err != nil {
		return nil, eris.Wrap(err, "seed: list hoas")
	}
	if len(hoas) == 0 {
		return nil, ErrNoHOAs
	}
	hoa := hoas[0]

	resp := &model.EmailResponse{
		HOAID:       hoa.ID,
		MessageID:   "sample-response-" + uuid.NewString(),
		FromEmail:   hoa.ContactEmail,
		Subject:     "Re: " + mail.OnboardingSubject(hoa.Name),
		RawContent:  `{"sample": "postmark webhook data"}`,
		TextContent: fmt.Sprintf(sampleBody, hoa.Name),
		Status:      model.ResponseStatusNew,
	}
	if err := st.CreateEmailResponse(ctx, resp); err != nil {
		return nil, eris.Wrapf(err, "seed: create sample response for hoa %d", hoa.ID)
	}
	return resp, nil
}
