package scorer

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/hoa-onboard/internal/model"
)

func s(v string) *string { return &v }

func requiredOnly() model.ExtractedData {
	yes := true
	return model.ExtractedData{
		ManagesProperties: &yes,
		RegularDuesAmount: s("$200"),
		PaymentMethod:     s("ACH"),
		PaymentAddress:    s("123 Main"),
		PhoneNumber:       s("555-1111"),
	}
}

func TestCompleteness_Empty(t *testing.T) {
	assert.Equal(t, 0, Completeness(model.ExtractedData{}))
}

func TestCompleteness_RequiredOnly(t *testing.T) {
	assert.Equal(t, 71, Completeness(requiredOnly()))
}

func TestCompleteness_WithOptional(t *testing.T) {
	d := requiredOnly()
	d.MasterHOAName = s("Greater Oaks Master Association")
	d.ManagementCompany = s("Acme PM")
	assert.Equal(t, 85, Completeness(d))

	d.ManagementCompany = nil
	assert.Equal(t, 78, Completeness(d))
}

func TestCompleteness_FalseCountsAsAnswered(t *testing.T) {
	no := false
	assert.Equal(t, 14, Completeness(model.ExtractedData{ManagesProperties: &no}))
}

func TestCompleteness_EmptyStringsIgnored(t *testing.T) {
	d := model.ExtractedData{
		RegularDuesAmount: s(""),
		PaymentMethod:     s(""),
		MasterHOAName:     s(""),
	}
	assert.Equal(t, 0, Completeness(d))
}

func TestCompleteness_PropertiesConfirmationNotScored(t *testing.T) {
	d := model.ExtractedData{PropertiesConfirmation: s("all 40 homes")}
	assert.Equal(t, 0, Completeness(d))
}

func TestProperty_CompletenessMatchesFormula(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	pick := func(on bool, v string) *string {
		if on {
			return &v
		}
		return nil
	}

	properties.Property("score equals floor(min(100, weight/7*100))", prop.ForAll(
		func(flags []bool) bool {
			var d model.ExtractedData
			weight := 0.0
			if flags[0] {
				b := flags[1]
				d.ManagesProperties = &b
				weight++
			}
			required := []**string{&d.RegularDuesAmount, &d.PaymentMethod, &d.PaymentAddress, &d.PhoneNumber}
			for i, f := range required {
				*f = pick(flags[2+i], "x")
				if flags[2+i] {
					weight++
				}
			}
			optional := []**string{&d.MasterHOAName, &d.ManagementCompany}
			for i, f := range optional {
				*f = pick(flags[6+i], "y")
				if flags[6+i] {
					weight += 0.5
				}
			}

			want := int(math.Floor(math.Min(100, weight/7*100)))
			got := Completeness(d)
			return got == want && got >= 0 && got <= 100
		},
		gen.SliceOfN(8, gen.Bool()),
	))

	properties.Property("answering another field never lowers the score", prop.ForAll(
		func(dues, phone string) bool {
			base := model.ExtractedData{RegularDuesAmount: &dues}
			more := base
			more.PhoneNumber = &phone
			return Completeness(more) >= Completeness(base)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
