// Package seed fills the directory with sample HOAs, either randomly
// generated or loaded from a YAML fixture file.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

var (
	nameSuffixes = []string{"Heights", "Gardens", "Village", "Estates", "Commons", "Ridge", "Park"}

	// An empty entry means self-managed.
	managementCompanies = []string{
		"Premier Property Management",
		"Community Management Associates",
		"HOA Management Solutions",
		"Residential Management Group",
		"Elite Community Services",
		"",
	}
)

// Fixture is an HOA with the properties it manages.
type Fixture struct {
	model.HOA  `yaml:",inline"`
	Properties []PropertyFixture `yaml:"properties"`
}

// PropertyFixture is a property as written in a fixture file. Properties are
// active unless is_active is false.
type PropertyFixture struct {
	model.Property `yaml:",inline"`
	IsActive       *bool  `yaml:"is_active"`
	MonthlyHOAFee  string `yaml:"monthly_hoa_fee"`
}

// Summary counts created records.
type Summary struct {
	HOAs       int
	Properties int
}

// Generator produces random fixtures.
type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewGenerator creates a Generator. A zero seed picks a random one.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: time.Now}
}

// Fixtures generates n HOAs, each with avgProperties±3 properties (at least one).
func (g *Generator) Fixtures(n, avgProperties int) []Fixture {
	out := make([]Fixture, 0, n)
	for range n {
		f := Fixture{HOA: g.hoa()}
		count := g.faker.Number(max(1, avgProperties-3), max(1, avgProperties+3))
		for range count {
			f.Properties = append(f.Properties, g.property())
		}
		out = append(out, f)
	}
	return out
}

func (g *Generator) hoa() model.HOA {
	f := g.faker
	now := g.now()
	established := f.DateRange(now.AddDate(-30, 0, 0), now.AddDate(-1, 0, 0))
	established = time.Date(established.Year(), established.Month(), established.Day(), 0, 0, 0, 0, time.UTC)

	h := model.HOA{
		Name:            fmt.Sprintf("%s %s HOA", f.City(), f.RandomString(nameSuffixes)),
		Address:         f.Address().Address,
		ContactEmail:    f.Email(),
		Phone:           f.Phone(),
		EstablishedDate: &established,
		TotalUnits:      f.Number(50, 500),
		MonthlyFeeRange: fmt.Sprintf("$%d-$%d", f.Number(150, 300), f.Number(350, 600)),
	}
	if company := f.RandomString(managementCompanies); company != "" {
		h.ManagementCompany = &company
	}
	if f.Bool() {
		h.Website = f.URL()
	}
	return h
}

func (g *Generator) property() PropertyFixture {
	f := g.faker
	pt := model.PropertyTypes[f.Number(0, len(model.PropertyTypes)-1)]

	var units int
	switch pt {
	case model.PropertyTypeSingleFamily:
		units = 1
	case model.PropertyTypeTownhouse:
		units = f.Number(1, 3)
	case model.PropertyTypeCondo:
		units = f.Number(1, 2)
	case model.PropertyTypeApartment:
		units = f.Number(4, 50)
	default:
		units = f.Number(1, 10)
	}

	p := PropertyFixture{
		Property: model.Property{
			Address:      f.Address().Address,
			PropertyType: pt,
			UnitCount:    units,
		},
	}
	if f.Bool() {
		sqft := f.Number(800, 3500)
		p.SquareFootage = &sqft
	}
	if f.Bool() {
		year := f.Number(1980, 2023)
		p.YearBuilt = &year
	}
	if f.Bool() {
		p.MonthlyHOAFee = fmt.Sprintf("%d", f.Number(150, 600))
	}
	// Three in four properties are active.
	active := f.Number(1, 4) != 4
	p.IsActive = &active
	return p
}

// Populate validates and stores fixtures. When reset is set, every existing
// HOA, property, and response is deleted first.
func Populate(ctx context.Context, st store.Store, fixtures []Fixture, reset bool) (Summary, error) {
	var sum Summary
	if reset {
		if err := st.DeleteAllHOAs(ctx); err != nil {
			return sum, eris.Wrap(err, "seed: clear existing data")
		}
		zap.L().Info("seed: cleared existing data")
	}

	for i := range fixtures {
		h := fixtures[i].HOA
		if err := h.Validate(); err != nil {
			return sum, eris.Wrapf(err, "seed: fixture %d", i)
		}
		if err := st.CreateHOA(ctx, &h); err != nil {
			return sum, eris.Wrapf(err, "seed: create hoa %q", h.Name)
		}
		sum.HOAs++

		for j, pf := range fixtures[i].Properties {
			p, err := pf.toProperty(h.ID)
			if err != nil {
				return sum, eris.Wrapf(err, "seed: hoa %q property %d", h.Name, j)
			}
			if err := st.CreateProperty(ctx, &p); err != nil {
				return sum, eris.Wrapf(err, "seed: create property %q", p.Address)
			}
			sum.Properties++
		}
	}

	zap.L().Info("seed: populated directory",
		zap.Int("hoas", sum.HOAs),
		zap.Int("properties", sum.Properties),
	)
	return sum, nil
}

func (pf PropertyFixture) toProperty(hoaID int64) (model.Property, error) {
	p := pf.Property
	p.HOAID = hoaID
	p.IsActive = pf.IsActive == nil || *pf.IsActive
	if p.PropertyType == "" {
		p.PropertyType = model.PropertyTypeSingleFamily
	}
	if p.UnitCount == 0 {
		p.UnitCount = 1
	}
	if pf.MonthlyHOAFee != "" {
		fee, err := decimal.NewFromString(pf.MonthlyHOAFee)
		if err != nil {
			return p, eris.Wrapf(err, "monthly_hoa_fee %q", pf.MonthlyHOAFee)
		}
		p.MonthlyHOAFee = decimal.NewNullDecimal(fee)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
