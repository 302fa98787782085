package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HOA is a Homeowners Association in the directory.
type HOA struct {
	ID           int64  `json:"id" yaml:"-"`
	Name         string `json:"name" yaml:"name" validate:"required,max=200"`
	Address      string `json:"address" yaml:"address"`
	ContactEmail string `json:"contact_email" yaml:"contact_email" validate:"required,email"`
	Phone        string `json:"phone,omitempty" yaml:"phone" validate:"omitempty,max=17,hoaphone"`

	// ManagementCompany is nil when the HOA is self-managed.
	ManagementCompany *string    `json:"management_company,omitempty" yaml:"management_company" validate:"omitempty,max=200"`
	Website           string     `json:"website,omitempty" yaml:"website" validate:"omitempty,url"`
	EstablishedDate   *time.Time `json:"established_date,omitempty" yaml:"established_date"`
	TotalUnits        int        `json:"total_units" yaml:"total_units" validate:"gte=0"`
	MonthlyFeeRange   string     `json:"monthly_fee_range,omitempty" yaml:"monthly_fee_range" validate:"max=50"`
	DemoEmailUsed     string     `json:"demo_email_used,omitempty" yaml:"-" validate:"omitempty,email"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ManagementLabel returns the management company name, or "Self-managed".
func (h HOA) ManagementLabel() string {
	if h.ManagementCompany == nil || *h.ManagementCompany == "" {
		return "Self-managed"
	}
	return *h.ManagementCompany
}

// PropertyType classifies a property managed by an HOA.
type PropertyType string

const (
	PropertyTypeSingleFamily PropertyType = "single_family"
	PropertyTypeTownhouse    PropertyType = "townhouse"
	PropertyTypeCondo        PropertyType = "condo"
	PropertyTypeApartment    PropertyType = "apartment"
	PropertyTypeCommercial   PropertyType = "commercial"
	PropertyTypeOther        PropertyType = "other"
)

// PropertyTypes lists every property type in display order.
var PropertyTypes = []PropertyType{
	PropertyTypeSingleFamily,
	PropertyTypeTownhouse,
	PropertyTypeCondo,
	PropertyTypeApartment,
	PropertyTypeCommercial,
	PropertyTypeOther,
}

var propertyTypeLabels = map[PropertyType]string{
	PropertyTypeSingleFamily: "Single Family Home",
	PropertyTypeTownhouse:    "Townhouse",
	PropertyTypeCondo:        "Condominium",
	PropertyTypeApartment:    "Apartment",
	PropertyTypeCommercial:   "Commercial",
	PropertyTypeOther:        "Other",
}

// Label returns the human-readable name of the property type.
func (t PropertyType) Label() string {
	if l, ok := propertyTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	_, ok := propertyTypeLabels[t]
	return ok
}

// Property is a single property managed by an HOA.
type Property struct {
	ID            int64               `json:"id" yaml:"-"`
	HOAID         int64               `json:"hoa_id" yaml:"-"`
	Address       string              `json:"address" yaml:"address" validate:"required"`
	PropertyType  PropertyType        `json:"property_type" yaml:"property_type" validate:"required,oneof=single_family townhouse condo apartment commercial other"`
	UnitCount     int                 `json:"unit_count" yaml:"unit_count" validate:"gte=1"`
	SquareFootage *int                `json:"square_footage,omitempty" yaml:"square_footage" validate:"omitempty,gt=0"`
	YearBuilt     *int                `json:"year_built,omitempty" yaml:"year_built" validate:"omitempty,gt=0"`
	MonthlyHOAFee decimal.NullDecimal `json:"monthly_hoa_fee" yaml:"-"`
	IsActive      bool                `json:"is_active" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
