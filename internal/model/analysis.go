package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Category is the scenario an HOA reply falls into.
type Category string

const (
	CategoryCompleteResponse          Category = "complete_response"
	CategoryRequestingClarification   Category = "requesting_clarification"
	CategoryIncompleteResponse        Category = "incomplete_response"
	CategoryNoPropertyManagement      Category = "no_property_management"
	CategoryPartialPropertyManagement Category = "partial_property_management"

	// CategoryError marks an analysis whose model call or output could not be used.
	CategoryError Category = "error"
)

// Categories lists the five scenarios a model may choose from.
var Categories = []Category{
	CategoryCompleteResponse,
	CategoryRequestingClarification,
	CategoryIncompleteResponse,
	CategoryNoPropertyManagement,
	CategoryPartialPropertyManagement,
}

// AnalysisResult is the structured output of the analysis prompt.
type AnalysisResult struct {
	Category      Category      `json:"category"`
	Confidence    float64       `json:"confidence"`
	ExtractedData ExtractedData `json:"extracted_data"`
	Reasoning     string        `json:"reasoning"`
}

// FollowUp is a drafted reply produced by the follow-up prompt.
type FollowUp struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Reasoning string `json:"reasoning"`
}

// ExtractedData holds answers to the onboarding questions. A nil field means
// the question was not answered.
type ExtractedData struct {
	ManagesProperties      *bool   `json:"manages_properties"`
	PropertiesConfirmation *string `json:"properties_confirmation"`
	RegularDuesAmount      *string `json:"regular_dues_amount"`
	PaymentMethod          *string `json:"payment_method"`
	PaymentAddress         *string `json:"payment_address"`
	MasterHOAName          *string `json:"master_hoa_name"`
	PhoneNumber            *string `json:"phone_number"`
	ManagementCompany      *string `json:"management_company"`
}

// UnmarshalJSON accepts the loose shapes models tend to emit: booleans as
// strings ("yes", "false"), numbers where text was asked for, and "null" as
// a string.
func (d *ExtractedData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = ExtractedData{}

	if v, ok := raw["manages_properties"]; ok {
		d.ManagesProperties = looseBool(v)
	}
	for key, dst := range map[string]**string{
		"properties_confirmation": &d.PropertiesConfirmation,
		"regular_dues_amount":     &d.RegularDuesAmount,
		"payment_method":          &d.PaymentMethod,
		"payment_address":         &d.PaymentAddress,
		"master_hoa_name":         &d.MasterHOAName,
		"phone_number":            &d.PhoneNumber,
		"management_company":      &d.ManagementCompany,
	} {
		if v, ok := raw[key]; ok {
			*dst = looseString(v)
		}
	}
	return nil
}

// MergeInto copies every answered field onto dst. Fields that are nil or
// empty leave dst untouched.
func (d ExtractedData) MergeInto(dst *ExtractedData) {
	if d.ManagesProperties != nil {
		v := *d.ManagesProperties
		dst.ManagesProperties = &v
	}
	for _, f := range []struct {
		src *string
		dst **string
	}{
		{d.PropertiesConfirmation, &dst.PropertiesConfirmation},
		{d.RegularDuesAmount, &dst.RegularDuesAmount},
		{d.PaymentMethod, &dst.PaymentMethod},
		{d.PaymentAddress, &dst.PaymentAddress},
		{d.MasterHOAName, &dst.MasterHOAName},
		{d.PhoneNumber, &dst.PhoneNumber},
		{d.ManagementCompany, &dst.ManagementCompany},
	} {
		if f.src != nil && *f.src != "" {
			v := *f.src
			*f.dst = &v
		}
	}
}

func looseBool(v json.RawMessage) *bool {
	v = bytes.TrimSpace(v)
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return &b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "y":
			t := true
			return &t
		case "false", "no", "n":
			f := false
			return &f
		}
	}
	return nil
}

func looseString(v json.RawMessage) *string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "null") {
			return nil
		}
		return &s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		s = n.String()
		return &s
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		s = strconv.FormatBool(b)
		return &s
	}
	return nil
}
