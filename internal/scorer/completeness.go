// Package scorer computes how completely an HOA answered the onboarding
// questions.
package scorer

import "github.com/sells-group/hoa-onboard/internal/model"

// questionCount is the fixed divisor of the score. The two optional fields
// share it, so they can add at most one question's worth of points.
const questionCount = 7

// Completeness returns floor(min(100, answered/7*100)) where each answered
// required field counts 1 and each answered optional field counts 0.5.
//
// Required: manages_properties, regular_dues_amount, payment_method,
// payment_address, phone_number. Optional: master_hoa_name,
// management_company. A string field is answered when non-nil and non-empty.
func Completeness(d model.ExtractedData) int {
	// Work in half-points so the result is exact integer arithmetic.
	halves := 0
	if d.ManagesProperties != nil {
		halves += 2
	}
	for _, f := range []*string{d.RegularDuesAmount, d.PaymentMethod, d.PaymentAddress, d.PhoneNumber} {
		if answered(f) {
			halves += 2
		}
	}
	for _, f := range []*string{d.MasterHOAName, d.ManagementCompany} {
		if answered(f) {
			halves++
		}
	}
	return min(100, halves*100/(2*questionCount))
}

func answered(s *string) bool {
	return s != nil && *s != ""
}
