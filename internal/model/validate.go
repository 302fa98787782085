package model

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("hoaphone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks an HOA's field constraints.
func (h *HOA) Validate() error {
	if err := validatorInstance().Struct(h); err != nil {
		return eris.Wrapf(err, "model: invalid hoa %q", h.Name)
	}
	return nil
}

// Validate checks a property's field constraints.
func (p *Property) Validate() error {
	if err := validatorInstance().Struct(p); err != nil {
		return eris.Wrapf(err, "model: invalid property %q", p.Address)
	}
	return nil
}
