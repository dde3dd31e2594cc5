// Package validation holds the field-level rules applied to package payloads
// before the lifecycle service sees them.
package validation

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
)

var messages = map[string]map[string]string{
	"Name": {
		"notblank": "Name is required.",
		"min":      "Name must be between 3 and 255 characters.",
		"max":      "Name must be between 3 and 255 characters.",
	},
	"DateOfDelivery": {
		"future": "Date of delivery must be in the future.",
	},
}

type Validator struct {
	validate *validator.Validate
	timeNow  func() time.Time
}

func New(timeNow func() time.Time) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeNow:  timeNow,
	}
	_ = v.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.validate.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.After(v.timeNow())
	})
	return v
}

// ValidatePackage returns field name -> message for every failing rule, or nil.
func (v *Validator) ValidatePackage(p model.Package) map[string]string {
	err := v.validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"": err.Error()}
	}

	result := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.StructField()
		if _, seen := result[field]; seen {
			continue
		}
		msg, ok := messages[field][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		result[field] = msg
	}
	return result
}
