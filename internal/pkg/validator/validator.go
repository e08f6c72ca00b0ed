package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Pesokrava/storefront/internal/domain"
)

// Shared validator instance to avoid creating multiple instances
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Get returns the shared validator instance
func Get() *validator.Validate {
	return validate
}

// Struct validates v and converts the first failing field into a domain.ValidationError
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(strings.ToLower(fe.Field()), "failed on '"+fe.Tag()+"' rule")
	}

	return domain.NewValidationError("", err.Error())
}
