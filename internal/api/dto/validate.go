package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/booking-service/pkg/apperrors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and reports per-field failures.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return apperrors.NewInternalError(err)
	}

	details := map[string]any{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fieldErr := range fieldErrs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	return apperrors.NewValidationError("request validation failed", details)
}
