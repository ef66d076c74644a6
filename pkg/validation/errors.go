package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/richxcame/fleet/pkg/common"
)

// ValidationError collects per-field validation messages
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError converts validator output into field messages
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		ve.AddError(fe.Field(), messageFor(fe))
	}
	return ve
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.Errors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AddError records a message for field, keeping the first one
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	if _, exists := v.Errors[field]; exists {
		return
	}
	v.Errors[field] = message
}

// HasErrors reports whether any field failed
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Merge copies every message from other that is not already present
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msg := range other.Errors {
		v.AddError(field, msg)
	}
}

// ToAppError converts to the 400 response error
func (v *ValidationError) ToAppError() *common.AppError {
	return common.NewValidationError("validation failed", v.Errors)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "phone":
		return fmt.Sprintf("%s must be an E.164 phone number", fe.Field())
	case "registration_number":
		return fmt.Sprintf("%s must be a valid registration number", fe.Field())
	case "fuel_type":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(FuelTypes, ", "))
	case "vehicle_status":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(VehicleStatuses, ", "))
	case "vehicle_year":
		return fmt.Sprintf("%s must be a valid vehicle year", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
