package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the global validator instance
	Validate *validator.Validate

	phoneRegex        = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`) // E.164 format
	registrationRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{1,4}$`)
)

// FuelTypes lists the accepted fuel_type values
var FuelTypes = []string{"petrol", "diesel", "cng", "lpg", "electric", "hybrid"}

// VehicleStatuses lists the accepted vehicle_status values
var VehicleStatuses = []string{"active", "maintenance", "inactive", "retired"}

func init() {
	Validate = validator.New()

	// Report json names so field errors line up with request payloads
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = Validate.RegisterValidation("phone", validatePhone)
	_ = Validate.RegisterValidation("registration_number", validateRegistrationNumber)
	_ = Validate.RegisterValidation("fuel_type", validateFuelType)
	_ = Validate.RegisterValidation("vehicle_status", validateVehicleStatus)
	_ = Validate.RegisterValidation("vehicle_year", validateVehicleYear)
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return NewValidationError(validationErrors)
	}
	return err
}

// NormalizeRegistration upper-cases a registration number and strips separators
func NormalizeRegistration(reg string) string {
	reg = strings.ToUpper(strings.TrimSpace(reg))
	return strings.NewReplacer(" ", "", "-", "").Replace(reg)
}

// ValidatePhoneNumber validates phone number format
func ValidatePhoneNumber(phone string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(phone))
}

func validatePhone(fl validator.FieldLevel) bool {
	return ValidatePhoneNumber(fl.Field().String())
}

// validateRegistrationNumber accepts Indian-style plates such as "MH12AB1234" or "DL 3C 4567"
func validateRegistrationNumber(fl validator.FieldLevel) bool {
	return registrationRegex.MatchString(NormalizeRegistration(fl.Field().String()))
}

// IsFuelType reports whether s names a known fuel type
func IsFuelType(s string) bool {
	return contains(FuelTypes, s)
}

func validateFuelType(fl validator.FieldLevel) bool {
	return IsFuelType(fl.Field().String())
}

func validateVehicleStatus(fl validator.FieldLevel) bool {
	return contains(VehicleStatuses, fl.Field().String())
}

// validateVehicleYear checks if vehicle year is reasonable
func validateVehicleYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	currentYear := int64(time.Now().Year())
	return year >= 1900 && year <= currentYear+1
}

// contains checks if a string slice contains a specific string
func contains(slice []string, item string) bool {
	item = strings.ToLower(strings.TrimSpace(item))
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
