package vehicle

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/security"
	"github.com/richxcame/fleet/pkg/validation"
)

// VehicleStatus represents the operational status of a fleet vehicle
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusInactive    VehicleStatus = "inactive"
	VehicleStatusRetired     VehicleStatus = "retired"
)

// FuelType represents the fuel type
type FuelType string

const (
	FuelTypePetrol   FuelType = "petrol"
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeCNG      FuelType = "cng"
	FuelTypeLPG      FuelType = "lpg"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
)

// Vehicle represents a fleet vehicle record
type Vehicle struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	RegistrationNumber string        `json:"registration_number" db:"registration_number"`
	Make               string        `json:"make" db:"make"`
	Model              string        `json:"model" db:"model"`
	Year               int           `json:"year" db:"year"`
	FuelType           FuelType      `json:"fuel_type" db:"fuel_type"`
	OdometerKm         int           `json:"odometer_km" db:"odometer_km"`
	Status             VehicleStatus `json:"status" db:"status"`
	Tags               []string      `json:"tags" db:"tags"`

	// One reference list per document category, never nil after a read
	Documents map[documents.Category]documents.Paths `json:"documents"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Details are the scalar attributes edited on a vehicle form
type Details struct {
	RegistrationNumber string        `json:"registration_number" validate:"required,registration_number"`
	Make               string        `json:"make" validate:"required,max=100"`
	Model              string        `json:"model" validate:"max=100"`
	Year               int           `json:"year" validate:"required,vehicle_year"`
	FuelType           FuelType      `json:"fuel_type" validate:"required,fuel_type"`
	OdometerKm         int           `json:"odometer_km" validate:"gte=0"`
	Status             VehicleStatus `json:"status" validate:"omitempty,vehicle_status"`
	Tags               []string      `json:"tags" validate:"max=20,dive,required,max=40"`
}

// Details returns the vehicle's editable attributes
func (v *Vehicle) Details() Details {
	return Details{
		RegistrationNumber: v.RegistrationNumber,
		Make:               v.Make,
		Model:              v.Model,
		Year:               v.Year,
		FuelType:           v.FuelType,
		OdometerKm:         v.OdometerKm,
		Status:             v.Status,
		Tags:               append([]string{}, v.Tags...),
	}
}

// apply copies d onto the vehicle
func (v *Vehicle) apply(d Details) {
	v.RegistrationNumber = d.RegistrationNumber
	v.Make = d.Make
	v.Model = d.Model
	v.Year = d.Year
	v.FuelType = d.FuelType
	v.OdometerKm = d.OdometerKm
	v.Status = d.Status
	v.Tags = append([]string{}, d.Tags...)
}

// normalize canonicalizes free-form input before validation
func (d *Details) normalize() {
	d.RegistrationNumber = validation.NormalizeRegistration(d.RegistrationNumber)
	d.Make = security.NormalizeText(d.Make)
	d.Model = security.NormalizeText(d.Model)
	d.FuelType = FuelType(strings.ToLower(strings.TrimSpace(string(d.FuelType))))
	d.Status = VehicleStatus(strings.ToLower(strings.TrimSpace(string(d.Status))))
	if d.Status == "" {
		d.Status = VehicleStatusActive
	}
	tags := make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		tags = append(tags, security.NormalizeText(tag))
	}
	d.Tags = tags
}

// columns maps details onto vehicles table columns
func (d Details) columns() map[string]any {
	return map[string]any{
		"registration_number": d.RegistrationNumber,
		"make":                d.Make,
		"model":               d.Model,
		"year":                d.Year,
		"fuel_type":           d.FuelType,
		"odometer_km":         d.OdometerKm,
		"status":              d.Status,
		"tags":                d.Tags,
	}
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// CreateVehicleRequest registers a new vehicle without documents
type CreateVehicleRequest struct {
	Details
}

// ListFilter narrows ListVehicles
type ListFilter struct {
	FuelType FuelType `form:"fuel_type"`
	Tag      string   `form:"tag"`
	Query    string   `form:"q"`
}

// DeletionFailure reports a document that could not be removed from storage
type DeletionFailure struct {
	Category documents.Category `json:"category"`
	Path     string             `json:"path"`
	Error    string             `json:"error"`
}

// SubmitResult is returned by a successful form submission
type SubmitResult struct {
	Vehicle        *Vehicle          `json:"vehicle"`
	Uploaded       int               `json:"uploaded"`
	Deleted        int               `json:"deleted"`
	DeletionErrors []DeletionFailure `json:"deletion_errors"`
}

// UploadProgress maps categories to their upload percentage
type UploadProgress map[documents.Category]int

// ShareResponse carries a WhatsApp link listing a vehicle's documents
type ShareResponse struct {
	Text string                          `json:"text"`
	Link string                          `json:"link"`
	URLs map[documents.Category][]string `json:"urls"`
}

// VehicleListResponse returns a page of vehicles
type VehicleListResponse struct {
	Vehicles []Vehicle `json:"vehicles"`
}
