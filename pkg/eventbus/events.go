package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// VehicleCreatedData is emitted when a vehicle record is created.
type VehicleCreatedData struct {
	VehicleID          uuid.UUID `json:"vehicle_id"`
	RegistrationNumber string    `json:"registration_number"`
	CreatedAt          time.Time `json:"created_at"`
}

// DocumentsUpdatedData is emitted after a form submission persisted reconciled documents.
type DocumentsUpdatedData struct {
	VehicleID      uuid.UUID           `json:"vehicle_id"`
	Documents      map[string][]string `json:"documents"`
	Uploaded       map[string][]string `json:"uploaded,omitempty"`
	Deleted        map[string][]string `json:"deleted,omitempty"`
	DeletionErrors int                 `json:"deletion_errors"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
