package vehicle

import (
	"context"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/eventbus"
)

// RepositoryInterface defines the contract for vehicle repository operations
type RepositoryInterface interface {
	CreateVehicle(ctx context.Context, v *Vehicle) error
	GetVehicleByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	ListVehicles(ctx context.Context, filter *ListFilter, limit, offset int) ([]Vehicle, int64, error)
	// UpdateVehicle writes a partial record keyed by column name
	UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

// DocumentReconciler uploads, deletes and merges a form's documents
type DocumentReconciler interface {
	Reconcile(ctx context.Context, req *documents.Request) (*documents.Result, error)
}

// ProgressTracker stores transient per-category upload progress
type ProgressTracker interface {
	Set(ctx context.Context, vehicleID uuid.UUID, category documents.Category, percent int) error
	Get(ctx context.Context, vehicleID uuid.UUID) (UploadProgress, error)
	Clear(ctx context.Context, vehicleID uuid.UUID) error
}

// EventPublisher publishes vehicle events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event *eventbus.Event) error
}

// URLResolver turns stored document paths into public links
type URLResolver interface {
	PublicURL(key string) string
}
