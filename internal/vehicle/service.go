package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/internal/share"
	"github.com/richxcame/fleet/pkg/cache"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/richxcame/fleet/pkg/database"
	"github.com/richxcame/fleet/pkg/eventbus"
	"github.com/richxcame/fleet/pkg/logger"
	"github.com/richxcame/fleet/pkg/validation"
	"go.uber.org/zap"
)

const (
	eventSource        = "fleet"
	defaultCacheTTL    = 5 * time.Minute
	uniqueViolationSQL = "23505"
)

// Service handles vehicle business logic
type Service struct {
	repo       RepositoryInterface
	reconciler DocumentReconciler
	urls       URLResolver

	progress ProgressTracker
	cache    *cache.Manager
	cacheTTL time.Duration
	events   EventPublisher
	rules    validation.UploadRules
	now      func() time.Time
}

// Option configures optional Service collaborators
type Option func(*Service)

// WithProgressTracker publishes upload progress while a form is submitted
func WithProgressTracker(t ProgressTracker) Option {
	return func(s *Service) { s.progress = t }
}

// WithCache serves GetVehicle through a read-through cache
func WithCache(m *cache.Manager, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = m
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithEvents publishes vehicle events after successful writes
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithUploadRules bounds the files a submission may stage
func WithUploadRules(rules validation.UploadRules) Option {
	return func(s *Service) { s.rules = rules }
}

// NewService creates a new vehicle service
func NewService(repo RepositoryInterface, reconciler DocumentReconciler, urls URLResolver, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		reconciler: reconciler,
		urls:       urls,
		cacheTTL:   defaultCacheTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ========================================
// VEHICLE RECORDS
// ========================================

// CreateVehicle registers a vehicle with empty document lists
func (s *Service) CreateVehicle(ctx context.Context, req *CreateVehicleRequest) (*Vehicle, error) {
	details := req.Details
	details.normalize()
	if err := validateDetails(&details); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	vehicle := &Vehicle{
		ID:        uuid.New(),
		Documents: copyDocuments(nil),
		CreatedAt: now,
		UpdatedAt: now,
	}
	vehicle.apply(details)

	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewConflictError("registration number already exists")
		}
		return nil, fmt.Errorf("create vehicle: %w", err)
	}

	logger.InfoContext(ctx, "vehicle created",
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.String("registration_number", vehicle.RegistrationNumber),
	)
	s.publish(ctx, eventbus.SubjectVehicleCreated, eventbus.VehicleCreatedData{
		VehicleID:          vehicle.ID,
		RegistrationNumber: vehicle.RegistrationNumber,
		CreatedAt:          vehicle.CreatedAt,
	})

	return vehicle, nil
}

// GetVehicle returns a vehicle, served from cache when enabled
func (s *Service) GetVehicle(ctx context.Context, vehicleID uuid.UUID) (*Vehicle, error) {
	if s.cache == nil {
		return s.loadVehicle(ctx, vehicleID)
	}

	var vehicle Vehicle
	err := s.cache.GetOrSet(ctx, cache.Keys.Vehicle(vehicleID.String()), s.cacheTTL, &vehicle, func() (interface{}, error) {
		return s.loadVehicle(ctx, vehicleID)
	})
	if err != nil {
		return nil, err
	}
	vehicle.Documents = copyDocuments(vehicle.Documents)
	return &vehicle, nil
}

func (s *Service) loadVehicle(ctx context.Context, vehicleID uuid.UUID) (*Vehicle, error) {
	vehicle, err := s.repo.GetVehicleByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("vehicle not found", nil)
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return vehicle, nil
}

// ListVehicles returns a filtered page of vehicles with the total count
func (s *Service) ListVehicles(ctx context.Context, filter *ListFilter, page common.PageParams) (*VehicleListResponse, int64, error) {
	if filter != nil && filter.FuelType != "" && !validation.IsFuelType(string(filter.FuelType)) {
		return nil, 0, common.NewValidationError("validation failed", map[string]string{
			"fuel_type": "fuel_type must be one of " + fmt.Sprint(validation.FuelTypes),
		})
	}

	vehicles, total, err := s.repo.ListVehicles(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	return &VehicleListResponse{Vehicles: vehicles}, total, nil
}

// ========================================
// FORM SUBMISSION
// ========================================

// OpenForm starts editing a vehicle, seeded from the stored record
func (s *Service) OpenForm(ctx context.Context, vehicleID uuid.UUID) (*Form, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return NewForm(vehicle), nil
}

// SubmitForm validates the form, reconciles its documents against the object
// store and persists the finalized record. Uploads complete before deletions,
// and deletions before the row update. On any failure the form keeps its
// staged state so the caller may retry; on success the submitted state is
// cleared and edits made while it ran stay pending.
func (s *Service) SubmitForm(ctx context.Context, form *Form) (*SubmitResult, error) {
	snap := form.Snapshot()
	vehicleID := snap.Record.ID
	ctx = logger.ContextWithVehicleID(ctx, vehicleID.String())

	details := snap.Details
	details.normalize()
	if err := s.validateSubmission(&details, snap.Staged); err != nil {
		return nil, err
	}

	result, err := s.reconciler.Reconcile(ctx, &documents.Request{
		RecordID:   vehicleID,
		Current:    snap.Current,
		Staged:     snap.Staged,
		Deletions:  snap.Deletions,
		OnProgress: s.progressReporter(ctx, vehicleID),
	})
	if err != nil {
		s.clearProgress(ctx, vehicleID)
		var uploadErr *documents.UploadError
		if errors.As(err, &uploadErr) {
			logger.ErrorContext(ctx, "document upload failed", zap.Error(err))
			return nil, common.NewUpstreamError(common.CodeUpload, "failed to upload documents: "+uploadErr.Error(), err)
		}
		return nil, common.NewInternalError("failed to reconcile documents", err)
	}

	fields := details.columns()
	for column, paths := range result.Columns() {
		fields[column] = paths
	}
	if err := s.repo.UpdateVehicle(ctx, vehicleID, fields); err != nil {
		s.clearProgress(ctx, vehicleID)
		switch {
		case errors.Is(err, database.ErrNoRowsAffected):
			return nil, common.NewNotFoundError("vehicle not found", err)
		case isUniqueViolation(err):
			return nil, common.NewConflictError("registration number already exists")
		}
		logger.ErrorContext(ctx, "failed to persist vehicle", zap.Error(err))
		return nil, common.NewPersistenceError("failed to save vehicle: "+err.Error(), err)
	}

	saved := snap.Record
	saved.apply(details)
	saved.Documents = result.Documents
	saved.UpdatedAt = s.now().UTC()
	form.Clear(&saved, snap)
	s.afterSubmit(ctx, &saved, snap.Deletions, result)

	return &SubmitResult{
		Vehicle:        &saved,
		Uploaded:       result.UploadedCount(),
		Deleted:        snap.Deletions.Len() - len(result.DeletionErrors),
		DeletionErrors: deletionFailures(result.DeletionErrors),
	}, nil
}

func (s *Service) validateSubmission(details *Details, staged documents.StagedSet) error {
	ve := &validation.ValidationError{}
	if err := validateDetails(details); err != nil {
		var fieldErrs *common.AppError
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for field, msg := range fieldErrs.Fields {
			ve.AddError(field, msg)
		}
	}

	for _, category := range documents.Categories {
		st := staged[category]
		if st == nil || len(st.Files) == 0 {
			continue
		}
		candidates := make([]validation.UploadCandidate, 0, len(st.Files))
		for _, f := range st.Files {
			candidates = append(candidates, validation.UploadCandidate{Name: f.Name, ContentType: f.ContentType, Size: f.Size})
		}
		ve.Merge(validation.ValidateUploads("documents."+category.String(), candidates, s.rules))
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

func validateDetails(details *Details) error {
	err := validation.ValidateStruct(details)
	if err == nil {
		return nil
	}
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return ve.ToAppError()
	}
	return fmt.Errorf("validate vehicle: %w", err)
}

func (s *Service) progressReporter(ctx context.Context, vehicleID uuid.UUID) documents.ProgressFunc {
	if s.progress == nil {
		return nil
	}
	return func(category documents.Category, percent int) {
		if err := s.progress.Set(ctx, vehicleID, category, percent); err != nil {
			logger.DebugContext(ctx, "failed to record upload progress",
				zap.String("category", category.String()),
				zap.Error(err),
			)
		}
	}
}

// afterSubmit runs the non-fatal side effects of a saved submission
func (s *Service) afterSubmit(ctx context.Context, saved *Vehicle, deletions documents.DeletionSet, result *documents.Result) {
	s.clearProgress(ctx, saved.ID)
	s.invalidate(ctx, saved.ID)

	logger.InfoContext(ctx, "vehicle documents saved",
		zap.Int("uploaded", result.UploadedCount()),
		zap.Int("marked_for_deletion", deletions.Len()),
		zap.Int("deletion_errors", len(result.DeletionErrors)),
	)
	s.publish(ctx, eventbus.SubjectVehicleDocumentsUpdated, eventbus.DocumentsUpdatedData{
		VehicleID:      saved.ID,
		Documents:      pathsByName(result.Documents),
		Uploaded:       pathsByName(result.Uploaded),
		Deleted:        pathsByName(deletions),
		DeletionErrors: len(result.DeletionErrors),
		UpdatedAt:      saved.UpdatedAt,
	})
}

// ========================================
// PROGRESS & SHARING
// ========================================

// GetUploadProgress returns the per-category progress of an in-flight submission
func (s *Service) GetUploadProgress(ctx context.Context, vehicleID uuid.UUID) (UploadProgress, error) {
	if s.progress == nil {
		return UploadProgress{}, nil
	}
	progress, err := s.progress.Get(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("get upload progress: %w", err)
	}
	return progress, nil
}

// ShareDocuments builds a WhatsApp link listing the public URLs of a vehicle's documents
func (s *Service) ShareDocuments(ctx context.Context, vehicleID uuid.UUID, phone string) (*ShareResponse, error) {
	phone = phoneSeparators.Replace(strings.TrimSpace(phone))
	if phone != "" && !validation.ValidatePhoneNumber(phone) {
		return nil, common.NewValidationError("validation failed", map[string]string{
			"phone": "phone must be a valid phone number",
		})
	}

	vehicle, err := s.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	urls := make(map[documents.Category][]string, len(documents.Categories))
	for _, category := range documents.Categories {
		paths := vehicle.Documents[category]
		links := make([]string, 0, len(paths))
		for _, path := range paths {
			links = append(links, s.urls.PublicURL(path))
		}
		urls[category] = links
	}

	heading := fmt.Sprintf("%s %s %s", vehicle.RegistrationNumber, vehicle.Make, vehicle.Model)
	text := share.Summary(heading, urls)
	return &ShareResponse{
		Text: text,
		Link: share.WhatsAppLink(phone, text),
		URLs: urls,
	}, nil
}

// ========================================
// HELPERS
// ========================================

// clearProgress drops the progress hash once a submission ends either way
func (s *Service) clearProgress(ctx context.Context, vehicleID uuid.UUID) {
	if s.progress == nil {
		return
	}
	if err := s.progress.Clear(context.WithoutCancel(ctx), vehicleID); err != nil {
		logger.WarnContext(ctx, "failed to clear upload progress", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, vehicleID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.Keys.Vehicle(vehicleID.String())); err != nil {
		logger.WarnContext(ctx, "failed to invalidate vehicle cache", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	event, err := eventbus.NewEvent(subject, eventSource, data)
	if err == nil {
		err = s.events.Publish(ctx, subject, event)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationSQL
}

func deletionFailures(errs []*documents.DeletionError) []DeletionFailure {
	out := make([]DeletionFailure, 0, len(errs))
	for _, e := range errs {
		out = append(out, DeletionFailure{Category: e.Category, Path: e.Path, Error: e.Err.Error()})
	}
	return out
}

func pathsByName[M ~map[documents.Category]documents.Paths](docs M) map[string][]string {
	out := make(map[string][]string, len(docs))
	for category, paths := range docs {
		out[category.String()] = append([]string{}, paths...)
	}
	return out
}
