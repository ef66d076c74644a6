package vehicle

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/eventbus"
	"github.com/richxcame/fleet/pkg/storage"
	"github.com/stretchr/testify/mock"
)

// ========================================
// MOCKS
// ========================================

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateVehicle(ctx context.Context, v *Vehicle) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockRepo) GetVehicleByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Vehicle), args.Error(1)
}

func (m *mockRepo) ListVehicles(ctx context.Context, filter *ListFilter, limit, offset int) ([]Vehicle, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]Vehicle), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

type mockProgress struct {
	mock.Mock
}

func (m *mockProgress) Set(ctx context.Context, vehicleID uuid.UUID, category documents.Category, percent int) error {
	args := m.Called(ctx, vehicleID, category, percent)
	return args.Error(0)
}

func (m *mockProgress) Get(ctx context.Context, vehicleID uuid.UUID) (UploadProgress, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(UploadProgress), args.Error(1)
}

func (m *mockProgress) Clear(ctx context.Context, vehicleID uuid.UUID) error {
	args := m.Called(ctx, vehicleID)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, event *eventbus.Event) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

// memoryStore is an in-memory object store
type memoryStore struct {
	mu         sync.Mutex
	objects    map[string]string
	deleted    []string
	failUpload error
	failDelete map[string]error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string]string{}, failDelete: map[string]error{}}
}

func (s *memoryStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress storage.ProgressFunc) (string, error) {
	if s.failUpload != nil {
		return "", s.failUpload
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if onProgress != nil {
		onProgress(100)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = string(data)
	return key, nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if err := s.failDelete[key]; err != nil {
		return err
	}
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) PublicURL(key string) string {
	return "https://files.example.com/" + key
}

func (s *memoryStore) uploadedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// ========================================
// HELPERS
// ========================================

var errBoom = errors.New("boom")

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func createTestVehicle() *Vehicle {
	return &Vehicle{
		ID:                 uuid.New(),
		RegistrationNumber: "MH12AB1234",
		Make:               "Tata",
		Model:              "Ace",
		Year:               2021,
		FuelType:           FuelTypeDiesel,
		OdometerKm:         42000,
		Status:             VehicleStatusActive,
		Tags:               []string{"north"},
		Documents: map[documents.Category]documents.Paths{
			documents.CategoryRC:        {"a.pdf"},
			documents.CategoryInsurance: {"ins.pdf"},
		},
		CreatedAt: fixedNow.Add(-24 * time.Hour),
		UpdatedAt: fixedNow.Add(-24 * time.Hour),
	}
}

func testFile(name, contentType, body string) documents.File {
	return documents.File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func newTestService(repo RepositoryInterface, store *memoryStore, opts ...Option) *Service {
	s := NewService(repo, documents.NewReconciler(store), store, opts...)
	s.now = func() time.Time { return fixedNow }
	return s
}
