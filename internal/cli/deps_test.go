package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/internal/vehicle"
	"github.com/richxcame/fleet/pkg/cache"
	"github.com/richxcame/fleet/pkg/config"
	redisclient "github.com/richxcame/fleet/pkg/redis"
	"github.com/richxcame/fleet/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	updated map[string]any
}

func (r *stubRepo) CreateVehicle(ctx context.Context, v *vehicle.Vehicle) error { return nil }

func (r *stubRepo) GetVehicleByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	return nil, nil
}

func (r *stubRepo) ListVehicles(ctx context.Context, filter *vehicle.ListFilter, limit, offset int) ([]vehicle.Vehicle, int64, error) {
	return nil, 0, nil
}

func (r *stubRepo) UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	r.updated = fields
	return nil
}

type discardStore struct{}

func (discardStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress storage.ProgressFunc) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return key, nil
}

func (discardStore) Delete(ctx context.Context, key string) error { return nil }

func (discardStore) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestServiceOptionsWithoutCache(t *testing.T) {
	cfg := &config.Config{}
	assert.Len(t, serviceOptions(cfg, nil), 1)
}

func TestSubmitEvictsCachedVehicle(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cfg := &config.Config{}
	cfg.Uploads.MaxFileSizeMB = 1
	cfg.Uploads.MaxFilesPerCategory = 5
	cfg.Uploads.AllowedContentTypes = []string{"application/pdf"}

	repo := &stubRepo{}
	svc := vehicle.NewService(repo, documents.NewReconciler(discardStore{}), discardStore{},
		serviceOptions(cfg, redisclient.Wrap(db))...)

	v := &vehicle.Vehicle{
		ID:                 uuid.New(),
		RegistrationNumber: "MH12AB1234",
		Make:               "Tata",
		Model:              "Ace",
		Year:               2021,
		FuelType:           vehicle.FuelTypeDiesel,
		Status:             vehicle.VehicleStatusActive,
	}
	form := vehicle.NewForm(v)
	require.NoError(t, form.Stage(documents.CategoryRC, documents.File{
		Name:        "rc.pdf",
		ContentType: "application/pdf",
		Size:        3,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("pdf")), nil
		},
	}))

	mock.ExpectDel(cache.Keys.Vehicle(v.ID.String())).SetVal(1)

	result, err := svc.SubmitForm(context.Background(), form)
	require.NoError(t, err)
	assert.Len(t, result.Vehicle.Documents[documents.CategoryRC], 1)
	assert.NotNil(t, repo.updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
