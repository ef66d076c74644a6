package vehicle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/database"
	"github.com/richxcame/fleet/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryIntegration(t *testing.T) {
	pool := helpers.SetupTestDatabase(t)
	helpers.ResetTables(t, pool, vehiclesTable)

	repo := NewRepository(pool)
	ctx := context.Background()

	v := createTestVehicle()
	v.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	v.UpdatedAt = v.CreatedAt
	v.Documents = copyDocuments(v.Documents)
	require.NoError(t, repo.CreateVehicle(ctx, v))

	t.Run("round trips documents as lists", func(t *testing.T) {
		got, err := repo.GetVehicleByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, v.RegistrationNumber, got.RegistrationNumber)
		assert.Equal(t, documents.Paths{"a.pdf"}, got.Documents[documents.CategoryRC])
		assert.Equal(t, documents.Paths{}, got.Documents[documents.CategoryPUC])
		assert.Equal(t, []string{"north"}, got.Tags)
	})

	t.Run("reads legacy single string documents", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE vehicles SET permit_documents = '"legacy.pdf"'::jsonb WHERE id = $1`, v.ID)
		require.NoError(t, err)

		got, err := repo.GetVehicleByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, documents.Paths{"legacy.pdf"}, got.Documents[documents.CategoryPermit])
	})

	t.Run("updates columns", func(t *testing.T) {
		err := repo.UpdateVehicle(ctx, v.ID, map[string]any{
			"odometer_km":   50000,
			"rc_documents":  documents.Paths{"a.pdf", "b.pdf"},
			"tax_documents": documents.Paths{},
		})
		require.NoError(t, err)

		got, err := repo.GetVehicleByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, 50000, got.OdometerKm)
		assert.Equal(t, documents.Paths{"a.pdf", "b.pdf"}, got.Documents[documents.CategoryRC])
		assert.True(t, got.UpdatedAt.After(v.UpdatedAt) || got.UpdatedAt.Equal(v.UpdatedAt))
	})

	t.Run("update of a missing row", func(t *testing.T) {
		err := repo.UpdateVehicle(ctx, uuid.New(), map[string]any{"odometer_km": 1})
		assert.True(t, errors.Is(err, database.ErrNoRowsAffected))
	})

	t.Run("duplicate registration is a unique violation", func(t *testing.T) {
		dup := createTestVehicle()
		dup.Documents = copyDocuments(nil)
		err := repo.CreateVehicle(ctx, dup)
		require.Error(t, err)
		assert.True(t, isUniqueViolation(err))
	})

	t.Run("lists with filters", func(t *testing.T) {
		other := createTestVehicle()
		other.RegistrationNumber = "KA01XY9999"
		other.Make = "Ashok Leyland"
		other.FuelType = FuelTypeCNG
		other.Tags = []string{"south"}
		other.Documents = copyDocuments(nil)
		require.NoError(t, repo.CreateVehicle(ctx, other))

		all, total, err := repo.ListVehicles(ctx, &ListFilter{}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, all, 2)

		cng, total, err := repo.ListVehicles(ctx, &ListFilter{FuelType: FuelTypeCNG}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, other.ID, cng[0].ID)

		tagged, _, err := repo.ListVehicles(ctx, &ListFilter{Tag: "north"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, tagged, 1)
		assert.Equal(t, v.ID, tagged[0].ID)

		found, _, err := repo.ListVehicles(ctx, &ListFilter{Query: "leyland"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, other.ID, found[0].ID)

		page, total, err := repo.ListVehicles(ctx, nil, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, page, 1)
	})

	t.Run("creates a vehicle without tags", func(t *testing.T) {
		untagged := createTestVehicle()
		untagged.RegistrationNumber = "DL01ZZ0001"
		untagged.apply(Details{
			RegistrationNumber: untagged.RegistrationNumber,
			Make:               "Tata",
			Year:               2021,
			FuelType:           FuelTypeDiesel,
			Status:             VehicleStatusActive,
		})
		untagged.Documents = copyDocuments(nil)
		require.NoError(t, repo.CreateVehicle(ctx, untagged))

		got, err := repo.GetVehicleByID(ctx, untagged.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
	})
}
