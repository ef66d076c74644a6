package vehicle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/database"
)

const vehiclesTable = "vehicles"

const vehicleColumns = `id, registration_number, make, model, year, fuel_type,
	odometer_km, status, tags,
	rc_documents, insurance_documents, fitness_documents,
	tax_documents, permit_documents, puc_documents,
	created_at, updated_at`

// Repository handles vehicle data access
type Repository struct {
	db   *pgxpool.Pool
	rows *database.RowUpdater
}

// NewRepository creates a new vehicle repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db, rows: database.NewRowUpdater(db)}
}

// ========================================
// VEHICLES
// ========================================

// CreateVehicle inserts a new vehicle with empty document lists
func (r *Repository) CreateVehicle(ctx context.Context, v *Vehicle) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vehicles (
			id, registration_number, make, model, year, fuel_type,
			odometer_km, status, tags,
			rc_documents, insurance_documents, fitness_documents,
			tax_documents, permit_documents, puc_documents,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16, $17
		)`,
		v.ID, v.RegistrationNumber, v.Make, v.Model, v.Year, v.FuelType,
		v.OdometerKm, v.Status, v.Tags,
		v.Documents[documents.CategoryRC], v.Documents[documents.CategoryInsurance],
		v.Documents[documents.CategoryFitness], v.Documents[documents.CategoryTax],
		v.Documents[documents.CategoryPermit], v.Documents[documents.CategoryPUC],
		v.CreatedAt, v.UpdatedAt,
	)
	return err
}

// GetVehicleByID retrieves a vehicle by ID
func (r *Repository) GetVehicleByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	row := r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	return scanVehicle(row)
}

// ListVehicles returns a filtered page of vehicles, newest first
func (r *Repository) ListVehicles(ctx context.Context, filter *ListFilter, limit, offset int) ([]Vehicle, int64, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter != nil {
		if filter.FuelType != "" {
			where = append(where, fmt.Sprintf("fuel_type = $%d", argIdx))
			args = append(args, filter.FuelType)
			argIdx++
		}
		if filter.Tag != "" {
			where = append(where, fmt.Sprintf("$%d = ANY(tags)", argIdx))
			args = append(args, filter.Tag)
			argIdx++
		}
		if q := strings.TrimSpace(filter.Query); q != "" {
			where = append(where, fmt.Sprintf(
				"(registration_number ILIKE $%d OR make ILIKE $%d OR model ILIKE $%d)", argIdx, argIdx, argIdx))
			args = append(args, "%"+q+"%")
			argIdx++
		}
	}

	whereClause := strings.Join(where, " AND ")

	// Count
	var total int64
	countArgs := make([]interface{}, len(args))
	copy(countArgs, args)
	err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM vehicles WHERE %s", whereClause),
		countArgs...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	// Query
	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`
			SELECT %s
			FROM vehicles
			WHERE %s
			ORDER BY created_at DESC
			LIMIT $%d OFFSET $%d`, vehicleColumns, whereClause, argIdx, argIdx+1),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	vehicles := []Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, total, rows.Err()
}

// UpdateVehicle writes the given columns through the generic row updater
func (r *Repository) UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.rows.UpdateRow(ctx, vehiclesTable, id, fields)
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	v := &Vehicle{}
	var rc, insurance, fitness, tax, permit, puc documents.Paths
	err := row.Scan(
		&v.ID, &v.RegistrationNumber, &v.Make, &v.Model, &v.Year, &v.FuelType,
		&v.OdometerKm, &v.Status, &v.Tags,
		&rc, &insurance, &fitness, &tax, &permit, &puc,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Documents = map[documents.Category]documents.Paths{
		documents.CategoryRC:        documents.Normalize(rc),
		documents.CategoryInsurance: documents.Normalize(insurance),
		documents.CategoryFitness:   documents.Normalize(fitness),
		documents.CategoryTax:       documents.Normalize(tax),
		documents.CategoryPermit:    documents.Normalize(permit),
		documents.CategoryPUC:       documents.Normalize(puc),
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	return v, nil
}
