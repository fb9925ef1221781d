package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"remat-backend/internal/models"
)

const binColumns = `id, name, latitude, longitude, capacity, fill_level, status, created_at, updated_at`

// Postgres error codes we translate into domain errors
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

func isPgError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

func GetAllBins(ctx context.Context, db *sqlx.DB) ([]models.Bin, error) {
	bins := []models.Bin{}
	query := `SELECT ` + binColumns + ` FROM bins ORDER BY created_at DESC, name`
	if err := db.SelectContext(ctx, &bins, query); err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	return bins, nil
}

// GetBinsByStatus returns bins in the given status, oldest first
func GetBinsByStatus(ctx context.Context, db *sqlx.DB, status models.BinStatus) ([]models.Bin, error) {
	bins := []models.Bin{}
	query := `SELECT ` + binColumns + ` FROM bins WHERE status = $1 ORDER BY created_at, id`
	if err := db.SelectContext(ctx, &bins, query, string(status)); err != nil {
		return nil, fmt.Errorf("failed to list %s bins: %w", status, err)
	}
	return bins, nil
}

// GetAcceptingBins returns active bins that still have room
func GetAcceptingBins(ctx context.Context, db *sqlx.DB) ([]models.Bin, error) {
	bins := []models.Bin{}
	query := `SELECT ` + binColumns + ` FROM bins WHERE status = 'active' AND fill_level < capacity`
	if err := db.SelectContext(ctx, &bins, query); err != nil {
		return nil, fmt.Errorf("failed to list accepting bins: %w", err)
	}
	return bins, nil
}

func GetBinByID(ctx context.Context, db *sqlx.DB, id string) (*models.Bin, error) {
	var bin models.Bin
	query := `SELECT ` + binColumns + ` FROM bins WHERE id = $1`
	if err := db.GetContext(ctx, &bin, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBinNotFound
		}
		return nil, fmt.Errorf("failed to get bin: %w", err)
	}
	return &bin, nil
}

func CreateBin(ctx context.Context, db *sqlx.DB, req models.CreateBinRequest) (*models.Bin, error) {
	now := time.Now().Unix()
	bin := models.Bin{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Capacity:  req.Capacity,
		FillLevel: 0,
		Status:    models.BinStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO bins (id, name, latitude, longitude, capacity, fill_level, status, created_at, updated_at)
		VALUES (:id, :name, :latitude, :longitude, :capacity, :fill_level, :status, :created_at, :updated_at)
	`
	if _, err := db.NamedExecContext(ctx, query, bin); err != nil {
		return nil, fmt.Errorf("failed to create bin: %w", err)
	}
	return &bin, nil
}

// UpdateBin applies a maintenance update. Nil request fields keep their value.
func UpdateBin(ctx context.Context, db *sqlx.DB, id string, req models.UpdateBinRequest) (*models.Bin, error) {
	var bin models.Bin
	query := `
		UPDATE bins SET
			name = COALESCE($2, name),
			capacity = COALESCE($3, capacity),
			status = COALESCE($4, status),
			fill_level = COALESCE($5, fill_level),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + binColumns

	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}

	err := db.GetContext(ctx, &bin, query, id, req.Name, req.Capacity, status, req.FillLevel, time.Now().Unix())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBinNotFound
		}
		return nil, fmt.Errorf("failed to update bin: %w", err)
	}
	return &bin, nil
}

// DeleteBin removes a bin. Bins referenced by the ledger cannot be deleted.
func DeleteBin(ctx context.Context, db *sqlx.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bins WHERE id = $1`, id)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return models.ErrBinHasTransactions
		}
		return fmt.Errorf("failed to delete bin: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete bin: %w", err)
	}
	if rows == 0 {
		return models.ErrBinNotFound
	}
	return nil
}
