package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"remat-backend/internal/models"
)

const pickupColumns = `id, user_id, image_url, latitude, longitude, address_text, e_waste_type,
	preferred_at, contact_number, status, points_awarded, rejection_reason, admin_id, created_at, updated_at`

func CreatePickupRequest(ctx context.Context, db *sqlx.DB, p *models.PickupRequest) error {
	now := time.Now().Unix()
	p.ID = uuid.New().String()
	p.Status = models.PickupStatusOpen
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO pickup_requests (id, user_id, image_url, latitude, longitude, address_text, e_waste_type,
			preferred_at, contact_number, status, created_at, updated_at)
		VALUES (:id, :user_id, :image_url, :latitude, :longitude, :address_text, :e_waste_type,
			:preferred_at, :contact_number, :status, :created_at, :updated_at)
	`
	if _, err := db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to create pickup request: %w", err)
	}
	return nil
}

func GetUserPickupRequests(ctx context.Context, db *sqlx.DB, userID string) ([]models.PickupRequest, error) {
	pickups := []models.PickupRequest{}
	query := `SELECT ` + pickupColumns + ` FROM pickup_requests WHERE user_id = $1 ORDER BY created_at DESC`
	if err := db.SelectContext(ctx, &pickups, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list pickup requests: %w", err)
	}
	return pickups, nil
}

// ListPickupRequests returns every request, optionally filtered by status
func ListPickupRequests(ctx context.Context, db *sqlx.DB, status *models.PickupStatus) ([]models.PickupRequest, error) {
	pickups := []models.PickupRequest{}
	query := `SELECT ` + pickupColumns + ` FROM pickup_requests`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	if err := db.SelectContext(ctx, &pickups, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list pickup requests: %w", err)
	}
	return pickups, nil
}

func GetPickupRequestByID(ctx context.Context, db *sqlx.DB, id string) (*models.PickupRequest, error) {
	var p models.PickupRequest
	if err := db.GetContext(ctx, &p, `SELECT `+pickupColumns+` FROM pickup_requests WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPickupNotFound
		}
		return nil, fmt.Errorf("failed to get pickup request: %w", err)
	}
	return &p, nil
}

// GetUserPickupRequest returns the request only if userID owns it
func GetUserPickupRequest(ctx context.Context, db *sqlx.DB, id, userID string) (*models.PickupRequest, error) {
	var p models.PickupRequest
	query := `SELECT ` + pickupColumns + ` FROM pickup_requests WHERE id = $1 AND user_id = $2`
	if err := db.GetContext(ctx, &p, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrPickupNotFound
		}
		return nil, fmt.Errorf("failed to get pickup request: %w", err)
	}
	return &p, nil
}

// UpdatePickupLocation moves an open request owned by userID
func UpdatePickupLocation(ctx context.Context, db *sqlx.DB, id, userID string, req models.UpdatePickupLocationRequest) (*models.PickupRequest, error) {
	var p models.PickupRequest
	query := `
		UPDATE pickup_requests SET
			latitude = $3,
			longitude = $4,
			address_text = COALESCE($5, address_text),
			updated_at = $6
		WHERE id = $1 AND user_id = $2 AND status = 'open'
		RETURNING ` + pickupColumns

	err := db.GetContext(ctx, &p, query, id, userID, req.Latitude, req.Longitude, req.AddressText, time.Now().Unix())
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update pickup location: %w", err)
	}
	return nil, openPickupMiss(ctx, db, id, userID)
}

// DeleteOpenPickupRequest withdraws an open request owned by userID
func DeleteOpenPickupRequest(ctx context.Context, db *sqlx.DB, id, userID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM pickup_requests WHERE id = $1 AND user_id = $2 AND status = 'open'`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete pickup request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete pickup request: %w", err)
	}
	if rows == 0 {
		return openPickupMiss(ctx, db, id, userID)
	}
	return nil
}

// openPickupMiss explains why a conditional write on an open request matched nothing
func openPickupMiss(ctx context.Context, db *sqlx.DB, id, userID string) error {
	if _, err := GetUserPickupRequest(ctx, db, id, userID); err != nil {
		return err
	}
	return models.ErrPickupAlreadyProcessed
}

// AcceptPickupRequest closes an open request and credits its owner in one
// transaction. A request can be accepted at most once.
func AcceptPickupRequest(ctx context.Context, db *sqlx.DB, id, adminID string, points int) (*models.PickupRequest, error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var p models.PickupRequest
	query := `
		UPDATE pickup_requests SET
			status = 'accepted',
			points_awarded = $2,
			admin_id = $3,
			updated_at = $4
		WHERE id = $1 AND status = 'open'
		RETURNING ` + pickupColumns

	if err := tx.GetContext(ctx, &p, query, id, points, adminID, time.Now().Unix()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pickupMiss(ctx, db, id)
		}
		return nil, fmt.Errorf("failed to accept pickup request: %w", err)
	}

	if err := incrementUserPoints(ctx, tx, p.UserID, points); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pickup acceptance: %w", err)
	}
	return &p, nil
}

// RejectPickupRequest closes an open request without awarding points
func RejectPickupRequest(ctx context.Context, db *sqlx.DB, id, adminID string, reason *string) (*models.PickupRequest, error) {
	var p models.PickupRequest
	query := `
		UPDATE pickup_requests SET
			status = 'rejected',
			rejection_reason = $2,
			admin_id = $3,
			updated_at = $4
		WHERE id = $1 AND status = 'open'
		RETURNING ` + pickupColumns

	if err := db.GetContext(ctx, &p, query, id, reason, adminID, time.Now().Unix()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pickupMiss(ctx, db, id)
		}
		return nil, fmt.Errorf("failed to reject pickup request: %w", err)
	}
	return &p, nil
}

func pickupMiss(ctx context.Context, db *sqlx.DB, id string) error {
	if _, err := GetPickupRequestByID(ctx, db, id); err != nil {
		return err
	}
	return models.ErrPickupAlreadyProcessed
}
