package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"remat-backend/internal/models"
)

const userColumns = `id, email, password, name, role, points, created_at, updated_at`

func GetUserByID(ctx context.Context, db *sqlx.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, db *sqlx.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts a new profile with zero points
func CreateUser(ctx context.Context, db *sqlx.DB, user *models.User) error {
	now := time.Now().Unix()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Points = 0

	query := `
		INSERT INTO users (id, email, password, name, role, points, created_at, updated_at)
		VALUES (:id, :email, :password, :name, :role, :points, :created_at, :updated_at)
	`
	if _, err := db.NamedExecContext(ctx, query, user); err != nil {
		if isPgError(err, pgUniqueViolation) {
			return models.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// DeleteUser removes the profile. Ledger rows, pickups and tokens cascade.
func DeleteUser(ctx context.Context, db *sqlx.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// GetLeaderboard returns the top users by points, ties by name
func GetLeaderboard(ctx context.Context, db *sqlx.DB, limit int) ([]models.LeaderboardEntry, error) {
	entries := []models.LeaderboardEntry{}
	query := `SELECT id, name, points FROM users ORDER BY points DESC, name ASC LIMIT $1`
	if err := db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return entries, nil
}

// UpsertFCMToken registers a device token, moving it to userID if another
// account had it
func UpsertFCMToken(ctx context.Context, db *sqlx.DB, userID, token, deviceType string) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO user_fcm_tokens (user_id, token, device_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			device_type = EXCLUDED.device_type,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := db.ExecContext(ctx, query, userID, token, deviceType, now); err != nil {
		return fmt.Errorf("failed to save FCM token: %w", err)
	}
	return nil
}

// TokenStore serves push tokens to the notification service
type TokenStore struct {
	db *sqlx.DB
}

func NewTokenStore(db *sqlx.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) GetUserTokens(ctx context.Context, userID string) ([]string, error) {
	tokens := []string{}
	query := `SELECT token FROM user_fcm_tokens WHERE user_id = $1 ORDER BY updated_at DESC`
	if err := s.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get FCM tokens: %w", err)
	}
	return tokens, nil
}
