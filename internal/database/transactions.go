package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"remat-backend/internal/models"
)

// GetUserTransactions returns a user's ledger rows, newest first
func GetUserTransactions(ctx context.Context, db *sqlx.DB, userID string, limit int) ([]models.Transaction, error) {
	txns := []models.Transaction{}
	query := `
		SELECT id, user_id, bin_id, waste_type, confidence, points_awarded, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	if err := db.SelectContext(ctx, &txns, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}
