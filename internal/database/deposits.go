package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"remat-backend/internal/models"
	"remat-backend/internal/services"
)

// DepositStore runs deposits in read-committed transactions. The bin row is
// locked first and the user row second, so concurrent deposits cannot deadlock.
type DepositStore struct {
	db *sqlx.DB
}

func NewDepositStore(db *sqlx.DB) *DepositStore {
	return &DepositStore{db: db}
}

func (s *DepositStore) RunInTx(ctx context.Context, fn func(tx services.DepositTx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&depositTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deposit: %w", err)
	}
	return nil
}

type depositTx struct {
	tx *sqlx.Tx
}

func (d *depositTx) LockBin(ctx context.Context, binID string) (*models.Bin, error) {
	var bin models.Bin
	query := `SELECT ` + binColumns + ` FROM bins WHERE id = $1 FOR UPDATE`
	if err := d.tx.GetContext(ctx, &bin, query, binID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBinNotFound
		}
		return nil, fmt.Errorf("failed to lock bin: %w", err)
	}
	return &bin, nil
}

func (d *depositTx) UpdateBin(ctx context.Context, binID string, fillLevel int, status models.BinStatus) error {
	query := `UPDATE bins SET fill_level = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := d.tx.ExecContext(ctx, query, binID, fillLevel, string(status), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to update bin: %w", err)
	}
	return nil
}

// IncrementUserPoints adds delta in a single statement; the row lock it takes
// serializes concurrent awards to the same user
func (d *depositTx) IncrementUserPoints(ctx context.Context, userID string, delta int) error {
	return incrementUserPoints(ctx, d.tx, userID, delta)
}

func (d *depositTx) AppendTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, bin_id, waste_type, confidence, points_awarded, created_at)
		VALUES (:id, :user_id, :bin_id, :waste_type, :confidence, :points_awarded, :created_at)
	`
	if _, err := d.tx.NamedExecContext(ctx, query, txn); err != nil {
		// the bin row is locked, so a foreign key miss is the user
		if isPgError(err, pgForeignKeyViolation) {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func incrementUserPoints(ctx context.Context, tx *sqlx.Tx, userID string, delta int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET points = points + $2, updated_at = $3 WHERE id = $1`,
		userID, delta, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to update user points: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user points: %w", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
