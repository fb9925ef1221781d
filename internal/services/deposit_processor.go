package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"remat-backend/internal/metrics"
	"remat-backend/internal/models"
	"remat-backend/internal/rewards"
)

// Fill accounting per deposit. A deposit always adds a fixed amount,
// independent of the item's size.
const (
	FillIncrementPerDeposit = 10
	FullFillThreshold       = 90
)

var ErrInvalidDeposit = errors.New("invalid deposit request")

// DepositTx is the set of row operations available inside one deposit
// transaction. LockBin must hold the bin row until commit.
type DepositTx interface {
	LockBin(ctx context.Context, binID string) (*models.Bin, error)
	UpdateBin(ctx context.Context, binID string, fillLevel int, status models.BinStatus) error
	IncrementUserPoints(ctx context.Context, userID string, delta int) error
	AppendTransaction(ctx context.Context, txn *models.Transaction) error
}

// DepositStore runs fn atomically: if fn returns an error nothing it did is kept
type DepositStore interface {
	RunInTx(ctx context.Context, fn func(tx DepositTx) error) error
}

// BinEventPublisher receives bin state changes after they are committed
type BinEventPublisher interface {
	PublishBinEvent(event models.BinEvent)
}

// DepositRequest is one citizen deposit at a bin.
// A nil Confidence is treated as 0, which lands in the manual tier.
type DepositRequest struct {
	UserID       string
	BinID        string
	WasteType    string
	Confidence   *float64
	UserOverride bool
}

type DepositResult struct {
	TransactionID string           `json:"transaction_id"`
	WasteType     models.WasteType `json:"waste_type"`
	PointsAwarded int              `json:"points_awarded"`
	NewFillLevel  int              `json:"new_fill_level"`
	BinStatus     models.BinStatus `json:"bin_status"`
}

// DepositProcessor applies a deposit to the bin, the user balance and the
// ledger as one unit
type DepositProcessor struct {
	store      DepositStore
	calculator *rewards.Calculator
	publisher  BinEventPublisher

	now   func() time.Time
	newID func() string
}

// NewDepositProcessor creates a deposit processor. publisher may be nil.
func NewDepositProcessor(store DepositStore, calculator *rewards.Calculator, publisher BinEventPublisher) *DepositProcessor {
	return &DepositProcessor{
		store:      store,
		calculator: calculator,
		publisher:  publisher,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// ProcessDeposit validates the request, then inside one store transaction
// locks the bin, appends the ledger row, awards points and advances the
// bin's fill level. Fails with models.ErrBinNotFound, models.ErrBinUnavailable,
// models.ErrUserNotFound or rewards.ErrInvalidConfidence.
func (p *DepositProcessor) ProcessDeposit(ctx context.Context, req DepositRequest) (*DepositResult, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.BinID) == "" {
		metrics.RecordDeposit("invalid", 0)
		return nil, fmt.Errorf("%w: user and bin are required", ErrInvalidDeposit)
	}

	confidence := 0.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	if err := rewards.ValidateConfidence(confidence); err != nil {
		metrics.RecordDeposit("invalid", 0)
		return nil, err
	}

	wasteType := models.ParseWasteType(req.WasteType)
	// unknown labels are kept verbatim in the ledger
	recordedType := wasteType
	if label := strings.TrimSpace(req.WasteType); wasteType == models.WasteUnknown && label != "" {
		recordedType = models.WasteType(label)
	}

	var (
		result   *DepositResult
		previous models.BinStatus
	)

	err := p.store.RunInTx(ctx, func(tx DepositTx) error {
		bin, err := tx.LockBin(ctx, req.BinID)
		if err != nil {
			return err
		}
		if bin.Status != models.BinStatusActive {
			return fmt.Errorf("%w: bin %s is %s", models.ErrBinUnavailable, bin.ID, bin.Status)
		}
		previous = bin.Status

		points, err := p.calculator.CalculatePoints(wasteType, confidence, req.UserOverride)
		if err != nil {
			return err
		}

		txn := &models.Transaction{
			ID:            p.newID(),
			UserID:        req.UserID,
			BinID:         bin.ID,
			WasteType:     recordedType,
			Confidence:    req.Confidence,
			PointsAwarded: points,
			CreatedAt:     p.now().Unix(),
		}
		if err := tx.AppendTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.IncrementUserPoints(ctx, req.UserID, points); err != nil {
			return err
		}

		newFill := bin.FillLevel + FillIncrementPerDeposit
		status := bin.Status
		if newFill >= FullFillThreshold {
			status = models.BinStatusFull
		}
		if err := tx.UpdateBin(ctx, bin.ID, newFill, status); err != nil {
			return err
		}

		result = &DepositResult{
			TransactionID: txn.ID,
			WasteType:     recordedType,
			PointsAwarded: points,
			NewFillLevel:  newFill,
			BinStatus:     status,
		}
		return nil
	})
	if err != nil {
		metrics.RecordDeposit(depositOutcome(err), 0)
		return nil, err
	}

	metrics.RecordDeposit("ok", result.PointsAwarded)
	log.Printf("♻️  Deposit %s: user %s → bin %s (%s, +%d pts, fill %d%%)",
		result.TransactionID, req.UserID, req.BinID, recordedType, result.PointsAwarded, result.NewFillLevel)

	if result.BinStatus != previous {
		metrics.RecordBinFilled()
		log.Printf("🗑️  Bin %s is now %s", req.BinID, result.BinStatus)
		if p.publisher != nil {
			p.publisher.PublishBinEvent(models.BinEvent{
				Type:      models.BinEventStatus,
				BinID:     req.BinID,
				FillLevel: result.NewFillLevel,
				Status:    result.BinStatus,
				Timestamp: p.now().Unix(),
			})
		}
	}

	return result, nil
}

func depositOutcome(err error) string {
	switch {
	case errors.Is(err, models.ErrBinNotFound):
		return "bin_not_found"
	case errors.Is(err, models.ErrBinUnavailable):
		return "bin_unavailable"
	case errors.Is(err, models.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, rewards.ErrInvalidConfidence):
		return "invalid"
	default:
		return "error"
	}
}
