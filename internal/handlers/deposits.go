package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"remat-backend/internal/database"
	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
	"remat-backend/internal/services"
	"remat-backend/pkg/utils"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 1000
)

// Depositor is implemented by services.DepositProcessor
type Depositor interface {
	ProcessDeposit(ctx context.Context, req services.DepositRequest) (*services.DepositResult, error)
}

// RecycleAtBin records a deposit by the authenticated citizen
func RecycleAtBin(processor Depositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		binID := chi.URLParam(r, "bin_id")
		log.Printf("📥 REQUEST: POST /user/recycle/%s by %s", binID, userClaims.UserID)

		var body models.DepositRequestBody
		if err := decodeJSON(r, &body); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		result, err := processor.ProcessDeposit(r.Context(), services.DepositRequest{
			UserID:       userClaims.UserID,
			BinID:        binID,
			WasteType:    body.WasteType,
			Confidence:   body.Confidence,
			UserOverride: body.UserOverride,
		})
		if err != nil {
			respondServiceError(w, err, "Failed to record deposit")
			return
		}

		log.Printf("📤 RESPONSE: 200 - %d points, bin %s at %d%%", result.PointsAwarded, binID, result.NewFillLevel)
		utils.RespondJSON(w, http.StatusOK, result)
	}
}

// GetTransactions returns the caller's ledger, newest first
func GetTransactions(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		limit, err := queryInt(r, "limit", defaultTransactionLimit)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(limit, maxTransactionLimit)

		txns, err := database.GetUserTransactions(r.Context(), db, userClaims.UserID, limit)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch transactions")
			return
		}

		responses := make([]models.TransactionResponse, len(txns))
		for i := range txns {
			responses[i] = txns[i].ToTransactionResponse()
		}
		utils.RespondJSON(w, http.StatusOK, responses)
	}
}
