package models

import "time"

// Transaction is one immutable ledger row recording a deposit's point award
type Transaction struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	BinID         string    `json:"bin_id" db:"bin_id"`
	WasteType     WasteType `json:"waste_type" db:"waste_type"`
	Confidence    *float64  `json:"confidence,omitempty" db:"confidence"`
	PointsAwarded int       `json:"points_awarded" db:"points_awarded"`
	CreatedAt     int64     `json:"created_at" db:"created_at"` // Unix timestamp
}

type TransactionResponse struct {
	ID            string    `json:"id"`
	BinID         string    `json:"bin_id"`
	WasteType     WasteType `json:"waste_type"`
	Confidence    *float64  `json:"confidence,omitempty"`
	PointsAwarded int       `json:"points_awarded"`
	CreatedIso    string    `json:"created_at"`
}

// DepositRequestBody is the request body for POST /user/recycle/:bin_id
type DepositRequestBody struct {
	WasteType    string   `json:"waste_type"`
	Confidence   *float64 `json:"confidence,omitempty"`
	UserOverride bool     `json:"user_override"`
}

func (t *Transaction) ToTransactionResponse() TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		BinID:         t.BinID,
		WasteType:     t.WasteType,
		Confidence:    t.Confidence,
		PointsAwarded: t.PointsAwarded,
		CreatedIso:    time.Unix(t.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}
