package models

import "time"

// BinStatus is the lifecycle state of a collection bin
type BinStatus string

const (
	BinStatusActive      BinStatus = "active"
	BinStatusFull        BinStatus = "full"
	BinStatusMaintenance BinStatus = "maintenance"
)

// Valid reports whether s is one of the known bin statuses
func (s BinStatus) Valid() bool {
	switch s {
	case BinStatusActive, BinStatusFull, BinStatusMaintenance:
		return true
	}
	return false
}

type Bin struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Capacity  int       `json:"capacity" db:"capacity"`
	FillLevel int       `json:"fill_level" db:"fill_level"`
	Status    BinStatus `json:"status" db:"status"`
	CreatedAt int64     `json:"created_at" db:"created_at"` // Unix timestamp
	UpdatedAt int64     `json:"updated_at" db:"updated_at"` // Unix timestamp
}

// BinResponse is what we send to the client with ISO timestamps
type BinResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Capacity   int       `json:"capacity"`
	FillLevel  int       `json:"fill_level"`
	Status     BinStatus `json:"status"`
	CreatedIso string    `json:"createdIso"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
}

// CreateBinRequest is the request body for POST /api/bins
type CreateBinRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Capacity  int     `json:"capacity"`
}

// UpdateBinRequest is the request body for PATCH /api/bins/:id.
// A nil field is left untouched.
type UpdateBinRequest struct {
	Name      *string    `json:"name,omitempty"`
	Capacity  *int       `json:"capacity,omitempty"`
	Status    *BinStatus `json:"status,omitempty"`
	FillLevel *int       `json:"fill_level,omitempty"`
}

// BinEventStatus is the event type for bin status transitions
const BinEventStatus = "bin_status"

// BinEvent is pushed to admin dashboards when a bin's status changes
type BinEvent struct {
	Type      string    `json:"type"`
	BinID     string    `json:"bin_id"`
	FillLevel int       `json:"fill_level"`
	Status    BinStatus `json:"status"`
	Timestamp int64     `json:"timestamp"` // Unix timestamp
}

// ToBinResponse converts a Bin to BinResponse
func (b *Bin) ToBinResponse() BinResponse {
	return BinResponse{
		ID:         b.ID,
		Name:       b.Name,
		Lat:        b.Latitude,
		Lng:        b.Longitude,
		Capacity:   b.Capacity,
		FillLevel:  b.FillLevel,
		Status:     b.Status,
		CreatedIso: time.Unix(b.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}
