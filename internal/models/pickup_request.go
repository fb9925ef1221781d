package models

import "time"

// PickupStatus is the state of a home pickup request
type PickupStatus string

const (
	PickupStatusOpen     PickupStatus = "open"
	PickupStatusAccepted PickupStatus = "accepted"
	PickupStatusRejected PickupStatus = "rejected"
)

type PickupRequest struct {
	ID              string       `json:"id" db:"id"`
	UserID          string       `json:"user_id" db:"user_id"`
	ImageURL        string       `json:"image_url" db:"image_url"`
	Latitude        float64      `json:"latitude" db:"latitude"`
	Longitude       float64      `json:"longitude" db:"longitude"`
	AddressText     *string      `json:"address_text,omitempty" db:"address_text"`
	EWasteType      *string      `json:"e_waste_type,omitempty" db:"e_waste_type"`
	PreferredAt     int64        `json:"preferred_at" db:"preferred_at"` // Unix timestamp
	ContactNumber   string       `json:"contact_number" db:"contact_number"`
	Status          PickupStatus `json:"status" db:"status"`
	PointsAwarded   *int         `json:"points_awarded,omitempty" db:"points_awarded"`
	RejectionReason *string      `json:"rejection_reason,omitempty" db:"rejection_reason"`
	AdminID         *string      `json:"admin_id,omitempty" db:"admin_id"`
	CreatedAt       int64        `json:"created_at" db:"created_at"`
	UpdatedAt       int64        `json:"updated_at" db:"updated_at"`
}

// PickupRequestResponse is what we send to the client with ISO timestamps
type PickupRequestResponse struct {
	ID                string       `json:"id"`
	ImageURL          string       `json:"image_url"`
	EWasteType        *string      `json:"e_waste_type"`
	PreferredDatetime string       `json:"preferred_datetime"`
	ContactNumber     string       `json:"contact_number"`
	Status            PickupStatus `json:"status"`
	PointsAwarded     *int         `json:"points_awarded"`
	AddressText       *string      `json:"address_text"`
	RejectionReason   *string      `json:"rejection_reason"`
	Latitude          float64      `json:"latitude"`
	Longitude         float64      `json:"longitude"`
	CreatedIso        string       `json:"created_at"`
}

// CreatePickupRequest is the request body for POST /user/pickup-requests.
// The image is uploaded by the client beforehand; only its URL is stored.
type CreatePickupRequest struct {
	ImageURL          string  `json:"image_url"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	PreferredDatetime string  `json:"preferred_datetime"` // RFC3339
	ContactNumber     string  `json:"contact_number"`
	AddressText       *string `json:"address_text,omitempty"`
	EWasteType        *string `json:"e_waste_type,omitempty"`
}

// UpdatePickupLocationRequest is the request body for PATCH /user/pickup-requests/:id/location.
// A nil AddressText keeps the stored address.
type UpdatePickupLocationRequest struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AddressText *string `json:"address_text,omitempty"`
}

// AcceptPickupRequest is the request body for PATCH /admin/pickup-requests/:id/accept
type AcceptPickupRequest struct {
	PointsAwarded int `json:"points_awarded"`
}

// RejectPickupRequest is the request body for PATCH /admin/pickup-requests/:id/reject
type RejectPickupRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (p *PickupRequest) ToPickupRequestResponse() PickupRequestResponse {
	return PickupRequestResponse{
		ID:                p.ID,
		ImageURL:          p.ImageURL,
		EWasteType:        p.EWasteType,
		PreferredDatetime: time.Unix(p.PreferredAt, 0).UTC().Format(time.RFC3339),
		ContactNumber:     p.ContactNumber,
		Status:            p.Status,
		PointsAwarded:     p.PointsAwarded,
		AddressText:       p.AddressText,
		RejectionReason:   p.RejectionReason,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		CreatedIso:        time.Unix(p.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}
