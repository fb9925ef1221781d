package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"remat-backend/internal/database"
	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
	"remat-backend/internal/services"
	"remat-backend/pkg/utils"
)

// CreatePickupRequest opens a home pickup request for the caller. When no
// address is given and a resolver is configured the address is looked up;
// a lookup failure never fails the request.
func CreatePickupRequest(db *sqlx.DB, resolver services.AddressResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.CreatePickupRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		pickup, msg := newPickupRequest(userClaims.UserID, req)
		if msg != "" {
			utils.RespondError(w, http.StatusBadRequest, msg)
			return
		}

		if pickup.AddressText == nil && resolver != nil {
			address, err := resolver.ReverseGeocode(r.Context(), pickup.Latitude, pickup.Longitude)
			if err != nil {
				log.Printf("⚠️  Reverse geocoding failed for (%.6f, %.6f): %v", pickup.Latitude, pickup.Longitude, err)
			} else {
				pickup.AddressText = &address
			}
		}

		if err := database.CreatePickupRequest(r.Context(), db, pickup); err != nil {
			respondServiceError(w, err, "Failed to create pickup request")
			return
		}

		log.Printf("✅ Pickup request %s created by %s", pickup.ID, userClaims.UserID)
		utils.RespondJSON(w, http.StatusCreated, pickup.ToPickupRequestResponse())
	}
}

// newPickupRequest validates the body. A non-empty message means rejection.
func newPickupRequest(userID string, req models.CreatePickupRequest) (*models.PickupRequest, string) {
	imageURL := strings.TrimSpace(req.ImageURL)
	contact := strings.TrimSpace(req.ContactNumber)
	if imageURL == "" || contact == "" {
		return nil, "image_url and contact_number are required"
	}
	if err := services.ValidateStop(models.Stop{Lat: req.Latitude, Lng: req.Longitude}); err != nil {
		return nil, "latitude or longitude out of range"
	}
	preferred, err := time.Parse(time.RFC3339, req.PreferredDatetime)
	if err != nil {
		return nil, "preferred_datetime must be an RFC3339 timestamp"
	}

	pickup := &models.PickupRequest{
		UserID:        userID,
		ImageURL:      imageURL,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PreferredAt:   preferred.Unix(),
		ContactNumber: contact,
		AddressText:   trimmedOrNil(req.AddressText),
	}
	if wt := trimmedOrNil(req.EWasteType); wt != nil {
		parsed := string(models.ParseWasteType(*wt))
		pickup.EWasteType = &parsed
	}
	return pickup, ""
}

func GetMyPickupRequests(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		pickups, err := database.GetUserPickupRequests(r.Context(), db, userClaims.UserID)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch pickup requests")
			return
		}
		utils.RespondJSON(w, http.StatusOK, pickupResponses(pickups))
	}
}

func GetMyPickupRequest(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		pickup, err := database.GetUserPickupRequest(r.Context(), db, chi.URLParam(r, "id"), userClaims.UserID)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch pickup request")
			return
		}
		utils.RespondJSON(w, http.StatusOK, pickup.ToPickupRequestResponse())
	}
}

// UpdatePickupLocation moves a request that is still open
func UpdatePickupLocation(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.UpdatePickupLocationRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := services.ValidateStop(models.Stop{Lat: req.Latitude, Lng: req.Longitude}); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "latitude or longitude out of range")
			return
		}
		req.AddressText = trimmedOrNil(req.AddressText)

		pickup, err := database.UpdatePickupLocation(r.Context(), db, chi.URLParam(r, "id"), userClaims.UserID, req)
		if err != nil {
			respondServiceError(w, err, "Failed to update pickup request")
			return
		}

		log.Printf("📍 Pickup request %s moved to (%.6f, %.6f)", pickup.ID, pickup.Latitude, pickup.Longitude)
		utils.RespondJSON(w, http.StatusOK, pickup.ToPickupRequestResponse())
	}
}

// DeletePickupRequest withdraws a request that is still open
func DeletePickupRequest(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id := chi.URLParam(r, "id")
		if err := database.DeleteOpenPickupRequest(r.Context(), db, id, userClaims.UserID); err != nil {
			respondServiceError(w, err, "Failed to delete pickup request")
			return
		}

		log.Printf("🗑️  Pickup request %s withdrawn by %s", id, userClaims.UserID)
		utils.RespondMessage(w, http.StatusOK, "Pickup request deleted")
	}
}

func pickupResponses(pickups []models.PickupRequest) []models.PickupRequestResponse {
	responses := make([]models.PickupRequestResponse, len(pickups))
	for i := range pickups {
		responses[i] = pickups[i].ToPickupRequestResponse()
	}
	return responses
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
