package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"remat-backend/internal/database"
	"remat-backend/internal/metrics"
	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
	"remat-backend/internal/services"
	"remat-backend/pkg/utils"
)

// ListPickupRequests returns all requests, optionally ?status=open|accepted|rejected
func ListPickupRequests(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *models.PickupStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			s := models.PickupStatus(raw)
			switch s {
			case models.PickupStatusOpen, models.PickupStatusAccepted, models.PickupStatusRejected:
				status = &s
			default:
				utils.RespondError(w, http.StatusBadRequest, "status must be open, accepted or rejected")
				return
			}
		}

		pickups, err := database.ListPickupRequests(r.Context(), db, status)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch pickup requests")
			return
		}
		utils.RespondJSON(w, http.StatusOK, pickupResponses(pickups))
	}
}

func GetPickupRequest(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pickup, err := database.GetPickupRequestByID(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, err, "Failed to fetch pickup request")
			return
		}
		utils.RespondJSON(w, http.StatusOK, pickup.ToPickupRequestResponse())
	}
}

// AcceptPickupRequest closes an open request and credits the citizen
func AcceptPickupRequest(db *sqlx.DB, notifier services.PickupNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req models.AcceptPickupRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.PointsAwarded < 0 {
			utils.RespondError(w, http.StatusBadRequest, "points_awarded cannot be negative")
			return
		}

		pickup, err := database.AcceptPickupRequest(r.Context(), db, chi.URLParam(r, "id"), userClaims.UserID, req.PointsAwarded)
		if err != nil {
			respondServiceError(w, err, "Failed to accept pickup request")
			return
		}

		metrics.RecordPickupPoints(req.PointsAwarded)
		log.Printf("✅ Pickup request %s accepted by %s (+%d points)", pickup.ID, userClaims.UserID, req.PointsAwarded)
		notifyPickup(r, notifier, pickup)

		utils.RespondMessage(w, http.StatusOK, "Pickup request accepted")
	}
}

func RejectPickupRequest(db *sqlx.DB, notifier services.PickupNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		// the body is optional
		var req models.RejectPickupRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}

		pickup, err := database.RejectPickupRequest(r.Context(), db, chi.URLParam(r, "id"), userClaims.UserID, trimmedOrNil(req.Reason))
		if err != nil {
			respondServiceError(w, err, "Failed to reject pickup request")
			return
		}

		log.Printf("🚫 Pickup request %s rejected by %s", pickup.ID, userClaims.UserID)
		notifyPickup(r, notifier, pickup)

		utils.RespondMessage(w, http.StatusOK, "Pickup request rejected")
	}
}

// notifyPickup runs after the status change committed; failures are only logged
func notifyPickup(r *http.Request, notifier services.PickupNotifier, pickup *models.PickupRequest) {
	if notifier == nil {
		return
	}
	if err := notifier.NotifyPickupStatus(r.Context(), pickup); err != nil {
		log.Printf("⚠️  Failed to notify %s about pickup %s: %v", pickup.UserID, pickup.ID, err)
	}
}
