package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"remat-backend/internal/database"
	"remat-backend/internal/middleware"
	"remat-backend/pkg/utils"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 1000
)

var validDeviceTypes = map[string]bool{"ios": true, "android": true, "web": true}

func GetLeaderboard(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", defaultLeaderboardLimit)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(limit, maxLeaderboardLimit)

		entries, err := database.GetLeaderboard(r.Context(), db, limit)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch leaderboard")
			return
		}
		utils.RespondJSON(w, http.StatusOK, entries)
	}
}

// RegisterFCMToken stores the device token used for pickup notifications
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req struct {
			Token      string `json:"token"`
			DeviceType string `json:"device_type"`
		}
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Token = strings.TrimSpace(req.Token)
		if req.Token == "" {
			utils.RespondError(w, http.StatusBadRequest, "token is required")
			return
		}
		if !validDeviceTypes[req.DeviceType] {
			utils.RespondError(w, http.StatusBadRequest, "Invalid device_type (must be 'ios', 'android' or 'web')")
			return
		}

		if err := database.UpsertFCMToken(r.Context(), db, userClaims.UserID, req.Token, req.DeviceType); err != nil {
			respondServiceError(w, err, "Failed to register FCM token")
			return
		}

		log.Printf("📱 FCM token registered: %s (%s)", userClaims.Email, req.DeviceType)
		utils.RespondMessage(w, http.StatusOK, "FCM token registered successfully")
	}
}
