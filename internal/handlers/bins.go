package handlers

import (
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"remat-backend/internal/database"
	"remat-backend/internal/models"
	"remat-backend/internal/services"
	"remat-backend/pkg/utils"
)

const defaultNearbyLimit = 5

func GetBins(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			bins []models.Bin
			err  error
		)
		if status := models.BinStatus(r.URL.Query().Get("status")); status != "" {
			if !status.Valid() {
				utils.RespondError(w, http.StatusBadRequest, "status must be active, full or maintenance")
				return
			}
			bins, err = database.GetBinsByStatus(r.Context(), db, status)
		} else {
			bins, err = database.GetAllBins(r.Context(), db)
		}
		if err != nil {
			respondServiceError(w, err, "Failed to fetch bins")
			return
		}

		responses := make([]models.BinResponse, len(bins))
		for i := range bins {
			responses[i] = bins[i].ToBinResponse()
		}
		utils.RespondJSON(w, http.StatusOK, responses)
	}
}

// GetNearbyBins returns bins that can take a deposit, closest first
func GetNearbyBins(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, errLat := queryFloat(r, "lat")
		lng, errLng := queryFloat(r, "lng")
		if errLat != nil || errLng != nil {
			utils.RespondError(w, http.StatusBadRequest, "lat and lng are required")
			return
		}
		origin := models.Stop{Lat: lat, Lng: lng}
		if err := services.ValidateStop(origin); err != nil {
			respondServiceError(w, err, "Invalid location")
			return
		}
		limit, err := queryInt(r, "limit", defaultNearbyLimit)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		bins, err := database.GetAcceptingBins(r.Context(), db)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch bins")
			return
		}

		responses := make([]models.BinResponse, len(bins))
		for i := range bins {
			d := services.HaversineKm(origin, models.Stop{Lat: bins[i].Latitude, Lng: bins[i].Longitude})
			responses[i] = bins[i].ToBinResponse()
			responses[i].DistanceKm = &d
		}
		sort.SliceStable(responses, func(i, j int) bool {
			return *responses[i].DistanceKm < *responses[j].DistanceKm
		})
		if len(responses) > limit {
			responses = responses[:limit]
		}

		log.Printf("📍 %d nearby bins for (%.6f, %.6f)", len(responses), lat, lng)
		utils.RespondJSON(w, http.StatusOK, responses)
	}
}

// GetBin serves both the map detail view and the bin's own panel display
func GetBin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bin, err := database.GetBinByID(r.Context(), db, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, err, "Failed to fetch bin")
			return
		}
		utils.RespondJSON(w, http.StatusOK, bin.ToBinResponse())
	}
}

func CreateBin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBinRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.Capacity <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "name and a positive capacity are required")
			return
		}
		if err := services.ValidateStop(models.Stop{Lat: req.Latitude, Lng: req.Longitude}); err != nil {
			respondServiceError(w, err, "Invalid location")
			return
		}

		bin, err := database.CreateBin(r.Context(), db, req)
		if err != nil {
			respondServiceError(w, err, "Failed to create bin")
			return
		}

		log.Printf("✅ Bin created: %s (%s)", bin.ID, bin.Name)
		utils.RespondJSON(w, http.StatusCreated, bin.ToBinResponse())
	}
}

// UpdateBin is the maintenance operation. It is the only way a full bin
// goes back to active.
func UpdateBin(db *sqlx.DB, publisher services.BinEventPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req models.UpdateBinRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if msg := validateBinUpdate(req); msg != "" {
			utils.RespondError(w, http.StatusBadRequest, msg)
			return
		}

		bin, err := database.UpdateBin(r.Context(), db, id, req)
		if err != nil {
			respondServiceError(w, err, "Failed to update bin")
			return
		}

		if publisher != nil && (req.Status != nil || req.FillLevel != nil) {
			publisher.PublishBinEvent(models.BinEvent{
				Type:      models.BinEventStatus,
				BinID:     bin.ID,
				FillLevel: bin.FillLevel,
				Status:    bin.Status,
				Timestamp: time.Now().Unix(),
			})
		}

		log.Printf("🔧 Bin %s updated: status=%s fill=%d", bin.ID, bin.Status, bin.FillLevel)
		utils.RespondJSON(w, http.StatusOK, bin.ToBinResponse())
	}
}

func validateBinUpdate(req models.UpdateBinRequest) string {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return "name cannot be empty"
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return "capacity must be positive"
	}
	if req.Status != nil && !req.Status.Valid() {
		return "status must be active, full or maintenance"
	}
	if req.FillLevel != nil && *req.FillLevel < 0 {
		return "fill_level cannot be negative"
	}
	return ""
}

func DeleteBin(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := database.DeleteBin(r.Context(), db, id); err != nil {
			respondServiceError(w, err, "Failed to delete bin")
			return
		}
		log.Printf("🗑️  Bin deleted: %s", id)
		utils.RespondMessage(w, http.StatusOK, "Bin deleted")
	}
}
