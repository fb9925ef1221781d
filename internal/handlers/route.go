package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"remat-backend/internal/database"
	"remat-backend/internal/models"
	"remat-backend/pkg/utils"
)

// RoutePlanner is implemented by services.RoutePlanner
type RoutePlanner interface {
	PlanRoute(ctx context.Context, origin models.Stop, stops []models.Stop) (*models.Route, error)
}

// OptimizeRoute orders the given bins from the start point and resolves the
// road geometry
func OptimizeRoute(planner RoutePlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.OptimizeRouteRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Start == nil {
			utils.RespondError(w, http.StatusBadRequest, "start is required")
			return
		}
		if len(req.Bins) == 0 {
			utils.RespondError(w, http.StatusBadRequest, "No bins provided")
			return
		}

		log.Printf("🚗 Optimizing route from (%.6f, %.6f) over %d bins", req.Start.Lat, req.Start.Lng, len(req.Bins))

		route, err := planner.PlanRoute(r.Context(), *req.Start, req.Bins)
		if err != nil {
			respondServiceError(w, err, "Failed to plan route")
			return
		}

		log.Printf("📤 RESPONSE: 200 - %d stops, %.2f km", len(route.Stops), route.DistanceKm)
		utils.RespondJSON(w, http.StatusOK, route)
	}
}

// CollectRoute plans a collection run over every full bin
func CollectRoute(db *sqlx.DB, planner RoutePlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CollectRouteRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Start == nil {
			utils.RespondError(w, http.StatusBadRequest, "start is required")
			return
		}

		bins, err := database.GetBinsByStatus(r.Context(), db, models.BinStatusFull)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch bins")
			return
		}

		if len(bins) == 0 {
			log.Println("✅ No full bins to collect")
			utils.RespondJSON(w, http.StatusOK, models.Route{
				Stops: []models.Stop{*req.Start},
				Path:  []models.LatLng{},
			})
			return
		}

		stops := make([]models.Stop, len(bins))
		for i, b := range bins {
			stops[i] = models.Stop{ID: b.ID, Lat: b.Latitude, Lng: b.Longitude}
		}

		log.Printf("🚛 Planning collection over %d full bins", len(stops))
		route, err := planner.PlanRoute(r.Context(), *req.Start, stops)
		if err != nil {
			respondServiceError(w, err, "Failed to plan route")
			return
		}
		utils.RespondJSON(w, http.StatusOK, route)
	}
}
