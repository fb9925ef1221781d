package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"remat-backend/internal/models"
	"remat-backend/internal/rewards"
	"remat-backend/internal/services"
	"remat-backend/internal/services/roads"
	"remat-backend/pkg/utils"
)

// errBadRequest marks request validation failures raised inside this package
var errBadRequest = errors.New("bad request")

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, rewards.ErrInvalidConfidence),
		errors.Is(err, services.ErrInvalidDeposit),
		errors.Is(err, services.ErrEmptyStopSet),
		errors.Is(err, services.ErrInvalidCoordinate),
		errors.Is(err, services.ErrUnsupportedImage),
		errors.Is(err, roads.ErrNoStops):
		return http.StatusBadRequest

	case errors.Is(err, models.ErrBinNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrPickupNotFound):
		return http.StatusNotFound

	case errors.Is(err, models.ErrBinUnavailable),
		errors.Is(err, models.ErrPickupAlreadyProcessed),
		errors.Is(err, models.ErrBinHasTransactions),
		errors.Is(err, models.ErrUserExists):
		return http.StatusConflict

	case errors.Is(err, roads.ErrRoutingService),
		errors.Is(err, roads.ErrNoRouteFound),
		errors.Is(err, services.ErrClassifierUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondServiceError logs err and writes the mapped status. Internal errors
// are reported with fallback instead of the raw message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ Error: %v", err)
		utils.RespondError(w, status, fallback)
		return
	}
	log.Printf("⚠️  %d: %v", status, err)
	utils.RespondError(w, status, err.Error())
}

// decodeJSON reads a JSON body into dst, rejecting malformed input
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Printf("❌ Invalid request body: %v", err)
		return errBadRequest
	}
	return nil
}

// queryInt parses an optional positive integer query parameter
func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errBadRequest
	}
	return v, nil
}

// queryFloat parses a required float query parameter
func queryFloat(r *http.Request, key string) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return 0, errBadRequest
	}
	return v, nil
}
