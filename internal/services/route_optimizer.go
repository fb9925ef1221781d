package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"remat-backend/internal/models"
)

// EarthRadiusKm is the sphere radius used for haversine distances
const EarthRadiusKm = 6371.0

var (
	ErrEmptyStopSet      = errors.New("no stops provided")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// RouteOptimizer orders collection stops with a greedy nearest neighbor
// heuristic. It is stateless and safe for concurrent use.
type RouteOptimizer struct{}

// NewRouteOptimizer creates a new route optimizer
func NewRouteOptimizer() *RouteOptimizer {
	return &RouteOptimizer{}
}

// OptimizeOrder returns stops in visiting order for an open path starting at
// origin. At each step the closest remaining stop is selected; on ties the
// one that appears first in the input wins. The input slice is not modified.
func (ro *RouteOptimizer) OptimizeOrder(origin models.Stop, stops []models.Stop) ([]models.Stop, error) {
	if len(stops) == 0 {
		return nil, ErrEmptyStopSet
	}
	if err := ValidateStop(origin); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	for i, s := range stops {
		if err := ValidateStop(s); err != nil {
			return nil, fmt.Errorf("stop %d: %w", i, err)
		}
	}

	optimized := make([]models.Stop, 0, len(stops))
	remaining := make([]models.Stop, len(stops))
	copy(remaining, stops)

	current := origin
	for len(remaining) > 0 {
		bestIdx := 0
		bestDistance := math.MaxFloat64

		for i, stop := range remaining {
			distance := HaversineKm(current, stop)
			// strict comparison keeps the first minimum
			if distance < bestDistance {
				bestDistance = distance
				bestIdx = i
			}
		}

		current = remaining[bestIdx]
		optimized = append(optimized, current)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return optimized, nil
}

// PathDistanceKm sums the straight-line legs from origin through ordered
func PathDistanceKm(origin models.Stop, ordered []models.Stop) float64 {
	total := 0.0
	current := origin
	for _, stop := range ordered {
		total += HaversineKm(current, stop)
		current = stop
	}
	return total
}

// HaversineKm is the great-circle distance between two stops in kilometers.
// s2.LatLng.Distance uses the haversine formula.
func HaversineKm(a, b models.Stop) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// ValidateStop checks the stop is a finite point within WGS84 bounds
func ValidateStop(s models.Stop) error {
	if math.IsNaN(s.Lat) || math.IsNaN(s.Lng) ||
		s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, s.Lat, s.Lng)
	}
	return nil
}
