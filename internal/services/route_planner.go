package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"remat-backend/internal/metrics"
	"remat-backend/internal/models"
)

// GeometryFetcher resolves road geometry for an ordered stop sequence.
// Implemented by roads.Client.
type GeometryFetcher interface {
	FetchRouteGeometry(ctx context.Context, stops []models.Stop) ([]models.LatLng, error)
}

// RoutePlanner combines the stop sequencer with the road geometry provider
type RoutePlanner struct {
	optimizer *RouteOptimizer
	geometry  GeometryFetcher
}

// NewRoutePlanner creates a planner over the given geometry provider
func NewRoutePlanner(optimizer *RouteOptimizer, geometry GeometryFetcher) *RoutePlanner {
	return &RoutePlanner{
		optimizer: optimizer,
		geometry:  geometry,
	}
}

// PlanRoute orders stops from origin and resolves the driving path through
// origin and every stop. The returned route lists origin as its first stop.
func (p *RoutePlanner) PlanRoute(ctx context.Context, origin models.Stop, stops []models.Stop) (*models.Route, error) {
	ordered, err := p.optimizer.OptimizeOrder(origin, stops)
	if err != nil {
		return nil, err
	}

	routeStops := make([]models.Stop, 0, len(ordered)+1)
	routeStops = append(routeStops, origin)
	routeStops = append(routeStops, ordered...)

	distance := PathDistanceKm(origin, ordered)

	log.Printf("🎯 Planning route from (%.6f, %.6f) over %d stops (%.2f km straight-line)",
		origin.Lat, origin.Lng, len(ordered), distance)

	start := time.Now()
	path, err := p.geometry.FetchRouteGeometry(ctx, routeStops)
	metrics.ObserveRoutingCall(time.Since(start), err)
	if err != nil {
		log.Printf("❌ Route geometry failed: %v", err)
		return nil, fmt.Errorf("failed to fetch route geometry: %w", err)
	}

	return &models.Route{
		Stops:      routeStops,
		Path:       path,
		DistanceKm: distance,
	}, nil
}
