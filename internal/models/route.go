package models

// LatLng is a point of resolved road geometry
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Stop is a location a collection vehicle has to visit.
// ID is an optional caller label (bin or pickup request id).
type Stop struct {
	ID  string  `json:"id,omitempty"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route is the travel plan returned to the admin dashboard.
// Stops starts with the origin, followed by the visiting order.
type Route struct {
	Stops      []Stop   `json:"stops"`
	Path       []LatLng `json:"path"`
	DistanceKm float64  `json:"distance_km"`
}

// OptimizeRouteRequest is the request body for POST /api/route/optimize
type OptimizeRouteRequest struct {
	Start *Stop  `json:"start"`
	Bins  []Stop `json:"bins"`
}

// CollectRouteRequest is the request body for POST /api/route/collect
type CollectRouteRequest struct {
	Start *Stop `json:"start"`
}
