package roads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"remat-backend/internal/models"
)

const (
	DefaultBaseURL = "http://router.project-osrm.org"
	DefaultTimeout = 10 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for the error
	maxErrorBody = 2048
)

var (
	ErrRoutingService = errors.New("routing service error")
	ErrNoRouteFound   = errors.New("no route found")
	ErrNoStops        = errors.New("no stops to route")
)

// RoutingServiceError is returned when the routing provider answers with a
// non-success status. It matches ErrRoutingService with errors.Is.
type RoutingServiceError struct {
	StatusCode int
	Body       string
}

func (e *RoutingServiceError) Error() string {
	return fmt.Sprintf("routing service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *RoutingServiceError) Is(target error) bool {
	return target == ErrRoutingService
}

// routeResponse is the part of the OSRM route response we read
type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Client retrieves road-network geometry from an OSRM compatible service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OSRM client. An empty baseURL uses the public demo
// server, a zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchRouteGeometry returns the driving path through stops in the given order.
// The provider speaks [lng,lat]; the result is reordered to {Lat, Lng}.
func (c *Client) FetchRouteGeometry(ctx context.Context, stops []models.Stop) ([]models.LatLng, error) {
	if len(stops) == 0 {
		return nil, ErrNoStops
	}

	requestURL := c.buildURL(stops)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrRoutingService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Printf("⚠️  OSRM returned status %d for %d stops", resp.StatusCode, len(stops))
		return nil, &RoutingServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResp routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse routing response: %w", err)
	}

	if len(apiResp.Routes) == 0 {
		return nil, ErrNoRouteFound
	}

	coords := apiResp.Routes[0].Geometry.Coordinates
	path := make([]models.LatLng, 0, len(coords))
	for i, pair := range coords {
		if len(pair) < 2 {
			return nil, fmt.Errorf("failed to parse routing response: coordinate %d has %d values", i, len(pair))
		}
		path = append(path, models.LatLng{Lat: pair[1], Lng: pair[0]})
	}

	log.Printf("🛣️  Resolved road geometry: %d stops → %d points", len(stops), len(path))
	return path, nil
}

func (c *Client) buildURL(stops []models.Stop) string {
	var coords strings.Builder
	for i, s := range stops {
		if i > 0 {
			coords.WriteString(";")
		}
		coords.WriteString(strconv.FormatFloat(s.Lng, 'f', -1, 64))
		coords.WriteString(",")
		coords.WriteString(strconv.FormatFloat(s.Lat, 'f', -1, 64))
	}

	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "geojson")

	return fmt.Sprintf("%s/route/v1/driving/%s?%s", c.baseURL, coords.String(), params.Encode())
}
