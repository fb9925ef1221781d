package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	depositsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remat_deposits_total",
			Help: "Deposits processed, by outcome",
		},
		[]string{"outcome"}, // ok, bin_not_found, bin_unavailable, invalid, error
	)

	pointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remat_points_awarded_total",
			Help: "Points awarded through deposits and pickups",
		},
		[]string{"source"}, // deposit, pickup
	)

	binsFilledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remat_bins_filled_total",
			Help: "Number of times a deposit moved a bin to full",
		},
	)

	routingRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remat_routing_request_duration_seconds",
			Help:    "Latency of road geometry requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"status"}, // success, failed
	)

	wsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "remat_websocket_connections",
			Help: "Number of connected dashboard websockets",
		},
	)
)

// Middleware records request counts and latency per chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordDeposit counts a deposit outcome and, on success, the points awarded
func RecordDeposit(outcome string, points int) {
	depositsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" && points > 0 {
		pointsAwardedTotal.WithLabelValues("deposit").Add(float64(points))
	}
}

// RecordPickupPoints counts points awarded by accepting a pickup request
func RecordPickupPoints(points int) {
	if points > 0 {
		pointsAwardedTotal.WithLabelValues("pickup").Add(float64(points))
	}
}

// RecordBinFilled counts a bin transitioning to full
func RecordBinFilled() {
	binsFilledTotal.Inc()
}

// ObserveRoutingCall records the latency of one routing provider call
func ObserveRoutingCall(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	routingRequestDuration.WithLabelValues(status).Observe(d.Seconds())
}

// SetWebsocketConnections updates the connected dashboard gauge
func SetWebsocketConnections(n int) {
	wsConnections.Set(float64(n))
}
