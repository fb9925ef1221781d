package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *GeocodingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGeocodingService("test-key")
	require.NoError(t, err)
	g.baseURL = srv.URL
	return g
}

func TestReverseGeocode(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12.971600,77.594600", r.URL.Query().Get("latlng"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"MG Road, Bengaluru"}]}`))
	})

	addr, err := g.ReverseGeocode(context.Background(), 12.9716, 77.5946)
	require.NoError(t, err)
	assert.Equal(t, "MG Road, Bengaluru", addr)
}

func TestReverseGeocode_Failures(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	_, err := g.ReverseGeocode(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoGeocodeResult)

	g = newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED"}`))
	})
	_, err = g.ReverseGeocode(context.Background(), 0, 0)
	assert.ErrorContains(t, err, "REQUEST_DENIED")

	_, err = NewGeocodingService("")
	assert.Error(t, err)
}
