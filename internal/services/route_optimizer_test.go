package services

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remat-backend/internal/models"
)

func TestHaversineKm(t *testing.T) {
	// Connaught Place to India Gate, roughly 2.4 km
	cp := models.Stop{Lat: 28.6315, Lng: 77.2167}
	ig := models.Stop{Lat: 28.6129, Lng: 77.2295}
	require.InDelta(t, 2.4, HaversineKm(cp, ig), 0.2)

	require.Equal(t, 0.0, HaversineKm(cp, cp))

	// one degree of longitude on the equator
	require.InDelta(t, 111.19, HaversineKm(models.Stop{}, models.Stop{Lng: 1}), 0.01)
}

func TestOptimizeOrder_NearestNeighbor(t *testing.T) {
	ro := NewRouteOptimizer()

	stops := []models.Stop{
		{ID: "far", Lat: 10, Lng: 10},
		{ID: "near", Lat: 1, Lng: 1},
		{ID: "mid", Lat: 5, Lng: 5},
	}
	ordered, err := ro.OptimizeOrder(models.Stop{Lat: 0, Lng: 0}, stops)
	require.NoError(t, err)

	require.Len(t, ordered, 3)
	assert.Equal(t, "near", ordered[0].ID)
	assert.Equal(t, "mid", ordered[1].ID)
	assert.Equal(t, "far", ordered[2].ID)

	// input untouched
	assert.Equal(t, "far", stops[0].ID)
	assert.Equal(t, "near", stops[1].ID)
	assert.Equal(t, "mid", stops[2].ID)
}

func TestOptimizeOrder_IsPermutationStartingAtNearest(t *testing.T) {
	ro := NewRouteOptimizer()
	origin := models.Stop{Lat: 12.9716, Lng: 77.5946}

	stops := []models.Stop{
		{ID: "a", Lat: 12.99, Lng: 77.60},
		{ID: "b", Lat: 12.93, Lng: 77.62},
		{ID: "c", Lat: 13.02, Lng: 77.55},
		{ID: "d", Lat: 12.97, Lng: 77.59},
		{ID: "e", Lat: 12.90, Lng: 77.50},
		{ID: "f", Lat: 12.99, Lng: 77.60}, // duplicate location of a
	}

	ordered, err := ro.OptimizeOrder(origin, stops)
	require.NoError(t, err)

	ids := func(s []models.Stop) []string {
		out := make([]string, len(s))
		for i, st := range s {
			out[i] = st.ID
		}
		sort.Strings(out)
		return out
	}
	assert.Equal(t, ids(stops), ids(ordered))

	nearest := stops[0]
	for _, s := range stops[1:] {
		if HaversineKm(origin, s) < HaversineKm(origin, nearest) {
			nearest = s
		}
	}
	assert.Equal(t, nearest.ID, ordered[0].ID)
}

func TestOptimizeOrder_TieBreaksByInputOrder(t *testing.T) {
	ro := NewRouteOptimizer()

	// equidistant from the origin
	stops := []models.Stop{
		{ID: "north", Lat: 1, Lng: 0},
		{ID: "south", Lat: -1, Lng: 0},
	}
	ordered, err := ro.OptimizeOrder(models.Stop{}, stops)
	require.NoError(t, err)
	assert.Equal(t, "north", ordered[0].ID)

	reversed := []models.Stop{stops[1], stops[0]}
	ordered, err = ro.OptimizeOrder(models.Stop{}, reversed)
	require.NoError(t, err)
	assert.Equal(t, "south", ordered[0].ID)

	// identical stops keep their relative order
	same := []models.Stop{{ID: "x", Lat: 2, Lng: 2}, {ID: "y", Lat: 2, Lng: 2}}
	ordered, err = ro.OptimizeOrder(models.Stop{}, same)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, []string{ordered[0].ID, ordered[1].ID})
}

func TestOptimizeOrder_Deterministic(t *testing.T) {
	ro := NewRouteOptimizer()
	stops := []models.Stop{{Lat: 3, Lng: 4}, {Lat: -2, Lng: 7}, {Lat: 0.5, Lng: 0.5}, {Lat: 8, Lng: -1}}

	first, err := ro.OptimizeOrder(models.Stop{}, stops)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ro.OptimizeOrder(models.Stop{}, stops)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestOptimizeOrder_Errors(t *testing.T) {
	ro := NewRouteOptimizer()

	_, err := ro.OptimizeOrder(models.Stop{}, nil)
	assert.ErrorIs(t, err, ErrEmptyStopSet)

	_, err = ro.OptimizeOrder(models.Stop{Lat: 91}, []models.Stop{{Lat: 1, Lng: 1}})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = ro.OptimizeOrder(models.Stop{}, []models.Stop{{Lat: 1, Lng: 181}})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = ro.OptimizeOrder(models.Stop{}, []models.Stop{{Lat: math.NaN(), Lng: 0}})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestPathDistanceKm(t *testing.T) {
	origin := models.Stop{}
	ordered := []models.Stop{{Lng: 1}, {Lng: 2}}

	assert.InDelta(t, 2*111.19, PathDistanceKm(origin, ordered), 0.05)
	assert.Equal(t, 0.0, PathDistanceKm(origin, nil))
}
