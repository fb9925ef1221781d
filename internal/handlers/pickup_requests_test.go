package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remat-backend/internal/models"
)

var pickupCols = []string{
	"id", "user_id", "image_url", "latitude", "longitude", "address_text", "e_waste_type",
	"preferred_at", "contact_number", "status", "points_awarded", "rejection_reason", "admin_id",
	"created_at", "updated_at",
}

type recordingNotifier struct {
	notified []*models.PickupRequest
	err      error
}

func (n *recordingNotifier) NotifyPickupStatus(ctx context.Context, p *models.PickupRequest) error {
	n.notified = append(n.notified, p)
	return n.err
}

type stubResolver struct {
	address string
	err     error
}

func (s stubResolver) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	return s.address, s.err
}

func adminRouter(h http.HandlerFunc, pattern string) http.Handler {
	r := chi.NewRouter()
	r.Patch(pattern, h)
	return r
}

func TestAcceptPickupRequest_CreditsAndNotifies(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE pickup_requests SET status = 'accepted'`).
		WithArgs("p1", 40, "admin-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(pickupCols).AddRow(
			"p1", "u1", "https://img/p1.jpg", 12.97, 77.59, nil, "Laptop",
			1700003600, "+91-9000000000", "accepted", 40, nil, "admin-1", 1700000000, 1700000100))
	mock.ExpectExec(`UPDATE users SET points = points \+ \$2`).
		WithArgs("u1", 40, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	notifier := &recordingNotifier{}
	h := adminRouter(AcceptPickupRequest(db, notifier), "/admin/pickup-requests/{id}/accept")
	req := asUser(httptest.NewRequest(http.MethodPatch, "/admin/pickup-requests/p1/accept",
		strings.NewReader(`{"points_awarded":40}`)), "admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, models.PickupStatusAccepted, notifier.notified[0].Status)
	assert.Equal(t, "u1", notifier.notified[0].UserID)
}

func TestAcceptPickupRequest_OnlyOnce(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE pickup_requests SET status = 'accepted'`).
		WillReturnRows(sqlmock.NewRows(pickupCols))
	mock.ExpectQuery(`FROM pickup_requests WHERE id = \$1`).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(pickupCols).AddRow(
			"p1", "u1", "https://img/p1.jpg", 12.97, 77.59, nil, nil,
			1700003600, "+91-9000000000", "accepted", 40, nil, "admin-1", 1700000000, 1700000100))
	mock.ExpectRollback()

	notifier := &recordingNotifier{}
	h := adminRouter(AcceptPickupRequest(db, notifier), "/admin/pickup-requests/{id}/accept")
	req := asUser(httptest.NewRequest(http.MethodPatch, "/admin/pickup-requests/p1/accept",
		strings.NewReader(`{"points_awarded":40}`)), "admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, notifier.notified)
}

func TestAcceptPickupRequest_NegativePoints(t *testing.T) {
	db, _ := newMockDB(t)
	h := adminRouter(AcceptPickupRequest(db, nil), "/admin/pickup-requests/{id}/accept")
	req := asUser(httptest.NewRequest(http.MethodPatch, "/admin/pickup-requests/p1/accept",
		strings.NewReader(`{"points_awarded":-5}`)), "admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectPickupRequest_NotifyFailureIsIgnored(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`UPDATE pickup_requests SET status = 'rejected'`).
		WithArgs("p2", "Item not e-waste", "admin-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(pickupCols).AddRow(
			"p2", "u1", "https://img/p2.jpg", 12.97, 77.59, nil, nil,
			1700003600, "+91-9000000000", "rejected", nil, "Item not e-waste", "admin-1", 1700000000, 1700000100))

	notifier := &recordingNotifier{err: errors.New("fcm down")}
	h := adminRouter(RejectPickupRequest(db, notifier), "/admin/pickup-requests/{id}/reject")
	req := asUser(httptest.NewRequest(http.MethodPatch, "/admin/pickup-requests/p2/reject",
		strings.NewReader(`{"reason":" Item not e-waste "}`)), "admin-1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, notifier.notified, 1)
}

func TestCreatePickupRequest_FillsAddress(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO pickup_requests`).WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"image_url":"https://img/new.jpg","latitude":12.9716,"longitude":77.5946,
		"preferred_datetime":"2026-10-20T10:00:00Z","contact_number":"+91-9000000000","e_waste_type":"washing machine"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/user/pickup-requests", strings.NewReader(body)), "u1", models.RoleUser)
	rec := httptest.NewRecorder()
	CreatePickupRequest(db, stubResolver{address: "MG Road, Bengaluru"}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got models.PickupRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.AddressText)
	assert.Equal(t, "MG Road, Bengaluru", *got.AddressText)
	require.NotNil(t, got.EWasteType)
	assert.Equal(t, "Washing Machine", *got.EWasteType)
	assert.Equal(t, models.PickupStatusOpen, got.Status)
	assert.Equal(t, "2026-10-20T10:00:00Z", got.PreferredDatetime)
}

func TestCreatePickupRequest_GeocodeFailureStillCreates(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO pickup_requests`).WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"image_url":"https://img/new.jpg","latitude":12.9716,"longitude":77.5946,
		"preferred_datetime":"2026-10-20T10:00:00+05:30","contact_number":"+91-9000000000"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/user/pickup-requests", strings.NewReader(body)), "u1", models.RoleUser)
	rec := httptest.NewRecorder()
	CreatePickupRequest(db, stubResolver{err: errors.New("quota")}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.PickupRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Nil(t, got.AddressText)
}

func TestCreatePickupRequest_Validation(t *testing.T) {
	db, _ := newMockDB(t)

	for _, body := range []string{
		`{"latitude":12.9,"longitude":77.5,"preferred_datetime":"2026-10-20T10:00:00Z","contact_number":"1"}`,
		`{"image_url":"u","latitude":12.9,"longitude":77.5,"preferred_datetime":"tomorrow","contact_number":"1"}`,
		`{"image_url":"u","latitude":-100,"longitude":77.5,"preferred_datetime":"2026-10-20T10:00:00Z","contact_number":"1"}`,
	} {
		req := asUser(httptest.NewRequest(http.MethodPost, "/user/pickup-requests", strings.NewReader(body)), "u1", models.RoleUser)
		rec := httptest.NewRecorder()
		CreatePickupRequest(db, nil).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestDeletePickupRequest_AlreadyProcessed(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`DELETE FROM pickup_requests`).WithArgs("p1", "u1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM pickup_requests WHERE id = \$1 AND user_id = \$2`).WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows(pickupCols).AddRow(
			"p1", "u1", "https://img/p1.jpg", 12.97, 77.59, nil, nil,
			1700003600, "+91-9000000000", "accepted", 40, nil, "admin-1", 1700000000, 1700000100))

	r := chi.NewRouter()
	r.Delete("/user/pickup-requests/{id}", DeletePickupRequest(db))
	req := asUser(httptest.NewRequest(http.MethodDelete, "/user/pickup-requests/p1", nil), "u1", models.RoleUser)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
