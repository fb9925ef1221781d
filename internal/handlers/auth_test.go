package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
)

var userCols = []string{"id", "email", "password", "name", "role", "points", "created_at", "updated_at"}

func newIssuer(t *testing.T) *middleware.HMACVerifier {
	t.Helper()
	v, err := middleware.NewHMACVerifier("handler-test-secret")
	require.NoError(t, err)
	return v
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	db, mock := newMockDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("recycle-more"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).WithArgs("asha@remat.app").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "asha@remat.app", string(hash), "Asha", "user", 320, 1700000000, 1700000000))

	issuer := newIssuer(t)
	rec := postJSON(t, Login(db, issuer), "/auth/login", `{"email":" Asha@Remat.app ","password":"recycle-more"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.NotNil(t, resp.User)
	assert.Equal(t, 320, resp.User.Points)

	claims, err := issuer.Verify(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestLogin_Rejects(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("recycle-more"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM users WHERE email = \$1`).
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("u1", "asha@remat.app", string(hash), "Asha", "user", 0, 1700000000, 1700000000))

		rec := postJSON(t, Login(db, newIssuer(t)), "/auth/login", `{"email":"asha@remat.app","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM users WHERE email = \$1`).WillReturnRows(sqlmock.NewRows(userCols))

		rec := postJSON(t, Login(db, newIssuer(t)), "/auth/login", `{"email":"ghost@remat.app","password":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("firebase-managed account has no password", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM users WHERE email = \$1`).
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("u2", "ravi@remat.app", "", "Ravi", "user", 0, 1700000000, 1700000000))

		rec := postJSON(t, Login(db, newIssuer(t)), "/auth/login", `{"email":"ravi@remat.app","password":""}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRegister(t *testing.T) {
	admins := middleware.AdminEmailSet([]string{"ops@remat.app"})

	t.Run("admin email gets admin role", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))

		issuer := newIssuer(t)
		rec := postJSON(t, Register(db, issuer, admins), "/auth/register", `{"name":"Ops","email":"OPS@remat.app","password":"long-enough"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.User)
		assert.Equal(t, models.RoleAdmin, resp.User.Role)
		assert.Equal(t, "ops@remat.app", resp.User.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

		rec := postJSON(t, Register(db, newIssuer(t), admins), "/auth/register", `{"email":"asha@remat.app","password":"long-enough"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		db, _ := newMockDB(t)
		rec := postJSON(t, Register(db, newIssuer(t), admins), "/auth/register", `{"email":"asha@remat.app","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSignup_UsesVerifiedIdentity(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"name":""}`))
	req = req.WithContext(middleware.WithUser(req.Context(), middleware.UserClaims{
		UserID: "firebase-uid", Email: "Meera@remat.app", Role: models.RoleUser,
	}))
	rec := httptest.NewRecorder()
	Signup(db).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got models.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "firebase-uid", got.ID)
	assert.Equal(t, "meera@remat.app", got.Email)
	assert.Equal(t, "User", got.Name)
	assert.Equal(t, 0, got.Points)
}

func TestGetMe_NotRegistered(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs("u9").WillReturnRows(sqlmock.NewRows(userCols))

	req := asUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "u9", models.RoleUser)
	rec := httptest.NewRecorder()
	GetMe(db).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLeaderboard_CapsLimit(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT id, name, points FROM users ORDER BY points DESC`).WithArgs(maxLeaderboardLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "points"}).
			AddRow("u1", "Asha", 900).
			AddRow("u2", "Ravi", 450))

	rec := httptest.NewRecorder()
	GetLeaderboard(db).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/leaderboard?limit=5000", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Equal(t, []models.LeaderboardEntry{{ID: "u1", Name: "Asha", Points: 900}, {ID: "u2", Name: "Ravi", Points: 450}}, entries)
}
