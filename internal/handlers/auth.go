package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"remat-backend/internal/database"
	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
	"remat-backend/pkg/utils"
)

const minPasswordLength = 8

// TokenIssuer signs session tokens in local auth mode
type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK    bool                 `json:"ok"`
	Token string               `json:"token,omitempty"`
	User  *models.UserResponse `json:"user,omitempty"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Login checks an email and password and issues a token (local auth mode)
func Login(db *sqlx.DB, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		email := normalizeEmail(req.Email)
		log.Printf("🔐 Login attempt for: %s", email)

		user, err := database.GetUserByEmail(r.Context(), db, email)
		if err != nil {
			if !errors.Is(err, models.ErrUserNotFound) {
				respondServiceError(w, err, "Login failed")
				return
			}
			log.Printf("❌ User not found: %s", email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			log.Printf("❌ Invalid password for: %s", email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		token, err := issuer.IssueToken(user)
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		userResponse := user.ToUserResponse()
		log.Printf("✅ Login successful: %s (%s)", user.Email, user.Role)
		utils.RespondJSON(w, http.StatusOK, LoginResponse{OK: true, Token: token, User: &userResponse})
	}
}

// Register creates a password account and signs the user in (local auth mode)
func Register(db *sqlx.DB, issuer TokenIssuer, adminEmails map[string]bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		email := normalizeEmail(req.Email)
		if email == "" || len(req.Password) < minPasswordLength {
			utils.RespondError(w, http.StatusBadRequest, "email and a password of at least 8 characters are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("❌ Failed to hash password: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create account")
			return
		}

		user := &models.User{
			ID:       uuid.New().String(),
			Email:    email,
			Password: string(hash),
			Name:     displayName(req.Name),
			Role:     middleware.RoleForEmail(adminEmails, email),
		}
		if err := database.CreateUser(r.Context(), db, user); err != nil {
			respondServiceError(w, err, "Failed to create account")
			return
		}

		token, err := issuer.IssueToken(user)
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		userResponse := user.ToUserResponse()
		log.Printf("✅ Account created: %s (%s)", user.Email, user.Role)
		utils.RespondJSON(w, http.StatusCreated, LoginResponse{OK: true, Token: token, User: &userResponse})
	}
}

// Signup creates the profile for an identity already verified by the
// token middleware (Firebase auth mode)
func Signup(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req SignupRequest
		if err := decodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		email := normalizeEmail(userClaims.Email)
		if email == "" {
			utils.RespondError(w, http.StatusBadRequest, "token has no email")
			return
		}

		user := &models.User{
			ID:    userClaims.UserID,
			Email: email,
			Name:  displayName(req.Name),
			Role:  userClaims.Role,
		}
		if user.Role != models.RoleAdmin {
			user.Role = models.RoleUser
		}

		if err := database.CreateUser(r.Context(), db, user); err != nil {
			if errors.Is(err, models.ErrUserExists) {
				utils.RespondError(w, http.StatusConflict, "User already exists. Please login.")
				return
			}
			respondServiceError(w, err, "Failed to create account")
			return
		}

		log.Printf("✅ Profile created: %s (%s)", user.Email, user.Role)
		utils.RespondJSON(w, http.StatusCreated, user.ToUserResponse())
	}
}

// GetMe returns the caller's profile. In Firebase mode it doubles as the
// login check: 404 means the account still has to sign up.
func GetMe(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := database.GetUserByID(r.Context(), db, userClaims.UserID)
		if err != nil {
			respondServiceError(w, err, "Failed to fetch profile")
			return
		}
		utils.RespondJSON(w, http.StatusOK, user.ToUserResponse())
	}
}

func DeleteMe(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := database.DeleteUser(r.Context(), db, userClaims.UserID); err != nil {
			respondServiceError(w, err, "Failed to delete account")
			return
		}

		log.Printf("🗑️  Account deleted: %s", userClaims.UserID)
		utils.RespondMessage(w, http.StatusOK, "Account deleted successfully")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "User"
}
