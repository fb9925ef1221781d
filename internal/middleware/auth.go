package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"

	"remat-backend/internal/models"
	"remat-backend/pkg/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

var ErrInvalidToken = errors.New("invalid or expired token")

type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenVerifier validates a bearer token and returns the caller's identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (UserClaims, error)
}

// HMACVerifier issues and validates HS256 tokens for local password login
type HMACVerifier struct {
	secret []byte
	ttl    time.Duration
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("APP_JWT_SECRET is required for local auth")
	}
	return &HMACVerifier{secret: []byte(secret), ttl: 7 * 24 * time.Hour}, nil
}

// IssueToken signs a token carrying the user's id, email and role
func (v *HMACVerifier) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(v.ttl).Unix(),
	})
	return token.SignedString(v.secret)
}

func (v *HMACVerifier) Verify(ctx context.Context, tokenString string) (UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return UserClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return UserClaims{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}

	return UserClaims{UserID: userID, Email: email, Role: role}, nil
}

// FirebaseVerifier validates Firebase ID tokens. The admin role is granted to
// configured email addresses.
type FirebaseVerifier struct {
	client      *auth.Client
	adminEmails map[string]bool
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App, adminEmails []string) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting auth client: %w", err)
	}
	return &FirebaseVerifier{client: client, adminEmails: AdminEmailSet(adminEmails)}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, tokenString string) (UserClaims, error) {
	token, err := v.client.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return UserClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := token.Claims["email"].(string)
	return UserClaims{
		UserID: token.UID,
		Email:  email,
		Role:   RoleForEmail(v.adminEmails, email),
	}, nil
}

// AdminEmailSet normalizes a list of admin emails for lookups
func AdminEmailSet(emails []string) map[string]bool {
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = true
		}
	}
	return set
}

// RoleForEmail returns admin for configured admin emails and user otherwise
func RoleForEmail(adminEmails map[string]bool, email string) string {
	if adminEmails[strings.ToLower(strings.TrimSpace(email))] {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Auth validates the bearer token and adds user claims to context
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Invalid auth header")
				return
			}

			claims, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				log.Printf("❌ %s %s: %v", r.Method, r.URL.Path, err)
				utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole middleware checks if user has required role (must be used after Auth)
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := GetUserFromContext(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if userClaims.Role != role {
				log.Printf("❌ Insufficient permissions: required %s, got %s", role, userClaims.Role)
				utils.RespondError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
	return userClaims, ok
}

// WithUser returns a copy of ctx carrying claims
func WithUser(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
