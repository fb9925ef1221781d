package websocket

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
	"remat-backend/pkg/utils"
)

// NewUpgrader accepts connections from the listed origins. "*" or an empty
// list allows any origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

// HandleWebSocket upgrades an admin's HTTP connection to the live bin feed.
// Browsers cannot set headers on websocket requests, so the token may come
// from the "token" query parameter.
func HandleWebSocket(hub *Hub, verifier middleware.TokenVerifier, upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			var ok bool
			tokenString, ok = middleware.BearerToken(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
		}

		userClaims, err := verifier.Verify(r.Context(), tokenString)
		if err != nil {
			log.Printf("❌ Invalid websocket token: %v", err)
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if userClaims.Role != models.RoleAdmin {
			utils.RespondError(w, http.StatusForbidden, "Forbidden")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(userClaims.UserID, userClaims.Role, conn, hub)
		if !hub.attach(client) {
			log.Printf("⚠️  WebSocket hub stopped, closing connection for %s", userClaims.UserID)
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
