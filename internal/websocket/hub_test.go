package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, *middleware.HMACVerifier) {
	t.Helper()

	verifier, err := middleware.NewHMACVerifier("ws-secret")
	require.NoError(t, err)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(HandleWebSocket(hub, verifier, NewUpgrader(nil)))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv, verifier
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.GetClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishBinEventReachesAdmins(t *testing.T) {
	hub, srv, verifier := startHub(t)

	token, err := verifier.IssueToken(&models.User{ID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	event := models.BinEvent{
		Type:      models.BinEventStatus,
		BinID:     "bin-1",
		FillLevel: 95,
		Status:    models.BinStatusFull,
		Timestamp: 1_700_000_000,
	}
	hub.PublishBinEvent(event)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string          `json:"type"`
		Data models.BinEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, models.BinEventStatus, got.Type)
	assert.Equal(t, event, got.Data)
}

func TestHandleWebSocket_RejectsNonAdmins(t *testing.T) {
	_, srv, verifier := startHub(t)

	token, err := verifier.IssueToken(&models.User{ID: "citizen-1", Role: models.RoleUser})
	require.NoError(t, err)

	_, resp, err := dial(t, srv, token)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = dial(t, srv, "not-a-token")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv, verifier := startHub(t)

	token, err := verifier.IssueToken(&models.User{ID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	first, _, err := dial(t, srv, token)
	require.NoError(t, err)
	second, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer second.Close()
	waitForClients(t, hub, 2)

	first.Close()
	waitForClients(t, hub, 1)
}

func TestHub_StoppedHubDoesNotBlockClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	client := NewClient("admin-1", models.RoleAdmin, nil, hub)
	result := make(chan bool, 1)
	go func() {
		attached := hub.attach(client)
		hub.detach(client)
		result <- attached
	}()

	select {
	case attached := <-result:
		assert.False(t, attached)
	case <-time.After(2 * time.Second):
		t.Fatal("register/unregister blocked after the hub stopped")
	}
}

func TestHub_ShutdownReleasesConnectedClients(t *testing.T) {
	verifier, err := middleware.NewHMACVerifier("ws-secret")
	require.NoError(t, err)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(HandleWebSocket(hub, verifier, NewUpgrader(nil)))
	defer srv.Close()

	token, err := verifier.IssueToken(&models.User{ID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	cancel()
	<-stopped
	assert.Equal(t, 0, hub.GetClientCount())

	// the closed send channel makes the server end the connection
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"https://remat.app"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://remat.app")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, up.CheckOrigin(req))

	assert.True(t, NewUpgrader([]string{"*"}).CheckOrigin(req))
}
