package portal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialStatus opens a status connection and waits until the hub has
// registered it, so a broadcast fired right after cannot miss it.
func dialStatus(t *testing.T, s *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		s.wsHub.mu.Lock()
		defer s.wsHub.mu.Unlock()
		return len(s.wsHub.connections) == 1
	}, 2*time.Second, 10*time.Millisecond, "hub did not register the connection")

	return conn
}

func TestStatusPushOnSubmission(t *testing.T) {
	s, _ := newTestServer()
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	conn := dialStatus(t, s, ts)

	resp, err := http.Post(ts.URL+"/api/v1/credentials", "application/json",
		strings.NewReader(`{"ssid":"home-network","password":"hunter2-hunter2"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var status StatusResponse
	require.NoError(t, conn.ReadJSON(&status))
	assert.True(t, status.Submitted)
	assert.True(t, status.ClientReady)
	assert.Equal(t, "setup-ap", status.APSSID)
}

func TestStatusPushDeliveredBeforeStop(t *testing.T) {
	s, _ := newTestServer()
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	conn := dialStatus(t, s, ts)

	// broadcast has written the frame by the time it returns, so closing
	// the connections immediately afterward cannot lose it.
	s.wsHub.broadcast(StatusResponse{APSSID: "setup-ap", Submitted: true})
	s.wsHub.stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var status StatusResponse
	require.NoError(t, conn.ReadJSON(&status))
	assert.True(t, status.Submitted)
}

func TestStatusHubRejectsConnectionsAfterStop(t *testing.T) {
	s, _ := newTestServer()
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	s.wsHub.stop()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		// The upgrade itself may already fail once the hub is closed.
		return
	}
	defer conn.Close()

	// A stopped hub closes the connection without delivering anything.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	s.wsHub.mu.Lock()
	defer s.wsHub.mu.Unlock()
	assert.Empty(t, s.wsHub.connections)
}
