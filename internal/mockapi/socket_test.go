package mockapi

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startListener serves the app on a real port; app.Test cannot upgrade
// websocket connections.
func startListener(t *testing.T, srv *Server) string {
	t.Helper()
	app := srv.App()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/socket"
}

func TestSocketDeliversBroadcasts(t *testing.T) {
	srv := New(Options{})
	srv.mu.Lock()
	srv.users["1"] = &user{ID: "1", Username: "flo"}
	srv.mu.Unlock()
	url := startListener(t, srv)

	token, err := srv.issueToken(&user{ID: "1"})
	require.NoError(t, err)

	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(map[string]string{"token": token}))

	// The push races connection registration; repeat until a frame lands.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				srv.Push("new-notification", "")
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var f struct {
		Event string `json:"event"`
	}
	require.NoError(t, json.Unmarshal(frame, &f))
	assert.Equal(t, "new-notification", f.Event)
}

func TestSocketRejectsBadTokens(t *testing.T) {
	srv := New(Options{})
	url := startListener(t, srv)

	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(map[string]string{"token": "garbage"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "the server closes unauthenticated sockets")
}
