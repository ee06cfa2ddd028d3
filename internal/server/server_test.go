package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENABLE_RATE_LIMIT", "false")
	t.Setenv("SIM_TICK_MS", "1")
	config.ResetForTest()
	t.Cleanup(config.ResetForTest)
	return config.Load()
}

func TestInitStoreDisabled(t *testing.T) {
	st, err := InitStore(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.Nil(t, st)
}

func TestNewServerRejectsBadSolverSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.CollisionPolicy = "bounce"
	_, err := NewServer(cfg, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "COLLISION_POLICY")
}

func TestServeAndShutdown(t *testing.T) {
	srv, err := NewServer(testConfig(t), nil)
	require.NoError(t, err)
	defer srv.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "disabled", health.Database)

	// an endless simulation with a streaming client
	body := `{"bodies":[{"x":-1,"y":0,"vy":-0.5,"m":1},{"x":1,"y":0,"vy":0.5,"m":1}],"dt":0.01,"g":1}`
	resp, err = http.Post(base+"/api/simulations", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, 1, srv.Registry().Len())

	wsURL := "ws://" + ln.Addr().String() + "/api/simulations/" + created.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	require.Equal(t, 0, srv.Registry().Len())

	// the hub closes stream clients on shutdown
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
