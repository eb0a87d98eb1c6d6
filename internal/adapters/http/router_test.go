package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/app/orch"
	"github.com/dkeye/Conference/internal/config"
	"github.com/dkeye/Conference/internal/core"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t    *testing.T
	srv  *httptest.Server
	http *http.Client
}

func newTestServer(t *testing.T) (*testClient, *orch.Orchestrator) {
	t.Helper()
	cfg := &config.Config{
		Mode:         "test",
		StaticPath:   t.TempDir(),
		ReadLimit:    1 << 15,
		PingPeriod:   time.Minute,
		Secret:       "test-secret",
		SendBuffer:   64,
		JoinLimit:    10,
		JoinInterval: time.Minute,
		MetricsPath:  "/metrics",
	}
	reg := prometheus.NewRegistry()
	metrics := app.NewMetrics(reg)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(metrics),
		Policy:   app.SimplePolicy{},
		Metrics:  metrics,
	}

	srv := httptest.NewServer(SetupRouter(context.Background(), cfg, o, metrics, reg))
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, srv: srv, http: &http.Client{Jar: jar}}, o
}

func (c *testClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, r)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func (c *testClient) dial() *websocket.Conn {
	c.t.Helper()
	d := websocket.Dialer{Jar: c.http.Jar, HandshakeTimeout: 2 * time.Second}
	ws, _, err := d.Dial("ws"+strings.TrimPrefix(c.srv.URL, "http")+"/api/ws/signal", nil)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestRooms(t *testing.T) {
	c, _ := newTestServer(t)

	status, body := c.do(http.MethodPost, "/api/rooms", map[string]string{"name": "standup"})
	require.Equal(t, http.StatusCreated, status)
	var room domain.Room
	require.NoError(t, json.Unmarshal(body, &room))
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, domain.RoomName("standup"), room.Name)

	status, body = c.do(http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, room.ID, list.Rooms[0].ID)

	status, _ = c.do(http.MethodPost, "/api/rooms", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStateAndStage(t *testing.T) {
	c, o := newTestServer(t)

	status, _ := c.do(http.MethodGet, "/api/state", nil)
	assert.Equal(t, http.StatusNotFound, status)

	room := o.Rooms.CreateRoom("main").Room().ID
	ws := c.dial()
	require.NoError(t, ws.WriteJSON(map[string]any{"type": "join", "room": room, "name": "alice"}))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f struct {
			Type string `json:"type"`
		}
		require.NoError(t, ws.ReadJSON(&f))
		if f.Type == "joined" {
			break
		}
	}

	status, body := c.do(http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, status)
	var snap struct {
		Participants []domain.Participant `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "alice", snap.Participants[0].Name)
	assert.True(t, snap.Participants[0].Local)

	status, body = c.do(http.MethodGet, "/api/stage", nil)
	require.Equal(t, http.StatusOK, status)
	var stage app.LargeVideoContainer
	require.NoError(t, json.Unmarshal(body, &stage))
	assert.Equal(t, app.LargeVideoStyle, stage.Style)
	require.NotNil(t, stage.Child)
	assert.Equal(t, "alice", stage.Child.Participant.Name)
}

func TestMetricsEndpoint(t *testing.T) {
	c, o := newTestServer(t)
	o.Rooms.CreateRoom("main")

	status, body := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "conference_rooms_active 1")
}
