package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Conference/internal/app"
	"github.com/dkeye/Conference/internal/app/orch"
	"github.com/dkeye/Conference/internal/config"
	"github.com/dkeye/Conference/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type         string               `json:"type"`
	Error        string               `json:"error"`
	Room         domain.RoomID        `json:"room"`
	Name         string               `json:"name"`
	ID           domain.ParticipantID `json:"id"`
	Action       string               `json:"action"`
	Participants []domain.Participant `json:"participants"`
	Tracks       []json.RawMessage    `json:"tracks"`
	Members      []domain.MemberInfo  `json:"members"`
}

func newServer(t *testing.T, joinLimit int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		ReadLimit:    1 << 15,
		PingPeriod:   time.Minute,
		SendBuffer:   64,
		JoinLimit:    joinLimit,
		JoinInterval: time.Minute,
	}
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(nil),
		Policy:   app.TolerantPolicy{},
	}
	ctl := NewSignalWSController(o, cfg, nil)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", c.Query("sid"))
		ctl.HandleSignal(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, sid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?sid=" + sid
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(v))
}

// next reads frames until match accepts one.
func next(t *testing.T, c *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, c.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func ofType(typ string) func(frame) bool {
	return func(f frame) bool { return f.Type == typ }
}

func createRoom(t *testing.T, c *websocket.Conn) domain.RoomID {
	t.Helper()
	send(t, c, map[string]any{"type": "create_room", "name": "main"})
	return next(t, c, ofType("room_created")).Room
}

func TestSignal_WhoAmIOnConnect(t *testing.T) {
	srv := newServer(t, 10)
	c := dial(t, srv, "a")

	f := next(t, c, ofType("whoami"))
	assert.Equal(t, domain.DefaultMemberName, f.Name)
	assert.NotEmpty(t, f.ID)

	send(t, c, map[string]any{"type": "ping"})
	next(t, c, ofType("pong"))
}

func TestSignal_JoinBuildsViews(t *testing.T) {
	srv := newServer(t, 10)
	a := dial(t, srv, "a")
	b := dial(t, srv, "b")

	room := createRoom(t, a)
	send(t, a, map[string]any{"type": "join", "room": room, "name": "alice"})
	joined := next(t, a, ofType("joined"))
	assert.Equal(t, room, joined.Room)
	require.Len(t, joined.Members, 1)
	assert.Equal(t, "alice", joined.Members[0].Name)
	assert.Equal(t, domain.RoleModerator, joined.Members[0].Role)

	send(t, b, map[string]any{"type": "join", "room": room, "name": "bob"})
	bs := next(t, b, func(f frame) bool { return f.Type == "state" && len(f.Participants) == 2 })
	assert.Equal(t, "bob", bs.Participants[0].Name)
	assert.True(t, bs.Participants[0].Local)
	assert.Equal(t, "alice", bs.Participants[1].Name)
	assert.Equal(t, domain.RoleModerator, bs.Participants[1].Role)

	as := next(t, a, func(f frame) bool { return f.Type == "state" && len(f.Participants) == 2 })
	assert.Equal(t, "participant-added", as.Action)
	assert.Equal(t, "bob", as.Participants[1].Name)

	// pin stays in bob's view.
	send(t, b, map[string]any{"type": "pin", "id": bs.Participants[1].ID})
	pinned := next(t, b, func(f frame) bool { return f.Action == "participant-pinned" })
	assert.True(t, pinned.Participants[1].Pinned)

	send(t, b, map[string]any{"type": "speaking"})
	speaking := next(t, a, func(f frame) bool { return f.Action == "dominant-speaker-changed" })
	assert.True(t, speaking.Participants[1].Speaking)

	send(t, b, map[string]any{"type": "role", "id": as.Participants[0].ID, "role": "participant"})
	assert.Equal(t, "forbidden", next(t, b, ofType("error")).Error)

	send(t, b, map[string]any{"type": "leave"})
	next(t, b, ofType("left"))
	left := next(t, a, func(f frame) bool { return f.Action == "participant-removed" })
	assert.Len(t, left.Participants, 1)
}

func TestSignal_Update(t *testing.T) {
	srv := newServer(t, 10)
	a := dial(t, srv, "a")
	room := createRoom(t, a)
	send(t, a, map[string]any{"type": "join", "room": room})
	next(t, a, ofType("joined"))

	send(t, a, map[string]any{"type": "update", "name": "alice", "videoStarted": true, "role": "moderator"})
	f := next(t, a, func(f frame) bool { return f.Action == "participant-updated" })
	require.Len(t, f.Participants, 1)
	assert.Equal(t, "alice", f.Participants[0].Name)
	assert.True(t, f.Participants[0].VideoStarted)

	send(t, a, map[string]any{"type": "update"})
	assert.Equal(t, "empty_update", next(t, a, ofType("error")).Error)

	send(t, a, map[string]any{"type": "rename", "name": ""})
	assert.Equal(t, "invalid_name", next(t, a, ofType("error")).Error)
}

func TestSignal_Errors(t *testing.T) {
	srv := newServer(t, 1)
	a := dial(t, srv, "a")

	send(t, a, map[string]any{"type": "join", "room": "missing"})
	assert.Equal(t, "no_room", next(t, a, ofType("error")).Error)

	send(t, a, map[string]any{"type": "join", "room": "missing"})
	assert.Equal(t, "rate_limited", next(t, a, ofType("error")).Error)

	send(t, a, map[string]any{"type": "bogus"})
	assert.Equal(t, "unknown_type", next(t, a, ofType("error")).Error)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, "bad_payload", next(t, a, ofType("error")).Error)

	send(t, a, map[string]any{"type": "leave"})
	assert.Equal(t, "not_in_room", next(t, a, ofType("error")).Error)

	send(t, a, map[string]any{"type": "track", "trackId": "nope", "muted": true})
	assert.Equal(t, "no_track", next(t, a, ofType("error")).Error)
}

func TestSignal_JoinWithNameUpdatesRoommates(t *testing.T) {
	srv := newServer(t, 10)
	a := dial(t, srv, "a")
	b := dial(t, srv, "b")

	room := createRoom(t, a)
	send(t, a, map[string]any{"type": "join", "room": room, "name": "alice"})
	next(t, a, ofType("joined"))
	send(t, b, map[string]any{"type": "join", "room": room, "name": "bob"})
	joined := next(t, b, ofType("joined"))
	require.Len(t, joined.Members, 2)
	next(t, a, func(f frame) bool { return f.Type == "state" && len(f.Participants) == 2 })

	// Joining the same room again with a new name is a rename.
	send(t, b, map[string]any{"type": "join", "room": room, "name": "bobby"})
	renamed := next(t, a, func(f frame) bool { return f.Action == "participant-updated" })
	require.Len(t, renamed.Participants, 2)
	assert.Equal(t, "bobby", renamed.Participants[1].Name)
}
