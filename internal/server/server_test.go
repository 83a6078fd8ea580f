package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerroom/holdem/internal/room"
	"github.com/pokerroom/holdem/internal/store"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	reg := room.NewRegistry(store.NewMem(), testLogger(), quartz.NewReal(), room.Options{}, func() int64 { return 7 })
	t.Cleanup(reg.CloseAll)
	srv := NewServer("localhost:0", reg, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, player string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if player != "" {
		req.Header.Set("X-Player-ID", player)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createRoom(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := doJSON(t, ts, http.MethodPost, "/rooms", "p1", createRoomRequest{
		Name:     "table",
		Username: "Alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[roomCreatedResponse](t, resp).ID
}

func TestCreateJoinStartActOverREST(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	id := createRoom(t, ts)

	resp := doJSON(t, ts, http.MethodPost, "/rooms/"+id+"/join", "p2", joinRequest{Username: "Bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[room.View](t, resp)
	assert.Len(t, view.Seats, 2)

	resp = doJSON(t, ts, http.MethodPost, "/rooms/"+id+"/start", "p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[room.View](t, resp)
	assert.Equal(t, "preflop", view.Phase)
	assert.Equal(t, 15, view.Pot)

	// Heads-up: the dealer (p1) acts first preflop.
	resp = doJSON(t, ts, http.MethodPost, "/rooms/"+id+"/act", "p1", actRequest{Action: "call"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[room.View](t, resp)
	assert.Equal(t, 20, view.Pot)
	assert.Equal(t, 1, view.CurrentTurn)
}

func TestGetRoomRedactsForViewer(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	id := createRoom(t, ts)
	doJSON(t, ts, http.MethodPost, "/rooms/"+id+"/join", "p2", joinRequest{Username: "Bob"})
	doJSON(t, ts, http.MethodPost, "/rooms/"+id+"/start", "p1", nil)

	resp := doJSON(t, ts, http.MethodGet, "/rooms/"+id, "p2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[room.View](t, resp)
	assert.Equal(t, room.HiddenCard, view.Seats[0].Cards[0], "opponent cards hidden")
	assert.NotEqual(t, room.HiddenCard, view.Seats[1].Cards[0], "own cards visible")

	// Anonymous spectators get a fully redacted view.
	resp = doJSON(t, ts, http.MethodGet, "/rooms/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[room.View](t, resp)
	assert.Equal(t, room.HiddenCard, view.Seats[1].Cards[0])
}

func TestListRooms(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	id := createRoom(t, ts)

	resp := doJSON(t, ts, http.MethodGet, "/rooms", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]room.Summary](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "table", list[0].Name)
}

func TestErrorStatusMapping(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	id := createRoom(t, ts)

	cases := []struct {
		name   string
		method string
		path   string
		player string
		body   any
		status int
		code   string
	}{
		{"unknown room", http.MethodGet, "/rooms/nope", "p1", nil, http.StatusNotFound, "room_not_found"},
		{"missing identity", http.MethodPost, "/rooms/" + id + "/join", "", joinRequest{Username: "X"}, http.StatusUnauthorized, "not_authenticated"},
		{"creator rejoin", http.MethodPost, "/rooms/" + id + "/join", "p1", joinRequest{Username: "Alice"}, http.StatusConflict, "already_joined"},
		{"end by non-member", http.MethodPost, "/rooms/" + id + "/end", "p9", nil, http.StatusForbidden, "not_creator"},
		{"start needs players", http.MethodPost, "/rooms/" + id + "/start", "p1", nil, http.StatusBadRequest, "need_players"},
		{"bad action name", http.MethodPost, "/rooms/" + id + "/act", "p1", actRequest{Action: "shove"}, http.StatusBadRequest, "invalid_action"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, ts, tc.method, tc.path, tc.player, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[ErrorData](t, resp).Code)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
