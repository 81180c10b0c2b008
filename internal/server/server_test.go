package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/timeline"
)

func newTestServer(t *testing.T, timings timeline.Config) (*Server, *httptest.Server, *fixture.Dataset) {
	t.Helper()
	ds, err := fixture.Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	srv := New(ds, Options{Timings: timings}, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts, ds
}

func getJSON(t *testing.T, url string, wantStatus int, v interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestHealth(t *testing.T) {
	_, ts, _ := newTestServer(t, timeline.DefaultConfig())

	var body map[string]interface{}
	getJSON(t, ts.URL+"/health", http.StatusOK, &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["teams"].(float64) < 2 {
		t.Errorf("teams = %v, want >= 2", body["teams"])
	}

	getJSON(t, ts.URL+"/healthz", http.StatusOK, nil)
}

func TestTeams(t *testing.T) {
	_, ts, _ := newTestServer(t, timeline.DefaultConfig())

	var body struct {
		Teams []struct {
			Code   string `json:"code"`
			Events int    `json:"events"`
		} `json:"teams"`
		Count int `json:"count"`
	}
	getJSON(t, ts.URL+"/api/teams", http.StatusOK, &body)
	if body.Count != len(body.Teams) || body.Count < 2 {
		t.Fatalf("count = %d, teams = %d", body.Count, len(body.Teams))
	}
	if body.Teams[0].Code != "BEL" || body.Teams[0].Events != 18 {
		t.Errorf("first team = %+v, want BEL with 18 events", body.Teams[0])
	}
}

func TestTeam(t *testing.T) {
	_, ts, _ := newTestServer(t, timeline.DefaultConfig())

	var team TeamResponse
	getJSON(t, ts.URL+"/api/teams/bel", http.StatusOK, &team)
	if team.Code != "BEL" || len(team.Events) != 18 {
		t.Fatalf("team = %s with %d events", team.Code, len(team.Events))
	}
	first := team.Events[0]
	if first.Index != 0 || first.Kind == "" {
		t.Errorf("first event = %+v", first)
	}

	var errBody ErrorPayload
	getJSON(t, ts.URL+"/api/teams/XXX", http.StatusNotFound, &errBody)
	if errBody.Code != "team_not_found" {
		t.Errorf("error code = %q", errBody.Code)
	}
}

func TestTimeline_MatchesDirectSeek(t *testing.T) {
	_, ts, ds := newTestServer(t, timeline.DefaultConfig())
	it, err := ds.Team("BEL")
	if err != nil {
		t.Fatal(err)
	}

	for _, cursor := range []int{0, 1, 7, 18} {
		var got timeline.Snapshot
		getJSON(t, ts.URL+"/api/teams/BEL/timeline?cursor="+strconv.Itoa(cursor), http.StatusOK, &got)

		want := timeline.Replay(it, ds, cursor, nil)
		if got.Cursor != want.Cursor || got.Total != want.Total {
			t.Errorf("cursor %d: got %d/%d, want %d/%d", cursor, got.Cursor, got.Total, want.Cursor, want.Total)
		}
		if got.Totals != want.Totals {
			t.Errorf("cursor %d: totals %+v, want %+v", cursor, got.Totals, want.Totals)
		}
		if len(got.Rows) != len(want.Rows) || len(got.Arcs) != len(want.Arcs) {
			t.Errorf("cursor %d: rows %d arcs %d, want %d %d", cursor, len(got.Rows), len(got.Arcs), len(want.Rows), len(want.Arcs))
		}
		if got.Info != want.Info {
			t.Errorf("cursor %d: info %+v, want %+v", cursor, got.Info, want.Info)
		}
	}

	var end timeline.Snapshot
	getJSON(t, ts.URL+"/api/teams/BEL/timeline", http.StatusOK, &end)
	if end.Cursor != 18 || !end.Info.Completed {
		t.Errorf("default cursor = %d, info %+v", end.Cursor, end.Info)
	}

	getJSON(t, ts.URL+"/api/teams/BEL/timeline?cursor=19", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/api/teams/BEL/timeline?cursor=abc", http.StatusBadRequest, nil)
}

func TestSessionEvents_NotFound(t *testing.T) {
	_, ts, _ := newTestServer(t, timeline.DefaultConfig())
	getJSON(t, ts.URL+"/api/sessions/nope/events", http.StatusNotFound, nil)
}

type incoming struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, ts *httptest.Server, team string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/teams/" + team
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(incoming) bool) []incoming {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var seen []incoming
	for {
		var msg incoming
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read after %d messages: %v", len(seen), err)
		}
		seen = append(seen, msg)
		if match(msg) {
			return seen
		}
	}
}

func stateIs(state string, cursor int) func(incoming) bool {
	return func(m incoming) bool {
		if m.Type != MessageTypeState {
			return false
		}
		var p struct {
			State  string `json:"state"`
			Cursor int    `json:"cursor"`
		}
		json.Unmarshal(m.Payload, &p)
		return p.State == state && p.Cursor == cursor
	}
}

func TestWebSocket_JumpToEnd(t *testing.T) {
	timings := timeline.DefaultConfig()
	timings.WarmUp = time.Hour
	timings.FrameInterval = 5 * time.Millisecond
	_, ts, ds := newTestServer(t, timings)

	conn := dial(t, ts, "BEL")
	readUntil(t, conn, stateIs("idle", 0))

	if err := conn.WriteJSON(ClientMessage{Type: MessageTypeControl, Action: ActionJumpEnd}); err != nil {
		t.Fatal(err)
	}
	msgs := readUntil(t, conn, stateIs("completed", 18))

	var rows, arcs, cleared int
	var lastInfo timeline.Info
	for _, m := range msgs {
		switch m.Type {
		case MessageTypeRowsCleared:
			cleared++
			rows, arcs = 0, 0
		case MessageTypeRow:
			rows++
		case MessageTypeArc:
			arcs++
		case MessageTypeInfo:
			json.Unmarshal(m.Payload, &lastInfo)
		}
	}

	it, _ := ds.Team("BEL")
	want := timeline.Replay(it, ds, 18, nil)
	if cleared != 1 {
		t.Errorf("rows_cleared = %d, want 1", cleared)
	}
	if rows != len(want.Rows) || arcs != len(want.Arcs) {
		t.Errorf("rows %d arcs %d, want %d %d", rows, arcs, len(want.Rows), len(want.Arcs))
	}
	if lastInfo.Headline != timeline.CompletedMessage {
		t.Errorf("info = %+v", lastInfo)
	}

	// The session shows up in the registry with its event log
	var list struct {
		Sessions []SessionInfo `json:"sessions"`
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		getJSON(t, ts.URL+"/api/sessions", http.StatusOK, &list)
		if len(list.Sessions) == 1 && list.Sessions[0].Cursor == 18 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("sessions = %+v", list.Sessions)
		}
		time.Sleep(10 * time.Millisecond)
	}

	var events struct {
		Events []struct {
			Type string `json:"type"`
		} `json:"events"`
	}
	getJSON(t, ts.URL+"/api/sessions/"+list.Sessions[0].ID+"/events", http.StatusOK, &events)
	var sawSeek bool
	for _, e := range events.Events {
		if e.Type == "SEEK" {
			sawSeek = true
		}
	}
	if !sawSeek {
		t.Errorf("events = %+v, want a SEEK", events.Events)
	}
}

func TestWebSocket_AutoPlay(t *testing.T) {
	timings := timeline.Config{
		WarmUp:          0,
		ArcDuration:     20 * time.Millisecond,
		InterEventDelay: time.Millisecond,
		HomeDwell:       time.Millisecond,
		FrameInterval:   2 * time.Millisecond,
	}
	_, ts, _ := newTestServer(t, timings)

	conn := dial(t, ts, "RIV")
	msgs := readUntil(t, conn, stateIs("completed", 18))

	var frames, completeArcs int
	for _, m := range msgs {
		switch m.Type {
		case MessageTypeFrame:
			frames++
		case MessageTypeArc:
			var a timeline.ArcSnapshot
			json.Unmarshal(m.Payload, &a)
			if a.Complete {
				completeArcs++
			}
		}
	}
	if frames == 0 {
		t.Error("expected frame messages during auto-play")
	}
	if completeArcs != 12 {
		t.Errorf("complete arcs = %d, want 12", completeArcs)
	}
}

func TestWebSocket_InvalidControl(t *testing.T) {
	timings := timeline.DefaultConfig()
	timings.WarmUp = time.Hour
	_, ts, _ := newTestServer(t, timings)

	conn := dial(t, ts, "BEL")
	if err := conn.WriteJSON(map[string]string{"type": "control", "action": "fly"}); err != nil {
		t.Fatal(err)
	}
	msgs := readUntil(t, conn, func(m incoming) bool { return m.Type == MessageTypeError })

	var p ErrorPayload
	json.Unmarshal(msgs[len(msgs)-1].Payload, &p)
	if p.Code != "invalid_message" {
		t.Errorf("error code = %q", p.Code)
	}
}

func TestWebSocket_UnknownTeam(t *testing.T) {
	_, ts, _ := newTestServer(t, timeline.DefaultConfig())

	conn := dial(t, ts, "XXX")
	msgs := readUntil(t, conn, func(m incoming) bool { return true })

	var p ErrorPayload
	json.Unmarshal(msgs[0].Payload, &p)
	if msgs[0].Type != MessageTypeError || p.Code != "team_not_found" {
		t.Errorf("first message = %s %+v", msgs[0].Type, p)
	}
}

func TestAction_Valid(t *testing.T) {
	for _, a := range []Action{ActionRestart, ActionStepBack, ActionTogglePause, ActionStepForward, ActionJumpEnd, ActionJumpStart} {
		if !a.Valid() {
			t.Errorf("%q should be valid", a)
		}
	}
	if Action("rewind").Valid() {
		t.Error("rewind should be invalid")
	}
}

func TestStatePayload(t *testing.T) {
	snap := timeline.Snapshot{State: timeline.StatePaused, Cursor: 3, Total: 18, Paused: true, CanStepBack: true, CanStepForward: true}
	want := StatePayload{State: timeline.StatePaused, Cursor: 3, Total: 18, Paused: true, CanStepBack: true, CanStepForward: true}
	if got := statePayload(snap); !reflect.DeepEqual(got, want) {
		t.Errorf("statePayload = %+v, want %+v", got, want)
	}
}
