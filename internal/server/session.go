package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/logging"
	"github.com/litescript/ls-awaydays/internal/scene"
	"github.com/litescript/ls-awaydays/internal/state"
	"github.com/litescript/ls-awaydays/internal/stats"
	"github.com/litescript/ls-awaydays/internal/timeline"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512

	sendBufferSize = 512
)

// Session is one WebSocket client watching its own playback.
// The controller is only touched by the run goroutine.
type Session struct {
	ID        string
	Team      string
	CreatedAt time.Time

	conn     *websocket.Conn
	send     chan Message
	commands chan Action
	state    *state.Manager
	log      *logging.Logger

	ctrl     *timeline.Controller
	frame    time.Duration
	arcsSent int
	// drawing is the index of the arc still being drawn, or -1.
	drawing   int
	lastState StatePayload
	sentState bool
}

func newSession(conn *websocket.Conn, it *fixture.Itinerary, ds *fixture.Dataset, cfg timeline.Config, extra timeline.Bridge, log *logging.Logger) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		Team:      it.Team,
		CreatedAt: time.Now(),
		conn:      conn,
		send:      make(chan Message, sendBufferSize),
		commands:  make(chan Action, 16),
		state:     state.NewManager(state.DefaultConfig()),
		frame:     cfg.FrameInterval,
		drawing:   -1,
	}
	s.log = log.Named(s.ID[:8])

	var bridge timeline.Bridge = sessionBridge{s}
	if extra != nil {
		bridge = timeline.MultiBridge{bridge, extra}
	}
	sc := scene.New(ds.Stadiums, it.Team, nil)
	s.ctrl = timeline.New(it, ds, sc, bridge, cfg, s.log)
	return s
}

// State returns the session's playback log.
func (s *Session) State() *state.Manager { return s.state }

// emit queues a message without blocking the controller.
func (s *Session) emit(t MessageType, payload interface{}) {
	select {
	case s.send <- Message{Type: t, Payload: payload, Timestamp: time.Now()}:
	default:
		s.log.Warn("send buffer full, dropping %s", t)
	}
}

// run owns the controller: it starts playback, ticks it and applies controls until ctx ends.
func (s *Session) run(ctx context.Context) {
	interval := s.frame
	if interval <= 0 {
		interval = timeline.DefaultConfig().FrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	now := time.Now()
	s.ctrl.Start(now)
	s.sync(now)

	for {
		select {
		case <-ctx.Done():
			return
		case a := <-s.commands:
			now := time.Now()
			if err := apply(s.ctrl, a, now); err != nil {
				s.emit(MessageTypeError, ErrorPayload{Code: "invalid_action", Message: err.Error()})
				continue
			}
			s.log.Debug("control %s", a)
			s.sync(now)
		case now := <-ticker.C:
			if !s.ctrl.Busy() {
				continue
			}
			s.ctrl.Tick(now)
			s.sync(now)
		}
	}
}

// sync pushes new arcs, the flight frame and state changes, then records the snapshot.
func (s *Session) sync(now time.Time) {
	snap := s.ctrl.Snapshot(now)

	if i := s.drawing; i >= 0 && i < s.arcsSent && i < len(snap.Arcs) && snap.Arcs[i].Complete {
		s.emit(MessageTypeArc, snap.Arcs[i])
		s.drawing = -1
	}
	for i := min(s.arcsSent, len(snap.Arcs)); i < len(snap.Arcs); i++ {
		s.emit(MessageTypeArc, snap.Arcs[i])
		if !snap.Arcs[i].Complete {
			s.drawing = i
		}
	}
	s.arcsSent = len(snap.Arcs)

	if snap.Flight != nil {
		s.emit(MessageTypeFrame, snap.Flight)
	}

	if sp := statePayload(snap); !s.sentState || sp != s.lastState {
		s.emit(MessageTypeState, sp)
		s.lastState = sp
		s.sentState = true
	}

	s.state.Update(snap, now)
}

// readPump forwards controls to the run goroutine until the connection fails.
func (s *Session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("unexpected close: %v", err)
			}
			return
		}

		if msg.Type != MessageTypeControl || !msg.Action.Valid() {
			s.emit(MessageTypeError, ErrorPayload{
				Code:    "invalid_message",
				Message: "expected {\"type\":\"control\",\"action\":...}",
			})
			continue
		}

		select {
		case s.commands <- msg.Action:
		case <-ctx.Done():
			return
		}
	}
}

// writePump is the only writer on the connection.
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.Warn("write: %v", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sessionBridge turns controller updates into WebSocket messages.
type sessionBridge struct{ s *Session }

func (b sessionBridge) SetInfo(info timeline.Info) { b.s.emit(MessageTypeInfo, info) }

func (b sessionBridge) AppendRow(row stats.Row) { b.s.emit(MessageTypeRow, row) }

// ClearRows also tells the client to drop its arcs; they are resent on the next sync.
func (b sessionBridge) ClearRows() {
	b.s.arcsSent = 0
	b.s.drawing = -1
	b.s.emit(MessageTypeRowsCleared, nil)
}

func (b sessionBridge) SetStat(cell stats.Cell) { b.s.emit(MessageTypeStat, cell) }
