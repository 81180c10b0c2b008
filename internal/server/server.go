// Package server exposes teams and timelines over HTTP and runs playback
// sessions over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/litescript/ls-awaydays/internal/export"
	"github.com/litescript/ls-awaydays/internal/fixture"
	"github.com/litescript/ls-awaydays/internal/logging"
	"github.com/litescript/ls-awaydays/internal/publisher"
	"github.com/litescript/ls-awaydays/internal/state"
	"github.com/litescript/ls-awaydays/internal/timeline"
	"github.com/litescript/ls-awaydays/internal/version"
)

// Options configures a Server.
type Options struct {
	Timings     timeline.Config
	CORSOrigins []string
	// Streamer, when set, receives every session's presentation events.
	Streamer publisher.Streamer
}

// Server serves the dataset and owns the live sessions.
type Server struct {
	ds   *fixture.Dataset
	opts Options
	log  *logging.Logger

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates a server. Close ends every session.
func New(ds *fixture.Dataset, opts Options, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ds:       ds,
		opts:     opts,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", s.handleTeams)
		r.Get("/teams/{code}", s.handleTeam)
		r.Get("/teams/{code}/timeline", s.handleTimeline)
		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/{id}/events", s.handleSessionEvents)
	})

	r.Get("/ws/teams/{code}", s.handleWebSocket)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close ends every live session.
func (s *Server) Close() {
	s.cancel()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.CORSOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	active := len(s.sessions)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"service":         "ls-awaydays",
		"version":         version.Version,
		"teams":           len(s.ds.Teams()),
		"active_sessions": active,
	})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams := export.TeamSummaries(s.ds)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	})
}

// TeamResponse is the JSON body of GET /api/teams/{code}.
type TeamResponse struct {
	export.TeamSummary
	Stadium fixture.Stadium `json:"stadium"`
	Events  []EventView     `json:"events"`
}

// EventView is one itinerary entry as served over HTTP.
type EventView struct {
	Index       int     `json:"index"`
	Kind        string  `json:"kind"`
	From        string  `json:"from,omitempty"`
	To          string  `json:"to,omitempty"`
	Rival       string  `json:"rival"`
	Round       int     `json:"round"`
	RoundLabel  string  `json:"round_label"`
	Competition string  `json:"competition"`
	DistanceKm  float64 `json:"distance_km"`
	Transport   string  `json:"transport,omitempty"`
	Outcome     string  `json:"outcome,omitempty"`
}

func eventView(i int, ev fixture.Event) EventView {
	d := ev.Details()
	v := EventView{
		Index:       i,
		Kind:        ev.Kind().String(),
		Rival:       ev.Opponent(),
		Round:       d.Round,
		RoundLabel:  d.RoundLabel,
		Competition: d.Competition,
		DistanceKm:  ev.DistanceKm(),
	}
	if d.Outcome != fixture.OutcomeUnknown {
		v.Outcome = d.Outcome.String()
	}
	if leg, ok := ev.(fixture.Leg); ok {
		v.From, v.To = leg.From, leg.To
		v.Transport = leg.Transport().String()
	}
	return v
}

func (s *Server) team(w http.ResponseWriter, r *http.Request) (*fixture.Itinerary, bool) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	it, err := s.ds.Team(code)
	if err != nil {
		writeError(w, http.StatusNotFound, "team_not_found", "Team not found: "+code)
		return nil, false
	}
	return it, true
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	it, ok := s.team(w, r)
	if !ok {
		return
	}

	resp := TeamResponse{
		TeamSummary: export.TeamSummary{
			Code:       it.Team,
			Name:       it.Home.Name,
			ShortName:  it.Home.ShortName,
			City:       it.Home.City,
			Events:     it.Len(),
			DistanceKm: it.TotalDistanceKm(),
		},
		Stadium: it.Home,
		Events:  make([]EventView, 0, it.Len()),
	}
	for i, ev := range it.Events {
		resp.Events = append(resp.Events, eventView(i, ev))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTimeline returns the snapshot a seek to ?cursor=N produces (default: the end).
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	it, ok := s.team(w, r)
	if !ok {
		return
	}

	cursor := it.Len()
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > it.Len() {
			writeError(w, http.StatusBadRequest, "invalid_cursor",
				"cursor must be an integer between 0 and "+strconv.Itoa(it.Len()))
			return
		}
		cursor = n
	}

	writeJSON(w, http.StatusOK, timeline.Replay(it, s.ds, cursor, s.log))
}

// SessionInfo describes a live session.
type SessionInfo struct {
	ID        string         `json:"id"`
	Team      string         `json:"team"`
	CreatedAt time.Time      `json:"created_at"`
	State     timeline.State `json:"state"`
	Cursor    int            `json:"cursor"`
	Total     int            `json:"total"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	list := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		pb := sess.state.Playback()
		list = append(list, SessionInfo{
			ID:        sess.ID,
			Team:      sess.Team,
			CreatedAt: sess.CreatedAt,
			State:     pb.State,
			Cursor:    pb.Cursor,
			Total:     pb.Total,
		})
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": list,
		"count":    len(list),
	})
}

func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := s.session(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "session_not_found", "Session not found: "+id)
		return
	}

	var events []state.Event
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		events = sess.state.RecentEvents(n)
	} else {
		events = sess.state.Snapshot().Events
	}
	if events == nil {
		events = []state.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": id,
		"events":  events,
		"count":   len(events),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade: %v", err)
		return
	}

	code := strings.ToUpper(chi.URLParam(r, "code"))
	it, err := s.ds.Team(code)
	if err != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteJSON(Message{
			Type:      MessageTypeError,
			Payload:   ErrorPayload{Code: "team_not_found", Message: "Team not found: " + code},
			Timestamp: time.Now(),
		})
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "team not found"))
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)

	var extra timeline.Bridge
	if s.opts.Streamer != nil {
		rs := publisher.NewRedisStream(s.opts.Streamer, it.Team, publisher.DefaultBuffer, s.log.Named("redis"))
		go func() {
			if err := rs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warn("redis stream %s: %v", rs.Stream(), err)
			}
		}()
		extra = rs
	}

	sess := newSession(conn, it, s.ds, s.opts.Timings, extra, s.log.Named("session"))
	s.register(sess)

	go sess.writePump(ctx)
	go sess.run(ctx)
	go func() {
		sess.readPump(ctx)
		cancel()
		s.unregister(sess)
	}()
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.log.Info("session %s opened for %s (%d active)", sess.ID, sess.Team, n)
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	n := len(s.sessions)
	s.mu.Unlock()
	s.log.Info("session %s closed (%d active)", sess.ID, n)
}

func (s *Server) session(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorPayload{Code: code, Message: message})
}
