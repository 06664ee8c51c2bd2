// Package timeline exposes a recorded simulation over HTTP: point-in-time
// queries, the unfilled-ticket report, the persisted event log and a live
// websocket stream.
package timeline

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/fieldsim/core/dispatch"
	"github.com/kilianp07/fieldsim/core/eventlog"
	"github.com/kilianp07/fieldsim/core/logger"
	"github.com/kilianp07/fieldsim/core/model"
	coretl "github.com/kilianp07/fieldsim/core/timeline"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server serves the playback endpoints for one timeline.
type Server struct {
	tl    *coretl.Timeline
	token string
	log   logger.Logger

	mu     sync.RWMutex
	report *dispatch.Report
	store  eventlog.Store
}

// NewServer returns a Server reading from tl. Requests must carry
// "Authorization: Bearer <token>" when token is non-empty.
func NewServer(tl *coretl.Timeline, token string, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop{}
	}
	return &Server{tl: tl, token: token, log: log}
}

// SetReport publishes the report of a finished run.
func (s *Server) SetReport(r *dispatch.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

// Handler returns the routed endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/timeline", s.handleEvents)
	mux.HandleFunc("/api/timeline/state", s.handleState)
	mux.HandleFunc("/api/timeline/stream", s.handleStream)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/eventlog", s.handleEventLog)
	return s.authorize(mux)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+s.token && r.URL.Query().Get("token") != s.token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// GET /api/timeline?until=&technician=
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var events []model.SimulationEvent
	if tech := r.URL.Query().Get("technician"); tech != "" {
		events = s.tl.ByTechnician(tech)
	} else {
		events = s.tl.All()
	}
	if u := r.URL.Query().Get("until"); u != "" {
		until, err := model.ParseTime(u)
		if err != nil {
			http.Error(w, "invalid until: "+err.Error(), http.StatusBadRequest)
			return
		}
		n := sort.Search(len(events), func(i int) bool { return events[i].Time.After(until) })
		events = events[:n]
	}
	if events == nil {
		events = []model.SimulationEvent{}
	}
	writeJSON(w, events)
}

type stateResponse struct {
	At    time.Time                        `json:"at"`
	State map[string]model.SimulationEvent `json:"technicians"`
}

// GET /api/timeline/state?at=
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	at := time.Now().UTC()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := model.ParseTime(v)
		if err != nil {
			http.Error(w, "invalid at: "+err.Error(), http.StatusBadRequest)
			return
		}
		at = t
	} else if _, last, ok := s.tl.Bounds(); ok {
		at = last
	}
	writeJSON(w, stateResponse{At: at, State: s.tl.StateAt(at)})
}

// GET /api/report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	rep := s.report
	s.mu.RUnlock()
	if rep == nil {
		http.Error(w, "simulation not finished", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, rep)
}

// handleStream sends every recorded event, then forwards new ones until
// the timeline is closed or the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	live := s.tl.Subscribe()
	defer s.tl.Unsubscribe(live)
	backlog := s.tl.All()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, ev := range backlog {
		if err := writeEvent(conn, ev); err != nil {
			return
		}
	}
	seen := newOverlap(backlog)
	for {
		select {
		case ev, ok := <-live:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "timeline closed"),
					time.Now().Add(writeWait))
				return
			}
			if seen.skip(ev) {
				continue
			}
			if err := writeEvent(conn, ev); err != nil {
				s.log.Debugf("stream write: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev model.SimulationEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

// overlap drops live events that were already sent as part of the backlog.
// Only events stamped at the last backlog instant can be duplicated.
type overlap struct {
	last time.Time
	tail []model.SimulationEvent
}

func newOverlap(backlog []model.SimulationEvent) *overlap {
	o := &overlap{}
	if len(backlog) == 0 {
		return o
	}
	o.last = backlog[len(backlog)-1].Time
	for i := len(backlog) - 1; i >= 0 && backlog[i].Time.Equal(o.last); i-- {
		o.tail = append(o.tail, backlog[i])
	}
	return o
}

func (o *overlap) skip(ev model.SimulationEvent) bool {
	if o.last.IsZero() {
		return false
	}
	if ev.Time.Before(o.last) {
		return true
	}
	if !ev.Time.Equal(o.last) {
		return false
	}
	for i, t := range o.tail {
		if t.Technician == ev.Technician && t.State == ev.State && t.TicketIndex == ev.TicketIndex {
			o.tail = append(o.tail[:i], o.tail[i+1:]...)
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
