package timeline

import (
	"net/http"

	"github.com/kilianp07/fieldsim/core/eventlog"
	"github.com/kilianp07/fieldsim/core/model"
)

// SetStore attaches the persistent event log served by /api/eventlog.
func (s *Server) SetStore(store eventlog.Store) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// GET /api/eventlog?run_id=&until=&technician=
func (s *Server) handleEventLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		http.Error(w, "event log disabled", http.StatusNotFound)
		return
	}
	q := eventlog.Query{
		RunID:      r.URL.Query().Get("run_id"),
		Technician: r.URL.Query().Get("technician"),
	}
	if u := r.URL.Query().Get("until"); u != "" {
		until, err := model.ParseTime(u)
		if err != nil {
			http.Error(w, "invalid until: "+err.Error(), http.StatusBadRequest)
			return
		}
		q.Until = until
	}
	events, err := store.Query(r.Context(), q)
	if err != nil {
		s.log.Errorf("eventlog query: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []model.SimulationEvent{}
	}
	writeJSON(w, events)
}
