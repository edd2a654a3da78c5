package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/talgya/undercurrent/internal/engine"
	"github.com/talgya/undercurrent/internal/persistence"
)

// SessionView is a game state plus the derived fields clients render.
type SessionView struct {
	engine.GameState
	Day              string          `json:"day"`
	Week             int             `json:"week"`
	AvailableChoices []engine.Choice `json:"availableChoices,omitempty"`
}

func viewOf(s engine.GameState) SessionView {
	v := SessionView{
		GameState: s,
		Day:       engine.DayLabel(s.Turn),
		Week:      engine.WeekOf(s.Turn),
	}
	if s.CurrentDecision != nil {
		v.AvailableChoices = engine.AvailableChoices(*s.CurrentDecision, s.ChoiceHistory)
	}
	return v
}

type createRequest struct {
	CityID string `json:"cityId"`
}

type chooseRequest struct {
	ChoiceIDs []string `json:"choiceIds"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.CityID == "" {
		http.Error(w, "cityId is required", http.StatusBadRequest)
		return
	}

	state, err := s.Sessions.Create(req.CityID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+state.SessionID)
	writeJSON(w, http.StatusCreated, viewOf(state))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(state))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Advance(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(state))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Step(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(state))
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := s.Sessions.Choose(r.PathValue("id"), req.ChoiceIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(state))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 500)
	records, err := s.Sessions.Events(r.PathValue("id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []persistence.EventRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryInt reads a positive integer query parameter, capped at max.
func queryInt(r *http.Request, key string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
