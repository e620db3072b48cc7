package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hannah505/roller-coaster-builder/internal/db"
)

func (s *Server) showRide(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSON(w, s.engine.RideStatus())
}

func (s *Server) startRide(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		Preview bool `json:"preview"`
	}
	// An empty body starts a normal ride.
	if r.ContentLength > 0 && !s.decodeBody(w, r, &req) {
		return
	}
	var ok bool
	if req.Preview {
		ok = s.engine.StartPreview()
	} else {
		ok = s.engine.StartRide()
	}
	if !ok {
		s.writeJSONError(w, http.StatusConflict, "track cannot carry a ride")
		return
	}
	s.writeJSON(w, s.engine.RideStatus())
}

func (s *Server) stopRide(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	s.engine.StopRide()
	s.writeJSON(w, s.engine.RideStatus())
}

func (s *Server) setRideSpeed(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		Multiplier float64 `json:"multiplier"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.engine.SetRideSpeed(req.Multiplier)
	s.writeJSON(w, map[string]float64{"multiplier": s.engine.RideSpeed()})
}

// advanceRide runs one manual ride tick. Renderers normally use the
// websocket stream instead; this endpoint exists for callers that drive
// their own frame clock.
func (s *Server) advanceRide(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		DT float64 `json:"dt"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.DT <= 0 || req.DT > 1 {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("dt out of range: %v", req.DT))
		return
	}
	out, ok := s.engine.Advance(req.DT)
	if !ok {
		s.writeJSONError(w, http.StatusConflict, "no ride in progress")
		return
	}
	s.writeJSON(w, toTickDTO(out))
}

func (s *Server) listRideLogs(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "ride logging not configured")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	logs, err := s.db.RideLogs(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []db.RideLog{}
	}
	s.writeJSON(w, logs)
}
