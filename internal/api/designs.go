package api

import (
	"fmt"
	"net/http"

	"github.com/hannah505/roller-coaster-builder/internal/storage/sqlite"
)

// requireStore guards the persistence endpoints. Returns false after
// writing the error response when no design store is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.tracks == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "design persistence not configured")
		return false
	}
	return true
}

func (s *Server) listDesigns(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	if !s.requireStore(w) {
		return
	}
	designs, err := s.tracks.ListDesigns()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if designs == nil {
		designs = []*sqlite.TrackDesign{}
	}
	s.writeJSON(w, designs)
}

// saveDesign snapshots the live track under a name. Saving over an
// existing name replaces its points and flags.
func (s *Server) saveDesign(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	if !s.requireStore(w) {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		s.writeJSONError(w, http.StatusBadRequest, "design name must not be empty")
		return
	}
	st := s.engine.Snapshot()
	if len(st.Points) == 0 {
		s.writeJSONError(w, http.StatusConflict, "track is empty")
		return
	}
	design := &sqlite.TrackDesign{
		Name:         req.Name,
		Closed:       st.Closed,
		ChainLift:    st.ChainLift,
		ShowSupports: st.ShowSupports,
		Points:       st.Points,
	}
	if err := s.tracks.SaveDesign(design); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, design)
}

// loadDesign replaces the live track with a stored design, addressed by
// id or by name. Any running ride is stopped.
func (s *Server) loadDesign(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	if !s.requireStore(w) {
		return
	}
	var req struct {
		DesignID string `json:"design_id"`
		Name     string `json:"name"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	var design *sqlite.TrackDesign
	var err error
	switch {
	case req.DesignID != "":
		design, err = s.tracks.GetDesign(req.DesignID)
	case req.Name != "":
		design, err = s.tracks.GetDesignByName(req.Name)
	default:
		s.writeJSONError(w, http.StatusBadRequest, "design_id or name required")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	s.engine.ReplaceDesign(design.Points, design.Closed, design.ChainLift, design.ShowSupports)
	s.writeJSON(w, toTrackDTO(s.engine.Snapshot()))
}

func (s *Server) deleteDesign(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	if !s.requireStore(w) {
		return
	}
	var req struct {
		DesignID string `json:"design_id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.DesignID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "design_id required")
		return
	}
	if err := s.tracks.DeleteDesign(req.DesignID); err != nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("delete design: %v", err))
		return
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}
