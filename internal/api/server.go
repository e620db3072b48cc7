// Package api exposes the coaster engine to external collaborators over
// HTTP: JSON endpoints for every track-editing and ride operation, a
// websocket ride-pose stream for renderers and an SSE telemetry tail
// for debug tooling.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/hannah505/roller-coaster-builder/internal/coaster"
	"github.com/hannah505/roller-coaster-builder/internal/db"
	"github.com/hannah505/roller-coaster-builder/internal/storage/sqlite"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	engine *coaster.Engine
	tracks *sqlite.TrackStore
	db     *db.DB
	hub    *streamHub
}

// NewServer creates the API server. tracks and database may be nil, in
// which case the persistence endpoints respond 503.
func NewServer(engine *coaster.Engine, tracks *sqlite.TrackStore, database *db.DB) *Server {
	return &Server{
		engine: engine,
		tracks: tracks,
		db:     database,
		hub:    newStreamHub(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux registers every endpoint and returns the mux.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/points", s.addPoint)
	mux.HandleFunc("/api/points/update", s.updatePoint)
	mux.HandleFunc("/api/points/tilt", s.updateTilt)
	mux.HandleFunc("/api/points/remove", s.removePoint)
	mux.HandleFunc("/api/points/select", s.selectPoint)
	mux.HandleFunc("/api/loop", s.createLoop)
	mux.HandleFunc("/api/clear", s.clearTrack)

	mux.HandleFunc("/api/track", s.showTrack)
	mux.HandleFunc("/api/track/flags", s.setTrackFlags)
	mux.HandleFunc("/api/track/sections", s.showSections)
	mux.HandleFunc("/api/track/stats", s.showStats)
	mux.HandleFunc("/api/config", s.showConfig)

	mux.HandleFunc("/api/ride", s.showRide)
	mux.HandleFunc("/api/ride/start", s.startRide)
	mux.HandleFunc("/api/ride/stop", s.stopRide)
	mux.HandleFunc("/api/ride/speed", s.setRideSpeed)
	mux.HandleFunc("/api/ride/advance", s.advanceRide)
	mux.HandleFunc("/api/ride/logs", s.listRideLogs)
	mux.HandleFunc("/api/ride/stream", s.streamRide)
	mux.HandleFunc("/api/ride/tail", s.tailRide)

	mux.HandleFunc("/api/designs", s.listDesigns)
	mux.HandleFunc("/api/designs/save", s.saveDesign)
	mux.HandleFunc("/api/designs/load", s.loadDesign)
	mux.HandleFunc("/api/designs/delete", s.deleteDesign)

	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// requirePost guards mutation endpoints. Returns false after writing
// the error response.
func (s *Server) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *Server) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// decodeBody parses a JSON request body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) addPoint(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		Pos vecDTO `json:"pos"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	id := s.engine.AddPoint(req.Pos.vec())
	s.writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) updatePoint(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		ID  int64  `json:"id"`
		Pos vecDTO `json:"pos"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.engine.UpdatePoint(req.ID, req.Pos.vec()) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown point id %d", req.ID))
		return
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) updateTilt(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		ID   int64   `json:"id"`
		Tilt float64 `json:"tilt"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.engine.UpdateTilt(req.ID, req.Tilt) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown point id %d", req.ID))
		return
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) removePoint(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		ID int64 `json:"id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.engine.RemovePoint(req.ID) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown point id %d", req.ID))
		return
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) selectPoint(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		ID int64 `json:"id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.engine.Select(req.ID) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown point id %d", req.ID))
		return
	}
	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) createLoop(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	var req struct {
		PointID int64 `json:"point_id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !s.engine.CreateLoop(req.PointID) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown point id %d", req.PointID))
		return
	}
	s.writeJSON(w, toTrackDTO(s.engine.Snapshot()))
}

func (s *Server) clearTrack(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	s.engine.Clear()
	s.writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) showTrack(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSON(w, toTrackDTO(s.engine.Snapshot()))
}

func (s *Server) setTrackFlags(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	// Pointer fields so absent flags are left untouched.
	var req struct {
		Closed       *bool `json:"closed"`
		ChainLift    *bool `json:"chain_lift"`
		ShowSupports *bool `json:"show_supports"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Closed != nil {
		s.engine.SetClosed(*req.Closed)
	}
	if req.ChainLift != nil {
		s.engine.SetChainLift(*req.ChainLift)
	}
	if req.ShowSupports != nil {
		s.engine.SetShowSupports(*req.ShowSupports)
	}
	s.writeJSON(w, toTrackDTO(s.engine.Snapshot()))
}

func (s *Server) showSections(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	secs := s.engine.Sections()
	out := make([]sectionDTO, len(secs))
	for i, sec := range secs {
		out[i] = toSectionDTO(sec)
	}
	s.writeJSON(w, out)
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSON(w, s.engine.Stats())
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	cfg := s.engine.Config()
	s.writeJSON(w, map[string]any{
		"chain_speed":       cfg.GetChainSpeed(),
		"gravity_scale":     cfg.GetGravityScale(),
		"loop_boost":        cfg.GetLoopBoost(),
		"loop_min_speed":    cfg.GetLoopMinSpeed(),
		"min_ride_speed":    cfg.GetMinRideSpeed(),
		"camera_height":     cfg.GetCameraHeight(),
		"camera_smoothing":  cfg.GetCameraSmoothing(),
		"fov_base":          cfg.GetFOVBase(),
		"fov_boost_max":     cfg.GetFOVBoostMax(),
		"pitch_max_degrees": cfg.GetPitchMaxDegrees(),
		"loop_radius":       cfg.GetLoopRadius(),
		"loop_point_count":  cfg.GetLoopPointCount(),
		"loop_separation":   cfg.GetLoopSeparation(),
		"transition_points": cfg.GetTransitionPoints(),
		"stream_interval":   cfg.GetStreamInterval().String(),
	})
}
