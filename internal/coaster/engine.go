// Package coaster ties the track model and the ride simulation together
// behind a single engine facade. The facade owns the control-point
// store, keeps the derived curve and section map in step with it, and
// runs at most one ride session at a time.
package coaster

import (
	"math"
	"sync"

	"github.com/hannah505/roller-coaster-builder/internal/config"
	"github.com/hannah505/roller-coaster-builder/internal/geom"
	"github.com/hannah505/roller-coaster-builder/internal/ride"
	"github.com/hannah505/roller-coaster-builder/internal/track"
)

// Engine serializes all track editing and ride operations. It is safe
// for concurrent use; derived geometry is rebuilt inside the same
// critical section as the mutation that invalidated it, so readers
// always observe a consistent store/curve/sections triple.
type Engine struct {
	mu  sync.RWMutex
	cfg *config.TuningConfig

	store *track.Store
	geo   ride.Geometry

	session    *ride.Session
	multiplier float64
}

// TrackState is a read-only snapshot of the editable track.
type TrackState struct {
	Points       []track.TrackPoint
	SelectedID   int64
	Closed       bool
	ChainLift    bool
	ShowSupports bool
	Version      int64
}

// TrackStats is derived summary data for charts and status endpoints.
// Height extrema are taken over the control points, which include the
// helix samples of any inserted loop.
type TrackStats struct {
	PointCount   int     `json:"point_count"`
	LoopCount    int     `json:"loop_count"`
	SectionCount int     `json:"section_count"`
	TotalLength  float64 `json:"total_length"`
	MinHeight    float64 `json:"min_height"`
	MaxHeight    float64 `json:"max_height"`
	Closed       bool    `json:"closed"`
	ChainLift    bool    `json:"chain_lift"`
}

// RideStatus reports the live ride, or the lack of one.
type RideStatus struct {
	Riding     bool    `json:"riding"`
	Preview    bool    `json:"preview"`
	Progress   float64 `json:"progress"`
	Speed      float64 `json:"speed"`
	Phase      string  `json:"phase"`
	Ticks      int64   `json:"ticks"`
	Multiplier float64 `json:"multiplier"`
}

// NewEngine creates an engine with an empty track. A nil cfg falls back
// to built-in tuning defaults.
func NewEngine(cfg *config.TuningConfig) *Engine {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Engine{
		cfg:        cfg,
		store:      track.NewStore(),
		multiplier: 1,
	}
}

// Config returns the tuning configuration the engine runs with.
func (e *Engine) Config() *config.TuningConfig {
	return e.cfg
}

// AddPoint appends a control point and returns its id.
func (e *Engine) AddPoint(pos geom.Vec) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.store.AddPoint(pos)
	e.rebuild()
	return id
}

// UpdatePoint moves a control point. Unknown ids are a no-op.
func (e *Engine) UpdatePoint(id int64, pos geom.Vec) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.UpdatePosition(id, pos) {
		return false
	}
	e.rebuild()
	return true
}

// UpdateTilt sets a point's banking angle in degrees. Unknown ids are a
// no-op.
func (e *Engine) UpdateTilt(id int64, tilt float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.UpdateTilt(id, tilt) {
		return false
	}
	e.rebuild()
	return true
}

// RemovePoint deletes a control point. Unknown ids are a no-op.
func (e *Engine) RemovePoint(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.Remove(id) {
		return false
	}
	e.rebuild()
	return true
}

// CreateLoop splices a vertical loop after the given point, using the
// configured helix geometry. Unknown ids are a no-op.
func (e *Engine) CreateLoop(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	params := track.LoopParams{
		Radius:      e.cfg.GetLoopRadius(),
		PointCount:  e.cfg.GetLoopPointCount(),
		Separation:  e.cfg.GetLoopSeparation(),
		Transitions: e.cfg.GetTransitionPoints(),
	}
	if !e.store.CreateLoop(id, params) {
		return false
	}
	e.rebuild()
	return true
}

// Clear removes every control point and stops any ride.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.store.Clear()
	e.rebuild()
}

// Select marks a point as selected; id 0 clears the selection.
func (e *Engine) Select(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Select(id)
}

// SetClosed toggles whether the track forms a closed circuit.
func (e *Engine) SetClosed(closed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.IsClosed() == closed {
		return
	}
	e.store.SetClosed(closed)
	e.rebuild()
}

// SetChainLift toggles the chain-lift phase for subsequent rides.
func (e *Engine) SetChainLift(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SetChainLift(enabled)
}

// SetShowSupports toggles the renderer-facing support-pillar flag.
func (e *Engine) SetShowSupports(show bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SetShowSupports(show)
}

// SetRideSpeed sets the ride-speed multiplier applied when the next ride
// starts. Non-positive values reset it to 1.
func (e *Engine) SetRideSpeed(multiplier float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if multiplier <= 0 {
		multiplier = 1
	}
	e.multiplier = multiplier
}

// RideSpeed returns the configured ride-speed multiplier.
func (e *Engine) RideSpeed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.multiplier
}

// StartRide begins a ride from progress 0. It fails silently, returning
// false, when the track has fewer than two points or cannot carry a
// ride.
func (e *Engine) StartRide() bool {
	return e.start(false)
}

// StartPreview begins a ride tagged as a preview. Kinematics are
// identical to a normal ride; collaborators render it differently.
func (e *Engine) StartPreview() bool {
	return e.start(true)
}

func (e *Engine) start(preview bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.Len() < 2 {
		return false
	}
	sess := ride.NewSession(e.cfg, preview)
	if !sess.Start(e.geo, e.multiplier, e.store.HasChainLift(), e.store.IsClosed()) {
		return false
	}
	e.session = sess
	return true
}

// StopRide stops and discards the current ride session, if any.
func (e *Engine) StopRide() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.session != nil {
		e.session.Stop()
		e.session = nil
	}
}

// Advance runs one ride tick of dt seconds. The second return is false
// when no ride is in progress. A TickOutput with Done set marks the
// final tick of an open-track ride; the session is discarded on it.
func (e *Engine) Advance(dt float64) (ride.TickOutput, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ride.TickOutput{}, false
	}
	out := e.session.Advance(e.geo, dt)
	if out.Done {
		e.session = nil
	}
	return out, true
}

// Riding reports whether a ride session is live.
func (e *Engine) Riding() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session != nil && e.session.Riding()
}

// RideStatus returns the live ride state for status endpoints.
func (e *Engine) RideStatus() RideStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := RideStatus{Multiplier: e.multiplier, Phase: string(ride.PhaseStopped)}
	if e.session == nil {
		return st
	}
	kin := e.session.Kinematics()
	st.Riding = e.session.Riding()
	st.Preview = e.session.Preview()
	st.Progress = kin.Progress()
	st.Speed = kin.Speed()
	st.Phase = string(kin.Phase())
	st.Ticks = e.session.Ticks()
	return st
}

// Snapshot returns a copy of the editable track state.
func (e *Engine) Snapshot() TrackState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return TrackState{
		Points:       e.store.Points(),
		SelectedID:   e.store.SelectedID(),
		Closed:       e.store.IsClosed(),
		ChainLift:    e.store.HasChainLift(),
		ShowSupports: e.store.ShowSupports(),
		Version:      e.store.Version(),
	}
}

// Sections returns the current hybrid section partition, or nil when
// the track cannot form a curve.
func (e *Engine) Sections() []track.Section {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.geo.Sections == nil {
		return nil
	}
	return e.geo.Sections.Sections()
}

// SampleAt samples the track at a normalized progress, or nil when the
// track cannot form a curve.
func (e *Engine) SampleAt(progress float64) *track.TrackSample {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.geo.Sections.Sample(progress)
}

// Stats returns derived summary data for the current track.
func (e *Engine) Stats() TrackStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pts := e.store.Points()
	st := TrackStats{
		PointCount: len(pts),
		Closed:     e.store.IsClosed(),
		ChainLift:  e.store.HasChainLift(),
	}
	var lastLoop int64
	minH, maxH := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		if p.Kind == track.KindLoop && p.Loop != nil && p.Loop.ID != lastLoop {
			st.LoopCount++
			lastLoop = p.Loop.ID
		}
		minH = math.Min(minH, p.Pos.Y)
		maxH = math.Max(maxH, p.Pos.Y)
	}
	if len(pts) > 0 {
		st.MinHeight = minH
		st.MaxHeight = maxH
	}
	if e.geo.Sections != nil {
		st.SectionCount = len(e.geo.Sections.Sections())
		st.TotalLength = e.geo.Sections.TotalLength()
	}
	return st
}

// ReplaceDesign swaps in a loaded track design, stopping any ride.
func (e *Engine) ReplaceDesign(points []track.TrackPoint, closed, chainLift, showSupports bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.store.Restore(points, closed, chainLift, showSupports)
	e.rebuild()
}

// rebuild refreshes the derived curve and section map. Callers hold the
// write lock and have already mutated the store.
func (e *Engine) rebuild() {
	pts := e.store.Points()
	curve := track.BuildCurve(pts, e.store.IsClosed())
	e.geo = ride.Geometry{
		Curve:    curve,
		Sections: track.BuildSectionMap(pts, curve),
	}
}
