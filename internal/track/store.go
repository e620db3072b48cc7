package track

import (
	"github.com/hannah505/roller-coaster-builder/internal/geom"
)

// Store owns the ordered control-point sequence plus the track-level
// flags. It is a plain container: callers (the engine facade) serialize
// access and rebuild derived state after mutations.
type Store struct {
	points      []TrackPoint
	nextPointID int64
	nextLoopID  int64

	selectedID int64 // 0 = nothing selected

	closed       bool
	chainLift    bool
	showSupports bool

	// version increments on every geometry-affecting mutation so callers
	// can cheaply detect staleness of derived curves and section maps.
	version int64
}

// NewStore creates an empty store. IDs start at 1; 0 is reserved to mean
// "no point".
func NewStore() *Store {
	return &Store{
		nextPointID: 1,
		nextLoopID:  1,
	}
}

// AddPoint appends a plain control point at pos and returns its id.
func (s *Store) AddPoint(pos geom.Vec) int64 {
	id := s.nextPointID
	s.nextPointID++
	s.points = append(s.points, TrackPoint{
		ID:   id,
		Pos:  pos,
		Kind: KindPlain,
	})
	s.version++
	return id
}

// UpdatePosition moves the point with the given id. Unknown ids are a
// no-op and return false.
func (s *Store) UpdatePosition(id int64, pos geom.Vec) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.points[idx].Pos = pos
	s.version++
	return true
}

// UpdateTilt sets the banking angle (degrees) of the point with the
// given id. Unknown ids are a no-op and return false.
func (s *Store) UpdateTilt(id int64, tilt float64) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.points[idx].Tilt = tilt
	s.version++
	return true
}

// Remove deletes the point with the given id, deselecting it first if it
// was selected. Unknown ids are a no-op and return false.
func (s *Store) Remove(id int64) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	if s.selectedID == id {
		s.selectedID = 0
	}
	s.points = append(s.points[:idx], s.points[idx+1:]...)
	s.version++
	return true
}

// Select marks the point with the given id as selected. id 0 clears the
// selection. Selecting an unknown id is a no-op and returns false.
func (s *Store) Select(id int64) bool {
	if id == 0 {
		s.selectedID = 0
		return true
	}
	if s.indexOf(id) < 0 {
		return false
	}
	s.selectedID = id
	return true
}

// SelectedID returns the selected point id, or 0 if none.
func (s *Store) SelectedID() int64 {
	return s.selectedID
}

// Clear removes all points and the selection. Flags are preserved; id
// counters are not reset, so ids stay unique across the store's lifetime.
func (s *Store) Clear() {
	s.points = nil
	s.selectedID = 0
	s.version++
}

// Restore replaces the store contents with a previously saved design and
// clears the selection. ID counters advance past the highest restored
// ids so later additions stay unique.
func (s *Store) Restore(points []TrackPoint, closed, chainLift, showSupports bool) {
	s.points = make([]TrackPoint, len(points))
	copy(s.points, points)
	s.selectedID = 0
	s.closed = closed
	s.chainLift = chainLift
	s.showSupports = showSupports
	for i := range s.points {
		if s.points[i].ID >= s.nextPointID {
			s.nextPointID = s.points[i].ID + 1
		}
		if lp := s.points[i].Loop; lp != nil && lp.ID >= s.nextLoopID {
			s.nextLoopID = lp.ID + 1
		}
	}
	s.version++
}

// Len returns the number of control points.
func (s *Store) Len() int {
	return len(s.points)
}

// Points returns a copy of the ordered control points.
func (s *Store) Points() []TrackPoint {
	out := make([]TrackPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Point returns the point with the given id, if present.
func (s *Store) Point(id int64) (TrackPoint, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return TrackPoint{}, false
	}
	return s.points[idx], true
}

// SetClosed toggles whether the path wraps from the last point back to
// the first.
func (s *Store) SetClosed(closed bool) {
	if s.closed == closed {
		return
	}
	s.closed = closed
	s.version++
}

// IsClosed reports whether the path is a closed circuit.
func (s *Store) IsClosed() bool {
	return s.closed
}

// SetChainLift toggles the chain-lift ride phase.
func (s *Store) SetChainLift(enabled bool) {
	s.chainLift = enabled
}

// HasChainLift reports whether the chain-lift phase is enabled.
func (s *Store) HasChainLift() bool {
	return s.chainLift
}

// SetShowSupports toggles the renderer-facing support-pillar flag. The
// flag is stored here so it persists with the design; the core itself
// does not act on it.
func (s *Store) SetShowSupports(show bool) {
	s.showSupports = show
}

// ShowSupports reports the support-pillar visual flag.
func (s *Store) ShowSupports() bool {
	return s.showSupports
}

// Version returns a counter that increments on every geometry-affecting
// mutation.
func (s *Store) Version() int64 {
	return s.version
}

func (s *Store) indexOf(id int64) int {
	for i := range s.points {
		if s.points[i].ID == id {
			return i
		}
	}
	return -1
}
