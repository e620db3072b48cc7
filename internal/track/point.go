// Package track owns the ordered control-point sequence that defines a
// coaster path, the interpolating curve derived from it, and the hybrid
// section map that partitions ride progress into spline and loop arcs.
package track

import (
	"github.com/hannah505/roller-coaster-builder/internal/geom"
)

// PointKind discriminates plain spline control points from generated loop
// points. Loop points carry a shared LoopSegment and a theta.
type PointKind string

const (
	KindPlain PointKind = "plain"
	KindLoop  PointKind = "loop"
)

// LoopSegment is the entry basis shared by every point of one spliced
// loop. It is immutable once created; the sampler reconstructs the loop
// analytically from it.
type LoopSegment struct {
	ID      int64
	Entry   geom.Vec // position of the entry control point
	Forward geom.Vec // unit, horizontal travel direction at entry
	Up      geom.Vec // unit, world up at entry
	Right   geom.Vec // unit, forward x up; carries the corkscrew offset
	Radius  float64
}

// TrackPoint is one control point on the path. Order within the store is
// semantically meaningful: it defines the direction of travel.
type TrackPoint struct {
	ID   int64
	Pos  geom.Vec
	Tilt float64 // banking angle, degrees
	Kind PointKind

	// Loop and Theta are set only when Kind == KindLoop. Theta is the
	// point's angular position around the loop in (0, 2π].
	Loop  *LoopSegment
	Theta float64
}

// IsLoop reports whether the point was generated by loop insertion.
func (p TrackPoint) IsLoop() bool {
	return p.Kind == KindLoop
}
