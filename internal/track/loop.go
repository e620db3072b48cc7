package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hannah505/roller-coaster-builder/internal/geom"
)

// LoopParams controls generated loop geometry.
type LoopParams struct {
	Radius      float64 // loop radius in track units
	PointCount  int     // helix samples per loop
	Separation  float64 // total corkscrew lateral travel across the loop
	Transitions int     // interior samples on the exit blend
}

// DefaultLoopParams returns the stock loop shape.
func DefaultLoopParams() LoopParams {
	return LoopParams{
		Radius:      8,
		PointCount:  20,
		Separation:  3.5,
		Transitions: 3,
	}
}

// minForwardNorm is the flattened chord length below which the previous
// point no longer defines a usable travel direction.
const minForwardNorm = 0.1

// CreateLoop splices a helical loop into the path at the point with the
// given id. The entry point itself is untouched; PointCount generated
// loop points follow it, then (when a next point exists) Transitions
// blend points, then the rest of the original sequence unchanged.
// Unknown ids and degenerate params are a no-op returning false.
func (s *Store) CreateLoop(id int64, p LoopParams) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	if p.PointCount < 2 || p.Radius <= 0 {
		return false
	}
	entry := s.points[idx]

	// Entry basis: forward from the flattened chord out of the previous
	// point, world up, right completing the frame. A missing or
	// near-coincident previous point falls back to the x axis.
	forward := geom.UnitX()
	if idx > 0 {
		flat := geom.FlattenY(r3.Sub(entry.Pos, s.points[idx-1].Pos))
		if r3.Norm(flat) >= minForwardNorm {
			forward = r3.Unit(flat)
		}
	}
	up := geom.Up()
	right := r3.Unit(r3.Cross(forward, up))

	seg := &LoopSegment{
		ID:      s.nextLoopID,
		Entry:   entry.Pos,
		Forward: forward,
		Up:      up,
		Right:   right,
		Radius:  p.Radius,
	}
	s.nextLoopID++

	// Helical samples: a vertical circle in the forward/up plane plus a
	// linearly growing lateral offset along right, so the exit clears
	// the entry instead of self-intersecting.
	loopPts := make([]TrackPoint, 0, p.PointCount)
	for i := 1; i <= p.PointCount; i++ {
		t := float64(i) / float64(p.PointCount)
		theta := t * 2 * math.Pi
		pos := r3.Add(entry.Pos, r3.Scale(math.Sin(theta)*p.Radius, forward))
		pos = r3.Add(pos, r3.Scale((1-math.Cos(theta))*p.Radius, up))
		pos = r3.Add(pos, r3.Scale(t*p.Separation, right))
		loopPts = append(loopPts, TrackPoint{
			ID:    s.nextPointID,
			Pos:   pos,
			Kind:  KindLoop,
			Loop:  seg,
			Theta: theta,
		})
		s.nextPointID++
	}

	// Entry as the last point means there is nothing to blend into.
	var blendPts []TrackPoint
	if idx < len(s.points)-1 {
		blendPts = s.exitBlend(idx, loopPts, p.Transitions)
	}

	spliced := make([]TrackPoint, 0, len(s.points)+len(loopPts)+len(blendPts))
	spliced = append(spliced, s.points[:idx+1]...)
	spliced = append(spliced, loopPts...)
	spliced = append(spliced, blendPts...)
	spliced = append(spliced, s.points[idx+1:]...)
	s.points = spliced
	s.version++
	return true
}

// exitBlend samples the interior of a cubic Hermite segment running from
// the loop exit to the next original point. One end matches the loop's
// outgoing tangent, the other the tangent the original spline expected
// at the next point, so the spline rebuilt through the sampled points
// carries no kink at the splice.
func (s *Store) exitBlend(entryIdx int, loopPts []TrackPoint, count int) []TrackPoint {
	if count <= 0 {
		return nil
	}
	n := len(loopPts)
	exit := loopPts[n-1].Pos
	next := s.points[entryIdx+1].Pos

	// Tangent the original path expected at the next point: the
	// Catmull-Rom tangent through (entry, next, afterNext), or the
	// straight chord from the loop exit when no further point exists.
	var nextTan geom.Vec
	if entryIdx+2 < len(s.points) {
		nextTan = r3.Scale(0.5, r3.Sub(s.points[entryIdx+2].Pos, s.points[entryIdx].Pos))
	} else {
		nextTan = r3.Sub(next, exit)
	}

	// The loop's own outgoing tangent, from its last two samples.
	exitTan := r3.Sub(exit, loopPts[n-2].Pos)

	// Hermite tangents are direction-only, rescaled to the chord length
	// so the blend is well conditioned regardless of sample spacing.
	chord := r3.Norm(r3.Sub(next, exit))
	m0 := r3.Scale(chord, geom.UnitOr(exitTan, geom.UnitX()))
	m1 := r3.Scale(chord, geom.UnitOr(nextTan, geom.UnitX()))

	out := make([]TrackPoint, 0, count)
	for j := 1; j <= count; j++ {
		t := float64(j) / float64(count+1)
		out = append(out, TrackPoint{
			ID:   s.nextPointID,
			Pos:  hermite(exit, m0, next, m1, t),
			Kind: KindPlain,
		})
		s.nextPointID++
	}
	return out
}

// hermite evaluates the cubic Hermite segment through p0 and p1 with
// endpoint tangents m0 and m1.
func hermite(p0, m0, p1, m1 geom.Vec, t float64) geom.Vec {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	out := r3.Scale(h00, p0)
	out = r3.Add(out, r3.Scale(h10, m0))
	out = r3.Add(out, r3.Scale(h01, p1))
	out = r3.Add(out, r3.Scale(h11, m1))
	return out
}
