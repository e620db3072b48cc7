package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hannah505/roller-coaster-builder/internal/geom"
)

// SectionType tags a section as freeform spline or analytic loop.
type SectionType string

const (
	SectionSpline SectionType = "spline"
	SectionLoop   SectionType = "loop"
)

// Section describes one contiguous slice of normalized ride progress.
type Section struct {
	Type          SectionType
	StartProgress float64
	EndProgress   float64
	ArcLength     float64

	// Curve parameter range the section covers. Spline sections map
	// local progress into it when sampling; loop sections keep it for
	// tilt interpolation only (their geometry is analytic).
	CurveStart float64
	CurveEnd   float64

	// Loop sections: the shared entry basis.
	Loop *LoopSegment
}

// TrackSample is one sampled pose on the path. Up is the geometric
// anchor only; the live camera integrates its own up vector.
type TrackSample struct {
	Pos     geom.Vec
	Tangent geom.Vec
	Up      geom.Vec
	InLoop  bool
}

// maxProgress is the highest progress value ever sampled directly.
// Progress 1 is wrap-or-stop territory owned by the kinematics.
const maxProgress = 0.9999

// SectionMap partitions progress [0,1) into ordered sections, each
// either a loop arc (exact circumference) or a spline arc (chord
// estimate), proportional to arc length. Like the curve it is derived
// state, rebuilt whenever points or flags change.
type SectionMap struct {
	sections []Section
	total    float64
	curve    *Curve
}

// BuildSectionMap partitions the given points against their curve.
// points must be the same ordered slice the curve was built from.
// Returns nil when there is no curve or no usable sections.
func BuildSectionMap(points []TrackPoint, curve *Curve) *SectionMap {
	if curve == nil {
		return nil
	}
	m := curve.Intervals()
	n := len(points)

	// Walk curve intervals. An interval whose right endpoint is a loop
	// point belongs to that loop; the first such interval of a loop
	// emits one section covering the whole revolution, the rest are
	// interior and emit nothing.
	secs := make([]Section, 0, m)
	for k := 0; k < m; k++ {
		right := points[(k+1)%n]
		if right.IsLoop() {
			left := points[k]
			if left.IsLoop() && left.Loop != nil && right.Loop != nil && left.Loop.ID == right.Loop.ID {
				continue
			}
			// Extend over the loop's remaining interior intervals so
			// the section knows the full curve range it stands in for.
			end := k
			for end+1 < m {
				nxt := points[(end+2)%n]
				if !nxt.IsLoop() || nxt.Loop == nil || nxt.Loop.ID != right.Loop.ID {
					break
				}
				end++
			}
			secs = append(secs, Section{
				Type:       SectionLoop,
				ArcLength:  2 * math.Pi * right.Loop.Radius,
				CurveStart: float64(k) / float64(m),
				CurveEnd:   float64(end+1) / float64(m),
				Loop:       right.Loop,
			})
			continue
		}
		start := float64(k) / float64(m)
		end := float64(k+1) / float64(m)
		secs = append(secs, Section{
			Type:       SectionSpline,
			ArcLength:  chordLength(curve, start, end, arcChords),
			CurveStart: start,
			CurveEnd:   end,
		})
	}
	if len(secs) == 0 {
		return nil
	}

	total := 0.0
	for i := range secs {
		total += secs[i].ArcLength
	}
	if total <= 0 {
		// Fully degenerate geometry (all points coincident): spread the
		// sections evenly so progress still maps somewhere.
		share := 1.0 / float64(len(secs))
		for i := range secs {
			secs[i].StartProgress = float64(i) * share
			secs[i].EndProgress = float64(i+1) * share
		}
	} else {
		walked := 0.0
		for i := range secs {
			secs[i].StartProgress = walked / total
			walked += secs[i].ArcLength
			secs[i].EndProgress = walked / total
		}
	}
	// Absorb floating-point drift so the partition ends exactly at 1.
	secs[len(secs)-1].EndProgress = 1

	return &SectionMap{sections: secs, total: total, curve: curve}
}

// Sections returns a copy of the ordered sections.
func (m *SectionMap) Sections() []Section {
	out := make([]Section, len(m.sections))
	copy(out, m.sections)
	return out
}

// TotalLength returns the summed arc length of all sections. This is
// the denominator for progress advancement: it counts loops at their
// true circumference where the raw spline length would not.
func (m *SectionMap) TotalLength() float64 {
	return m.total
}

// Sample returns the pose at the given progress, or nil when the map is
// empty. Progress is clamped to [0, maxProgress].
func (m *SectionMap) Sample(progress float64) *TrackSample {
	if m == nil || len(m.sections) == 0 {
		return nil
	}
	p := progress
	if p < 0 {
		p = 0
	}
	if p > maxProgress {
		p = maxProgress
	}
	sec := m.locate(p)
	span := sec.EndProgress - sec.StartProgress
	t := 0.0
	if span > 0 {
		t = (p - sec.StartProgress) / span
	}

	if sec.Type == SectionLoop {
		return sampleLoop(sec.Loop, t)
	}
	ct := sec.CurveStart + t*(sec.CurveEnd-sec.CurveStart)
	tan := m.curve.Tangent(ct)
	return &TrackSample{
		Pos:     m.curve.Point(ct),
		Tangent: tan,
		Up:      upForTangent(tan),
	}
}

// TiltAt interpolates the banking angle (degrees) at a normalized
// progress. Progress is first mapped through the containing section's
// curve parameter range, the same mapping Sample uses for positions;
// feeding progress straight into the curve would mis-read the tilt
// wherever sections and curve intervals cover different shares, most
// visibly around a loop.
func (m *SectionMap) TiltAt(progress float64) float64 {
	if m == nil || len(m.sections) == 0 {
		return 0
	}
	p := progress
	if p < 0 {
		p = 0
	}
	if p > maxProgress {
		p = maxProgress
	}
	sec := m.locate(p)
	span := sec.EndProgress - sec.StartProgress
	t := 0.0
	if span > 0 {
		t = (p - sec.StartProgress) / span
	}
	return m.curve.TiltAt(sec.CurveStart + t*(sec.CurveEnd-sec.CurveStart))
}

// locate linear-scans for the section whose [start, end) holds p.
// Floating-point edge rounding lands in the final section.
func (m *SectionMap) locate(p float64) *Section {
	for i := range m.sections {
		s := &m.sections[i]
		if p >= s.StartProgress && p < s.EndProgress {
			return s
		}
	}
	return &m.sections[len(m.sections)-1]
}

// sampleLoop evaluates the analytic loop circle at local parameter t.
// The corkscrew offset is deliberately absent here: the section treats
// the loop as an exact circle, and camera smoothing covers the small
// positional step at the seam.
func sampleLoop(seg *LoopSegment, t float64) *TrackSample {
	theta := t * 2 * math.Pi
	sin, cos := math.Sincos(theta)
	pos := r3.Add(seg.Entry, r3.Scale(sin*seg.Radius, seg.Forward))
	pos = r3.Add(pos, r3.Scale((1-cos)*seg.Radius, seg.Up))
	return &TrackSample{
		Pos:     pos,
		Tangent: r3.Unit(r3.Add(r3.Scale(cos, seg.Forward), r3.Scale(sin, seg.Up))),
		// Centripetal direction: inward-pointing normal of the circle.
		Up:     r3.Unit(r3.Add(r3.Scale(-sin, seg.Forward), r3.Scale(cos, seg.Up))),
		InLoop: true,
	}
}

// upForTangent Gram-Schmidt-projects world up off the tangent, falling
// back to the x axis when the tangent is nearly vertical.
func upForTangent(tan geom.Vec) geom.Vec {
	cand := geom.ProjectOut(geom.Up(), tan)
	if geom.NearZero(cand) {
		cand = geom.ProjectOut(geom.UnitX(), tan)
	}
	return geom.UnitOr(cand, geom.Up())
}

// chordLength sums chord lengths over uniform sub-samples of the curve
// parameter range [from, to].
func chordLength(c *Curve, from, to float64, chords int) float64 {
	total := 0.0
	prev := c.Point(from)
	for i := 1; i <= chords; i++ {
		t := from + (to-from)*float64(i)/float64(chords)
		p := c.Point(t)
		total += r3.Norm(r3.Sub(p, prev))
		prev = p
	}
	return total
}
