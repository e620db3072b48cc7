package track

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hannah505/roller-coaster-builder/internal/geom"
)

// arcChords is the number of chord sub-samples per interval used when
// estimating arc length. Kept identical to the section-map estimate so
// curve and section lengths agree on loop-free tracks.
const arcChords = 10

// Curve is a uniform Catmull-Rom curve interpolating the control-point
// positions, open or closed. It also interpolates the tilt channel with
// the same basis. A Curve is derived state: rebuild it whenever the
// point list or the closed flag changes.
type Curve struct {
	pts    []geom.Vec
	tilts  []float64
	closed bool
	length float64
}

// BuildCurve builds the interpolating curve for the given points.
// Returns nil if fewer than 2 points are supplied; callers must treat a
// nil curve as "no track".
func BuildCurve(points []TrackPoint, closed bool) *Curve {
	if len(points) < 2 {
		return nil
	}
	c := &Curve{
		pts:    make([]geom.Vec, len(points)),
		tilts:  make([]float64, len(points)),
		closed: closed,
	}
	for i, p := range points {
		c.pts[i] = p.Pos
		c.tilts[i] = p.Tilt
	}
	c.length = c.estimateLength()
	return c
}

// Intervals returns the number of curve parameter intervals: one per
// consecutive point pair, plus the wrap interval when closed.
func (c *Curve) Intervals() int {
	if c.closed {
		return len(c.pts)
	}
	return len(c.pts) - 1
}

// Closed reports whether the curve wraps from the last point to the first.
func (c *Curve) Closed() bool {
	return c.closed
}

// Length returns the estimated total arc length.
func (c *Curve) Length() float64 {
	return c.length
}

// Point evaluates the curve position at parameter t in [0,1].
func (c *Curve) Point(t float64) geom.Vec {
	i, u := c.segment(t)
	return catmullRom(c.control(i-1), c.control(i), c.control(i+1), c.control(i+2), u)
}

// Tangent evaluates the unit tangent at parameter t in [0,1]. Degenerate
// derivatives (coincident control points) fall back to the segment chord
// and finally to the x axis rather than returning NaN.
func (c *Curve) Tangent(t float64) geom.Vec {
	i, u := c.segment(t)
	p1 := c.control(i)
	p2 := c.control(i + 1)
	d := catmullRomDeriv(c.control(i-1), p1, p2, c.control(i+2), u)
	if geom.NearZero(d) {
		d = r3.Sub(p2, p1)
	}
	return geom.UnitOr(d, geom.UnitX())
}

// TiltAt interpolates the banking angle (degrees) at parameter t with
// the same basis used for positions.
func (c *Curve) TiltAt(t float64) float64 {
	i, u := c.segment(t)
	t0 := c.controlTilt(i - 1)
	t1 := c.controlTilt(i)
	t2 := c.controlTilt(i + 1)
	t3 := c.controlTilt(i + 2)
	u2 := u * u
	u3 := u2 * u
	return 0.5 * (2*t1 + (t2-t0)*u + (2*t0-5*t1+4*t2-t3)*u2 + (-t0+3*t1-3*t2+t3)*u3)
}

// segment maps a global parameter t in [0,1] to an interval index and a
// local parameter u in [0,1] within that interval. Out-of-range t is
// clamped.
func (c *Curve) segment(t float64) (int, float64) {
	m := c.Intervals()
	if t <= 0 {
		return 0, 0
	}
	if t >= 1 {
		return m - 1, 1
	}
	scaled := t * float64(m)
	i := int(scaled)
	if i >= m {
		i = m - 1
	}
	return i, scaled - float64(i)
}

// control returns the i-th control position. Closed curves index
// modularly; open curves reflect the end segments to produce phantom
// endpoints, so the curve passes through the first and last points.
func (c *Curve) control(i int) geom.Vec {
	n := len(c.pts)
	if c.closed {
		return c.pts[((i%n)+n)%n]
	}
	if i < 0 {
		return r3.Sub(r3.Scale(2, c.pts[0]), c.pts[1])
	}
	if i >= n {
		return r3.Sub(r3.Scale(2, c.pts[n-1]), c.pts[n-2])
	}
	return c.pts[i]
}

func (c *Curve) controlTilt(i int) float64 {
	n := len(c.tilts)
	if c.closed {
		return c.tilts[((i%n)+n)%n]
	}
	if i < 0 {
		return 2*c.tilts[0] - c.tilts[1]
	}
	if i >= n {
		return 2*c.tilts[n-1] - c.tilts[n-2]
	}
	return c.tilts[i]
}

func (c *Curve) estimateLength() float64 {
	steps := c.Intervals() * arcChords
	total := 0.0
	prev := c.Point(0)
	for i := 1; i <= steps; i++ {
		p := c.Point(float64(i) / float64(steps))
		total += r3.Norm(r3.Sub(p, prev))
		prev = p
	}
	return total
}

// catmullRom evaluates the uniform Catmull-Rom basis on one segment.
// The segment interpolates p1 at u=0 and p2 at u=1, with tangents
// ½(p2−p0) and ½(p3−p1).
func catmullRom(p0, p1, p2, p3 geom.Vec, u float64) geom.Vec {
	u2 := u * u
	u3 := u2 * u
	sum := r3.Scale(2, p1)
	sum = r3.Add(sum, r3.Scale(u, r3.Sub(p2, p0)))
	sum = r3.Add(sum, r3.Scale(u2, r3.Add(r3.Sub(r3.Scale(2, p0), r3.Scale(5, p1)), r3.Sub(r3.Scale(4, p2), p3))))
	sum = r3.Add(sum, r3.Scale(u3, r3.Add(r3.Sub(r3.Scale(3, p1), r3.Scale(3, p2)), r3.Sub(p3, p0))))
	return r3.Scale(0.5, sum)
}

// catmullRomDeriv evaluates the derivative of catmullRom with respect to
// the local parameter u.
func catmullRomDeriv(p0, p1, p2, p3 geom.Vec, u float64) geom.Vec {
	sum := r3.Sub(p2, p0)
	sum = r3.Add(sum, r3.Scale(2*u, r3.Add(r3.Sub(r3.Scale(2, p0), r3.Scale(5, p1)), r3.Sub(r3.Scale(4, p2), p3))))
	sum = r3.Add(sum, r3.Scale(3*u*u, r3.Add(r3.Sub(r3.Scale(3, p1), r3.Scale(3, p2)), r3.Sub(p3, p0))))
	return r3.Scale(0.5, sum)
}
