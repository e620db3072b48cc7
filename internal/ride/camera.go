package ride

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hannah505/roller-coaster-builder/internal/config"
	"github.com/hannah505/roller-coaster-builder/internal/geom"
	"github.com/hannah505/roller-coaster-builder/internal/track"
)

const (
	// flatTangentY bounds the tangent's vertical component below which
	// the track counts as near-flat for the up-flip correction.
	flatTangentY = 0.1
	// tiltSnapDeg snaps the roll target to zero for near-zero tilt so
	// smoothing cannot accumulate residual bank on straight track.
	tiltSnapDeg = 0.5
	// rollEpsilon clamps the smoothed roll itself once it decays this far.
	rollEpsilon = 1e-4
)

// CameraPose is the per-tick output consumed by the renderer.
type CameraPose struct {
	Position    geom.Vec
	Orientation geom.Orientation
	FOV         float64
}

// CameraState integrates a stable first-person frame across ticks: a
// parallel-transported up vector plus smoothed roll, pitch, field of
// view and position. Create one at ride start and discard it at stop;
// the accumulators are meaningless across rides.
type CameraState struct {
	cfg *config.TuningConfig

	up     geom.Vec
	roll   float64
	pitch  float64
	fov    float64
	pos    geom.Vec
	orient geom.Orientation
	primed bool
}

// NewCameraState returns a frame reset to ride-start defaults.
func NewCameraState(cfg *config.TuningConfig) *CameraState {
	return &CameraState{
		cfg:    cfg,
		up:     geom.Up(),
		fov:    cfg.GetFOVBase(),
		orient: geom.IdentityOrientation(),
	}
}

// Up returns the parallel-transported up vector after the last update.
func (c *CameraState) Up() geom.Vec {
	return c.up
}

// Roll returns the smoothed banking angle in radians.
func (c *CameraState) Roll() float64 {
	return c.roll
}

// Pitch returns the smoothed dive pitch offset in radians.
func (c *CameraState) Pitch() float64 {
	return c.pitch
}

// FOV returns the smoothed field of view in degrees.
func (c *CameraState) FOV() float64 {
	return c.fov
}

// Position returns the smoothed camera position.
func (c *CameraState) Position() geom.Vec {
	return c.pos
}

// Update advances the frame to the given sample and returns the camera
// pose for this tick. tiltDeg is the track's banking angle at the
// sampled progress.
func (c *CameraState) Update(sample *track.TrackSample, tiltDeg float64) CameraPose {
	tan := sample.Tangent
	s := c.cfg.GetCameraSmoothing()

	// Parallel transport: strip the tangent component from the previous
	// up. When that collapses (sharp reversal), restart from world up,
	// then from the x axis for vertical track.
	up := geom.ProjectOut(c.up, tan)
	if geom.NearZero(up) {
		up = geom.ProjectOut(geom.Up(), tan)
	}
	if geom.NearZero(up) {
		up = geom.ProjectOut(geom.UnitX(), tan)
	}
	up = r3.Unit(up)

	// On near-flat track an inverted up is a numerical artifact, not a
	// maneuver; inside a loop it is the right answer, so leave it.
	if !sample.InLoop && math.Abs(tan.Y) < flatTangentY && up.Y < 0 {
		up = r3.Scale(-1, up)
	}
	c.up = up

	// Banking. Snap tiny targets to zero and clamp the decayed roll so
	// straight track settles at exactly zero.
	target := tiltDeg * math.Pi / 180
	if math.Abs(tiltDeg) < tiltSnapDeg {
		target = 0
	}
	c.roll += (target - c.roll) * s
	if math.Abs(c.roll) < rollEpsilon {
		c.roll = 0
	}

	banked := up
	if c.roll != 0 {
		banked = r3.Rotate(up, -c.roll, tan)
	}
	right := geom.UnitOr(r3.Cross(tan, banked), geom.UnitX())
	finalUp := r3.Cross(right, tan)

	// Dive response: pitch the view down and widen the field of view in
	// proportion to how steeply the track descends.
	slope := math.Max(0, -tan.Y)
	targetPitch := -slope * c.cfg.GetPitchMaxDegrees() * math.Pi / 180
	c.pitch += (targetPitch - c.pitch) * s
	targetFOV := c.cfg.GetFOVBase() + slope*c.cfg.GetFOVBoostMax()
	c.fov += (targetFOV - c.fov) * s

	pitchedTan := tan
	pitchedUp := finalUp
	if c.pitch != 0 {
		pitchedTan = r3.Rotate(tan, c.pitch, right)
		pitchedUp = r3.Rotate(finalUp, c.pitch, right)
	}

	orientTarget := geom.QuatFromBasis(right, pitchedUp, r3.Scale(-1, pitchedTan))
	targetPos := r3.Add(sample.Pos, r3.Scale(c.cfg.GetCameraHeight(), finalUp))

	if !c.primed {
		// First tick of the ride seeds the smoothed state directly so
		// the camera does not swoop in from the origin.
		c.pos = targetPos
		c.orient = orientTarget
		c.primed = true
	} else {
		c.pos = geom.Lerp(c.pos, targetPos, s)
		c.orient = geom.UnitQuat(geom.Slerp(c.orient, orientTarget, s))
	}

	return CameraPose{
		Position:    c.pos,
		Orientation: c.orient,
		FOV:         c.fov,
	}
}
