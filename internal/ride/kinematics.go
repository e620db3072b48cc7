// Package ride advances a rider along a built track: a chain-lift /
// free-roll speed model drives normalized progress, and a
// parallel-transport camera frame keeps the first-person view stable
// through climbs, drops and loops.
package ride

import (
	"math"

	"github.com/hannah505/roller-coaster-builder/internal/config"
	"github.com/hannah505/roller-coaster-builder/internal/track"
)

// Phase is the kinematic state of a ride.
type Phase string

const (
	PhaseStopped   Phase = "stopped"
	PhaseChainLift Phase = "chain-lift"
	PhaseFreeRoll  Phase = "free-roll"
)

// gravity is standard gravitational acceleration in track units/s².
// The tuning config scales it rather than replacing it.
const gravity = 9.81

const (
	peakScanSteps  = 50
	climbThreshold = 0.05
	defaultPeakT   = 0.2
)

// Geometry bundles the derived track views a ride consumes each tick.
// The caller rebuilds it when the track changes; editing while riding is
// caller-side discipline, not enforced here.
type Geometry struct {
	Curve    *track.Curve
	Sections *track.SectionMap
}

// Valid reports whether the geometry can carry a ride.
func (g Geometry) Valid() bool {
	return g.Curve != nil && g.Sections != nil
}

// Kinematics owns ride progress and speed. Progress lives in [0,1);
// reaching 1 wraps on a closed track and terminates the ride on an open
// one.
type Kinematics struct {
	cfg *config.TuningConfig

	phase    Phase
	progress float64
	speed    float64

	multiplier float64
	chainLift  bool
	closed     bool

	firstPeakT  float64
	maxHeight   float64
	startHeight float64
	length      float64
}

// NewKinematics returns a stopped kinematics model.
func NewKinematics(cfg *config.TuningConfig) *Kinematics {
	return &Kinematics{
		cfg:        cfg,
		phase:      PhaseStopped,
		multiplier: 1,
	}
}

// Start arms the model at progress 0. It refuses geometry that cannot
// carry a ride and returns false, leaving the model stopped.
func (k *Kinematics) Start(geo Geometry, multiplier float64, chainLift, closed bool) bool {
	if !geo.Valid() {
		return false
	}
	length := geo.Sections.TotalLength()
	if length <= 0 {
		return false
	}
	start := geo.Sections.Sample(0)
	if start == nil {
		return false
	}
	if multiplier <= 0 {
		multiplier = 1
	}

	k.progress = 0
	k.speed = 0
	k.multiplier = multiplier
	k.chainLift = chainLift
	k.closed = closed
	k.length = length
	k.firstPeakT = FirstPeak(geo.Curve)
	k.startHeight = start.Pos.Y
	k.maxHeight = start.Pos.Y
	if chainLift {
		k.phase = PhaseChainLift
	} else {
		k.phase = PhaseFreeRoll
	}
	return true
}

// Stop resets progress and speed and returns the model to stopped.
func (k *Kinematics) Stop() {
	k.phase = PhaseStopped
	k.progress = 0
	k.speed = 0
}

// Riding reports whether a ride is in progress.
func (k *Kinematics) Riding() bool {
	return k.phase != PhaseStopped
}

// Progress returns the current normalized position along the ride.
func (k *Kinematics) Progress() float64 {
	return k.progress
}

// Speed returns the speed applied on the last Advance, in track units/s.
func (k *Kinematics) Speed() float64 {
	return k.speed
}

// Phase returns the current kinematic phase.
func (k *Kinematics) Phase() Phase {
	return k.phase
}

// Multiplier returns the ride-speed multiplier the ride started with.
func (k *Kinematics) Multiplier() float64 {
	return k.multiplier
}

// Advance moves progress by dt seconds and returns the sample at the new
// progress. It returns nil when the model is stopped, when the geometry
// yields no sample, or when an open-track ride just terminated.
func (k *Kinematics) Advance(geo Geometry, dt float64) *track.TrackSample {
	if k.phase == PhaseStopped || !geo.Valid() {
		return nil
	}
	if dt < 0 {
		dt = 0
	}

	cur := geo.Sections.Sample(k.progress)
	if cur == nil {
		k.Stop()
		return nil
	}
	if cur.Pos.Y > k.maxHeight {
		k.maxHeight = cur.Pos.Y
	}

	if k.phase == PhaseChainLift && k.progress >= k.firstPeakT {
		k.phase = PhaseFreeRoll
	}

	var speed float64
	if k.phase == PhaseChainLift {
		speed = k.cfg.GetChainSpeed() * k.multiplier
	} else {
		// Energy conservation from the highest point reached so far.
		drop := k.maxHeight - cur.Pos.Y
		if drop < 0 {
			drop = 0
		}
		speed = math.Sqrt(2 * gravity * k.cfg.GetGravityScale() * drop)
		if cur.InLoop {
			// Heuristic pair: boost plus floor, so the climb inside the
			// loop cannot stall the car.
			speed *= k.cfg.GetLoopBoost()
			if speed < k.cfg.GetLoopMinSpeed() {
				speed = k.cfg.GetLoopMinSpeed()
			}
		}
		if speed < k.cfg.GetMinRideSpeed() {
			speed = k.cfg.GetMinRideSpeed()
		}
		speed *= k.multiplier
	}
	k.speed = speed

	k.progress += speed * dt / k.length
	if k.progress >= 1 {
		if !k.closed {
			k.Stop()
			return nil
		}
		k.progress = math.Mod(k.progress, 1)
		if k.chainLift {
			// New lap: re-arm the lift energy budget.
			k.maxHeight = k.startHeight
			k.phase = PhaseChainLift
		}
	}
	return geo.Sections.Sample(k.progress)
}

// FirstPeak scans the opening half of the curve for the crest of the
// initial climb: the first height maximum after the tangent has clearly
// pointed upward. Falls back to a fixed parameter when no crest is
// found, so a chain lift on a peakless track still releases.
func FirstPeak(c *track.Curve) float64 {
	if c == nil {
		return defaultPeakT
	}
	climbing := false
	prevH := c.Point(0).Y
	for i := 1; i <= peakScanSteps; i++ {
		t := 0.5 * float64(i) / peakScanSteps
		h := c.Point(t).Y
		if !climbing && c.Tangent(t).Y > climbThreshold {
			climbing = true
		}
		if climbing && h < prevH {
			return 0.5 * float64(i-1) / peakScanSteps
		}
		prevH = h
	}
	return defaultPeakT
}
