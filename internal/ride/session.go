package ride

import (
	"github.com/hannah505/roller-coaster-builder/internal/config"
	"github.com/hannah505/roller-coaster-builder/internal/track"
)

// Session is one live ride: the kinematics and camera accumulators with
// explicit creation (ride start) and destruction (ride stop) boundaries.
// A preview session runs identical kinematics; the flag only tells
// collaborators to render it differently.
type Session struct {
	kin     *Kinematics
	cam     *CameraState
	preview bool
	ticks   int64
}

// TickOutput is the result of one Advance tick.
type TickOutput struct {
	Progress float64
	Speed    float64
	Phase    Phase
	Sample   *track.TrackSample
	Camera   CameraPose
	// Done marks the tick on which an open-track ride terminated.
	// Sample and Camera are zero on that tick.
	Done bool
}

// NewSession creates a stopped session.
func NewSession(cfg *config.TuningConfig, preview bool) *Session {
	return &Session{
		kin:     NewKinematics(cfg),
		cam:     NewCameraState(cfg),
		preview: preview,
	}
}

// Start arms the session at progress 0. Returns false when the geometry
// cannot carry a ride.
func (s *Session) Start(geo Geometry, multiplier float64, chainLift, closed bool) bool {
	return s.kin.Start(geo, multiplier, chainLift, closed)
}

// Stop resets the kinematics. The camera accumulators are left as-is;
// the session is discarded after stopping.
func (s *Session) Stop() {
	s.kin.Stop()
}

// Advance runs one tick of dt seconds.
func (s *Session) Advance(geo Geometry, dt float64) TickOutput {
	sample := s.kin.Advance(geo, dt)
	if sample == nil {
		return TickOutput{
			Progress: s.kin.Progress(),
			Phase:    s.kin.Phase(),
			Done:     true,
		}
	}
	tilt := 0.0
	if geo.Sections != nil {
		tilt = geo.Sections.TiltAt(s.kin.Progress())
	}
	pose := s.cam.Update(sample, tilt)
	s.ticks++
	return TickOutput{
		Progress: s.kin.Progress(),
		Speed:    s.kin.Speed(),
		Phase:    s.kin.Phase(),
		Sample:   sample,
		Camera:   pose,
	}
}

// Riding reports whether the session is live.
func (s *Session) Riding() bool {
	return s.kin.Riding()
}

// Preview reports whether this session was started as a preview.
func (s *Session) Preview() bool {
	return s.preview
}

// Ticks returns the number of completed Advance ticks.
func (s *Session) Ticks() int64 {
	return s.ticks
}

// Kinematics exposes the underlying speed model, mainly for status
// reporting.
func (s *Session) Kinematics() *Kinematics {
	return s.kin
}

// Camera exposes the frame integrator, mainly for status reporting.
func (s *Session) Camera() *CameraState {
	return s.cam
}
