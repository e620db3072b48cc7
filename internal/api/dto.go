package api

import (
	"github.com/hannah505/roller-coaster-builder/internal/coaster"
	"github.com/hannah505/roller-coaster-builder/internal/geom"
	"github.com/hannah505/roller-coaster-builder/internal/ride"
	"github.com/hannah505/roller-coaster-builder/internal/track"
)

// Wire types for the JSON API. The geometry core's types stay
// serialization-free; every boundary crossing maps through these.

type vecDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func toVecDTO(v geom.Vec) vecDTO {
	return vecDTO{X: v.X, Y: v.Y, Z: v.Z}
}

func (d vecDTO) vec() geom.Vec {
	return geom.Vec{X: d.X, Y: d.Y, Z: d.Z}
}

type quatDTO struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func toQuatDTO(q geom.Orientation) quatDTO {
	return quatDTO{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

type loopDTO struct {
	ID     int64   `json:"id"`
	Entry  vecDTO  `json:"entry"`
	Radius float64 `json:"radius"`
}

type pointDTO struct {
	ID    int64    `json:"id"`
	Pos   vecDTO   `json:"pos"`
	Tilt  float64  `json:"tilt"`
	Kind  string   `json:"kind"`
	Theta float64  `json:"theta,omitempty"`
	Loop  *loopDTO `json:"loop,omitempty"`
}

func toPointDTO(p track.TrackPoint) pointDTO {
	d := pointDTO{
		ID:    p.ID,
		Pos:   toVecDTO(p.Pos),
		Tilt:  p.Tilt,
		Kind:  string(p.Kind),
		Theta: p.Theta,
	}
	if p.Loop != nil {
		d.Loop = &loopDTO{
			ID:     p.Loop.ID,
			Entry:  toVecDTO(p.Loop.Entry),
			Radius: p.Loop.Radius,
		}
	}
	return d
}

type trackDTO struct {
	Points       []pointDTO `json:"points"`
	SelectedID   int64      `json:"selected_id"`
	Closed       bool       `json:"closed"`
	ChainLift    bool       `json:"chain_lift"`
	ShowSupports bool       `json:"show_supports"`
	Version      int64      `json:"version"`
}

func toTrackDTO(st coaster.TrackState) trackDTO {
	points := make([]pointDTO, len(st.Points))
	for i, p := range st.Points {
		points[i] = toPointDTO(p)
	}
	return trackDTO{
		Points:       points,
		SelectedID:   st.SelectedID,
		Closed:       st.Closed,
		ChainLift:    st.ChainLift,
		ShowSupports: st.ShowSupports,
		Version:      st.Version,
	}
}

type sectionDTO struct {
	Type          string  `json:"type"`
	StartProgress float64 `json:"start_progress"`
	EndProgress   float64 `json:"end_progress"`
	ArcLength     float64 `json:"arc_length"`
}

func toSectionDTO(sec track.Section) sectionDTO {
	return sectionDTO{
		Type:          string(sec.Type),
		StartProgress: sec.StartProgress,
		EndProgress:   sec.EndProgress,
		ArcLength:     sec.ArcLength,
	}
}

type sampleDTO struct {
	Pos     vecDTO `json:"pos"`
	Tangent vecDTO `json:"tangent"`
	Up      vecDTO `json:"up"`
	InLoop  bool   `json:"in_loop"`
}

func toSampleDTO(s *track.TrackSample) *sampleDTO {
	if s == nil {
		return nil
	}
	return &sampleDTO{
		Pos:     toVecDTO(s.Pos),
		Tangent: toVecDTO(s.Tangent),
		Up:      toVecDTO(s.Up),
		InLoop:  s.InLoop,
	}
}

type cameraDTO struct {
	Pos  vecDTO  `json:"pos"`
	Quat quatDTO `json:"quat"`
	FOV  float64 `json:"fov"`
}

type tickDTO struct {
	Progress float64    `json:"progress"`
	Speed    float64    `json:"speed"`
	Phase    string     `json:"phase"`
	Done     bool       `json:"done"`
	Sample   *sampleDTO `json:"sample,omitempty"`
	Camera   *cameraDTO `json:"camera,omitempty"`
}

func toTickDTO(out ride.TickOutput) tickDTO {
	d := tickDTO{
		Progress: out.Progress,
		Speed:    out.Speed,
		Phase:    string(out.Phase),
		Done:     out.Done,
		Sample:   toSampleDTO(out.Sample),
	}
	if out.Sample != nil {
		d.Camera = &cameraDTO{
			Pos:  toVecDTO(out.Camera.Position),
			Quat: toQuatDTO(out.Camera.Orientation),
			FOV:  out.Camera.FOV,
		}
	}
	return d
}
