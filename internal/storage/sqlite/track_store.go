// Package sqlite persists named track designs: the control points with
// their loop metadata, plus the track-level flags. Designs are stored
// as one row each with a JSON point payload.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hannah505/roller-coaster-builder/internal/geom"
	"github.com/hannah505/roller-coaster-builder/internal/track"
)

// TrackDesign is a named, persistable snapshot of the editable track.
type TrackDesign struct {
	DesignID     string             `json:"design_id"`
	Name         string             `json:"name"`
	Closed       bool               `json:"closed"`
	ChainLift    bool               `json:"chain_lift"`
	ShowSupports bool               `json:"show_supports"`
	Points       []track.TrackPoint `json:"-"`
	PointCount   int                `json:"point_count"`
	CreatedAtNs  int64              `json:"created_at_ns"`
	UpdatedAtNs  *int64             `json:"updated_at_ns,omitempty"`
}

// TrackStore provides persistence for track designs.
type TrackStore struct {
	db *sql.DB
}

// NewTrackStore creates a TrackStore backed by the given database.
func NewTrackStore(db *sql.DB) *TrackStore {
	return &TrackStore{db: db}
}

// SaveDesign inserts a design, or updates the existing design with the
// same name. If d.DesignID is empty a new UUID is generated; on a name
// collision the stored design keeps its original id, which is written
// back into d.
func (s *TrackStore) SaveDesign(d *TrackDesign) error {
	if d.Name == "" {
		return fmt.Errorf("design name must not be empty")
	}
	if d.DesignID == "" {
		d.DesignID = uuid.New().String()
	}
	if d.CreatedAtNs == 0 {
		d.CreatedAtNs = time.Now().UnixNano()
	}

	payload, err := encodePoints(d.Points)
	if err != nil {
		return fmt.Errorf("encode points: %w", err)
	}
	now := time.Now().UnixNano()

	query := `
		INSERT INTO track_designs (
			design_id, name, closed, chain_lift, show_supports,
			points_json, created_at_ns, updated_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(name) DO UPDATE SET
			closed = excluded.closed,
			chain_lift = excluded.chain_lift,
			show_supports = excluded.show_supports,
			points_json = excluded.points_json,
			updated_at_ns = ?
	`
	_, err = s.db.Exec(query,
		d.DesignID, d.Name,
		boolInt(d.Closed), boolInt(d.ChainLift), boolInt(d.ShowSupports),
		string(payload), d.CreatedAtNs, now,
	)
	if err != nil {
		return fmt.Errorf("save design: %w", err)
	}

	// On a name conflict the row keeps its original design_id.
	var storedID string
	if err := s.db.QueryRow(
		`SELECT design_id FROM track_designs WHERE name = ?`, d.Name,
	).Scan(&storedID); err != nil {
		return fmt.Errorf("read back design id: %w", err)
	}
	d.DesignID = storedID
	d.PointCount = len(d.Points)
	return nil
}

// GetDesign retrieves a design by id, including its points.
func (s *TrackStore) GetDesign(designID string) (*TrackDesign, error) {
	return s.getWhere(`design_id = ?`, designID)
}

// GetDesignByName retrieves a design by its unique name.
func (s *TrackStore) GetDesignByName(name string) (*TrackDesign, error) {
	return s.getWhere(`name = ?`, name)
}

func (s *TrackStore) getWhere(cond string, arg any) (*TrackDesign, error) {
	query := `
		SELECT design_id, name, closed, chain_lift, show_supports,
		       points_json, created_at_ns, updated_at_ns
		FROM track_designs
		WHERE ` + cond

	var d TrackDesign
	var closed, chainLift, showSupports int
	var payload string
	var updatedAtNs sql.NullInt64

	err := s.db.QueryRow(query, arg).Scan(
		&d.DesignID, &d.Name, &closed, &chainLift, &showSupports,
		&payload, &d.CreatedAtNs, &updatedAtNs,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("design not found: %v", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("get design: %w", err)
	}

	d.Closed = closed != 0
	d.ChainLift = chainLift != 0
	d.ShowSupports = showSupports != 0
	if updatedAtNs.Valid {
		v := updatedAtNs.Int64
		d.UpdatedAtNs = &v
	}
	d.Points, err = decodePoints([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("decode points for %s: %w", d.DesignID, err)
	}
	d.PointCount = len(d.Points)
	return &d, nil
}

// ListDesigns retrieves all designs, newest first, without their point
// payloads. Use GetDesign to load a design for riding.
func (s *TrackStore) ListDesigns() ([]*TrackDesign, error) {
	query := `
		SELECT design_id, name, closed, chain_lift, show_supports,
		       points_json, created_at_ns, updated_at_ns
		FROM track_designs
		ORDER BY created_at_ns DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var designs []*TrackDesign
	for rows.Next() {
		var d TrackDesign
		var closed, chainLift, showSupports int
		var payload string
		var updatedAtNs sql.NullInt64

		if err := rows.Scan(
			&d.DesignID, &d.Name, &closed, &chainLift, &showSupports,
			&payload, &d.CreatedAtNs, &updatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		d.Closed = closed != 0
		d.ChainLift = chainLift != 0
		d.ShowSupports = showSupports != 0
		if updatedAtNs.Valid {
			v := updatedAtNs.Int64
			d.UpdatedAtNs = &v
		}
		pts, err := decodePoints([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decode points for %s: %w", d.DesignID, err)
		}
		d.PointCount = len(pts)
		designs = append(designs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return designs, nil
}

// DeleteDesign removes a design by id.
func (s *TrackStore) DeleteDesign(designID string) error {
	res, err := s.db.Exec(`DELETE FROM track_designs WHERE design_id = ?`, designID)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("design not found: %s", designID)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Wire records for the JSON point payload. The track package's types
// stay serialization-free; the mapping lives here.

type vecRecord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type loopRecord struct {
	ID      int64     `json:"id"`
	Entry   vecRecord `json:"entry"`
	Forward vecRecord `json:"forward"`
	Up      vecRecord `json:"up"`
	Right   vecRecord `json:"right"`
	Radius  float64   `json:"radius"`
}

type pointRecord struct {
	ID    int64       `json:"id"`
	Pos   vecRecord   `json:"pos"`
	Tilt  float64     `json:"tilt,omitempty"`
	Kind  string      `json:"kind"`
	Theta float64     `json:"theta,omitempty"`
	Loop  *loopRecord `json:"loop,omitempty"`
}

func toVecRecord(v geom.Vec) vecRecord {
	return vecRecord{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVecRecord(r vecRecord) geom.Vec {
	return geom.Vec{X: r.X, Y: r.Y, Z: r.Z}
}

func encodePoints(points []track.TrackPoint) ([]byte, error) {
	records := make([]pointRecord, len(points))
	for i, p := range points {
		r := pointRecord{
			ID:    p.ID,
			Pos:   toVecRecord(p.Pos),
			Tilt:  p.Tilt,
			Kind:  string(p.Kind),
			Theta: p.Theta,
		}
		if p.Loop != nil {
			r.Loop = &loopRecord{
				ID:      p.Loop.ID,
				Entry:   toVecRecord(p.Loop.Entry),
				Forward: toVecRecord(p.Loop.Forward),
				Up:      toVecRecord(p.Loop.Up),
				Right:   toVecRecord(p.Loop.Right),
				Radius:  p.Loop.Radius,
			}
		}
		records[i] = r
	}
	return json.Marshal(records)
}

// decodePoints rebuilds the point slice. Points of one loop share a
// single LoopSegment in memory; the decoder regroups records by loop id
// so that identity survives a save/load round trip.
func decodePoints(data []byte) ([]track.TrackPoint, error) {
	var records []pointRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	loops := make(map[int64]*track.LoopSegment)
	points := make([]track.TrackPoint, len(records))
	for i, r := range records {
		p := track.TrackPoint{
			ID:    r.ID,
			Pos:   fromVecRecord(r.Pos),
			Tilt:  r.Tilt,
			Kind:  track.PointKind(r.Kind),
			Theta: r.Theta,
		}
		if r.Loop != nil {
			seg, ok := loops[r.Loop.ID]
			if !ok {
				seg = &track.LoopSegment{
					ID:      r.Loop.ID,
					Entry:   fromVecRecord(r.Loop.Entry),
					Forward: fromVecRecord(r.Loop.Forward),
					Up:      fromVecRecord(r.Loop.Up),
					Right:   fromVecRecord(r.Loop.Right),
					Radius:  r.Loop.Radius,
				}
				loops[r.Loop.ID] = seg
			}
			p.Loop = seg
		}
		points[i] = p
	}
	return points, nil
}
