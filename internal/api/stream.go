package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hannah505/roller-coaster-builder/internal/db"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The renderer is served from its own dev origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamHub fans ride ticks out to stream subscribers. At most one
// connection is the driver: it owns the tick clock and advances the
// engine; everyone else replays its frames.
type streamHub struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan []byte
	driving bool
}

func newStreamHub() *streamHub {
	return &streamHub{subs: make(map[int]chan []byte)}
}

// subscribe registers a frame channel and returns its id.
func (h *streamHub) subscribe() (int, chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	c := make(chan []byte, 16)
	h.subs[id] = c
	return id, c
}

func (h *streamHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(c)
	}
}

// publish sends a frame to every subscriber, dropping frames for
// subscribers that cannot keep up.
func (h *streamHub) publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.subs {
		select {
		case c <- frame:
		default:
		}
	}
}

// acquireDriver claims the tick clock. Returns false if another
// connection is already driving.
func (h *streamHub) acquireDriver() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.driving {
		return false
	}
	h.driving = true
	return true
}

func (h *streamHub) releaseDriver() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.driving = false
}

// streamRide is the websocket ride-pose stream. The first connection
// becomes the driver: it advances the engine once per stream interval
// and pushes each tick to all stream and tail subscribers. Later
// connections receive the driver's frames without advancing anything.
// The stream ends when the ride does.
func (s *Server) streamRide(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	defer conn.Close()

	if !s.engine.Riding() {
		// ?start=1 lets a renderer open the stream and the ride in one
		// request instead of racing a POST against the upgrade.
		if r.URL.Query().Get("start") == "" || !s.engine.StartRide() {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "no ride in progress"),
				time.Now().Add(time.Second))
			return
		}
	}

	if s.hub.acquireDriver() {
		defer s.hub.releaseDriver()
		s.driveRide(r, conn)
		return
	}
	s.followRide(r, conn)
}

// driveRide owns the tick clock for the duration of one ride. On ride
// end (or client disconnect) it records a ride-log summary.
func (s *Server) driveRide(r *http.Request, conn *websocket.Conn) {
	interval := s.engine.Config().GetStreamInterval()
	dt := interval.Seconds()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Surface client disconnects: reads fail once the peer goes away.
	readErr := make(chan struct{})
	go func() {
		defer close(readErr)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	started := time.Now()
	var ticks int64
	var maxSpeed float64
	defer func() {
		s.recordRideLog(started, ticks, maxSpeed)
	}()

	for {
		select {
		case <-ticker.C:
			out, ok := s.engine.Advance(dt)
			if !ok {
				return
			}
			if out.Speed > maxSpeed {
				maxSpeed = out.Speed
			}
			ticks++
			frame, err := json.Marshal(toTickDTO(out))
			if err != nil {
				log.Printf("failed to encode ride tick: %v", err)
				return
			}
			s.hub.publish(frame)
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
			if out.Done {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "ride finished"),
					time.Now().Add(time.Second))
				return
			}
		case <-readErr:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// followRide relays the driver's frames to a passive websocket client.
func (s *Server) followRide(r *http.Request, conn *websocket.Conn) {
	id, frames := s.hub.subscribe()
	defer s.hub.unsubscribe(id)

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) recordRideLog(started time.Time, ticks int64, maxSpeed float64) {
	if s.db == nil || ticks == 0 {
		return
	}
	_, err := s.db.RecordRideLog(db.RideLog{
		StartedAtNs:  started.UnixNano(),
		DurationSecs: time.Since(started).Seconds(),
		Ticks:        ticks,
		MaxSpeed:     maxSpeed,
		TotalLength:  s.engine.Stats().TotalLength,
	})
	if err != nil {
		log.Printf("failed to record ride log: %v", err)
	}
}

// tailRide issues Server-Side Events carrying ride ticks, for debug
// tooling that wants a plain-HTTP view of the stream.
func (s *Server) tailRide(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	id, frames := s.hub.subscribe()
	defer s.hub.unsubscribe(id)

	// Send initial ping to establish connection
	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
