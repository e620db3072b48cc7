// Command simulate runs a complete headless ride of a track and writes
// the tick trace as JSON plus speed/elevation/layout PNG plots. The
// track comes from a stored design, or from the built-in demonstration
// circuit when no database is given.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hannah505/roller-coaster-builder/internal/coaster"
	"github.com/hannah505/roller-coaster-builder/internal/config"
	"github.com/hannah505/roller-coaster-builder/internal/db"
	"github.com/hannah505/roller-coaster-builder/internal/monitor"
	"github.com/hannah505/roller-coaster-builder/internal/storage/sqlite"
)

var (
	dbFile     = flag.String("db", "", "Path to the sqlite database (empty: use the demo circuit)")
	designName = flag.String("design", "", "Name of the stored design to ride (requires -db)")
	configPath = flag.String("config", "", "Path to a ride tuning JSON file")
	withLoop   = flag.Bool("loop", false, "Splice a vertical loop into the demo circuit")
	dt         = flag.Float64("dt", 1.0/60, "Tick length in seconds")
	maxTicks   = flag.Int("max-ticks", monitor.DefaultMaxTicks, "Tick cap for non-terminating (closed) tracks")
	outDir     = flag.String("out", "plots", "Output directory for the trace and plots")
	record     = flag.Bool("record", false, "Record a ride-log row in the database")
)

func main() {
	flag.Parse()

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	engine := coaster.NewEngine(cfg)
	var database *db.DB
	var designID string

	if *dbFile != "" && *designName != "" {
		var err error
		database, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()

		design, err := sqlite.NewTrackStore(database.DB).GetDesignByName(*designName)
		if err != nil {
			log.Fatalf("failed to load design: %v", err)
		}
		engine.ReplaceDesign(design.Points, design.Closed, design.ChainLift, design.ShowSupports)
		designID = design.DesignID
		log.Printf("riding design %q (%d points)", design.Name, len(design.Points))
	} else {
		coaster.BuildDemoTrack(engine, *withLoop)
		log.Printf("riding demonstration circuit (loop=%v)", *withLoop)
	}

	started := time.Now()
	rec := monitor.RecordRide(engine, *dt, *maxTicks)
	if len(rec.Samples) == 0 {
		log.Fatal("track cannot carry a ride")
	}
	log.Printf("ride finished: ticks=%d duration=%.2fs length=%.1f max_speed=%.2f completed=%v",
		len(rec.Samples), rec.DurationSecs, rec.TotalLength, rec.MaxSpeed, rec.Completed)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}
	tracePath := filepath.Join(*outDir, "ride_trace.json")
	trace, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode trace: %v", err)
	}
	if err := os.WriteFile(tracePath, trace, 0644); err != nil {
		log.Fatalf("failed to write trace: %v", err)
	}
	log.Printf("wrote %s", tracePath)

	count, err := monitor.WritePlots(rec, *outDir)
	if err != nil {
		log.Fatalf("failed after %d plots: %v", count, err)
	}

	if *record && database != nil {
		id, err := database.RecordRideLog(db.RideLog{
			DesignID:     designID,
			StartedAtNs:  started.UnixNano(),
			DurationSecs: rec.DurationSecs,
			Ticks:        int64(len(rec.Samples)),
			MaxSpeed:     rec.MaxSpeed,
			TotalLength:  rec.TotalLength,
		})
		if err != nil {
			log.Fatalf("failed to record ride log: %v", err)
		}
		log.Printf("recorded ride log %d", id)
	}
}
