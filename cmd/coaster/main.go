// Command coaster runs the track-editing and ride-simulation server:
// the HTTP API, the websocket ride-pose stream, the monitor charts and
// the sqlite design store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hannah505/roller-coaster-builder/internal/api"
	"github.com/hannah505/roller-coaster-builder/internal/coaster"
	"github.com/hannah505/roller-coaster-builder/internal/config"
	"github.com/hannah505/roller-coaster-builder/internal/db"
	"github.com/hannah505/roller-coaster-builder/internal/monitor"
	"github.com/hannah505/roller-coaster-builder/internal/storage/sqlite"
	"github.com/hannah505/roller-coaster-builder/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbFile        = flag.String("db", "coaster.db", "Path to the sqlite database")
	configPath    = flag.String("config", "", "Path to a ride tuning JSON file (built-in defaults if empty)")
	migrationsDir = flag.String("migrations", "internal/db/migrations", "Path to the migrations directory (migrate subcommand)")
	demo          = flag.Bool("demo", false, "Preload the demonstration circuit")
	demoLoop      = flag.Bool("demo-loop", false, "Splice a vertical loop into the demonstration circuit")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("coaster %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	// Subcommand dispatch before any server setup.
	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		db.RunMigrateCommand(args[1:], *dbFile, *migrationsDir)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		log.Printf("loaded tuning config from %s", *configPath)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	engine := coaster.NewEngine(cfg)
	if *demo || *demoLoop {
		coaster.BuildDemoTrack(engine, *demoLoop)
		log.Printf("preloaded demonstration circuit (loop=%v)", *demoLoop)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(engine, sqlite.NewTrackStore(database.DB), database).ServeMux()
		monitor.NewMonitor(engine).AttachRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("coaster server listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
		log.Print("http server terminated")
	}()

	wg.Wait()
	log.Print("shutdown complete")
	os.Exit(0)
}
