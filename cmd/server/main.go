/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the employee record engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the EPI expiry sweeper
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -db             SQLite database path (default: prontuario.db)
                  Use ":memory:" for in-memory database
  -sweep-interval EPI expiry sweep interval (default: 1h)
  -sweep          Enable the EPI expiry sweeper (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/prontuario.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port without the sweeper
  ./server -port=3000 -sweep=false

ENVIRONMENT:
  No environment variables currently. All config via flags.
  Future: DATABASE_URL, PORT, LOG_LEVEL

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - api/scheduler.go: EPI expiry sweeper
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitaehr/prontuario-engine/api"
	"github.com/vitaehr/prontuario-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "prontuario.db", "SQLite database path")
	sweepInterval := flag.Duration("sweep-interval", time.Hour, "EPI expiry sweep interval")
	sweepEnabled := flag.Bool("sweep", true, "enable the EPI expiry sweeper")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	// Background expiry sweep
	sweeper := api.NewExpirySweeper(store)
	sweeper.CheckInterval = *sweepInterval
	sweeper.Enabled = *sweepEnabled
	sweeper.Start()
	defer sweeper.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
