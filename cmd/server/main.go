/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the inventory engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration, apply flag overrides
  2. Configure structured logging
  3. Initialize SQLite store
  4. Ensure the superuser account exists
  5. Start server with graceful shutdown

CONFIGURATION:
  Environment variables (flags override):
    PORT             HTTP server port (default: 8080)
    DB_PATH          SQLite database path (default: inventory.db)
                     Use ":memory:" for an in-memory database
    LOG_LEVEL        logrus level: debug, info, warn, error (default: info)
    SUPERUSER_EMAIL  Email of the platform owner account; created on first
                     startup (default: admin@localhost)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/inventory.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  PORT=3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"

	"github.com/warp/inventory-engine/api"
	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/store/sqlite"
)

type config struct {
	Port           int    `env:"PORT" envDefault:"8080"`
	DBPath         string `env:"DB_PATH" envDefault:"inventory.db"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	SuperuserEmail string `env:"SUPERUSER_EMAIL" envDefault:"admin@localhost"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logrus.Fatalf("Failed to parse environment: %v", err)
	}

	// Flags override environment values.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	superuser := flag.String("superuser", cfg.SuperuserEmail, "superuser account email")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, using info", *logLevel)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// The superuser owns all newly created assets; the system cannot run
	// without one.
	users := inventory.NewUserService(store)
	owner, err := users.EnsureSuperuser(context.Background(), *superuser)
	if err != nil {
		log.Fatalf("Failed to ensure superuser: %v", err)
	}
	log.WithField("email", owner.Email).Info("superuser ready")

	// Initialize handler and router
	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Server starting on http://localhost:%d", *port)
		log.Infof("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
