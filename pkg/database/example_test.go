package database_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wonny/areascore/pkg/config"
	"github.com/wonny/areascore/pkg/database"
)

// Example opens the scoring store and reports its state
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect and create the scoring tables
	db, err := database.Open(ctx, cfg.Database, database.Options{Migrate: true})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("Database is healthy: %v\n", status.Healthy)
	fmt.Printf("Schema ready: %v\n", status.Schema.Ready)
	if status.LatestRun != nil {
		fmt.Printf("Latest run: %s at %s\n", status.LatestRun.RunID, status.LatestRun.ScoredAt)
	}
}
