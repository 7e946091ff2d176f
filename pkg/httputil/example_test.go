package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/areascore/pkg/config"
	"github.com/wonny/areascore/pkg/httputil"
	"github.com/wonny/areascore/pkg/logger"
)

// Example_basic demonstrates downloading a remote dataset
func Example_basic() {
	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
		HTTP: config.HTTPConfig{
			Timeout:   30 * time.Second,
			RateLimit: 2, // 초당 2회
		},
	}
	log := logger.New(cfg)

	// Create HTTP client (SSOT)
	client := httputil.New(cfg, log)

	body, err := client.GetBody(context.Background(), "https://data.example.com/rental.csv")
	if err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}

	fmt.Printf("Downloaded %d bytes\n", len(body))
}

// Example_withRetry demonstrates retry configuration
func Example_withRetry() {
	cfg := &config.Config{Env: "production", LogLevel: "info"}
	log := logger.New(cfg)

	client := httputil.New(cfg, log).
		WithRetry(5, 2*time.Second). // 5 retries, 2s initial delay
		WithRateLimit(1, 1)

	resp, err := client.Get(context.Background(), "https://data.example.com/starts.json")
	if err != nil {
		fmt.Printf("Request failed after retries: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded")
}
