package main

import (
	"os"

	"github.com/wonny/areascore/cmd/areascore/commands"
)

// main is the entry point for the areascore CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/areascore [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
