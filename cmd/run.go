package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"

	"verigo/gate"
	"verigo/runner"
	"verigo/runner/history"
)

// Run executes the pipeline at configPath once and returns the process
// exit code: 0 on success, the failing step's exit code on a halt. A plain
// run persists nothing; set VERIGO_HISTORY=1 to record it in the local
// history database.
func Run(configPath string) int {
	// Load .env if present so steps inherit local settings (database
	// credentials for the serial partition, tool paths).
	_ = godotenv.Load()

	svc := &gate.Service{Stream: os.Stdout}

	if os.Getenv("VERIGO_HISTORY") == "1" {
		store, err := openStore()
		if err != nil {
			log.Printf("⚠️  history disabled: %v", err)
		} else {
			defer store.Close()
			svc.Store = store
		}
	}

	// Ctrl-C terminates the running step and halts the run like any
	// other failure.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := svc.Verify(ctx, configPath, "")
	if err != nil {
		log.Printf("❌ pipeline could not start: %v", err)
		return 1
	}

	fmt.Println()
	fmt.Println(runner.Report(run))
	return run.ExitCode()
}

// openStore opens the history database under ./data, creating it if
// needed.
func openStore() (*history.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	dataDir := filepath.Join(cwd, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return history.NewStore(filepath.Join(dataDir, "verigo.db"))
}
