package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"verigo/api"
	"verigo/events"
	"verigo/gate"
	"verigo/runner"
)

// Serve starts the HTTP server: run history API, SSE events, and the
// interval scheduler over the registered workspaces.
func Serve() error {
	// Load .env file if it exists (ignore errors if it doesn't)
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	defer store.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	workspacesPath := getEnv("VERIGO_WORKSPACES", "workspaces.yml")
	workspaces, err := runner.LoadWorkspaces(workspacesPath)
	if err != nil {
		log.Printf("⚠️  no workspaces loaded: %v", err)
		workspaces = &runner.WorkspaceSet{}
	} else {
		log.Printf("📁 loaded %d workspace(s)", len(workspaces.Workspaces))
	}

	broker := events.NewBroker()
	svc := &gate.Service{Store: store, Broker: broker}

	scheduler := gate.NewScheduler(svc, workspaces, cwd)
	go scheduler.Start()
	defer scheduler.Stop()

	handlers := &api.Handlers{
		Store:      store,
		Service:    svc,
		Workspaces: workspaces,
		Broker:     broker,
		BaseDir:    cwd,
	}

	addr := ":" + port
	log.Printf("🚀 verigo server listening on %s", addr)
	if err := http.ListenAndServe(addr, handlers.Router()); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// getEnv gets an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
