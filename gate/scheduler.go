package gate

import (
	"context"
	"log"
	"sync"
	"time"

	"verigo/runner"
)

// Scheduler re-verifies registered workspaces on their configured
// intervals. Workspaces without an `every:` interval are never scheduled;
// a workspace whose previous scheduled run is still going is skipped, so
// runs of the same workspace never overlap.
type Scheduler struct {
	service    *Service
	workspaces *runner.WorkspaceSet
	baseDir    string
	stopChan   chan struct{}

	mu       sync.Mutex
	lastRuns map[string]time.Time
	running  map[string]bool
}

// NewScheduler creates a scheduler over the given workspace registry.
func NewScheduler(service *Service, workspaces *runner.WorkspaceSet, baseDir string) *Scheduler {
	return &Scheduler{
		service:    service,
		workspaces: workspaces,
		baseDir:    baseDir,
		stopChan:   make(chan struct{}),
		lastRuns:   make(map[string]time.Time),
		running:    make(map[string]bool),
	}
}

// Start begins the scheduler loop and blocks until Stop is called.
func (s *Scheduler) Start() {
	log.Println("📅 scheduler started")
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	s.tick()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			log.Println("📅 scheduler stopped")
			return
		}
	}
}

// Stop gracefully stops the scheduler. Runs already in flight finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) tick() {
	for i := range s.workspaces.Workspaces {
		w := &s.workspaces.Workspaces[i]
		if w.Every == "" {
			continue
		}
		interval, err := time.ParseDuration(w.Every)
		if err != nil {
			log.Printf("⚠️  workspace %q has invalid interval %q: %v", w.Name, w.Every, err)
			continue
		}

		s.mu.Lock()
		due := !s.running[w.Name] &&
			(s.lastRuns[w.Name].IsZero() || time.Since(s.lastRuns[w.Name]) >= interval)
		if due {
			s.running[w.Name] = true
			s.lastRuns[w.Name] = time.Now()
		}
		s.mu.Unlock()

		if !due {
			continue
		}

		go func(w *runner.Workspace) {
			defer func() {
				s.mu.Lock()
				delete(s.running, w.Name)
				s.mu.Unlock()
			}()

			log.Printf("⏰ scheduled verification: %s (every %s)", w.Name, w.Every)
			run, err := s.service.VerifyWorkspace(context.Background(), w, s.baseDir)
			if err != nil {
				log.Printf("❌ scheduled run failed to start for %s: %v", w.Name, err)
				return
			}
			if run.Success() {
				log.Printf("✅ scheduled run passed: %s", w.Name)
			} else if res, ok := run.Halted(); ok {
				log.Printf("❌ scheduled run halted: %s at step %q", w.Name, res.Step.Name)
			}
		}(w)
	}
}
