package handlers

import (
	"net/http"
	"sync"
)

// Steps reported by the health endpoint
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepQuestions  = "Checking question pool"
	StepServices   = "Initializing services"
)

// StartupStatus tracks initialization progress for the health endpoint
type StartupStatus struct {
	mu      sync.RWMutex
	ready   bool
	current string
	steps   []StartupStep
}

// StartupStep is one named phase of server startup
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker for the given steps, none completed
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// CompleteStep marks a step as completed
func (s *StartupStatus) CompleteStep(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].Name == name {
			s.steps[i].Completed = true
			s.current = name
			return
		}
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

type startupView struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// ServeHTTP reports startup progress; 503 until the server is ready
func (s *StartupStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	view := startupView{
		Ready:   s.ready,
		Current: s.current,
		Steps:   append([]StartupStep(nil), s.steps...),
	}
	s.mu.RUnlock()

	completed := 0
	for _, step := range view.Steps {
		if step.Completed {
			completed++
		}
	}
	switch {
	case view.Ready:
		view.Progress = 100
	case len(view.Steps) > 0:
		view.Progress = completed * 100 / len(view.Steps)
	}

	status := http.StatusOK
	if !view.Ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, view)
}
