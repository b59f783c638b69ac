// Package jobs runs the periodic maintenance work: session sweeps and
// channel registry refresh. It is a thin wrapper over robfig/cron that
// supports replacing a named job's schedule at runtime.
package jobs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron runner and a name-to-entry index so jobs can
// be rescheduled or removed individually.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  slog.Default().With(slog.String("component", "jobs")),
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule registers fn under name with a cron spec (seconds field
// included). Scheduling an existing name replaces its previous entry.
func (s *Scheduler) Schedule(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old)
	}
	logger := s.logger.With(slog.String("job", name))
	id, err := s.cron.AddFunc(spec, func() {
		logger.Debug("job run")
		fn()
	})
	if err != nil {
		return err
	}
	s.entries[name] = id
	logger.Info("job scheduled", slog.String("spec", spec))
	return nil
}

// Remove deletes a named job. Unknown names are ignored.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Names returns the currently scheduled job names.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		out = append(out, name)
	}
	return out
}

// Run starts the cron runner and blocks until the context is canceled,
// then waits for in-flight jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}
