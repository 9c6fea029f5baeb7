// Package scheduler owns the app's recurring jobs. Jobs are registered by
// name against a cron spec and run in UTC; the registry is inspectable so the
// health endpoint can report what is scheduled and when it fires next.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/darasa/core"
)

// Job is a named unit of scheduled work. Errors are reported, not retried;
// the next cron tick is the retry.
type Job func(ctx context.Context) error

// JobInfo describes one registered job for diagnostics.
type JobInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
}

type entry struct {
	name string
	spec string
	id   cron.EntryID
}

type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger

	mu      sync.Mutex
	entries []entry
	running bool
}

func New(logger core.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// Schedule registers job under name to run on spec (standard 5-field cron,
// UTC). Registration after Start takes effect immediately.
func (s *Scheduler) Schedule(name, spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.logger.Info(fmt.Sprintf("job %s: starting", name))
		if err := job(context.Background()); err != nil {
			s.logger.Error(fmt.Sprintf("job %s: %v", name, err), err)
			return
		}
		s.logger.Info(fmt.Sprintf("job %s: done in %s", name, time.Since(start).Round(time.Millisecond)))
	})
	if err != nil {
		return errors.Wrapf(err, "scheduling job %s (%q)", name, spec)
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry{name: name, spec: spec, id: id})
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info(fmt.Sprintf("scheduler started with %d job(s)", len(s.entries)))
}

// Shutdown stops the ticker and waits for in-flight jobs to finish, up to
// ctx's deadline.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done(): // nothing in flight
		return nil
	default:
	}
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "scheduler shutdown")
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs lists the registered jobs with their next fire times.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		infos = append(infos, JobInfo{
			Name: e.name,
			Spec: e.spec,
			Next: s.cron.Entry(e.id).Next,
		})
	}
	return infos
}
