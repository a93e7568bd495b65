package scheduler

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// ErrRunInFlight is returned by TriggerNow while a run is already executing.
var ErrRunInFlight = errors.New("a monitoring run is already in flight")

// Job is one monitoring pass.
type Job func(ctx context.Context)

// Scheduler fires a Job on a cron schedule and on demand. Scheduled and
// manual triggers share one single-flight lock: overlapping scheduled
// firings are skipped, overlapping manual triggers are rejected.
type Scheduler struct {
	cron *cron.Cron
	job  Job

	mu  sync.Mutex // serializes runs across both trigger paths
	ctx context.Context
}

// New validates the cron expression and registers the job. An invalid
// expression is a configuration error: the scheduler refuses to exist.
func New(expr string, job Job) (*Scheduler, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, errors.Wrapf(err, "invalid schedule expression %q", expr)
	}

	s := &Scheduler{
		cron: cron.New(),
		job:  job,
	}
	if _, err := s.cron.AddFunc(expr, s.fire); err != nil {
		return nil, errors.Wrapf(err, "could not register schedule %q", expr)
	}
	return s, nil
}

// Start begins firing on schedule. ctx bounds every scheduled run.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	log.Info("🚀 Scheduler started")
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock() // wait out a manual trigger too
	s.mu.Unlock()
}

// TriggerNow runs one pass synchronously, equivalent to a scheduled firing.
// It returns ErrRunInFlight instead of overlapping an active run.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	if !s.mu.TryLock() {
		return ErrRunInFlight
	}
	defer s.mu.Unlock()
	s.job(ctx)
	return nil
}

func (s *Scheduler) fire() {
	if !s.mu.TryLock() {
		log.Warn("⚠️ Skipping scheduled run: previous run still in flight")
		return
	}
	defer s.mu.Unlock()

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return
	default:
	}
	s.job(ctx)
}
