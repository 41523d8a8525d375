// Package jobs runs the background cron tasks of the service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/community"
)

// Reconciler recomputes the denormalized counters.
type Reconciler interface {
	Run(ctx context.Context) (community.Report, error)
}

// Scheduler runs counter reconciliation on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	schedule   string
	reconciler Reconciler
}

func NewScheduler(schedule string, reconciler Reconciler) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		schedule:   schedule,
		reconciler: reconciler,
	}
}

// Start registers the jobs and starts the cron loop. An empty schedule
// leaves reconciliation off.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		log.Info("[CRON] Counter reconciliation disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.reconcile(ctx) }); err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.WithField("schedule", s.schedule).Info("Scheduler started")
	return nil
}

func (s *Scheduler) reconcile(ctx context.Context) {
	log.Debug("[CRON] Reconciling counters")
	report, err := s.reconciler.Run(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Counter reconciliation failed")
		return
	}
	if n := report.Total(); n > 0 {
		log.WithField("repaired", n).Warn("[CRON] Counter drift repaired")
	}
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
