// ABOUTME: Periodic runner for the pending-request batch
// ABOUTME: Processes once at start and then on every tick until cancelled
package automation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/config"
)

type batchRunner interface {
	ProcessAllPending(ctx context.Context) (*BatchReport, error)
}

// Scheduler runs the pending batch on a fixed interval.
type Scheduler struct {
	runner   batchRunner
	interval time.Duration
	log      *logrus.Entry
	onReport func(*BatchReport)
}

func NewScheduler(runner batchRunner, interval time.Duration, logger *logrus.Logger) (*Scheduler, error) {
	if interval < config.MinAutomationInterval {
		return nil, apperr.Invalid("automation interval %s is below the %s minimum", interval, config.MinAutomationInterval)
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		log:      logger.WithField("component", "scheduler"),
	}, nil
}

// OnReport registers a callback invoked after every batch.
func (s *Scheduler) OnReport(fn func(*BatchReport)) {
	s.onReport = fn
}

// Run processes once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.WithField("interval", s.interval).Info("automation scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("automation scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.runner.ProcessAllPending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.WithError(err).Error("automation batch failed")
		}
		return
	}
	if s.onReport != nil {
		s.onReport(report)
	}
}
