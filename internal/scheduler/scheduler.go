// Package scheduler wires the recurring maintenance jobs: refreshing
// current-date exchange rates and recomputing portfolio snapshots.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/service"
)

// jobTimeout bounds one scheduled run so a hung provider cannot stall the
// cron goroutine indefinitely.
const jobTimeout = 10 * time.Minute

// Scheduler owns the cron runner and its registered jobs.
type Scheduler struct {
	cron      *cron.Cron
	rates     *service.RateService
	analytics *service.AnalyticsService
}

// New creates a Scheduler with the standard jobs registered:
// hourly FX rate refresh and nightly snapshot recompute.
func New(rates *service.RateService, analytics *service.AnalyticsService) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		rates:     rates,
		analytics: analytics,
	}

	if _, err := s.cron.AddFunc("@hourly", s.refreshRates); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc("0 2 * * *", s.recomputeSnapshots); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Scheduler started")
}

// Stop stops the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) refreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	refreshed, err := s.rates.RefreshCurrentRates(ctx)
	if err != nil {
		log.Printf("FX rate refresh finished with error after %d pairs: %v", refreshed, err)
		return
	}
	log.Printf("FX rate refresh completed: %d pairs updated", refreshed)
}

func (s *Scheduler) recomputeSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.analytics.RecomputeAll(ctx)
	if err != nil {
		log.Printf("Snapshot recompute failed: %v", err)
		return
	}
	log.Printf("Snapshot recompute completed: %d portfolios, %d errors", result.TotalComputed, result.TotalErrors)
}
