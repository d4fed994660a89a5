package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/agrimind/agri-advisor/internal/facts"
)

// Scheduler periodically assembles fact bundles for the configured tracked
// locations so the history endpoint has data without waiting for farmer
// requests. The request path is unaffected: it always assembles fresh.
type Scheduler struct {
	scheduler *gocron.Scheduler
	facts     *facts.Service
	store     facts.Store
	locations []facts.Coordinates
	interval  time.Duration
	log       *logrus.Entry
}

// New creates a new Scheduler.
func New(locations []facts.Coordinates, interval time.Duration, svc *facts.Service, store facts.Store, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.WithField("component", "scheduler")
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		facts:     svc,
		store:     store,
		locations: locations,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.log.Info("no tracked locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		s.log.Info("running bundle prewarm job")

		var wg sync.WaitGroup
		for _, loc := range s.locations {
			loc := loc
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				bundle := s.facts.Assemble(ctx, loc, facts.FarmerInputs{})
				s.store.SaveSnapshot(loc, facts.BundleSnapshot{
					Location:  loc,
					Timestamp: time.Now().UTC(),
					Bundle:    bundle,
				})
			}()
		}
		wg.Wait()

		s.log.Info("completed bundle prewarm job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
