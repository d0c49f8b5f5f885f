package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordcards/internal/session"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// sweepTimeout bounds one eviction pass
const sweepTimeout = 30 * time.Second

// Scheduler manages scheduled maintenance tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       zerolog.Logger
}

// New creates a new scheduler instance
func New(logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A slow pass must not overlap the next one
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		log:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// AddSessionSweep evicts sessions idle for longer than idle every interval
func (s *Scheduler) AddSessionSweep(sweeper session.Sweeper, interval, idle time.Duration) error {
	if interval <= 0 || idle <= 0 {
		return fmt.Errorf("session sweep: interval and idle must be positive")
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		removed, err := sweeper.Sweep(ctx, idle)
		if err != nil {
			s.log.Error().Err(err).Msg("Session sweep failed")
			return
		}
		if removed > 0 {
			s.log.Info().Int("removed", removed).Msg("Evicted idle sessions")
		}
	})
	if err != nil {
		return fmt.Errorf("session sweep: %w", err)
	}
	return nil
}

// Len returns the number of scheduled jobs
func (s *Scheduler) Len() int {
	return s.scheduler.Len()
}

// Start begins running all scheduled tasks without blocking
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
