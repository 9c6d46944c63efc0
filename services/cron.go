package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"college-helpdesk-backend/internal/session"
	"college-helpdesk-backend/internal/telemetry"
)

// SweepScheduler evicts idle chat sessions on a fixed interval so the
// in-memory store does not accumulate dead conversations between requests.
type SweepScheduler struct {
	scheduler *gocron.Scheduler
}

func NewSweepScheduler(sessions *session.Store, interval time.Duration, metrics *telemetry.Metrics) (*SweepScheduler, error) {
	s := gocron.NewScheduler(time.UTC)

	_, err := s.Every(interval).Tag("session-sweep").Do(func() {
		evicted := sessions.Sweep()
		if evicted > 0 {
			slog.Info("session sweep", "evicted", evicted)
			if metrics != nil {
				metrics.RecordSessionsEvicted(evicted)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	return &SweepScheduler{scheduler: s}, nil
}

func (s *SweepScheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *SweepScheduler) Stop() {
	s.scheduler.Stop()
}
