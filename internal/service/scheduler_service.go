package service

import (
	"context"
	"sync"
	"time"

	"github.com/content-lifecycle-api/internal/apperrors"
	"github.com/content-lifecycle-api/internal/config"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultSchedulerInterval = 30 * time.Second

// schedulerService is the concrete implementation of SchedulerService.
// Ticks never overlap: a tick that finds another in flight is skipped.
type schedulerService struct {
	repos    *repository.Repositories
	content  ContentService
	interval time.Duration
	clock    Clock
	log      zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex

	// inFlight is held for the duration of a tick
	inFlight sync.Mutex
}

func newSchedulerService(repos *repository.Repositories, content ContentService, cfg config.SchedulerConfig, clock Clock, log zerolog.Logger) *schedulerService {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	return &schedulerService{
		repos:    repos,
		content:  content,
		interval: interval,
		clock:    clock,
		log:      log.With().Str("service", "scheduler").Logger(),
	}
}

// Start launches the background ticker. Calling it twice is a no-op.
func (s *schedulerService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.log.Info().Dur("interval", s.interval).Msg("Publishing scheduler started")

	s.wg.Add(1)
	go s.loop()
}

func (s *schedulerService) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Publishing scheduler stopping")
			return
		case <-ticker.C:
			s.runTick()
		}
	}
}

// runTick wraps Tick for the background loop, which has no caller to
// report to. Panics are recovered so one bad row cannot stop publishing.
func (s *schedulerService) runTick() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Scheduler tick panicked - recovered")
		}
	}()
	if _, err := s.Tick(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduler tick failed")
	}
}

// Stop cancels the loop and waits for an in-flight tick to finish
func (s *schedulerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Publishing scheduler stopped")
}

// IsRunning reports whether the background loop is active
func (s *schedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick scans both content tables for due items and promotes each one.
// A lost race on promotion (already published, deleted or purged) is not
// an error.
func (s *schedulerService) Tick(ctx context.Context) (*models.TickResult, error) {
	started := s.clock()
	result := &models.TickResult{
		ID:        uuid.New().String(),
		StartedAt: started.Unix(),
	}
	log := s.log.With().Str("tick_id", result.ID).Logger()

	if !s.inFlight.TryLock() {
		result.Skipped = true
		log.Warn().Msg("Previous tick still running, skipping")
		return result, nil
	}
	defer s.inFlight.Unlock()

	for _, kind := range models.Kinds {
		ids, err := s.repos.Content(kind).DueForPublish(ctx, started.Unix())
		if err != nil {
			return result, apperrors.Internal("failed to scan for due "+string(kind), err)
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			err := s.content.Promote(ctx, kind, id)
			switch {
			case err == nil:
				result.Promoted++
				log.Info().Str("kind", string(kind)).Int64("id", id).Msg("Published scheduled item")
			case apperrors.IsNotFound(err):
				log.Debug().Str("kind", string(kind)).Int64("id", id).Msg("Item no longer due, skipped")
			default:
				result.Failed++
				log.Error().Err(err).Str("kind", string(kind)).Int64("id", id).Msg("Failed to publish scheduled item")
			}
		}
	}

	result.DurationMs = s.clock().Sub(started).Milliseconds()
	if result.Promoted > 0 || result.Failed > 0 {
		log.Info().
			Int("promoted", result.Promoted).
			Int("failed", result.Failed).
			Int64("duration_ms", result.DurationMs).
			Msg("Scheduler tick completed")
	}
	return result, nil
}
