// Package sweeper runs the background janitor that closes long-expired
// active sessions. Lookups already treat expired rows as absent; the
// sweeper keeps the status column consistent for reporting.
package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/easymo/notify/internal/domain"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically closes sessions whose TTL passed more than grace ago.
type Sweeper struct {
	repo     domain.SessionRepository
	interval time.Duration
	grace    time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a sweeper. interval is how often it wakes, grace how long
// past expiry a session must be before it is closed.
func New(repo domain.SessionRepository, interval, grace time.Duration) (*Sweeper, error) {
	if repo == nil {
		return nil, errors.New("repo must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	return &Sweeper{
		repo:     repo,
		interval: interval,
		grace:    grace,
	}, nil
}

// Start launches the sweep loop. Returns false if already running.
func (s *Sweeper) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", s.interval).Dur("grace", s.grace).Msg("session sweeper started")

		s.sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("session sweeper stopping")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	return true
}

// Stop halts the loop and waits for the in-flight sweep to finish.
// Returns false if not running.
func (s *Sweeper) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	s.cancel()
	<-s.done
	s.running = false

	log.Info().Msg("session sweeper stopped")
	return true
}

func (s *Sweeper) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("session sweep panic recovered")
		}
	}()

	start := time.Now()
	closed, err := s.repo.CloseExpired(ctx, s.grace)
	if err != nil {
		log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if closed > 0 {
		log.Info().
			Int64("closed", closed).
			Dur("took", time.Since(start)).
			Msg("closed expired sessions")
	}
}
