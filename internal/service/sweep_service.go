package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/pkg/logger"
)

// sweepBatchSize bounds how many expired holds one run reclaims
const sweepBatchSize = 500

// SweepService reclaims inventory from abandoned checkouts. A hold older
// than the expiry threshold is released back to available. Distinct from
// ticket expiry, which concerns past events.
type SweepService struct {
	holds repository.HoldRepository
	clock domain.Clock
	log   *logger.Logger
}

// NewSweepService creates a SweepService
func NewSweepService(holds repository.HoldRepository, clock domain.Clock, log *logger.Logger) *SweepService {
	return &SweepService{holds: holds, clock: clock, log: log}
}

// Sweep releases every hold older than the threshold and returns how many
// were released. Finding zero candidates is a normal outcome.
func (s *SweepService) Sweep(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := s.clock.Now().Add(-threshold)

	expired, err := s.holds.ListExpired(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, hold := range expired {
		ok, err := s.holds.ReleaseHold(ctx, hold.ID)
		if err != nil {
			return released, err
		}
		if ok {
			released++
		}
	}

	if released > 0 {
		s.log.InfoContext(ctx, "released expired holds",
			zap.Int("released", released),
			zap.Time("cutoff", cutoff))
	}
	return released, nil
}

// CountHeld reports how many tickets are currently held for an event
func (s *SweepService) CountHeld(ctx context.Context, eventID string) (int, error) {
	return s.holds.CountHeld(ctx, eventID)
}
