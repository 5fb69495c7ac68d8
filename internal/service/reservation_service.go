package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/pkg/logger"
)

// ReservationService claims and releases checkout holds. A hold only parks
// inventory for a capacity-aware UI; the purchase path's guarded insert is
// what actually prevents overselling.
type ReservationService struct {
	holds    repository.HoldRepository
	capacity *CapacityService
	clock    domain.Clock
	log      *logger.Logger
}

// NewReservationService creates a ReservationService
func NewReservationService(holds repository.HoldRepository, capacity *CapacityService, clock domain.Clock, log *logger.Logger) *ReservationService {
	return &ReservationService{holds: holds, capacity: capacity, clock: clock, log: log}
}

// Reserve claims inventory for a checkout in progress
func (s *ReservationService) Reserve(ctx context.Context, eventID, sectionID, userID string, quantity int) (*domain.Hold, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: hold quantity must be positive", domain.ErrValidation)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	availability, err := s.capacity.Availability(ctx, eventID, sectionID)
	if err != nil {
		return nil, err
	}
	if quantity > availability.Available {
		return nil, domain.NewCapacityError(sectionID, quantity, availability.Available)
	}

	hold := &domain.Hold{
		ID:        uuid.New().String(),
		EventID:   eventID,
		SectionID: sectionID,
		UserID:    userID,
		Quantity:  quantity,
		CreatedAt: s.clock.Now(),
	}
	if err := s.holds.CreateHold(ctx, hold); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "hold created",
		zap.String("hold_id", hold.ID),
		zap.String("event_id", eventID),
		zap.String("section_id", sectionID),
		zap.Int("quantity", quantity))
	return hold, nil
}

// Release returns a hold's inventory, typically when checkout completes or
// the buyer walks away. Releasing an already-released hold reports false.
func (s *ReservationService) Release(ctx context.Context, holdID string) (bool, error) {
	return s.holds.ReleaseHold(ctx, holdID)
}
