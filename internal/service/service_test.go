package service

import (
	"testing"
	"time"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/gateway"
	"github.com/showgate/ticketd/internal/notify"
	"github.com/showgate/ticketd/internal/repository"
	"github.com/showgate/ticketd/internal/token"
	"github.com/showgate/ticketd/pkg/logger"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store    *repository.MemoryStore
	holds    *repository.MemoryHoldRepository
	gateway  *gateway.MockGateway
	recorder *notify.Recorder
	clock    *domain.FixedClock
	issuer   *token.Issuer
	log      *logger.Logger

	capacity     *CapacityService
	eventStatus  *EventStatusService
	purchase     *PurchaseService
	refund       *RefundService
	tickets      *TicketService
	sweep        *SweepService
	reservations *ReservationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", ServiceName: "test"})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}
	issuer, err := token.NewIssuer("test-secret-key", 0)
	if err != nil {
		t.Fatalf("token.NewIssuer() error = %v", err)
	}

	env := &testEnv{
		store:    repository.NewMemoryStore(),
		holds:    repository.NewMemoryHoldRepository(),
		gateway:  gateway.NewMockGateway(),
		recorder: notify.NewRecorder(),
		clock:    &domain.FixedClock{Instant: testNow},
		issuer:   issuer,
		log:      log,
	}

	env.capacity = NewCapacityService(env.store, env.store, env.holds, log)
	env.eventStatus = NewEventStatusService(env.store, env.store, env.recorder, env.clock, log)
	env.purchase = NewPurchaseService(env.store, env.capacity, env.store, env.gateway, issuer, env.eventStatus, env.recorder, env.clock, log)
	env.refund = NewRefundService(env.store, env.store, env.store, env.gateway, env.recorder, env.clock, log)
	env.tickets = NewTicketService(env.store, env.store, issuer, env.recorder, env.clock, log)
	env.sweep = NewSweepService(env.holds, env.clock, log)
	env.reservations = NewReservationService(env.holds, env.capacity, env.clock, log)

	return env
}

// seedEvent creates an on-sale event at a venue with one section per given
// capacity. Section IDs are section-1, section-2, ... and the venue total is
// the sum of the section capacities.
func (e *testEnv) seedEvent(t *testing.T, sectionCapacities ...int) *domain.Event {
	t.Helper()

	total := 0
	for _, c := range sectionCapacities {
		total += c
	}
	e.store.PutVenue(&domain.Venue{
		ID:            "venue-1",
		Name:          "Main Hall",
		TotalCapacity: total,
	})
	for i, capacity := range sectionCapacities {
		e.store.PutSection(&domain.VenueSection{
			ID:       sectionID(i + 1),
			VenueID:  "venue-1",
			Name:     "Section " + string(rune('A'+i)),
			Capacity: capacity,
		})
	}

	ev, err := domain.NewEvent("event-1", "venue-1", "Midnight Concert",
		testNow.Add(24*time.Hour), testNow.Add(28*time.Hour), testNow)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if err := ev.TransitionTo(domain.EventStatusOnSale, testNow); err != nil {
		t.Fatalf("TransitionTo() error = %v", err)
	}
	e.store.PutEvent(ev)
	return ev
}

func sectionID(n int) string {
	return "section-" + string(rune('0'+n))
}
