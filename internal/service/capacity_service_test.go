package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
)

func TestAvailability(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 10)
	ctx := context.Background()

	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 4),
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	availability, err := env.capacity.Availability(ctx, ev.ID, "section-1")
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if availability.Capacity != 10 || availability.Occupied != 4 || availability.Available != 6 {
		t.Errorf("Expected 10/4/6, got %d/%d/%d",
			availability.Capacity, availability.Occupied, availability.Available)
	}
}

func TestAvailability_CanceledTicketsFreeSeats(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 10)
	ctx := context.Background()

	result, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 4),
	})
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if _, err := env.tickets.Cancel(ctx, result.Tickets[0].ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	availability, _ := env.capacity.Availability(ctx, ev.ID, "section-1")
	if availability.Available != 7 {
		t.Errorf("Expected a canceled ticket to free its seat, got available %d", availability.Available)
	}
}

func TestAvailability_ClampsToZero(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 2)
	ctx := context.Background()

	// Seed more occupancy than the section allows, as after a capacity
	// decrease or a data repair
	for i := 0; i < 3; i++ {
		price := decimal.NewFromInt(50)
		ticket, err := domain.NewTicket(ev.ID, "section-1", "user-1", price, testNow)
		if err != nil {
			t.Fatalf("NewTicket() error = %v", err)
		}
		env.store.PutTicket(ticket)
	}

	availability, err := env.capacity.Availability(ctx, ev.ID, "section-1")
	if err != nil {
		t.Fatalf("Availability() error = %v", err)
	}
	if availability.Available != 0 {
		t.Errorf("Expected available clamped to 0, got %d", availability.Available)
	}
	if availability.Occupied != 3 {
		t.Errorf("Expected occupied to report the truth, got %d", availability.Occupied)
	}
}

func TestAvailability_UnknownSection(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 2)

	_, err := env.capacity.Availability(context.Background(), ev.ID, "section-missing")
	if !errors.Is(err, domain.ErrSectionNotFound) {
		t.Errorf("Expected ErrSectionNotFound, got %v", err)
	}
}

func TestEventAvailability(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 10, 20)
	ctx := context.Background()

	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-2", 100, 5),
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if _, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-2", 3); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	availability, err := env.capacity.EventAvailability(ctx, ev.ID)
	if err != nil {
		t.Fatalf("EventAvailability() error = %v", err)
	}
	if len(availability.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(availability.Sections))
	}
	if availability.Status != domain.EventStatusOnSale {
		t.Errorf("Expected status ON_SALE, got %s", availability.Status)
	}
	if availability.Held != 3 {
		t.Errorf("Expected 3 held, got %d", availability.Held)
	}

	bySection := make(map[string]*SectionAvailability)
	for _, sec := range availability.Sections {
		bySection[sec.SectionID] = sec
	}
	if got := bySection["section-1"]; got == nil || got.Available != 10 {
		t.Errorf("Expected section-1 fully available, got %+v", got)
	}
	if got := bySection["section-2"]; got == nil || got.Available != 15 {
		t.Errorf("Expected section-2 with 15 available, got %+v", got)
	}
}
