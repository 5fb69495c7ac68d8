package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/showgate/ticketd/internal/domain"
)

func TestSweep_ReleasesOnlyStaleHolds(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	ctx := context.Background()

	stale, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-1", 4)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	env.clock.Advance(10 * time.Minute)
	fresh, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-2", 2)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	// At T+20 with a 15m threshold, only the T+0 hold is stale
	env.clock.Advance(10 * time.Minute)
	released, err := env.sweep.Sweep(ctx, 15*time.Minute)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if released != 1 {
		t.Errorf("Expected 1 released hold, got %d", released)
	}

	held, _ := env.sweep.CountHeld(ctx, ev.ID)
	if held != 2 {
		t.Errorf("Expected 2 tickets still held, got %d", held)
	}

	// The stale hold is gone, the fresh one survives
	if ok, _ := env.holds.ReleaseHold(ctx, stale.ID); ok {
		t.Error("Expected the stale hold to already be released")
	}
	if ok, _ := env.holds.ReleaseHold(ctx, fresh.ID); !ok {
		t.Error("Expected the fresh hold to survive the sweep")
	}
}

func TestSweep_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	ctx := context.Background()

	if _, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-1", 3); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	env.clock.Advance(20 * time.Minute)

	first, err := env.sweep.Sweep(ctx, 15*time.Minute)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if first != 1 {
		t.Errorf("Expected 1 released hold, got %d", first)
	}

	second, err := env.sweep.Sweep(ctx, 15*time.Minute)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if second != 0 {
		t.Errorf("Expected 0 on the second run, got %d", second)
	}
}

func TestSweep_HoldAtExactThreshold(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	ctx := context.Background()

	if _, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-1", 1); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	env.clock.Advance(15 * time.Minute)

	// Exactly at the threshold is not yet stale
	released, err := env.sweep.Sweep(ctx, 15*time.Minute)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if released != 0 {
		t.Errorf("Expected a hold at exactly the threshold to survive, got %d released", released)
	}
}

func TestReserve_RespectsAvailability(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 5)
	ctx := context.Background()

	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 3),
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	_, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-2", 3)
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}

	hold, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-2", 2)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if hold.Quantity != 2 {
		t.Errorf("Expected hold quantity 2, got %d", hold.Quantity)
	}
}

func TestReserve_Validation(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 5)
	ctx := context.Background()

	if _, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-1", 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for zero quantity, got %v", err)
	}
	if _, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "", 1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for missing user, got %v", err)
	}
}

func TestRelease_Twice(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 10)
	ctx := context.Background()

	hold, err := env.reservations.Reserve(ctx, ev.ID, "section-1", "user-1", 2)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	ok, err := env.reservations.Release(ctx, hold.ID)
	if err != nil || !ok {
		t.Fatalf("Expected first release to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = env.reservations.Release(ctx, hold.ID)
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if ok {
		t.Error("Expected releasing a released hold to report false")
	}

	held, _ := env.sweep.CountHeld(ctx, ev.ID)
	if held != 0 {
		t.Errorf("Expected 0 held after release, got %d", held)
	}
}
