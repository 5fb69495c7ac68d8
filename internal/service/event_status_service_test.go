package service

import (
	"context"
	"testing"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/notify"
)

func TestRecheckSellout_BelowCapacity(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 10)
	ctx := context.Background()

	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 9),
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	if err := env.eventStatus.RecheckSellout(ctx, ev.ID); err != nil {
		t.Fatalf("RecheckSellout() error = %v", err)
	}
	event, _ := env.store.GetEvent(ctx, ev.ID)
	if event.Status != domain.EventStatusOnSale {
		t.Errorf("Expected ON_SALE below capacity, got %s", event.Status)
	}
	if got := env.recorder.OfType(notify.EventTypeEventSoldOut); len(got) != 0 {
		t.Errorf("Expected no sold-out notification, got %d", len(got))
	}
}

func TestRecheckSellout_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 2)
	ctx := context.Background()

	// The purchase itself flips the event to SOLD_OUT
	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 2),
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	event, _ := env.store.GetEvent(ctx, ev.ID)
	if event.Status != domain.EventStatusSoldOut {
		t.Fatalf("Expected SOLD_OUT, got %s", event.Status)
	}

	if err := env.eventStatus.RecheckSellout(ctx, ev.ID); err != nil {
		t.Fatalf("RecheckSellout() error = %v", err)
	}
	if got := env.recorder.OfType(notify.EventTypeEventSoldOut); len(got) != 1 {
		t.Errorf("Expected exactly 1 sold-out notification, got %d", len(got))
	}
}

func TestRecheckSellout_SpansSections(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 2, 3)
	ctx := context.Background()

	items := append(basketOf("section-1", 100, 2), basketOf("section-2", 80, 3)...)
	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           items,
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	event, _ := env.store.GetEvent(ctx, ev.ID)
	if event.Status != domain.EventStatusSoldOut {
		t.Errorf("Expected SOLD_OUT once every section filled, got %s", event.Status)
	}
}

func TestRecheckSellout_RefundDoesNotReopen(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 2)
	ctx := context.Background()

	result, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 2),
	})
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	if _, err := env.refund.Refund(ctx, &RefundRequest{TransactionID: result.TransactionID}); err != nil {
		t.Fatalf("Refund() error = %v", err)
	}

	event, _ := env.store.GetEvent(ctx, ev.ID)
	if event.Status != domain.EventStatusSoldOut {
		t.Errorf("Expected refunds to leave SOLD_OUT in place, got %s", event.Status)
	}
}
