package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/notify"
)

func basketOf(section string, price int64, quantity int) []PurchaseItem {
	items := make([]PurchaseItem, 0, quantity)
	for i := 0; i < quantity; i++ {
		items = append(items, PurchaseItem{
			SectionID: section,
			Price:     decimal.NewFromInt(price),
		})
	}
	return items
}

func TestPurchase_Success(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	ctx := context.Background()

	result, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 3),
	})
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if len(result.Tickets) != 3 {
		t.Fatalf("Expected 3 tickets, got %d", len(result.Tickets))
	}

	txn, err := env.store.GetTransaction(ctx, result.TransactionID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if txn.Status != domain.TransactionStatusCompleted {
		t.Errorf("Expected status COMPLETED, got %s", txn.Status)
	}
	if !txn.TotalAmount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected total 300, got %s", txn.TotalAmount)
	}
	if txn.GatewayReference == "" {
		t.Error("Expected a gateway reference on the transaction")
	}

	details, _ := env.store.GetDetails(ctx, txn.ID)
	if err := txn.VerifyTotal(details); err != nil {
		t.Errorf("VerifyTotal() error = %v", err)
	}

	for _, ticket := range result.Tickets {
		stored, err := env.store.GetTicket(ctx, ticket.ID)
		if err != nil {
			t.Fatalf("GetTicket() error = %v", err)
		}
		if stored.Status != domain.TicketStatusSold {
			t.Errorf("Expected status SOLD, got %s", stored.Status)
		}
		if stored.VerificationToken == "" {
			t.Error("Expected a verification token")
		}
	}

	if len(env.gateway.ChargeCalls) != 1 {
		t.Errorf("Expected 1 gateway charge, got %d", len(env.gateway.ChargeCalls))
	}
	if got := env.recorder.OfType(notify.EventTypePurchaseCompleted); len(got) != 1 {
		t.Errorf("Expected 1 purchase notification, got %d", len(got))
	}
}

func TestPurchase_EventNotOnSale(t *testing.T) {
	env := newTestEnv(t)
	env.seedEvent(t, 100)

	upcoming, _ := domain.NewEvent("event-2", "venue-1", "Early Show",
		testNow.Add(48*time.Hour), testNow.Add(52*time.Hour), testNow)
	env.store.PutEvent(upcoming)

	_, err := env.purchase.Purchase(context.Background(), &PurchaseRequest{
		EventID:         "event-2",
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 1),
	})
	if !errors.Is(err, domain.ErrEventNotOnSale) {
		t.Errorf("Expected ErrEventNotOnSale, got %v", err)
	}
}

func TestPurchase_SectionFromAnotherVenue(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)

	env.store.PutSection(&domain.VenueSection{
		ID:       "section-9",
		VenueID:  "venue-other",
		Capacity: 50,
	})

	_, err := env.purchase.Purchase(context.Background(), &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-9", 100, 1),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestPurchase_CapacityExceeded_NothingWritten(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 2)
	ctx := context.Background()

	_, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 3),
	})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}

	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatal("Expected a typed CapacityError")
	}
	if capErr.SectionID != "section-1" {
		t.Errorf("Expected offending section section-1, got %s", capErr.SectionID)
	}
	if capErr.Requested != 3 || capErr.Available != 2 {
		t.Errorf("Expected requested 3 / available 2, got %d / %d", capErr.Requested, capErr.Available)
	}

	occupied, _ := env.store.CountOccupied(ctx, ev.ID, "section-1")
	if occupied != 0 {
		t.Errorf("Expected no tickets written, got %d", occupied)
	}
	if len(env.gateway.ChargeCalls) != 0 {
		t.Errorf("Expected no gateway charge for a doomed basket, got %d", len(env.gateway.ChargeCalls))
	}
}

func TestPurchase_ConcurrentOversell(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	ctx := context.Background()

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.purchase.Purchase(ctx, &PurchaseRequest{
				EventID:         ev.ID,
				BuyerID:         "user-1",
				PaymentMethodID: "pm-1",
				Items:           basketOf("section-1", 50, 60),
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, capacityFailures := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrCapacityExceeded):
			capacityFailures++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if successes != 1 || capacityFailures != 1 {
		t.Errorf("Expected exactly one success and one CapacityExceeded, got %d / %d",
			successes, capacityFailures)
	}

	occupied, _ := env.store.CountOccupied(ctx, ev.ID, "section-1")
	if occupied != 60 {
		t.Errorf("Expected 60 tickets sold, got %d", occupied)
	}
	if occupied > 100 {
		t.Errorf("Section oversold: %d tickets for capacity 100", occupied)
	}
}

func TestPurchase_GatewayChargeFails(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	env.gateway.FailCharges = true
	ctx := context.Background()

	_, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 1),
	})
	if !errors.Is(err, domain.ErrExternalService) {
		t.Fatalf("Expected ErrExternalService, got %v", err)
	}

	occupied, _ := env.store.CountOccupied(ctx, ev.ID, "section-1")
	if occupied != 0 {
		t.Errorf("Expected no tickets after failed charge, got %d", occupied)
	}
}

func TestPurchase_PendingChargeIsNotSuccess(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	env.gateway.PendCharges = true

	_, err := env.purchase.Purchase(context.Background(), &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 1),
	})
	if !errors.Is(err, domain.ErrExternalService) {
		t.Errorf("Expected ErrExternalService for a pending charge, got %v", err)
	}
}

func TestPurchase_SelloutAtCapacity(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 50)
	ctx := context.Background()

	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 50),
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	event, _ := env.store.GetEvent(ctx, ev.ID)
	if event.Status != domain.EventStatusSoldOut {
		t.Fatalf("Expected SOLD_OUT after the 50th ticket, got %s", event.Status)
	}
	if got := env.recorder.OfType(notify.EventTypeEventSoldOut); len(got) != 1 {
		t.Errorf("Expected 1 sold-out notification, got %d", len(got))
	}

	chargesBefore := len(env.gateway.ChargeCalls)
	_, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-2",
		PaymentMethodID: "pm-2",
		Items:           basketOf("section-1", 100, 1),
	})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded for the 51st ticket, got %v", err)
	}

	// The failed attempt must not write rows or touch the gateway
	occupied, _ := env.store.CountOccupied(ctx, ev.ID, "section-1")
	if occupied != 50 {
		t.Errorf("Expected 50 tickets, got %d", occupied)
	}
	if len(env.gateway.ChargeCalls) != chargesBefore {
		t.Error("Expected no gateway charge for the rejected purchase")
	}
}

func TestPurchase_EmptyBasket(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 10)

	_, err := env.purchase.Purchase(context.Background(), &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}
