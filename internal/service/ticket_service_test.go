package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/notify"
)

// purchaseOne seeds an event and buys a single ticket
func purchaseOne(t *testing.T, env *testEnv) *domain.Ticket {
	t.Helper()
	ev := env.seedEvent(t, 100)
	result, err := env.purchase.Purchase(context.Background(), &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 1),
	})
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	return result.Tickets[0]
}

func TestVerify_Success(t *testing.T) {
	env := newTestEnv(t)
	ticket := purchaseOne(t, env)
	env.clock.Advance(25 * time.Hour) // into the event window
	ctx := context.Background()

	ok, err := env.tickets.Verify(ctx, ticket.ID, ticket.VerificationToken)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Fatal("Expected verification to succeed")
	}

	stored, _ := env.store.GetTicket(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusUsed {
		t.Errorf("Expected status USED, got %s", stored.Status)
	}
	if stored.UsedAt == nil {
		t.Error("Expected used_at to be recorded")
	}
}

func TestVerify_SecondPresentationFails(t *testing.T) {
	env := newTestEnv(t)
	ticket := purchaseOne(t, env)
	env.clock.Advance(25 * time.Hour)
	ctx := context.Background()

	if _, err := env.tickets.Verify(ctx, ticket.ID, ticket.VerificationToken); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	ok, err := env.tickets.Verify(ctx, ticket.ID, ticket.VerificationToken)
	if ok || err == nil {
		t.Fatal("Expected second presentation to fail")
	}
	var te *domain.TransitionError
	if !errors.As(err, &te) {
		t.Errorf("Expected a TransitionError, got %v", err)
	}

	stored, _ := env.store.GetTicket(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusUsed {
		t.Errorf("Expected status to stay USED, got %s", stored.Status)
	}
}

func TestVerify_WrongToken(t *testing.T) {
	env := newTestEnv(t)
	ticket := purchaseOne(t, env)
	env.clock.Advance(25 * time.Hour)
	ctx := context.Background()

	ok, err := env.tickets.Verify(ctx, ticket.ID, "forged-token")
	if ok || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got ok=%v err=%v", ok, err)
	}

	stored, _ := env.store.GetTicket(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusSold {
		t.Errorf("Expected status to stay SOLD, got %s", stored.Status)
	}
}

func TestVerify_OutsideEventWindow(t *testing.T) {
	env := newTestEnv(t)
	ticket := purchaseOne(t, env)

	// Clock still 24h before the event starts
	ok, err := env.tickets.Verify(context.Background(), ticket.ID, ticket.VerificationToken)
	if ok || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Expected ErrValidation before the window opens, got ok=%v err=%v", ok, err)
	}
}

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)
	ticket := purchaseOne(t, env)
	ctx := context.Background()

	transferred, err := env.tickets.Transfer(ctx, ticket.ID, "user-2", "New Attendee", "doc-42")
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if transferred.OwnerID != "user-2" {
		t.Errorf("Expected owner user-2, got %s", transferred.OwnerID)
	}
	if transferred.AttendeeName != "New Attendee" {
		t.Errorf("Expected attendee name to follow the transfer, got %q", transferred.AttendeeName)
	}

	stored, _ := env.store.GetTicket(ctx, ticket.ID)
	if stored.OwnerID != "user-2" {
		t.Errorf("Expected persisted owner user-2, got %s", stored.OwnerID)
	}
	if got := env.recorder.OfType(notify.EventTypeTicketTransferred); len(got) != 1 {
		t.Errorf("Expected 1 transfer notification, got %d", len(got))
	}
}

func TestTransfer_TerminalTicket(t *testing.T) {
	env := newTestEnv(t)
	ticket := purchaseOne(t, env)
	ctx := context.Background()

	if _, err := env.tickets.Cancel(ctx, ticket.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	_, err := env.tickets.Transfer(ctx, ticket.ID, "user-2", "", "")
	var te *domain.TransitionError
	if !errors.As(err, &te) {
		t.Errorf("Expected a TransitionError for a canceled ticket, got %v", err)
	}
}

func TestCancel_Twice(t *testing.T) {
	env := newTestEnv(t)
	ticket := purchaseOne(t, env)
	ctx := context.Background()

	if _, err := env.tickets.Cancel(ctx, ticket.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	_, err := env.tickets.Cancel(ctx, ticket.ID)
	var te *domain.TransitionError
	if !errors.As(err, &te) {
		t.Errorf("Expected a TransitionError on the second cancel, got %v", err)
	}
}

func TestIssueGift(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 5)
	ctx := context.Background()

	gifts, err := env.tickets.IssueGift(ctx, &GiftRequest{
		EventID:     ev.ID,
		SectionID:   "section-1",
		RecipientID: "user-7",
		Quantity:    3,
	})
	if err != nil {
		t.Fatalf("IssueGift() error = %v", err)
	}
	if len(gifts) != 3 {
		t.Fatalf("Expected 3 gift tickets, got %d", len(gifts))
	}
	for _, g := range gifts {
		if g.Status != domain.TicketStatusGift {
			t.Errorf("Expected status GIFT, got %s", g.Status)
		}
		if g.Price != nil {
			t.Error("Expected no sale price on a gift ticket")
		}
		if g.VerificationToken == "" {
			t.Error("Expected a verification token")
		}
	}

	// Gifts occupy seats: only 2 remain for sale
	occupied, _ := env.store.CountOccupied(ctx, ev.ID, "section-1")
	if occupied != 3 {
		t.Errorf("Expected 3 occupied seats, got %d", occupied)
	}
	_, err = env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 3),
	})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded after gifts, got %v", err)
	}
}

func TestIssueGift_CapacityExceeded(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 2)

	_, err := env.tickets.IssueGift(context.Background(), &GiftRequest{
		EventID:     ev.ID,
		SectionID:   "section-1",
		RecipientID: "user-7",
		Quantity:    3,
	})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded, got %v", err)
	}
}

func TestIssueGift_CanceledEvent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 10)
	if err := ev.TransitionTo(domain.EventStatusCanceled, testNow); err != nil {
		t.Fatalf("TransitionTo() error = %v", err)
	}
	env.store.PutEvent(ev)

	_, err := env.tickets.IssueGift(context.Background(), &GiftRequest{
		EventID:     ev.ID,
		SectionID:   "section-1",
		RecipientID: "user-7",
		Quantity:    1,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestExpirePastEvents(t *testing.T) {
	env := newTestEnv(t)
	ev := env.seedEvent(t, 100)
	ctx := context.Background()

	if _, err := env.purchase.Purchase(ctx, &PurchaseRequest{
		EventID:         ev.ID,
		BuyerID:         "user-1",
		PaymentMethodID: "pm-1",
		Items:           basketOf("section-1", 100, 2),
	}); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	gifts, err := env.tickets.IssueGift(ctx, &GiftRequest{
		EventID:     ev.ID,
		SectionID:   "section-1",
		RecipientID: "user-7",
		Quantity:    1,
	})
	if err != nil {
		t.Fatalf("IssueGift() error = %v", err)
	}

	env.clock.Advance(29 * time.Hour) // past the event's end

	expired, err := env.tickets.ExpirePastEvents(ctx)
	if err != nil {
		t.Fatalf("ExpirePastEvents() error = %v", err)
	}
	if expired != 2 {
		t.Errorf("Expected 2 expired tickets, got %d", expired)
	}

	// Gift tickets are left alone
	gift, _ := env.store.GetTicket(ctx, gifts[0].ID)
	if gift.Status != domain.TicketStatusGift {
		t.Errorf("Expected gift to stay GIFT, got %s", gift.Status)
	}

	// Idempotent: a second run finds nothing
	expired, err = env.tickets.ExpirePastEvents(ctx)
	if err != nil {
		t.Fatalf("ExpirePastEvents() error = %v", err)
	}
	if expired != 0 {
		t.Errorf("Expected 0 on the second run, got %d", expired)
	}
}
