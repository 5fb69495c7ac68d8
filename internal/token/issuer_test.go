package token

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket("event-1", "section-1", "user-1", decimal.NewFromInt(100), testNow)
	if err != nil {
		t.Fatalf("NewTicket() error = %v", err)
	}
	return ticket
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer("test-secret-key", 0)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	ticket := testTicket(t)
	signed, err := issuer.Issue(ticket, testNow)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if signed == "" {
		t.Fatal("Expected a signed token")
	}

	if err := issuer.Verify(signed, ticket); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestIssuer_Verify_WrongTicket(t *testing.T) {
	issuer, _ := NewIssuer("test-secret-key", 0)

	ticket := testTicket(t)
	other := testTicket(t)
	signed, _ := issuer.Issue(ticket, testNow)

	if err := issuer.Verify(signed, other); !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("Expected ErrTokenMismatch, got %v", err)
	}
}

func TestIssuer_Verify_WrongSecret(t *testing.T) {
	issuer, _ := NewIssuer("test-secret-key", 0)
	imposter, _ := NewIssuer("another-secret", 0)

	ticket := testTicket(t)
	signed, _ := imposter.Issue(ticket, testNow)

	if err := issuer.Verify(signed, ticket); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestIssuer_Verify_Garbage(t *testing.T) {
	issuer, _ := NewIssuer("test-secret-key", 0)
	ticket := testTicket(t)

	if err := issuer.Verify("not-a-token", ticket); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", 0); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
}
