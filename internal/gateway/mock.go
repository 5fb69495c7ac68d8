package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
)

// MockGateway is an in-memory PaymentGateway for tests. It records every
// call and can be told to fail or leave charges pending.
type MockGateway struct {
	mu sync.Mutex

	FailCharges  bool
	PendCharges  bool
	FailRefunds  bool
	PendRefunds  bool
	RefundErr    error
	ChargeCalls  []*ChargeRequest
	RefundCalls  []*RefundRequest
	statuses     map[string]ChargeStatus
	seenIdemKeys map[string]*RefundResponse
	seq          int
}

// NewMockGateway creates an empty MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{
		statuses:     make(map[string]ChargeStatus),
		seenIdemKeys: make(map[string]*RefundResponse),
	}
}

// Charge records the call and succeeds unless configured otherwise
func (g *MockGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ChargeCalls = append(g.ChargeCalls, req)

	if g.FailCharges {
		return &ChargeResponse{Status: StatusFailed, FailureReason: "card declined"}, nil
	}
	g.seq++
	ref := g.nextRef("ch")
	status := StatusSucceeded
	if g.PendCharges {
		status = StatusPending
	}
	g.statuses[ref] = status
	return &ChargeResponse{Reference: ref, Status: status}, nil
}

// Refund records the call. Repeated calls with the same idempotency key
// return the first response without counting as a new refund.
func (g *MockGateway) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if req.IdempotencyKey != "" {
		if prior, ok := g.seenIdemKeys[req.IdempotencyKey]; ok {
			return prior, nil
		}
	}
	g.RefundCalls = append(g.RefundCalls, req)

	if g.RefundErr != nil {
		return nil, g.RefundErr
	}
	if g.FailRefunds {
		return nil, domain.ErrExternalService
	}

	g.seq++
	resp := &RefundResponse{Reference: g.nextRef("re"), Status: StatusSucceeded}
	if g.PendRefunds {
		resp.Status = StatusPending
	}
	if req.IdempotencyKey != "" {
		g.seenIdemKeys[req.IdempotencyKey] = resp
	}
	return resp, nil
}

// GetStatus retrieves the recorded status of a charge
func (g *MockGateway) GetStatus(ctx context.Context, reference string) (ChargeStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.statuses[reference]
	if !ok {
		return StatusFailed, domain.ErrExternalService
	}
	return status, nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

// RefundedTotal sums the amounts of all recorded refunds
func (g *MockGateway) RefundedTotal() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := decimal.Zero
	for _, r := range g.RefundCalls {
		total = total.Add(r.Amount)
	}
	return total
}

func (g *MockGateway) nextRef(prefix string) string {
	return fmt.Sprintf("%s_mock_%d", prefix, g.seq)
}
