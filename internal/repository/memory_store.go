package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/showgate/ticketd/internal/domain"
)

// MemoryStore is an in-memory implementation of the Event, Ticket,
// Transaction and Wallet repositories backed by one mutex. The single lock
// gives it the same serialization the PostgreSQL implementation gets from
// row locks, so concurrent capacity tests exercise the same guarantee.
type MemoryStore struct {
	mu sync.RWMutex

	events   map[string]*domain.Event
	venues   map[string]*domain.Venue
	sections map[string]*domain.VenueSection

	tickets map[string]*domain.Ticket

	transactions map[string]*domain.Transaction
	details      map[string][]domain.TransactionDetail

	wallets map[string]decimal.Decimal
	entries []domain.WalletEntry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:       make(map[string]*domain.Event),
		venues:       make(map[string]*domain.Venue),
		sections:     make(map[string]*domain.VenueSection),
		tickets:      make(map[string]*domain.Ticket),
		transactions: make(map[string]*domain.Transaction),
		details:      make(map[string][]domain.TransactionDetail),
		wallets:      make(map[string]decimal.Decimal),
	}
}

// PutEvent seeds an event
func (s *MemoryStore) PutEvent(ev *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ev
	s.events[ev.ID] = &cp
}

// PutVenue seeds a venue
func (s *MemoryStore) PutVenue(v *domain.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.venues[v.ID] = &cp
}

// PutSection seeds a venue section
func (s *MemoryStore) PutSection(sec *domain.VenueSection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sec
	s.sections[sec.ID] = &cp
}

// PutTicket seeds a ticket
func (s *MemoryStore) PutTicket(t *domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets[t.ID] = &cp
}

// GetEvent retrieves an event by ID
func (s *MemoryStore) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

// GetVenue retrieves a venue by ID
func (s *MemoryStore) GetVenue(ctx context.Context, id string) (*domain.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *v
	return &cp, nil
}

// GetSection retrieves a venue section by ID
func (s *MemoryStore) GetSection(ctx context.Context, id string) (*domain.VenueSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[id]
	if !ok {
		return nil, domain.ErrSectionNotFound
	}
	cp := *sec
	return &cp, nil
}

// ListSections retrieves all sections of a venue
func (s *MemoryStore) ListSections(ctx context.Context, venueID string) ([]*domain.VenueSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sections []*domain.VenueSection
	for _, sec := range s.sections {
		if sec.VenueID == venueID {
			cp := *sec
			sections = append(sections, &cp)
		}
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Name < sections[j].Name })
	return sections, nil
}

// UpdateEventStatus transitions an event between two statuses
func (s *MemoryStore) UpdateEventStatus(ctx context.Context, eventID string, from, to domain.EventStatus, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return false, domain.ErrEventNotFound
	}
	if ev.Status != from {
		return false, nil
	}
	ev.Status = to
	ev.UpdatedAt = now
	return true, nil
}

// GetTicket retrieves a ticket by ID
func (s *MemoryStore) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

// GetTickets retrieves multiple tickets by ID
func (s *MemoryStore) GetTickets(ctx context.Context, ids []string) ([]*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tickets []*domain.Ticket
	for _, id := range ids {
		if t, ok := s.tickets[id]; ok {
			cp := *t
			tickets = append(tickets, &cp)
		}
	}
	return tickets, nil
}

// UpdateTicket persists ticket mutations
func (s *MemoryStore) UpdateTicket(ctx context.Context, t *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[t.ID]; !ok {
		return domain.ErrTicketNotFound
	}
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

// InsertGuarded writes tickets without a transaction record behind the same
// capacity check the purchase path uses
func (s *MemoryStore) InsertGuarded(ctx context.Context, tickets []*domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type sectionKey struct{ eventID, sectionID string }
	requested := make(map[sectionKey]int)
	for _, t := range tickets {
		requested[sectionKey{t.EventID, t.SectionID}]++
	}

	for key, qty := range requested {
		sec, ok := s.sections[key.sectionID]
		if !ok {
			return domain.ErrSectionNotFound
		}
		available := sec.Capacity - s.countOccupiedLocked(key.eventID, key.sectionID)
		if available < 0 {
			available = 0
		}
		if qty > available {
			return domain.NewCapacityError(key.sectionID, qty, available)
		}
	}

	for _, t := range tickets {
		cp := *t
		s.tickets[t.ID] = &cp
	}
	return nil
}

// CountOccupied counts SOLD and GIFT tickets for a section
func (s *MemoryStore) CountOccupied(ctx context.Context, eventID, sectionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countOccupiedLocked(eventID, sectionID), nil
}

func (s *MemoryStore) countOccupiedLocked(eventID, sectionID string) int {
	count := 0
	for _, t := range s.tickets {
		if t.EventID == eventID && t.SectionID == sectionID && t.Status.CountsAgainstCapacity() {
			count++
		}
	}
	return count
}

// CountSoldOrUsed counts SOLD and USED tickets across an event
func (s *MemoryStore) CountSoldOrUsed(ctx context.Context, eventID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, t := range s.tickets {
		if t.EventID == eventID && (t.Status == domain.TicketStatusSold || t.Status == domain.TicketStatusUsed) {
			count++
		}
	}
	return count, nil
}

// ExpireSoldForEndedEvents transitions SOLD tickets of ended events to EXPIRED
func (s *MemoryStore) ExpireSoldForEndedEvents(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for _, t := range s.tickets {
		if t.Status != domain.TicketStatusSold {
			continue
		}
		ev, ok := s.events[t.EventID]
		if !ok || !ev.EndsAt.Before(now) {
			continue
		}
		t.Status = domain.TicketStatusExpired
		t.UpdatedAt = now
		expired++
	}
	return expired, nil
}

// GetTransaction retrieves a transaction by ID
func (s *MemoryStore) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

// GetDetails retrieves all line items of a transaction
func (s *MemoryStore) GetDetails(ctx context.Context, transactionID string) ([]domain.TransactionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TransactionDetail(nil), s.details[transactionID]...), nil
}

// CreatePurchase writes tickets, transaction and details under one lock,
// re-checking capacity for every section in the basket first
func (s *MemoryStore) CreatePurchase(ctx context.Context, txn *domain.Transaction, details []domain.TransactionDetail, tickets []*domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type sectionKey struct{ eventID, sectionID string }
	requested := make(map[sectionKey]int)
	for _, t := range tickets {
		requested[sectionKey{t.EventID, t.SectionID}]++
	}

	for key, qty := range requested {
		sec, ok := s.sections[key.sectionID]
		if !ok {
			return domain.ErrSectionNotFound
		}
		available := sec.Capacity - s.countOccupiedLocked(key.eventID, key.sectionID)
		if available < 0 {
			available = 0
		}
		if qty > available {
			return domain.NewCapacityError(key.sectionID, qty, available)
		}
	}

	for _, t := range tickets {
		cp := *t
		s.tickets[t.ID] = &cp
	}
	txnCp := *txn
	s.transactions[txn.ID] = &txnCp
	s.details[txn.ID] = append([]domain.TransactionDetail(nil), details...)
	return nil
}

// CreateRefund writes the refund, its details, the canceled tickets and the
// original transaction's new status under one lock
func (s *MemoryStore) CreateRefund(ctx context.Context, refund *domain.Transaction, details []domain.TransactionDetail, original *domain.Transaction, canceled []*domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.transactions[original.ID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if stored.Status != domain.TransactionStatusCompleted {
		return domain.ErrAlreadyRefunded
	}

	// Same guard the SQL implementation gets from its status predicate: a
	// ticket already off SOLD/GIFT fails the whole refund
	for _, t := range canceled {
		stored, ok := s.tickets[t.ID]
		if !ok {
			return domain.ErrTicketNotFound
		}
		if !stored.Status.CanTransitionTo(domain.TicketStatusCanceled) {
			return domain.ErrAlreadyRefunded
		}
	}

	refundCp := *refund
	s.transactions[refund.ID] = &refundCp
	s.details[refund.ID] = append([]domain.TransactionDetail(nil), details...)
	for _, t := range canceled {
		cp := *t
		s.tickets[t.ID] = &cp
	}
	origCp := *original
	s.transactions[original.ID] = &origCp
	return nil
}

// TicketsAlreadyRefunded reports which tickets already appear in a refund
// transaction's details
func (s *MemoryStore) TicketsAlreadyRefunded(ctx context.Context, ticketIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refundedSet := make(map[string]bool)
	for txnID, txn := range s.transactions {
		if !txn.IsRefund {
			continue
		}
		for _, d := range s.details[txnID] {
			refundedSet[d.TicketID] = true
		}
	}

	var refunded []string
	for _, id := range ticketIDs {
		if refundedSet[id] {
			refunded = append(refunded, id)
		}
	}
	return refunded, nil
}

// GetBalance retrieves the current balance, zero for unknown users
func (s *MemoryStore) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets[userID], nil
}

// Adjust applies a signed delta and records a ledger entry under one lock
func (s *MemoryStore) Adjust(ctx context.Context, userID string, delta decimal.Decimal, reason string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.wallets[userID].Add(delta)
	if balance.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	s.wallets[userID] = balance
	s.entries = append(s.entries, domain.WalletEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	return balance, nil
}

// Entries returns a copy of the wallet ledger, for assertions
func (s *MemoryStore) Entries() []domain.WalletEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.WalletEntry(nil), s.entries...)
}

// MemoryHoldRepository is an in-memory implementation of HoldRepository
type MemoryHoldRepository struct {
	mu    sync.RWMutex
	holds map[string]*domain.Hold
}

// NewMemoryHoldRepository creates an empty MemoryHoldRepository
func NewMemoryHoldRepository() *MemoryHoldRepository {
	return &MemoryHoldRepository{holds: make(map[string]*domain.Hold)}
}

// CreateHold claims inventory for a checkout in progress
func (r *MemoryHoldRepository) CreateHold(ctx context.Context, hold *domain.Hold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.holds[hold.ID]; ok {
		return domain.ErrConflict
	}
	cp := *hold
	r.holds[hold.ID] = &cp
	return nil
}

// ReleaseHold returns a hold's inventory; a missing hold reports false
func (r *MemoryHoldRepository) ReleaseHold(ctx context.Context, holdID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.holds[holdID]; !ok {
		return false, nil
	}
	delete(r.holds, holdID)
	return true, nil
}

// ListExpired returns holds created before the cutoff, oldest first
func (r *MemoryHoldRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Hold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var expired []*domain.Hold
	for _, h := range r.holds {
		if h.CreatedAt.Before(cutoff) {
			cp := *h
			expired = append(expired, &cp)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].CreatedAt.Before(expired[j].CreatedAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// CountHeld counts currently held tickets for an event
func (r *MemoryHoldRepository) CountHeld(ctx context.Context, eventID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	held := 0
	for _, h := range r.holds {
		if h.EventID == eventID {
			held += h.Quantity
		}
	}
	return held, nil
}
