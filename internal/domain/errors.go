package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound is returned when an event does not exist
	ErrEventNotFound = errors.New("event not found")
	// ErrSectionNotFound is returned when a venue section does not exist
	ErrSectionNotFound = errors.New("venue section not found")
	// ErrTicketNotFound is returned when a ticket does not exist
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrTransactionNotFound is returned when a transaction does not exist
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrWalletNotFound is returned when a wallet does not exist
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrHoldNotFound is returned when a reservation hold does not exist
	ErrHoldNotFound = errors.New("reservation hold not found")

	// ErrValidation is returned for malformed or inconsistent requests
	ErrValidation = errors.New("validation failed")
	// ErrCapacityExceeded is returned when a purchase would oversell a section
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInvalidTransition is returned for illegal status changes
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict is returned for duplicate or concurrent-modification conflicts
	ErrConflict = errors.New("conflict")
	// ErrNotRefundable is returned when the source transaction cannot be refunded
	ErrNotRefundable = errors.New("transaction not refundable")
	// ErrAlreadyRefunded is returned when a refund was already processed
	ErrAlreadyRefunded = errors.New("already refunded")
	// ErrInsufficientFunds is returned when a wallet debit would go negative
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
	// ErrExternalService is returned when an external collaborator fails
	ErrExternalService = errors.New("external service error")
	// ErrConfiguration is returned when a required lookup or setting is missing
	ErrConfiguration = errors.New("configuration error")
	// ErrEventNotOnSale is returned when purchasing against an event that is not on sale
	ErrEventNotOnSale = errors.New("event is not on sale")
)

// CapacityError identifies the section that could not satisfy a request.
// It unwraps to ErrCapacityExceeded.
type CapacityError struct {
	SectionID string
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded for section %s: requested %d, available %d",
		e.SectionID, e.Requested, e.Available)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// NewCapacityError builds a CapacityError for the given section
func NewCapacityError(sectionID string, requested, available int) *CapacityError {
	return &CapacityError{SectionID: sectionID, Requested: requested, Available: available}
}

// TransitionError reports an illegal status change for an entity.
// It unwraps to ErrInvalidTransition.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition for %s: %s -> %s", e.Entity, e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
