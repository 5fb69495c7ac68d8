package domain

import "time"

// Hold is a ticket-in-progress: inventory claimed during checkout but not
// yet finalized as sold. Holds are released by the sweeper once they pass
// the expiry threshold. Distinct from SOLD->EXPIRED, which concerns tickets
// for events that have already ended.
type Hold struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	SectionID string    `json:"section_id"`
	UserID    string    `json:"user_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpiredBy reports whether the hold is older than the threshold at the
// given instant.
func (h *Hold) ExpiredBy(now time.Time, threshold time.Duration) bool {
	return now.Sub(h.CreatedAt) > threshold
}
