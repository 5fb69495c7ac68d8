package notify

import (
	"context"
	"sync"
)

// Recorder is a Dispatcher for tests. It records every dispatched message.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Dispatch records the message
func (r *Recorder) Dispatch(ctx context.Context, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Close does nothing
func (r *Recorder) Close() {}

// Messages returns a copy of the recorded messages
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// OfType returns recorded messages matching the given event type name
func (r *Recorder) OfType(eventType string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []Message
	for _, m := range r.messages {
		switch e := m.(type) {
		case *PurchaseCompletedEvent:
			if e.EventType == eventType {
				matched = append(matched, m)
			}
		case *RefundCompletedEvent:
			if e.EventType == eventType {
				matched = append(matched, m)
			}
		case *TicketTransferredEvent:
			if e.EventType == eventType {
				matched = append(matched, m)
			}
		case *EventSoldOutEvent:
			if e.EventType == eventType {
				matched = append(matched, m)
			}
		}
	}
	return matched
}
