package engine

import (
	"sync"
	"time"
)

// NotificationKind names an outward engine event.
type NotificationKind string

const (
	NotifySessionStarted    NotificationKind = "session_started"
	NotifySessionEnded      NotificationKind = "session_ended"
	NotifySessionResumed    NotificationKind = "session_resumed"
	NotifySessionRecovered  NotificationKind = "session_recovered"
	NotifyBugCaptureStarted NotificationKind = "bug_capture_started"
	NotifyBugCaptureEnded   NotificationKind = "bug_capture_ended"
	NotifyCaptureAssociated NotificationKind = "capture_associated"
	NotifyCaptureUnsorted   NotificationKind = "capture_unsorted"
)

// Notification is an outward event for UI consumption. Notifications
// carry no state the consumer is allowed to write back; the command
// API is the only mutation path.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	SessionID string           `json:"session_id,omitempty"`
	BugID     string           `json:"bug_id,omitempty"`
	DisplayID string           `json:"display_id,omitempty"`
	CaptureID string           `json:"capture_id,omitempty"`
	Path      string           `json:"path,omitempty"`
	At        int64            `json:"at"`
}

// Bus fans notifications out to subscribers. Publishing never blocks:
// a subscriber that falls behind misses events rather than stalling a
// state transition. Subscribers needing a complete view read the store.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Notification
	next int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Notification)}
}

// Subscribe registers a subscriber. The returned cancel function
// removes the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Notification, 32)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers n to all subscribers, dropping it for any whose
// buffer is full.
func (b *Bus) Publish(n Notification) {
	if n.At == 0 {
		n.At = time.Now().Unix()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}
