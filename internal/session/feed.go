package session

import (
	"sync"

	"github.com/talgya/undercurrent/internal/engine"
	"github.com/talgya/undercurrent/internal/persistence"
	"github.com/talgya/undercurrent/internal/pulse"
)

// Update is pushed to subscribers whenever a session's state is saved.
type Update struct {
	SessionID string                    `json:"sessionId"`
	Turn      int                       `json:"turn"`
	Day       string                    `json:"day"`
	Phase     engine.Phase              `json:"phase"`
	Family    pulse.FamilyImpact        `json:"family"`
	Events    []persistence.EventRecord `json:"events,omitempty"`
	Decision  *engine.Decision          `json:"decision,omitempty"`
	Ending    *engine.Ending            `json:"ending,omitempty"`
}

const subscriberBuffer = 32

// Feed fans session updates out to per-session subscribers. Slow
// subscribers lose updates rather than block the publisher.
type Feed struct {
	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]chan Update
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[uint64]chan Update)}
}

// Subscribe registers interest in one session's updates.
func (f *Feed) Subscribe(sessionID string) (uint64, <-chan Update) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	ch := make(chan Update, subscriberBuffer)
	if f.subs[sessionID] == nil {
		f.subs[sessionID] = make(map[uint64]chan Update)
	}
	f.subs[sessionID][f.next] = ch
	return f.next, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (f *Feed) Unsubscribe(sessionID string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := f.subs[sessionID]
	if ch, ok := subs[id]; ok {
		delete(subs, id)
		close(ch)
	}
	if len(subs) == 0 {
		delete(f.subs, sessionID)
	}
}

// Publish delivers u to every subscriber of its session.
func (f *Feed) Publish(u Update) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs[u.SessionID] {
		select {
		case ch <- u:
		default:
		}
	}
}

// Subscribers counts live subscribers for a session.
func (f *Feed) Subscribers(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[sessionID])
}
