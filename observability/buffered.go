package observability

import "sync"

// BufferedEmitter stores events in memory, keyed by sessionId, for tests
// and short-lived debugging sessions. Not meant for long-running
// production use: it never evicts on its own.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.SessionID] = append(b.events[event.SessionID], event)
}

// History returns a copy of all events recorded for sessionId, in emission
// order.
func (b *BufferedEmitter) History(sessionID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[sessionID]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// Clear drops events for sessionID, or every session if sessionID is empty.
func (b *BufferedEmitter) Clear(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sessionID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, sessionID)
}
