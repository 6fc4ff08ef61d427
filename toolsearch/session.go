package toolsearch

import "sync"

// sessionState is the per-session bookkeeping the interceptor keeps for
// the duration of one loop: the callbacks originally offered on the
// request, and the names the model has promoted so far.
type sessionState struct {
	callbacks     map[string]ToolCallback
	discovered    *discoveredSet
	turn          int
	processedUpTo int             // index into the message slice before() has already scanned
	searchCallIDs map[string]bool // tool-call IDs issued this turn that are toolSearchTool invocations
}

// SessionStore is a concurrency-safe registry mapping sessionId to its
// loop-scoped state. Entries are created at initializeLoop and removed at
// finalizeLoop; nothing about it survives past one loop.
type SessionStore struct {
	sessions sync.Map // string -> *sessionState
}

// NewSessionStore creates an empty registry.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) create(sessionID string, accumulate bool) *sessionState {
	st := &sessionState{
		callbacks:     make(map[string]ToolCallback),
		discovered:    newDiscoveredSet(accumulate),
		searchCallIDs: make(map[string]bool),
	}
	s.sessions.Store(sessionID, st)
	return st
}

func (s *SessionStore) get(sessionID string) (*sessionState, bool) {
	v, ok := s.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*sessionState), true
}

func (s *SessionStore) remove(sessionID string) {
	s.sessions.Delete(sessionID)
}

// SessionGate enforces "serial per session, concurrent across sessions":
// before/after for one sessionId never overlap, but unrelated sessions
// proceed without contending on a shared lock. A tool-search loop has no
// edges to order, only one session's own turns to serialize against each
// other.
type SessionGate struct {
	mu    sync.Mutex
	locks map[string]*gateEntry
}

type gateEntry struct {
	mu   sync.Mutex
	refs int
}

// NewSessionGate creates an empty gate.
func NewSessionGate() *SessionGate {
	return &SessionGate{locks: make(map[string]*gateEntry)}
}

// Lock blocks until sessionID's turn to run, then returns a function that
// releases it. The entry is garbage-collected once no goroutine holds or
// awaits it.
func (g *SessionGate) Lock(sessionID string) func() {
	g.mu.Lock()
	entry, ok := g.locks[sessionID]
	if !ok {
		entry = &gateEntry{}
		g.locks[sessionID] = entry
	}
	entry.refs++
	g.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		g.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(g.locks, sessionID)
		}
		g.mu.Unlock()
	}
}
