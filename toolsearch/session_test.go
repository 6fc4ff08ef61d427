package toolsearch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSessionStore_CreateGetRemove(t *testing.T) {
	store := NewSessionStore()

	st := store.create("sess-1", true)
	if st == nil {
		t.Fatal("expected a non-nil session state")
	}

	got, ok := store.get("sess-1")
	if !ok || got != st {
		t.Fatalf("expected get to return the created state")
	}

	store.remove("sess-1")
	if _, ok := store.get("sess-1"); ok {
		t.Fatalf("expected session to be gone after remove")
	}
}

func TestSessionGate_SerializesSameSession(t *testing.T) {
	gate := NewSessionGate()

	var mu sync.Mutex
	inside := 0
	maxConcurrent := 0

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := gate.Lock("shared-session")
			defer release()

			mu.Lock()
			inside++
			if inside > maxConcurrent {
				maxConcurrent = inside
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxConcurrent != 1 {
		t.Fatalf("expected at most 1 concurrent holder for the same session, saw %d", maxConcurrent)
	}
}

func TestSessionGate_AllowsConcurrencyAcrossSessions(t *testing.T) {
	gate := NewSessionGate()

	var concurrent int32
	var maxConcurrent int32
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		sessionID := string(rune('a' + i))
		go func(id string) {
			defer wg.Done()
			release := gate.Lock(id)
			defer release()

			n := atomic.AddInt32(&concurrent, 1)
			for {
				m := atomic.LoadInt32(&maxConcurrent)
				if n <= m || atomic.CompareAndSwapInt32(&maxConcurrent, m, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&concurrent, -1)
		}(sessionID)
	}
	wg.Wait()

	if maxConcurrent < 2 {
		t.Fatalf("expected distinct sessions to run concurrently, max observed concurrency was %d", maxConcurrent)
	}
}

func TestSessionGate_EntryCleanedUpAfterRelease(t *testing.T) {
	gate := NewSessionGate()

	release := gate.Lock("sess-1")
	release()

	gate.mu.Lock()
	_, stillTracked := gate.locks["sess-1"]
	gate.mu.Unlock()

	if stillTracked {
		t.Fatalf("expected gate entry to be garbage-collected once unreferenced")
	}
}
