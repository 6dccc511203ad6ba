package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewer/config"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	deps, _, _, _ := newStubDeps()
	s, err := NewSession(KindTechnical, "backend developer", 2, "", deps)
	require.NoError(t, err)
	return s
}

func TestStorePutGetDelete(t *testing.T) {
	store := NewStore(time.Hour)

	_, err := store.Get("user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := newTestSession(t)
	store.Put("user-1", "sess-1", s)

	entry, err := store.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.Same(t, s, entry.Handle)

	// a stale session id does not remove the newer interview
	store.Put("user-1", "sess-2", newTestSession(t))
	store.Delete("user-1", "sess-1")
	assert.Equal(t, 1, store.Len())

	store.Delete("user-1", "sess-2")
	_, err = store.Get("user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreLockSerialisesTurns(t *testing.T) {
	store := NewStore(time.Hour)
	store.Put("user-1", "sess-1", newTestSession(t))

	_, _, err := store.Lock("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, unlock, err := store.Lock("user-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestStoreEvictIdle(t *testing.T) {
	store := NewStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Put("idle", "a", newTestSession(t))
	store.Put("busy", "b", newTestSession(t))

	now = now.Add(45 * time.Second)
	_, err := store.Get("busy")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, store.EvictIdle())

	_, err = store.Get("idle")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get("busy")
	assert.NoError(t, err)

	assert.Zero(t, NewStore(0).EvictIdle())
}

func TestStoreRunStopsWithContext(t *testing.T) {
	store := NewStore(time.Nanosecond)
	store.Put("user-1", "sess-1", newTestSession(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestHandleDispatch(t *testing.T) {
	s := newTestSession(t)
	assert.Same(t, s, ActiveSession(s))
	assert.Equal(t, []*Session{s}, PhaseSessions(s))

	deps, _, _, _ := newStubDeps()
	c, err := NewComposite("backend developer", 1, "", config.DefaultPolicy(), deps)
	require.NoError(t, err)

	var h Handle = c
	assert.Same(t, c.Session(KindTechnical), ActiveSession(h))
	assert.Len(t, PhaseSessions(h), 3)
}
