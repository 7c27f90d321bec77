package session

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestStoreCreateGet(t *testing.T) {
	st := NewStore(time.Hour, clockwork.NewFakeClock())
	s := st.Create()
	if s.ID == "" {
		t.Fatal("empty session id")
	}
	got, ok := st.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("Get(%q) = %v, %v", s.ID, got, ok)
	}
	if _, ok := st.Get("missing"); ok {
		t.Error("Get of unknown id succeeded")
	}
	if st.Create().ID == s.ID {
		t.Error("session ids collide")
	}
}

func TestStoreDeleteExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := NewStore(time.Hour, clock)

	stale := st.Create()
	busy := st.Create()
	_, _ = busy.Select(testImage)
	_, _ = busy.apply(State.Begin)

	clock.Advance(30 * time.Minute)
	fresh := st.Create()
	clock.Advance(31 * time.Minute)

	if n := st.DeleteExpired(); n != 1 {
		t.Fatalf("DeleteExpired removed %d sessions, want 1", n)
	}
	if _, ok := st.Get(stale.ID); ok {
		t.Error("stale session kept")
	}
	if _, ok := st.Get(busy.ID); !ok {
		t.Error("session with pending analysis removed")
	}
	if _, ok := st.Get(fresh.ID); !ok {
		t.Error("fresh session removed")
	}
}

func TestStoreGetRefreshes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := NewStore(time.Hour, clock)
	s := st.Create()

	clock.Advance(50 * time.Minute)
	st.Get(s.ID)
	clock.Advance(50 * time.Minute)

	if n := st.DeleteExpired(); n != 0 {
		t.Errorf("recently used session expired")
	}
}

func TestStoreRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := NewStore(time.Minute, clock)
	st.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.Run(ctx, 10*time.Second) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatal(err)
	}

	clock.Advance(2 * time.Minute)
	deadline := time.Now().Add(5 * time.Second)
	for st.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if st.Len() != 0 {
		t.Error("janitor did not remove expired session")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}
