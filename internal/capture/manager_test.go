package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/koenote/internal/apperr"
	"github.com/foxseedlab/koenote/internal/config"
)

func TestManager_StartAndGet(t *testing.T) {
	m := NewManager(config.MaxCaptureSeconds)

	s, err := m.Start("owner-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State() != StateRecording {
		t.Fatalf("expected recording, got %s", s.State())
	}

	got, err := m.Get(s.ID, "owner-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != s {
		t.Fatal("expected the same session instance")
	}
}

func TestManager_OwnerScoped(t *testing.T) {
	m := NewManager(config.MaxCaptureSeconds)
	s, err := m.Start("owner-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := m.Get(s.ID, "someone-else"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found for foreign owner, got %v", err)
	}
	if _, err := m.Get("unknown", "owner-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found for unknown id, got %v", err)
	}
}

func TestManager_Release(t *testing.T) {
	m := NewManager(config.MaxCaptureSeconds)
	s, err := m.Start("owner-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	m.Release(s.ID)
	if _, err := m.Get(s.ID, "owner-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found after release, got %v", err)
	}
}

func TestManager_StopExpired(t *testing.T) {
	m := NewManager(config.MaxCaptureSeconds)
	clock := &fakeClock{t: time.Unix(0, 0)}
	m.nowFn = clock.now

	s, err := m.Start("owner-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.AppendChunk([]byte("data")); err != nil {
		t.Fatalf("append: %v", err)
	}

	m.stopExpired()
	if s.State() != StateRecording {
		t.Fatal("janitor must not stop a session under the ceiling")
	}

	clock.advance((config.MaxCaptureSeconds + 1) * time.Second)
	m.stopExpired()
	if s.State() != StateStopped {
		t.Fatalf("expected janitor to stop the expired session, got %s", s.State())
	}
	a := s.Finalized()
	if a == nil || a.DurationSeconds != config.MaxCaptureSeconds {
		t.Fatalf("expected artifact capped at %d seconds, got %+v", config.MaxCaptureSeconds, a)
	}
}

func TestManager_ReleasesAbandonedSessions(t *testing.T) {
	m := NewManager(config.MaxCaptureSeconds)
	clock := &fakeClock{t: time.Unix(0, 0)}
	m.nowFn = clock.now

	abandoned, err := m.Start("owner-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	active, err := m.Start("owner-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := abandoned.AppendChunk([]byte("data")); err != nil {
		t.Fatalf("append: %v", err)
	}
	abandoned.Stop()

	m.sweep()
	if _, err := m.Get(abandoned.ID, "owner-1"); err != nil {
		t.Fatalf("stopped session must survive inside the grace window: %v", err)
	}

	clock.advance(stoppedRetention + time.Second)
	m.sweep()
	if _, err := m.Get(abandoned.ID, "owner-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected the uncollected session to be dropped, got %v", err)
	}
	if _, err := m.Get(active.ID, "owner-1"); err != nil {
		t.Fatalf("recording session must survive the sweep: %v", err)
	}
}
