package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/koenote/internal/apperr"
	"github.com/google/uuid"
)

const janitorInterval = time.Second

// stoppedRetention is how long a finalized artifact waits for the client to
// process or reset it before the session is dropped.
const stoppedRetention = 10 * time.Minute

// Manager owns every live capture session. Sessions are addressed by id
// and scoped to their owner; a lookup with the wrong owner behaves like a
// missing session.
type Manager struct {
	maxSeconds int
	nowFn      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(maxSeconds int) *Manager {
	return &Manager{
		maxSeconds: maxSeconds,
		nowFn:      time.Now,
		sessions:   make(map[string]*Session),
	}
}

func (m *Manager) Start(ownerID string) (*Session, error) {
	s := NewSession(uuid.NewString(), ownerID, m.maxSeconds, m.nowFn)
	if err := s.Start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("capture session started", "session_id", s.ID, "owner_id", ownerID)
	return s, nil
}

func (m *Manager) Get(id, ownerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: capture session %s", apperr.ErrNotFound, id)
	}
	return s, nil
}

// Release removes the session from the manager, either after a reset or a
// successful hand-off to the processing pipeline.
func (m *Manager) Release(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	slog.Info("capture session released", "session_id", id)
}

// RunJanitor force-stops sessions that hit the duration ceiling and drops
// abandoned ones, at the same 1 Hz cadence the client ticks its elapsed
// counter. It returns when ctx is canceled.
func (m *Manager) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	slog.Info("capture janitor started", "max_seconds", m.maxSeconds)
	for {
		select {
		case <-ctx.Done():
			slog.Info("capture janitor stopped")
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.stopExpired()
	m.releaseAbandoned()
}

func (m *Manager) stopExpired() {
	m.mu.Lock()
	expired := make([]*Session, 0)
	for _, s := range m.sessions {
		if s.AtLimit() {
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		artifact := s.Stop()
		slog.Info("capture session auto-stopped at duration limit",
			"session_id", s.ID, "owner_id", s.OwnerID, "duration_seconds", artifact.DurationSeconds)
	}
}

// releaseAbandoned removes stopped sessions whose artifact was never
// collected. Without this, a client that stops recording and walks away
// would pin the audio bytes in memory for the life of the process.
func (m *Manager) releaseAbandoned() {
	now := m.nowFn()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		stoppedAt, stopped := s.StoppedAt()
		if !stopped || now.Sub(stoppedAt) < stoppedRetention {
			continue
		}
		delete(m.sessions, id)
		slog.Info("abandoned capture session released", "session_id", id, "owner_id", s.OwnerID)
	}
}
