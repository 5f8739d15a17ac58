// Package capture hosts the recording state machine: one session per
// in-progress memo, accumulating encoded audio segments until it is
// stopped, either by the owner or by hitting the duration ceiling.
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/foxseedlab/koenote/internal/apperr"
)

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Artifact is the finalized binary audio object produced by one session:
// every accumulated segment concatenated in arrival order.
type Artifact struct {
	Data            []byte
	DurationSeconds int
}

type Session struct {
	ID      string
	OwnerID string

	mu         sync.Mutex
	state      State
	chunks     [][]byte
	chunkBytes int64
	// accumulated holds recording time from completed legs; the current
	// leg is measured from legStart while state is Recording.
	accumulated time.Duration
	legStart    time.Time
	maxDuration time.Duration
	finalized   *Artifact
	stoppedAt   time.Time
	nowFn       func() time.Time
}

func NewSession(id, ownerID string, maxSeconds int, nowFn func() time.Time) *Session {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Session{
		ID:          id,
		OwnerID:     ownerID,
		state:       StateIdle,
		maxDuration: time.Duration(maxSeconds) * time.Second,
		nowFn:       nowFn,
	}
}

func (s *Session) invalidTransition(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", apperr.ErrInvalidState, op, s.state)
}

func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return s.invalidTransition("start")
	}
	s.state = StateRecording
	s.legStart = s.nowFn()
	return nil
}

// AppendChunk adds one encoded segment. A session that has reached the
// duration ceiling is force-stopped and the segment is refused.
func (s *Session) AppendChunk(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return s.invalidTransition("append audio")
	}
	if s.elapsedLocked() >= s.maxDuration {
		s.finalizeLocked()
		return fmt.Errorf("%w: capture duration limit reached", apperr.ErrInvalidState)
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	s.chunks = append(s.chunks, chunk)
	s.chunkBytes += int64(len(chunk))
	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return s.invalidTransition("pause")
	}
	s.accumulated += s.nowFn().Sub(s.legStart)
	s.state = StatePaused
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return s.invalidTransition("resume")
	}
	s.legStart = s.nowFn()
	s.state = StateRecording
	return nil
}

// Stop finalizes the artifact. It is idempotent-safe: stopping a session
// that is not recording returns whatever artifact (possibly none) was last
// finalized, without error. The automatic stop at the ceiling goes through
// the same path and produces the same artifact shape.
func (s *Session) Stop() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRecording || s.state == StatePaused {
		s.finalizeLocked()
	}
	return s.finalized
}

// Reset discards all accumulated state and returns the session to Idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.chunks = nil
	s.chunkBytes = 0
	s.accumulated = 0
	s.finalized = nil
	s.stoppedAt = time.Time{}
}

// StoppedAt returns when the session was last finalized; ok is false while
// it has never been stopped.
func (s *Session) StoppedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stoppedAt, !s.stoppedAt.IsZero()
}

// Finalized returns the last finalized artifact, or nil.
func (s *Session) Finalized() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ElapsedSeconds is monotonically non-decreasing while recording and never
// exceeds the configured ceiling.
func (s *Session) ElapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.elapsedLocked() / time.Second)
}

func (s *Session) SizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkBytes
}

// AtLimit reports whether the session is still recording past the ceiling
// and therefore must be force-stopped.
func (s *Session) AtLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.state == StateRecording || s.state == StatePaused) && s.elapsedLocked() >= s.maxDuration
}

func (s *Session) elapsedLocked() time.Duration {
	elapsed := s.accumulated
	if s.state == StateRecording {
		elapsed += s.nowFn().Sub(s.legStart)
	}
	if elapsed > s.maxDuration {
		return s.maxDuration
	}
	return elapsed
}

func (s *Session) finalizeLocked() {
	if s.state == StateRecording {
		s.accumulated += s.nowFn().Sub(s.legStart)
	}
	data := make([]byte, 0, s.chunkBytes)
	for _, chunk := range s.chunks {
		data = append(data, chunk...)
	}
	elapsed := s.accumulated
	if elapsed > s.maxDuration {
		elapsed = s.maxDuration
	}
	s.finalized = &Artifact{
		Data:            data,
		DurationSeconds: int(elapsed / time.Second),
	}
	s.chunks = nil
	s.state = StateStopped
	s.stoppedAt = s.nowFn()
}
