package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is the in-memory backing. It implements the same
// contracts as the postgres backing and is used in tests and when no
// DATABASE_URL is configured. Last write wins on concurrent updates to the
// same record; no stronger guarantee is intended.
type MemoryRepository struct {
	mu       sync.RWMutex
	notes    map[string]Note
	settings map[string]Settings
	users    map[string]User
	nowFn    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		notes:    make(map[string]Note),
		settings: make(map[string]Settings),
		users:    make(map[string]User),
		nowFn:    time.Now,
	}
}

func (r *MemoryRepository) CreateNote(_ context.Context, input CreateNoteInput) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := Note{
		ID:                    uuid.NewString(),
		OwnerID:               input.OwnerID,
		Title:                 input.Title,
		OriginalTranscription: input.OriginalTranscription,
		AIProcessedNote:       input.AIProcessedNote,
		AudioFilePath:         input.AudioFilePath,
		DurationSeconds:       input.DurationSeconds,
		FileSizeBytes:         input.FileSizeBytes,
		Language:              input.Language,
		CreatedAt:             r.nowFn(),
	}
	r.notes[n.ID] = n
	return &n, nil
}

func (r *MemoryRepository) GetNote(_ context.Context, id string) (*Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r *MemoryRepository) ListNotesByOwner(_ context.Context, ownerID string) ([]Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []Note
	for _, n := range r.notes {
		if n.OwnerID == ownerID {
			list = append(list, n)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *MemoryRepository) UpdateNote(_ context.Context, id string, input UpdateNoteInput) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	if input.Title != nil {
		n.Title = *input.Title
	}
	if input.AIProcessedNote != nil {
		n.AIProcessedNote = *input.AIProcessedNote
	}
	r.notes[id] = n
	return &n, nil
}

func (r *MemoryRepository) DeleteNote(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.notes[id]
	delete(r.notes, id)
	return ok, nil
}

func (r *MemoryRepository) GetSettings(_ context.Context, ownerID string) (*Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[ownerID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) UpsertSettings(_ context.Context, ownerID, defaultLanguage string, input UpdateSettingsInput) (*Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[ownerID]
	if !ok {
		s = *DefaultSettings(ownerID, defaultLanguage)
	}
	ApplySettingsUpdate(&s, input)
	s.UpdatedAt = r.nowFn()
	r.settings[ownerID] = s
	return &s, nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, input CreateUserInput) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Language:     input.Language,
		CreatedAt:    r.nowFn(),
	}
	r.users[u.ID] = u
	return &u, nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryRepository) GetUserByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			v := u
			return &v, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			v := u
			return &v, nil
		}
	}
	return nil, nil
}
