package repository

import "context"

type CreateNoteInput struct {
	OwnerID               string
	Title                 string
	OriginalTranscription string
	AIProcessedNote       string
	AudioFilePath         *string
	DurationSeconds       int
	FileSizeBytes         int64
	Language              string
}

type UpdateNoteInput struct {
	Title           *string
	AIProcessedNote *string
}

// UpdateSettingsInput carries only the fields the caller wants to change;
// nil fields keep the stored value.
type UpdateSettingsInput struct {
	OutputLanguage        *string
	TranscriptionModel    *string
	AudioQuality          *AudioQuality
	NoteOrganizationStyle *OrganizationStyle
	KeepRawAudio          *bool
	DataRetention         *DataRetention
}

// ApplySettingsUpdate merges non-nil input fields onto s. Both backings
// share it so the upsert contract cannot drift between them.
func ApplySettingsUpdate(s *Settings, input UpdateSettingsInput) {
	if input.OutputLanguage != nil {
		s.OutputLanguage = *input.OutputLanguage
	}
	if input.TranscriptionModel != nil {
		s.TranscriptionModel = *input.TranscriptionModel
	}
	if input.AudioQuality != nil {
		s.AudioQuality = *input.AudioQuality
	}
	if input.NoteOrganizationStyle != nil {
		s.NoteOrganizationStyle = *input.NoteOrganizationStyle
	}
	if input.KeepRawAudio != nil {
		s.KeepRawAudio = *input.KeepRawAudio
	}
	if input.DataRetention != nil {
		s.DataRetention = *input.DataRetention
	}
}

type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Language     string
}

// Lookup methods return (nil, nil) when no record matches.
type NoteRepository interface {
	CreateNote(ctx context.Context, input CreateNoteInput) (*Note, error)
	GetNote(ctx context.Context, id string) (*Note, error)
	ListNotesByOwner(ctx context.Context, ownerID string) ([]Note, error)
	UpdateNote(ctx context.Context, id string, input UpdateNoteInput) (*Note, error)
	DeleteNote(ctx context.Context, id string) (bool, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context, ownerID string) (*Settings, error)
	// UpsertSettings merges input over the stored record, creating it from
	// defaults on first write. Exactly one record per owner afterwards.
	UpsertSettings(ctx context.Context, ownerID, defaultLanguage string, input UpdateSettingsInput) (*Settings, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

type Repository interface {
	NoteRepository
	SettingsRepository
	UserRepository
}
