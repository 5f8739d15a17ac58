package repository

import "time"

type OrganizationStyle string

const (
	StyleMinimal   OrganizationStyle = "minimal"
	StyleNarrative OrganizationStyle = "narrative"
)

type AudioQuality string

const (
	QualityStandard AudioQuality = "standard"
	QualityHigh     AudioQuality = "high"
)

type DataRetention string

const (
	RetentionForever    DataRetention = "forever"
	RetentionOneYear    DataRetention = "one-year"
	RetentionNinetyDays DataRetention = "ninety-days"
)

type Note struct {
	ID                    string    `json:"id"`
	OwnerID               string    `json:"ownerId"`
	Title                 string    `json:"title"`
	OriginalTranscription string    `json:"originalTranscription"`
	AIProcessedNote       string    `json:"aiProcessedNote"`
	AudioFilePath         *string   `json:"audioFilePath,omitempty"`
	DurationSeconds       int       `json:"durationSeconds"`
	FileSizeBytes         int64     `json:"fileSizeBytes"`
	Language              string    `json:"language"`
	CreatedAt             time.Time `json:"createdAt"`
}

type Settings struct {
	OwnerID               string            `json:"ownerId"`
	OutputLanguage        string            `json:"outputLanguage"`
	TranscriptionModel    string            `json:"transcriptionModel"`
	AudioQuality          AudioQuality      `json:"audioQuality"`
	NoteOrganizationStyle OrganizationStyle `json:"noteOrganizationStyle"`
	KeepRawAudio          bool              `json:"keepRawAudio"`
	DataRetention         DataRetention     `json:"dataRetention"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DefaultSettings is what every owner starts with before their first
// settings write.
func DefaultSettings(ownerID, language string) *Settings {
	return &Settings{
		OwnerID:               ownerID,
		OutputLanguage:        language,
		TranscriptionModel:    "chirp_3",
		AudioQuality:          QualityStandard,
		NoteOrganizationStyle: StyleMinimal,
		KeepRawAudio:          true,
		DataRetention:         RetentionForever,
	}
}
