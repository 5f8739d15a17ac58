// Package note orchestrates the processing pipeline: transcribe a
// finalized artifact, restructure the transcript, persist the note and
// settle the artifact's fate according to the owner's retention setting.
package note

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/koenote/internal/apperr"
	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/foxseedlab/koenote/internal/restructurer"
	"github.com/foxseedlab/koenote/internal/transcriber"
)

const maxTitleRunes = 60

type Service struct {
	repo            repository.Repository
	store           artifact.Store
	stt             transcriber.Transcriber
	llm             restructurer.Restructurer
	defaultLanguage string
	nowFn           func() time.Time
}

func NewService(repo repository.Repository, store artifact.Store, stt transcriber.Transcriber, llm restructurer.Restructurer, defaultLanguage string) *Service {
	return &Service{
		repo:            repo,
		store:           store,
		stt:             stt,
		llm:             llm,
		defaultLanguage: defaultLanguage,
		nowFn:           time.Now,
	}
}

// ProcessInput describes an artifact that already lives in the store under
// Filename. Ownership of the file passes to the pipeline here: it either
// ends up referenced by the created note or deleted.
type ProcessInput struct {
	OwnerID         string
	Filename        string
	DurationSeconds int
}

func (s *Service) ProcessArtifact(ctx context.Context, input ProcessInput) (*repository.Note, error) {
	note, err := s.processArtifact(ctx, input)
	if err != nil {
		// The note was not created, so nothing references the file.
		s.cleanupArtifact(input.Filename)
		return nil, err
	}
	return note, nil
}

func (s *Service) processArtifact(ctx context.Context, input ProcessInput) (*repository.Note, error) {
	settings, err := s.resolveSettings(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	language, err := s.resolveLanguage(ctx, input.OwnerID, settings)
	if err != nil {
		return nil, err
	}

	sizeBytes, err := s.store.Size(input.Filename)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	audio, err := s.store.Open(input.Filename)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	transcript, sttErr := s.stt.Transcribe(ctx, transcriber.Input{
		Audio:    audio,
		Language: language,
		Model:    settings.TranscriptionModel,
	})
	if closeErr := audio.Close(); closeErr != nil {
		slog.Warn("failed to close artifact reader", "error", closeErr, "filename", input.Filename)
	}
	if sttErr != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTranscriptionFailed, sttErr)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("%w: empty transcript", apperr.ErrTranscriptionFailed)
	}

	title, body := s.restructureWithFallback(ctx, transcript, language, settings.NoteOrganizationStyle)

	var audioPath *string
	if settings.KeepRawAudio {
		filename := input.Filename
		audioPath = &filename
	}

	created, err := s.repo.CreateNote(ctx, repository.CreateNoteInput{
		OwnerID:               input.OwnerID,
		Title:                 truncateTitle(title),
		OriginalTranscription: transcript,
		AIProcessedNote:       body,
		AudioFilePath:         audioPath,
		DurationSeconds:       input.DurationSeconds,
		FileSizeBytes:         sizeBytes,
		Language:              language,
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	if !settings.KeepRawAudio {
		// Only after the gateway consumed the file and the note exists.
		s.cleanupArtifact(input.Filename)
	}

	slog.Info("note created",
		"note_id", created.ID, "owner_id", created.OwnerID,
		"audio_retained", settings.KeepRawAudio, "transcript_chars", len(transcript))
	return created, nil
}

// restructureWithFallback never fails: any upstream problem degrades to a
// date-based title over the verbatim transcript.
func (s *Service) restructureWithFallback(ctx context.Context, transcript, language string, style repository.OrganizationStyle) (title, body string) {
	result, err := s.llm.Restructure(ctx, restructurer.Input{
		Transcript: transcript,
		Language:   language,
		Style:      style,
	})
	if err != nil {
		slog.Warn("restructuring failed; falling back to verbatim transcript", "error", err)
		return s.fallbackTitle(), transcript
	}
	return result.Title, result.Note
}

func (s *Service) fallbackTitle() string {
	return "Voice Note " + s.nowFn().Format("Jan 2, 2006")
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes])
}

func (s *Service) resolveSettings(ctx context.Context, ownerID string) (*repository.Settings, error) {
	settings, err := s.repo.GetSettings(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if settings == nil {
		settings = repository.DefaultSettings(ownerID, s.defaultLanguage)
	}
	return settings, nil
}

// resolveLanguage picks the settings override first, then the account
// language, then the server default.
func (s *Service) resolveLanguage(ctx context.Context, ownerID string, settings *repository.Settings) (string, error) {
	if settings.OutputLanguage != "" {
		return settings.OutputLanguage, nil
	}
	user, err := s.repo.GetUserByID(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user != nil && user.Language != "" {
		return user.Language, nil
	}
	return s.defaultLanguage, nil
}

func (s *Service) cleanupArtifact(filename string) {
	if filename == "" {
		return
	}
	if err := s.store.Delete(filename); err != nil {
		slog.Warn("best-effort artifact cleanup failed", "error", err, "filename", filename)
	}
}

func (s *Service) Get(ctx context.Context, id string) (*repository.Note, error) {
	n, err := s.repo.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: note %s", apperr.ErrNotFound, id)
	}
	return n, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]repository.Note, error) {
	return s.repo.ListNotesByOwner(ctx, ownerID)
}

// Delete removes the note and, best-effort, its referenced artifact. A
// second delete of the same id reports not-found rather than erroring.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: note %s", apperr.ErrNotFound, id)
	}
	existed, err := s.repo.DeleteNote(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: note %s", apperr.ErrNotFound, id)
	}
	if n.AudioFilePath != nil {
		s.cleanupArtifact(*n.AudioFilePath)
	}
	slog.Info("note deleted", "note_id", id, "had_audio", n.AudioFilePath != nil)
	return nil
}
