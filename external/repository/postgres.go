package repository

import (
	"context"
	"time"

	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

const noteColumns = `id, owner_id, title, original_transcription, ai_processed_note,
	audio_file_path, duration_seconds, file_size_bytes, language, created_at`

func scanNote(row pgx.Row) (*repository.Note, error) {
	var n repository.Note
	err := row.Scan(&n.ID, &n.OwnerID, &n.Title, &n.OriginalTranscription, &n.AIProcessedNote,
		&n.AudioFilePath, &n.DurationSeconds, &n.FileSizeBytes, &n.Language, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PostgresRepository) CreateNote(ctx context.Context, input repository.CreateNoteInput) (*repository.Note, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO notes (id, owner_id, title, original_transcription, ai_processed_note,
			audio_file_path, duration_seconds, file_size_bytes, language)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+noteColumns,
		uuid.NewString(), input.OwnerID, input.Title, input.OriginalTranscription, input.AIProcessedNote,
		input.AudioFilePath, input.DurationSeconds, input.FileSizeBytes, input.Language)
	return scanNote(row)
}

func (r *PostgresRepository) GetNote(ctx context.Context, id string) (*repository.Note, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (r *PostgresRepository) ListNotesByOwner(ctx context.Context, ownerID string) ([]repository.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) UpdateNote(ctx context.Context, id string, input repository.UpdateNoteInput) (*repository.Note, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE notes SET
			title = COALESCE($2, title),
			ai_processed_note = COALESCE($3, ai_processed_note)
		 WHERE id = $1
		 RETURNING `+noteColumns,
		id, input.Title, input.AIProcessedNote)
	n, err := scanNote(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (r *PostgresRepository) DeleteNote(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const settingsColumns = `owner_id, output_language, transcription_model, audio_quality,
	note_organization_style, keep_raw_audio, data_retention, updated_at`

func scanSettings(row pgx.Row) (*repository.Settings, error) {
	var s repository.Settings
	err := row.Scan(&s.OwnerID, &s.OutputLanguage, &s.TranscriptionModel, &s.AudioQuality,
		&s.NoteOrganizationStyle, &s.KeepRawAudio, &s.DataRetention, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) GetSettings(ctx context.Context, ownerID string) (*repository.Settings, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM settings WHERE owner_id = $1`, ownerID)
	s, err := scanSettings(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// UpsertSettings reads the stored record (or the defaults) and writes back
// the merged row. Concurrent writers race last-write-wins, which the
// product model accepts.
func (r *PostgresRepository) UpsertSettings(ctx context.Context, ownerID, defaultLanguage string, input repository.UpdateSettingsInput) (*repository.Settings, error) {
	current, err := r.GetSettings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = repository.DefaultSettings(ownerID, defaultLanguage)
	}
	repository.ApplySettingsUpdate(current, input)
	current.UpdatedAt = time.Now()

	row := r.pool.QueryRow(ctx,
		`INSERT INTO settings (owner_id, output_language, transcription_model, audio_quality,
			note_organization_style, keep_raw_audio, data_retention, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (owner_id) DO UPDATE SET
			output_language = EXCLUDED.output_language,
			transcription_model = EXCLUDED.transcription_model,
			audio_quality = EXCLUDED.audio_quality,
			note_organization_style = EXCLUDED.note_organization_style,
			keep_raw_audio = EXCLUDED.keep_raw_audio,
			data_retention = EXCLUDED.data_retention,
			updated_at = EXCLUDED.updated_at
		 RETURNING `+settingsColumns,
		current.OwnerID, current.OutputLanguage, current.TranscriptionModel, current.AudioQuality,
		current.NoteOrganizationStyle, current.KeepRawAudio, current.DataRetention, current.UpdatedAt)
	return scanSettings(row)
}

const userColumns = `id, username, email, password_hash, language, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Language, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, language)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		uuid.NewString(), input.Username, input.Email, input.PasswordHash, input.Language)
	return scanUser(row)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*repository.User, error) {
	return r.userBy(ctx, `id`, id)
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*repository.User, error) {
	return r.userBy(ctx, `username`, username)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.userBy(ctx, `email`, email)
}

func (r *PostgresRepository) userBy(ctx context.Context, column, value string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	u, err := scanUser(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}
