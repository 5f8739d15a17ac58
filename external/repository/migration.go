package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'en',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		original_transcription TEXT NOT NULL,
		ai_processed_note TEXT NOT NULL,
		audio_file_path TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		file_size_bytes BIGINT NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT 'en',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_owner_created ON notes (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS settings (
		owner_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		output_language TEXT NOT NULL,
		transcription_model TEXT NOT NULL,
		audio_quality TEXT NOT NULL,
		note_organization_style TEXT NOT NULL,
		keep_raw_audio BOOLEAN NOT NULL,
		data_retention TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
