package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Advisory lock keeps the gateway and the recorder from migrating at once.
	const lockID = 734120551

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS suggestions (
			id UUID PRIMARY KEY,
			text TEXT NOT NULL,
			image_digests TEXT[] NOT NULL DEFAULT '{}',
			mode TEXT NOT NULL,
			model TEXT NOT NULL,
			suggestion TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id BIGSERIAL PRIMARY KEY,
			suggestion_id UUID NOT NULL REFERENCES suggestions(id) ON DELETE CASCADE,
			rating TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS feedback_suggestion_idx ON feedback(suggestion_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSuggestion is idempotent on ID so redelivered record tasks are harmless.
func (s *PostgresStore) SaveSuggestion(ctx context.Context, sg Suggestion) error {
	created := sg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suggestions(id, text, image_digests, mode, model, suggestion, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING`,
		sg.ID, sg.Text, pq.Array(nonNil(sg.ImageDigests)), sg.Mode, sg.Model, sg.Suggestion, created)
	return err
}

func (s *PostgresStore) GetSuggestion(ctx context.Context, id uuid.UUID) (Suggestion, error) {
	var sg Suggestion
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, image_digests, mode, model, suggestion, created_at
		FROM suggestions WHERE id=$1`, id)
	if err := row.Scan(&sg.ID, &sg.Text, pq.Array(&sg.ImageDigests), &sg.Mode, &sg.Model, &sg.Suggestion, &sg.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Suggestion{}, ErrSuggestionNotFound
		}
		return Suggestion{}, fmt.Errorf("failed to get suggestion %s: %w", id, err)
	}
	return sg, nil
}

func (s *PostgresStore) SaveFeedback(ctx context.Context, fb Feedback) error {
	created := fb.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback(suggestion_id, rating, comment, created_at)
		VALUES($1,$2,$3,$4)`,
		fb.SuggestionID, string(fb.Rating), fb.Comment, created)
	return err
}

func (s *PostgresStore) ListFeedback(ctx context.Context, id uuid.UUID) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rating, comment, created_at FROM feedback
		WHERE suggestion_id=$1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Feedback
	for rows.Next() {
		fb := Feedback{SuggestionID: id}
		if err := rows.Scan(&fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
