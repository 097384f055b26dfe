package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"medschool-scraper/models"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS schools (
		id               SERIAL PRIMARY KEY,
		name             TEXT             UNIQUE NOT NULL,
		type             VARCHAR(2)       NOT NULL CHECK (type IN ('MD', 'DO')),
		location         TEXT,
		city             TEXT,
		state            TEXT,
		tuition          INTEGER          CHECK (tuition >= 0),
		avg_gpa          DOUBLE PRECISION CHECK (avg_gpa > 0 AND avg_gpa <= 4.0),
		avg_mcat         INTEGER          CHECK (avg_mcat BETWEEN 472 AND 528),
		required_courses TEXT[]           NOT NULL DEFAULT '{}',
		mission          TEXT,
		deadlines        JSONB,
		link             TEXT,
		website          TEXT,
		accreditation    TEXT,
		class_size       INTEGER          CHECK (class_size BETWEEN 50 AND 500),
		acceptance_rate  DOUBLE PRECISION CHECK (acceptance_rate > 0 AND acceptance_rate <= 1),
		created_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_schools_type  ON schools(type);
	CREATE INDEX IF NOT EXISTS idx_schools_state ON schools(state);
`

var postgresUpsert = upsertSQL(func(n int) string { return fmt.Sprintf("$%d", n) })

// PostgresWriter upserts school records into PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, waits for the server to answer, runs
// the schema migration and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, postgresSchema)
	return err
}

// Upsert inserts rec or replaces the row that already has its name.
func (pw *PostgresWriter) Upsert(ctx context.Context, rec *models.SchoolRecord) error {
	courses := rec.RequiredCourses
	if courses == nil {
		courses = []string{}
	}
	args, err := upsertArgs(rec, pq.Array(courses))
	if err != nil {
		return fmt.Errorf("postgres: upsert %q: %w", rec.Name, err)
	}
	if _, err := pw.db.ExecContext(ctx, postgresUpsert, args...); err != nil {
		return fmt.Errorf("postgres: upsert %q: %w", rec.Name, err)
	}
	return nil
}

// FetchAll returns every stored school ordered by name.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]*models.SchoolRecord, error) {
	rows, err := pw.db.QueryContext(ctx, selectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var out []*models.SchoolRecord
	for rows.Next() {
		var r schoolRow
		var courses pq.StringArray
		if err := rows.Scan(r.dest(&courses)...); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		rec, err := r.record(courses)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
