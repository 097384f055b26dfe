package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"medschool-scraper/models"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS schools (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		name             TEXT    UNIQUE NOT NULL,
		type             TEXT    NOT NULL CHECK (type IN ('MD', 'DO')),
		location         TEXT,
		city             TEXT,
		state            TEXT,
		tuition          INTEGER,
		avg_gpa          REAL,
		avg_mcat         INTEGER,
		required_courses TEXT    NOT NULL DEFAULT '[]',
		mission          TEXT,
		deadlines        TEXT,
		link             TEXT,
		website          TEXT,
		accreditation    TEXT,
		class_size       INTEGER,
		acceptance_rate  REAL,
		created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_schools_state ON schools(state);
`

var sqliteUpsert = upsertSQL(func(int) string { return "?" })

// SQLiteWriter upserts school records into a local SQLite file, for runs
// without a Postgres server.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (creating if needed) the database at path and applies
// the schema. Use ":memory:" for a throwaway database.
func NewSQLiteWriter(ctx context.Context, path string) (*SQLiteWriter, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("sqlite: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection: an in-memory database is per connection, and records
	// are written one at a time anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

func (sw *SQLiteWriter) Upsert(ctx context.Context, rec *models.SchoolRecord) error {
	courses := rec.RequiredCourses
	if courses == nil {
		courses = []string{}
	}
	encoded, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("sqlite: upsert %q: encode courses: %w", rec.Name, err)
	}
	args, err := upsertArgs(rec, string(encoded))
	if err != nil {
		return fmt.Errorf("sqlite: upsert %q: %w", rec.Name, err)
	}
	if _, err := sw.db.ExecContext(ctx, sqliteUpsert, args...); err != nil {
		return fmt.Errorf("sqlite: upsert %q: %w", rec.Name, err)
	}
	return nil
}

func (sw *SQLiteWriter) FetchAll(ctx context.Context) ([]*models.SchoolRecord, error) {
	rows, err := sw.db.QueryContext(ctx, selectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch all: %w", err)
	}
	defer rows.Close()

	var out []*models.SchoolRecord
	for rows.Next() {
		var r schoolRow
		var rawCourses sql.NullString
		if err := rows.Scan(r.dest(&rawCourses)...); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		var courses []string
		if rawCourses.Valid && rawCourses.String != "" {
			if err := json.Unmarshal([]byte(rawCourses.String), &courses); err != nil {
				return nil, fmt.Errorf("sqlite: decode courses for %q: %w", r.name, err)
			}
		}
		rec, err := r.record(courses)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (sw *SQLiteWriter) Close() error {
	return sw.db.Close()
}
