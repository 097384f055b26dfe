package storage

import (
	"context"

	"medschool-scraper/models"
)

// SchoolSink persists canonical records keyed by name: an existing row with
// the same name is replaced, otherwise a new row is inserted.
type SchoolSink interface {
	Upsert(ctx context.Context, rec *models.SchoolRecord) error
	FetchAll(ctx context.Context) ([]*models.SchoolRecord, error)
	Close() error
}

// RecordWriter exports crawled records to a file.
type RecordWriter interface {
	Write(rec *models.SchoolRecord) error
	Close() error
}
