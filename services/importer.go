package services

import (
	"context"
	"fmt"
	"strings"

	"medschool-scraper/models"
	"medschool-scraper/storage"
	"medschool-scraper/utils"
)

// RowSource yields raw rows one at a time; storage.CSVReader satisfies it.
type RowSource interface {
	Each(fn storage.RowFunc) error
}

// Importer runs rows through the Normalizer into a SchoolSink, one record at
// a time. A rejected or failed record is logged and counted, never fatal.
type Importer struct {
	normalizer *Normalizer
	sink       storage.SchoolSink
	logger     *utils.Logger
}

// NewImporter wires a normalizer to a sink.
func NewImporter(normalizer *Normalizer, sink storage.SchoolSink, logger *utils.Logger) *Importer {
	return &Importer{normalizer: normalizer, sink: sink, logger: logger}
}

// Import drains src. A row src could not parse counts as rejected. The
// returned error is non-nil only when src itself could not be read (for
// example storage.ErrInputNotFound) or ctx was cancelled; the report then
// holds the counts reached so far.
func (im *Importer) Import(ctx context.Context, src RowSource) (*models.ImportReport, error) {
	report := &models.ImportReport{}
	err := src.Each(func(line int, row models.RawRecord, rowErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		origin := fmt.Sprintf("line %d", line)
		if rowErr != nil {
			im.logger.Warn("[import] Skipping %s: %v", origin, rowErr)
			report.Rejected++
			return nil
		}
		im.Process(ctx, report, origin, row)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("import: %w", err)
	}
	return report, nil
}

// Process normalises and upserts a single row, updating report. origin
// identifies the row in log lines.
func (im *Importer) Process(ctx context.Context, report *models.ImportReport, origin string, row models.RawRecord) {
	rec, err := im.normalizer.Normalize(row)
	if err != nil {
		im.logger.Warn("[import] Skipping %s (%s): %v", displayName(row), origin, err)
		report.Rejected++
		return
	}

	if err := im.sink.Upsert(ctx, rec); err != nil {
		im.logger.Error("[import] ✗ Error importing %s: %v", rec.Name, err)
		report.Failed++
		return
	}

	im.logger.Info("[import] ✓ Imported: %s", rec.Name)
	report.Imported++
}

func displayName(row models.RawRecord) string {
	if n := strings.TrimSpace(row["name"]); n != "" {
		return n
	}
	return "Unknown"
}
