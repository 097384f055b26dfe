package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"medschool-scraper/models"
	"medschool-scraper/storage"
	"medschool-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, io.Discard) }

// sliceSource feeds rows from memory. A nil row stands for one the parser
// could not read.
type sliceSource []models.RawRecord

func (s sliceSource) Each(fn storage.RowFunc) error {
	for i, row := range s {
		var rowErr error
		if row == nil {
			rowErr = storage.ErrMalformedRow
		}
		if err := fn(i+2, row, rowErr); err != nil {
			return err
		}
	}
	return nil
}

// flakySink records upserts and fails for the names in failOn.
type flakySink struct {
	failOn   map[string]bool
	attempts []string
	stored   map[string]*models.SchoolRecord
}

func newFlakySink(failOn ...string) *flakySink {
	s := &flakySink{failOn: map[string]bool{}, stored: map[string]*models.SchoolRecord{}}
	for _, n := range failOn {
		s.failOn[n] = true
	}
	return s
}

func (s *flakySink) Upsert(_ context.Context, rec *models.SchoolRecord) error {
	s.attempts = append(s.attempts, rec.Name)
	if s.failOn[rec.Name] {
		return errors.New("connection reset by peer")
	}
	s.stored[rec.Name] = rec
	return nil
}

func (s *flakySink) FetchAll(context.Context) ([]*models.SchoolRecord, error) { return nil, nil }
func (s *flakySink) Close() error                                           { return nil }

func TestImportContinuesAfterSinkFailure(t *testing.T) {
	sink := newFlakySink("School 3")
	im := NewImporter(NewNormalizer(LocationPlaceholder), sink, newTestLogger())

	rows := sliceSource{
		{"name": "School 1"}, {"name": "School 2"}, {"name": "School 3"},
		{"name": "School 4"}, {"name": "School 5"},
	}
	report, err := im.Import(context.Background(), rows)
	require.NoError(t, err)

	require.Equal(t, []string{"School 1", "School 2", "School 3", "School 4", "School 5"}, sink.attempts)
	require.Equal(t, 4, report.Imported)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Skipped())
	require.Len(t, sink.stored, 4)
}

func TestImportRejectsRowsWithoutName(t *testing.T) {
	sink := newFlakySink()
	im := NewImporter(NewNormalizer(LocationPlaceholder), sink, newTestLogger())

	rows := sliceSource{
		{"name": "", "type": "MD", "city": "Boston"},
		{"name": "Named School", "type": "MD"},
		{"name": "   ", "type": "DO"},
	}
	report, err := im.Import(context.Background(), rows)
	require.NoError(t, err)

	require.Equal(t, []string{"Named School"}, sink.attempts, "rejected rows never reach the sink")
	require.Equal(t, 1, report.Imported)
	require.Equal(t, 2, report.Rejected)
	require.Equal(t, 2, report.Skipped())
	require.Equal(t, 3, report.Total())
}

func TestImportCountsUnreadableRowsAndContinues(t *testing.T) {
	sink := newFlakySink()
	im := NewImporter(NewNormalizer(LocationPlaceholder), sink, newTestLogger())

	rows := sliceSource{
		{"name": "Alpha School", "type": "MD"},
		nil,
		{"name": "Gamma School", "type": "DO"},
	}
	report, err := im.Import(context.Background(), rows)
	require.NoError(t, err)

	require.Equal(t, []string{"Alpha School", "Gamma School"}, sink.attempts)
	require.Equal(t, 2, report.Imported)
	require.Equal(t, 1, report.Rejected)
}

func TestImportCSVWithStrayQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schools.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"name,type\n"+
			"Alpha School,MD\n"+
			"St. \"Mary\" School of Medicine,MD\n"+
			"Gamma School,DO\n"+
			"Delta School,MD\n"), 0o600))

	sink := newFlakySink()
	im := NewImporter(NewNormalizer(LocationPlaceholder), sink, newTestLogger())

	report, err := im.Import(context.Background(), storage.NewCSVReader(path))
	require.NoError(t, err)

	require.Equal(t, []string{"Alpha School", `St. "Mary" School of Medicine`, "Gamma School", "Delta School"}, sink.attempts)
	require.Equal(t, 4, report.Imported)
	require.Equal(t, 0, report.Skipped())
}

func TestImportMissingFile(t *testing.T) {
	im := NewImporter(NewNormalizer(LocationPlaceholder), newFlakySink(), newTestLogger())

	report, err := im.Import(context.Background(), storage.NewCSVReader(filepath.Join(t.TempDir(), "nope.csv")))
	require.ErrorIs(t, err, storage.ErrInputNotFound)
	require.Equal(t, 0, report.Total())
}

func TestImportStopsOnCancel(t *testing.T) {
	sink := newFlakySink()
	im := NewImporter(NewNormalizer(LocationPlaceholder), sink, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := im.Import(ctx, sliceSource{{"name": "Never Written"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, sink.attempts)
}

func TestImportCSVIntoSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := filepath.Join(dir, "first.csv")
	require.NoError(t, os.WriteFile(first, []byte(
		"name,type,city,state,tuition,avg_mcat,required_courses,deadlines\n"+
			"Lakeside School of Medicine,MD,Boston,MA,60000,512,\"Biology, Physics\",\"{\"\"primary\"\": \"\"October 1\"\"}\"\n"+
			",MD,Nowhere,ZZ,,,,\n"), 0o600))

	second := filepath.Join(dir, "second.csv")
	require.NoError(t, os.WriteFile(second, []byte(
		"name,type,location,tuition,avg_mcat,required_courses\n"+
			"Lakeside School of Medicine,DO,\"Cambridge, MA\",65000,540,\"[\"\"Chemistry\"\"]\"\n"), 0o600))

	sink, err := storage.NewSQLiteWriter(ctx, ":memory:")
	require.NoError(t, err)
	defer sink.Close()

	im := NewImporter(NewNormalizer(LocationPlaceholder), sink, newTestLogger())

	report, err := im.Import(ctx, storage.NewCSVReader(first))
	require.NoError(t, err)
	require.Equal(t, 1, report.Imported)
	require.Equal(t, 1, report.Skipped())

	stored, err := sink.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "Boston, MA", stored[0].Location)
	require.Equal(t, []string{"Biology", "Physics"}, stored[0].RequiredCourses)
	require.Equal(t, map[string]string{"primary": "October 1"}, stored[0].Deadlines)

	report, err = im.Import(ctx, storage.NewCSVReader(second))
	require.NoError(t, err)
	require.Equal(t, 1, report.Imported)

	stored, err = sink.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1, "upserting the same name must not add a row")

	got := stored[0]
	require.Equal(t, models.TypeDO, got.Type)
	require.Equal(t, "Cambridge, MA", got.Location)
	require.Empty(t, got.City, "last write wins for every column")
	require.Equal(t, 65000, *got.Tuition)
	require.Nil(t, got.AvgMCAT, "out-of-range MCAT is stored as null")
	require.Equal(t, []string{"Chemistry"}, got.RequiredCourses)
	require.Nil(t, got.Deadlines)
}
