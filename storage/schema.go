package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"medschool-scraper/models"
)

// upsertSQL builds the insert-or-replace statement keyed on name. ph renders
// the n-th (1-based) bind placeholder for the target driver.
func upsertSQL(ph func(n int) string) string {
	marks := make([]string, len(models.Columns))
	updates := make([]string, 0, len(models.Columns))
	for i, col := range models.Columns {
		marks[i] = ph(i + 1)
		if col != "name" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}
	updates = append(updates, "updated_at = CURRENT_TIMESTAMP")

	return fmt.Sprintf(
		"INSERT INTO schools (%s) VALUES (%s) ON CONFLICT (name) DO UPDATE SET %s",
		strings.Join(models.Columns, ", "),
		strings.Join(marks, ", "),
		strings.Join(updates, ", "),
	)
}

var selectAllSQL = "SELECT " + strings.Join(models.Columns, ", ") + " FROM schools ORDER BY name"

// upsertArgs returns bind values in models.Columns order. courses is the
// driver-specific encoding of the required_courses column.
func upsertArgs(rec *models.SchoolRecord, courses any) ([]any, error) {
	var deadlines any
	if len(rec.Deadlines) > 0 {
		b, err := json.Marshal(rec.Deadlines)
		if err != nil {
			return nil, fmt.Errorf("encode deadlines: %w", err)
		}
		deadlines = string(b)
	}

	return []any{
		rec.Name,
		string(rec.Type),
		nullString(rec.Location),
		nullString(rec.City),
		nullString(rec.State),
		nullInt(rec.Tuition),
		nullFloat(rec.AvgGPA),
		nullInt(rec.AvgMCAT),
		courses,
		nullString(rec.Mission),
		deadlines,
		nullString(rec.Link),
		nullString(rec.Website),
		nullString(string(rec.Accreditation)),
		nullInt(rec.ClassSize),
		nullFloat(rec.AcceptanceRate),
	}, nil
}

// schoolRow is the scan target for one row of selectAllSQL.
type schoolRow struct {
	name, schoolType                  string
	location, city, state             sql.NullString
	tuition, avgMCAT, classSize       sql.NullInt64
	avgGPA, acceptanceRate            sql.NullFloat64
	mission, deadlines, link, website sql.NullString
	accreditation                     sql.NullString
}

// dest returns scan destinations in column order; courses receives the
// required_courses column.
func (r *schoolRow) dest(courses any) []any {
	return []any{
		&r.name, &r.schoolType, &r.location, &r.city, &r.state,
		&r.tuition, &r.avgGPA, &r.avgMCAT, courses, &r.mission,
		&r.deadlines, &r.link, &r.website, &r.accreditation,
		&r.classSize, &r.acceptanceRate,
	}
}

func (r *schoolRow) record(courses []string) (*models.SchoolRecord, error) {
	rec := &models.SchoolRecord{
		Name:           r.name,
		Type:           models.SchoolType(r.schoolType),
		Location:       r.location.String,
		City:           r.city.String,
		State:          r.state.String,
		Tuition:        intPtr(r.tuition),
		AvgGPA:         floatPtr(r.avgGPA),
		AvgMCAT:        intPtr(r.avgMCAT),
		Mission:        r.mission.String,
		Link:           r.link.String,
		Website:        r.website.String,
		Accreditation:  models.Accreditation(r.accreditation.String),
		ClassSize:      intPtr(r.classSize),
		AcceptanceRate: floatPtr(r.acceptanceRate),
	}
	if len(courses) > 0 {
		rec.RequiredCourses = courses
	}
	if r.deadlines.Valid && r.deadlines.String != "" {
		if err := json.Unmarshal([]byte(r.deadlines.String), &rec.Deadlines); err != nil {
			return nil, fmt.Errorf("decode deadlines for %q: %w", r.name, err)
		}
		if len(rec.Deadlines) == 0 {
			rec.Deadlines = nil
		}
	}
	return rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
