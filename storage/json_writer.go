package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"medschool-scraper/models"
)

// JSONWriter buffers records and writes them as one indented JSON array on Close.
type JSONWriter struct {
	mu      sync.Mutex
	path    string
	records []jsonSchool
}

type jsonSchool struct {
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	Location        string            `json:"location,omitempty"`
	City            string            `json:"city,omitempty"`
	State           string            `json:"state,omitempty"`
	Tuition         *int              `json:"tuition"`
	AvgGPA          *float64          `json:"avg_gpa"`
	AvgMCAT         *int              `json:"avg_mcat"`
	RequiredCourses []string          `json:"required_courses"`
	Mission         string            `json:"mission,omitempty"`
	Deadlines       map[string]string `json:"deadlines"`
	Link            string            `json:"link,omitempty"`
	Website         string            `json:"website,omitempty"`
	Accreditation   string            `json:"accreditation,omitempty"`
	ClassSize       *int              `json:"class_size"`
	AcceptanceRate  *float64          `json:"acceptance_rate"`
}

// NewJSONWriter prepares a writer for path, creating parent directories.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("json: create output dir: %w", err)
	}
	return &JSONWriter{path: path}, nil
}

func (j *JSONWriter) Write(rec *models.SchoolRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records = append(j.records, jsonSchool{
		Name:            rec.Name,
		Type:            string(rec.Type),
		Location:        rec.Location,
		City:            rec.City,
		State:           rec.State,
		Tuition:         rec.Tuition,
		AvgGPA:          rec.AvgGPA,
		AvgMCAT:         rec.AvgMCAT,
		RequiredCourses: rec.RequiredCourses,
		Mission:         rec.Mission,
		Deadlines:       rec.Deadlines,
		Link:            rec.Link,
		Website:         rec.Website,
		Accreditation:   string(rec.Accreditation),
		ClassSize:       rec.ClassSize,
		AcceptanceRate:  rec.AcceptanceRate,
	})
	return nil
}

// Close writes the buffered records to disk.
func (j *JSONWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	records := j.records
	if records == nil {
		records = []jsonSchool{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}
	if err := os.WriteFile(j.path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("json: write %q: %w", j.path, err)
	}
	return nil
}
