package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SchoolType is the degree a school grants.
type SchoolType string

const (
	TypeMD SchoolType = "MD"
	TypeDO SchoolType = "DO"
)

// ParseSchoolType maps free text onto a SchoolType. It accepts the bare codes
// and their dotted spellings, case-insensitively.
func ParseSchoolType(s string) (SchoolType, bool) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), ".", "")) {
	case "MD":
		return TypeMD, true
	case "DO":
		return TypeDO, true
	}
	return "", false
}

// Accreditation names the accrediting body. The zero value means not known.
type Accreditation string

const (
	AccreditationLCME    Accreditation = "LCME"
	AccreditationAACOM   Accreditation = "AACOM"
	AccreditationUnknown Accreditation = "unknown"
)

// ParseAccreditation maps free text onto an Accreditation.
func ParseAccreditation(s string) (Accreditation, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LCME":
		return AccreditationLCME, true
	case "AACOM":
		return AccreditationAACOM, true
	case "UNKNOWN":
		return AccreditationUnknown, true
	}
	return "", false
}

// MissionMaxLen bounds the stored mission statement, in characters.
const MissionMaxLen = 1000

// LocationPlaceholder is written when a location is mandatory but nothing
// could be derived.
const LocationPlaceholder = "Not specified"

// SchoolRecord is the canonical, typed representation of a school.
// Empty strings, nil pointers, nil slices and nil maps mean "not known".
type SchoolRecord struct {
	Name            string
	Type            SchoolType
	Location        string
	City            string
	State           string
	Tuition         *int
	AvgGPA          *float64
	AvgMCAT         *int
	RequiredCourses []string
	Mission         string
	Deadlines       map[string]string
	Link            string
	Website         string
	Accreditation   Accreditation
	ClassSize       *int
	AcceptanceRate  *float64
}

// RawRecord is an untyped row: column name to string value, as read from a
// CSV file or produced by SchoolRecord.Raw.
type RawRecord map[string]string

// Columns is the canonical column order for CSV exports and the schools table.
var Columns = []string{
	"name", "type", "location", "city", "state", "tuition", "avg_gpa",
	"avg_mcat", "required_courses", "mission", "deadlines", "link",
	"website", "accreditation", "class_size", "acceptance_rate",
}

// Raw encodes the record as a RawRecord. Lists and maps become JSON, absent
// values become empty strings.
func (r *SchoolRecord) Raw() RawRecord {
	raw := RawRecord{
		"name":            r.Name,
		"type":            string(r.Type),
		"location":        r.Location,
		"city":            r.City,
		"state":           r.State,
		"tuition":         formatInt(r.Tuition),
		"avg_gpa":         formatFloat(r.AvgGPA),
		"avg_mcat":        formatInt(r.AvgMCAT),
		"mission":         r.Mission,
		"link":            r.Link,
		"website":         r.Website,
		"accreditation":   string(r.Accreditation),
		"class_size":      formatInt(r.ClassSize),
		"acceptance_rate": formatFloat(r.AcceptanceRate),
	}
	raw["required_courses"] = ""
	if len(r.RequiredCourses) > 0 {
		b, _ := json.Marshal(r.RequiredCourses)
		raw["required_courses"] = string(b)
	}
	raw["deadlines"] = ""
	if len(r.Deadlines) > 0 {
		b, _ := json.Marshal(r.Deadlines)
		raw["deadlines"] = string(b)
	}
	return raw
}

// Row returns the raw values in Columns order.
func (r RawRecord) Row() []string {
	row := make([]string, len(Columns))
	for i, col := range Columns {
		row[i] = r[col]
	}
	return row
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Valid ranges. Values outside them are discarded, never clamped.

func ValidTuition(v int) bool            { return v >= 0 }
func ValidGPA(v float64) bool            { return v > 0 && v <= 4.0 }
func ValidMCAT(v int) bool               { return v >= 472 && v <= 528 }
func ValidClassSize(v int) bool          { return v >= 50 && v <= 500 }
func ValidAcceptanceRate(v float64) bool { return v > 0 && v <= 1 }
