package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"medschool-scraper/models"
)

var (
	// ErrInvalidRecord is wrapped by every rejection reason.
	ErrInvalidRecord   = errors.New("invalid record")
	ErrMissingName     = fmt.Errorf("%w: missing name", ErrInvalidRecord)
	ErrMissingLocation = fmt.Errorf("%w: missing location", ErrInvalidRecord)
)

// LocationPolicy decides what happens when neither location nor city/state
// are present.
type LocationPolicy string

const (
	// LocationPlaceholder stores models.LocationPlaceholder, for schemas where
	// location is mandatory.
	LocationPlaceholder LocationPolicy = "placeholder"
	// LocationOmit leaves the location empty.
	LocationOmit LocationPolicy = "omit"
	// LocationReject rejects the record.
	LocationReject LocationPolicy = "reject"
)

// ParseLocationPolicy validates a policy name.
func ParseLocationPolicy(s string) (LocationPolicy, error) {
	switch p := LocationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case LocationPlaceholder, LocationOmit, LocationReject:
		return p, nil
	case "":
		return LocationPlaceholder, nil
	}
	return "", fmt.Errorf("unknown location policy %q (want placeholder, omit or reject)", s)
}

// Normalizer turns raw string rows into canonical SchoolRecords. Malformed
// field values become null; only a missing name (or location, under
// LocationReject) rejects the whole row.
type Normalizer struct {
	locationPolicy LocationPolicy
}

// NewNormalizer creates a Normalizer with the given missing-location policy.
func NewNormalizer(policy LocationPolicy) *Normalizer {
	if policy == "" {
		policy = LocationPlaceholder
	}
	return &Normalizer{locationPolicy: policy}
}

// Normalize maps raw onto a SchoolRecord. The error wraps ErrInvalidRecord
// when the row must be rejected.
func (n *Normalizer) Normalize(raw models.RawRecord) (*models.SchoolRecord, error) {
	rec := &models.SchoolRecord{
		Name:            parseString(raw["name"]),
		City:            parseString(raw["city"]),
		State:           parseString(raw["state"]),
		Mission:         parseString(raw["mission"]),
		RequiredCourses: parseList(raw["required_courses"]),
		Deadlines:       parseDict(raw["deadlines"]),
		Link:            firstValue(raw, "link", "website", "url"),
		Website:         firstValue(raw, "website", "url"),
	}
	if rec.Name == "" {
		return nil, ErrMissingName
	}

	rec.Type = parseType(raw["type"])

	rec.Location = parseString(raw["location"])
	if rec.Location == "" {
		rec.Location = joinLocation(rec.City, rec.State)
	}
	if rec.Location == "" {
		switch n.locationPolicy {
		case LocationReject:
			return nil, ErrMissingLocation
		case LocationPlaceholder:
			rec.Location = models.LocationPlaceholder
		}
	}

	rec.Tuition = parseInt(raw["tuition"], models.ValidTuition)
	rec.AvgMCAT = parseInt(raw["avg_mcat"], models.ValidMCAT)
	rec.ClassSize = parseInt(raw["class_size"], models.ValidClassSize)
	rec.AvgGPA = parseFloat(raw["avg_gpa"], models.ValidGPA)
	rec.AcceptanceRate = parseFloat(raw["acceptance_rate"], models.ValidAcceptanceRate)

	if a, ok := models.ParseAccreditation(raw["accreditation"]); ok {
		rec.Accreditation = a
	}
	if r := []rune(rec.Mission); len(r) > models.MissionMaxLen {
		rec.Mission = string(r[:models.MissionMaxLen])
	}
	return rec, nil
}

func joinLocation(city, state string) string {
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	default:
		return state
	}
}

func firstValue(raw models.RawRecord, keys ...string) string {
	for _, k := range keys {
		if v := parseString(raw[k]); v != "" {
			return v
		}
	}
	return ""
}

// parseType reads the MD/DO codes, maps osteopathic wording to DO and
// defaults everything else, including an empty cell, to MD.
func parseType(s string) models.SchoolType {
	s = parseString(s)
	if t, ok := models.ParseSchoolType(s); ok {
		return t
	}
	if strings.Contains(strings.ToLower(s), "osteopath") {
		return models.TypeDO
	}
	return models.TypeMD
}

func parseString(s string) string {
	return strings.TrimSpace(s)
}

func parseInt(s string, valid func(int) bool) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !valid(n) {
		return nil
	}
	return &n
}

func parseFloat(s string, valid func(float64) bool) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !valid(f) {
		return nil
	}
	return &f
}

// parseList accepts a JSON array of strings or a comma-separated list. JSON
// is only attempted when the value starts with '['.
func parseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var items []string
	if !strings.HasPrefix(s, "[") || json.Unmarshal([]byte(s), &items) != nil {
		items = strings.Split(strings.Trim(s, "[]"), ",")
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.Trim(strings.TrimSpace(it), `"'`); it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseDict accepts only a JSON object of string values.
func parseDict(s string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}
