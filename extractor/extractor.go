// Package extractor mines school facts out of fetched pages. Every field is
// described by an ordered fallback chain of selector and regex matchers; the
// first candidate that parses and falls inside the field's valid range wins.
// Extraction never fails: a field nothing matched is left unset.
package extractor

import (
	"strings"

	"medschool-scraper/models"
)

// Extract builds a SchoolRecord from doc. Non-empty seed metadata (name, type,
// location, city, state) takes precedence over what the page says. Link and
// website are always the page URL.
func Extract(doc Document, seed models.RawRecord) *models.SchoolRecord {
	rec := &models.SchoolRecord{
		Link:    doc.URL(),
		Website: doc.URL(),
	}

	rec.Name = strings.TrimSpace(seed["name"])
	if rec.Name == "" {
		rec.Name = ExtractName(doc)
	}

	if t, ok := models.ParseSchoolType(seed["type"]); ok {
		rec.Type = t
	} else {
		rec.Type = classifyType(doc)
	}

	pageLocation, _ := locationRule.Extract(doc)
	pageCity, pageState := SplitLocation(pageLocation)
	rec.Location = firstNonEmpty(seed["location"], pageLocation)
	rec.City = firstNonEmpty(seed["city"], pageCity)
	rec.State = firstNonEmpty(seed["state"], pageState)

	if v, ok := missionRule.Extract(doc); ok {
		rec.Mission = v
	}
	if v, ok := tuitionRule.Extract(doc); ok {
		rec.Tuition = &v
	}
	if v, ok := gpaRule.Extract(doc); ok {
		rec.AvgGPA = &v
	}
	if v, ok := mcatRule.Extract(doc); ok {
		rec.AvgMCAT = &v
	}
	if v, ok := classSizeRule.Extract(doc); ok {
		rec.ClassSize = &v
	}
	if v, ok := acceptanceRateRule.Extract(doc); ok {
		rec.AcceptanceRate = &v
	}
	rec.RequiredCourses = extractCourses(doc)
	rec.Deadlines = extractDeadlines(doc)
	rec.Accreditation = extractAccreditation(doc)

	return rec
}

// ExtractName returns the page's school name, falling back to the site's
// domain label when no heading or title looks like one.
func ExtractName(doc Document) string {
	if name, ok := nameRule.Extract(doc); ok {
		return name
	}
	return nameFromURL(doc.URL())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
