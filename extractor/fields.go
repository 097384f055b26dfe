package extractor

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"medschool-scraper/models"
)

var nameRule = Rule[string]{
	Matchers: []Matcher{
		Selector{CSS: "h1"},
		Selector{CSS: "title"},
		Selector{CSS: `[class*="school-name"]`},
		Selector{CSS: `[class*="title"]`},
		Selector{CSS: ".school-title"},
		Selector{CSS: "header h1"},
	},
	Parse: func(raw string) (string, bool) {
		name := cleanTitle(raw)
		return name, len(name) > 5
	},
}

var locationRule = Rule[string]{
	Matchers: []Matcher{
		Selector{CSS: `[class*="location"]`},
		Selector{CSS: `[class*="address"]`},
		Selector{CSS: `[itemprop="address"]`},
		Selector{CSS: ".address"},
		Selector{CSS: `meta[name*="location"]`, Attr: "content"},
	},
	Parse: nonEmpty,
}

var missionRule = Rule[string]{
	Matchers: []Matcher{
		Selector{CSS: `[class*="mission"]`, Join: true},
		Selector{CSS: `[id*="mission"]`, Join: true},
		Selector{CSS: "section.mission p", Join: true},
		Selector{CSS: ".about-us p", Join: true},
	},
	Parse: func(raw string) (string, bool) {
		raw = strings.TrimSpace(raw)
		if len(raw) <= 50 {
			return "", false
		}
		return truncateRunes(raw, models.MissionMaxLen), true
	},
}

var tuitionRule = Rule[int]{
	Matchers: []Matcher{
		Re(`tuition[:\s]*\$?([\d,]+)`),
		Re(`\$([\d,]+)\s*tuition`),
		Re(`tuition.*?\$([\d,]+)`),
	},
	Parse: func(raw string) (int, bool) {
		n, err := strconv.Atoi(strings.NewReplacer(",", "", "$", "").Replace(raw))
		return n, err == nil && models.ValidTuition(n)
	},
}

var gpaRule = Rule[float64]{
	Matchers: []Matcher{
		Re(`gpa[:\s]*(\d+\.\d+)`),
		Re(`average.*?gpa[:\s]*(\d+\.\d+)`),
		Re(`gpa.*?(\d+\.\d+)`),
	},
	Parse: func(raw string) (float64, bool) {
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil && models.ValidGPA(f)
	},
}

var mcatRule = Rule[int]{
	Matchers: []Matcher{
		Re(`mcat[:\s]*(\d{3})`),
		Re(`average.*?mcat[:\s]*(\d{3})`),
		Re(`mcat.*?score[:\s]*(\d{3})`),
	},
	Parse: intIn(models.ValidMCAT),
}

var classSizeRule = Rule[int]{
	Matchers: []Matcher{
		Re(`class.*?size[:\s]*(\d+)`),
		Re(`(\d+).*?students.*?class`),
		Re(`enrollment[:\s]*(\d+)`),
	},
	Parse: intIn(models.ValidClassSize),
}

var acceptanceRateRule = Rule[float64]{
	Matchers: []Matcher{
		Re(`acceptance.*?rate[:\s]*(\d+\.?\d*)%`),
		Re(`(\d+\.?\d*)%.*?acceptance`),
	},
	Parse: func(raw string) (float64, bool) {
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		rate := pct / 100
		return rate, models.ValidAcceptanceRate(rate)
	},
}

var deadlineRules = []struct {
	label string
	rule  Rule[string]
}{
	{"primary", Rule[string]{Matchers: []Matcher{Re(`primary.*?deadline[:\s]*([A-Z][a-z]+\s+\d{1,2})`)}, Parse: nonEmpty}},
	{"secondary", Rule[string]{Matchers: []Matcher{Re(`secondary.*?deadline[:\s]*([A-Z][a-z]+\s+\d{1,2})`)}, Parse: nonEmpty}},
}

// CourseVocabulary is the closed set of prerequisite courses looked for, in
// the order they are reported.
var CourseVocabulary = []string{
	"Biology", "Chemistry", "Organic Chemistry", "Physics",
	"Mathematics", "English", "Biochemistry", "Psychology",
	"Sociology", "Calculus", "Statistics",
}

var coursePatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(CourseVocabulary))
	for i, c := range CourseVocabulary {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(c) + `\b`)
	}
	return out
}()

var (
	lcmeRegexp  = regexp.MustCompile(`(?i)lcm[ea]`)
	aacomRegexp = regexp.MustCompile(`(?i)aacom`)
	stateCode   = regexp.MustCompile(`,\s*([A-Z]{2})\b`)
	titleSuffix = regexp.MustCompile(`(\s+[-–—]\s+|\s*\|\s*).*$`)
)

var (
	doTextKeywords = []string{"osteopathic", "d.o.", "do school"}
	doURLKeywords  = []string{"aacom", "osteopathic"}
)

func extractCourses(doc Document) []string {
	text := doc.Text()
	var found []string
	for i, re := range coursePatterns {
		if re.MatchString(text) {
			found = append(found, CourseVocabulary[i])
		}
	}
	return found
}

func extractDeadlines(doc Document) map[string]string {
	var deadlines map[string]string
	for _, d := range deadlineRules {
		if v, ok := d.rule.Extract(doc); ok {
			if deadlines == nil {
				deadlines = make(map[string]string, len(deadlineRules))
			}
			deadlines[d.label] = v
		}
	}
	return deadlines
}

func extractAccreditation(doc Document) models.Accreditation {
	text := doc.Text()
	switch {
	case lcmeRegexp.MatchString(text):
		return models.AccreditationLCME
	case aacomRegexp.MatchString(text):
		return models.AccreditationAACOM
	}
	return ""
}

// classifyType guesses MD versus DO from keywords. It is a heuristic and will
// misclassify some pages.
func classifyType(doc Document) models.SchoolType {
	u := strings.ToLower(doc.URL())
	for _, k := range doURLKeywords {
		if strings.Contains(u, k) {
			return models.TypeDO
		}
	}
	text := strings.ToLower(doc.Text())
	for _, k := range doTextKeywords {
		if strings.Contains(text, k) {
			return models.TypeDO
		}
	}
	return models.TypeMD
}

// SplitLocation decomposes "City, ST" style text. The state is a two-letter
// code following a comma when present, else the last comma-separated part.
func SplitLocation(location string) (city, state string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ""
	}
	parts := strings.Split(location, ",")
	city = strings.TrimSpace(parts[0])
	if m := stateCode.FindStringSubmatch(location); m != nil {
		return city, m[1]
	}
	if len(parts) > 1 {
		state = strings.TrimSpace(parts[len(parts)-1])
	}
	return city, state
}

func nameFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	label := strings.Split(strings.TrimPrefix(u.Hostname(), "www."), ".")[0]
	if label == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(label)
	return strings.ToUpper(string(r)) + strings.ToLower(label[size:])
}

func cleanTitle(s string) string {
	return strings.TrimSpace(titleSuffix.ReplaceAllString(strings.TrimSpace(s), ""))
}

func nonEmpty(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func intIn(valid func(int) bool) func(string) (int, bool) {
	return func(raw string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		return n, err == nil && valid(n)
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
