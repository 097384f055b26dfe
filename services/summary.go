package services

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"medschool-scraper/models"
	"medschool-scraper/utils"
)

const topMCATCount = 5

// SummaryService computes and prints the end-of-run report.
type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate computes statistics over the stored schools. Averages only count
// schools that have the value.
func (s *SummaryService) Generate(schools []*models.SchoolRecord) *models.Summary {
	summary := &models.Summary{SchoolsByState: make(map[string]int)}
	if len(schools) == 0 {
		return summary
	}
	summary.TotalSchools = len(schools)

	var tuitionSum, gpaSum, mcatSum float64
	var tuitionN, gpaN, mcatN int
	var withMCAT []*models.SchoolRecord

	for _, sc := range schools {
		switch sc.Type {
		case models.TypeMD:
			summary.MDSchools++
		case models.TypeDO:
			summary.DOSchools++
		}
		if sc.Tuition != nil {
			tuitionSum += float64(*sc.Tuition)
			tuitionN++
			if summary.LowestTuition == nil || *sc.Tuition < *summary.LowestTuition.Tuition {
				summary.LowestTuition = sc
			}
		}
		if sc.AvgGPA != nil {
			gpaSum += *sc.AvgGPA
			gpaN++
		}
		if sc.AvgMCAT != nil {
			mcatSum += float64(*sc.AvgMCAT)
			mcatN++
			withMCAT = append(withMCAT, sc)
		}
		if sc.State != "" {
			summary.SchoolsByState[sc.State]++
		}
	}

	summary.AvgTuition = average(tuitionSum, tuitionN)
	summary.AvgGPA = average(gpaSum, gpaN)
	summary.AvgMCAT = average(mcatSum, mcatN)

	sort.SliceStable(withMCAT, func(i, j int) bool {
		return *withMCAT[i].AvgMCAT > *withMCAT[j].AvgMCAT
	})
	if len(withMCAT) > topMCATCount {
		withMCAT = withMCAT[:topMCATCount]
	}
	summary.TopMCAT = withMCAT

	s.logger.Debug("[summary] %d schools, %d with tuition, %d with MCAT", len(schools), tuitionN, mcatN)
	return summary
}

// PrintImport writes the imported/skipped counts of one pass.
func (s *SummaryService) PrintImport(w io.Writer, r *models.ImportReport) {
	t := newTable(w, "Import complete")
	t.AppendHeader(table.Row{"Outcome", "Records"})
	t.AppendRows([]table.Row{
		{"Imported", r.Imported},
		{"Skipped", r.Skipped()},
		{"  rejected (validation)", r.Rejected},
		{"  failed (store)", r.Failed},
	})
	t.AppendFooter(table.Row{"Total", r.Total()})
	t.Render()
}

// PrintSummary writes the dataset statistics.
func (s *SummaryService) PrintSummary(w io.Writer, sm *models.Summary) {
	overview := newTable(w, "Stored schools")
	overview.AppendRows([]table.Row{
		{"Total schools", sm.TotalSchools},
		{"MD schools", sm.MDSchools},
		{"DO schools", sm.DOSchools},
		{"Average tuition", money(sm.AvgTuition)},
		{"Average GPA", optional(sm.AvgGPA, "%.2f")},
		{"Average MCAT", optional(sm.AvgMCAT, "%.1f")},
	})
	if sm.LowestTuition != nil {
		overview.AppendRow(table.Row{"Lowest tuition", fmt.Sprintf("%s (%s)",
			truncate(sm.LowestTuition.Name, 40), fmt.Sprintf("$%d", *sm.LowestTuition.Tuition))})
	}
	overview.Render()

	if len(sm.TopMCAT) > 0 {
		top := newTable(w, fmt.Sprintf("Top %d by average MCAT", topMCATCount))
		top.AppendHeader(table.Row{"#", "School", "Type", "MCAT"})
		for i, sc := range sm.TopMCAT {
			top.AppendRow(table.Row{i + 1, truncate(sc.Name, 48), sc.Type, *sc.AvgMCAT})
		}
		top.Render()
	}

	if len(sm.SchoolsByState) > 0 {
		type stateCount struct {
			state string
			count int
		}
		states := make([]stateCount, 0, len(sm.SchoolsByState))
		for st, n := range sm.SchoolsByState {
			states = append(states, stateCount{st, n})
		}
		sort.Slice(states, func(i, j int) bool {
			if states[i].count != states[j].count {
				return states[i].count > states[j].count
			}
			return states[i].state < states[j].state
		})

		byState := newTable(w, "Schools by state")
		byState.AppendHeader(table.Row{"State", "Schools"})
		for _, sc := range states {
			byState.AppendRow(table.Row{sc.state, sc.count})
		}
		byState.Render()
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func money(f float64) string {
	if f == 0 {
		return "n/a"
	}
	return fmt.Sprintf("$%.0f", f)
}

func optional(f float64, format string) string {
	if f == 0 {
		return "n/a"
	}
	return fmt.Sprintf(format, f)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
