package models

// ImportReport counts the outcome of one import pass.
type ImportReport struct {
	Imported int
	Rejected int // failed validation, never reached the sink
	Failed   int // the sink returned an error
}

// Skipped is every row that was not persisted.
func (r *ImportReport) Skipped() int {
	return r.Rejected + r.Failed
}

// Total is the number of rows seen.
func (r *ImportReport) Total() int {
	return r.Imported + r.Skipped()
}

// Summary holds statistics computed over the stored schools.
type Summary struct {
	TotalSchools   int
	MDSchools      int
	DOSchools      int
	AvgTuition     float64
	AvgGPA         float64
	AvgMCAT        float64
	LowestTuition  *SchoolRecord
	TopMCAT        []*SchoolRecord
	SchoolsByState map[string]int
}
