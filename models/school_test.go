package models

import "testing"

func TestRawEncodesAbsentValuesAsEmpty(t *testing.T) {
	rec := &SchoolRecord{Name: "Alpha", Type: TypeMD}
	raw := rec.Raw()

	if len(raw) != len(Columns) {
		t.Fatalf("raw has %d keys, want %d", len(raw), len(Columns))
	}
	for _, col := range []string{"tuition", "avg_gpa", "required_courses", "deadlines", "accreditation"} {
		if raw[col] != "" {
			t.Errorf("%s: got %q, want empty", col, raw[col])
		}
	}
}

func TestRawEncodesListsAsJSON(t *testing.T) {
	gpa := 3.7
	rec := &SchoolRecord{
		Name:            "Alpha",
		Type:            TypeDO,
		AvgGPA:          &gpa,
		RequiredCourses: []string{"Biology", "Physics"},
		Deadlines:       map[string]string{"primary": "Oct 1"},
	}
	row := rec.Raw().Row()

	if row[0] != "Alpha" || row[1] != "DO" {
		t.Errorf("leading columns: got %q, %q", row[0], row[1])
	}
	if row[6] != "3.7" {
		t.Errorf("avg_gpa: got %q, want 3.7", row[6])
	}
	if row[8] != `["Biology","Physics"]` {
		t.Errorf("required_courses: got %q", row[8])
	}
	if row[10] != `{"primary":"Oct 1"}` {
		t.Errorf("deadlines: got %q", row[10])
	}
}

func TestParseSchoolType(t *testing.T) {
	tests := []struct {
		in   string
		want SchoolType
		ok   bool
	}{
		{"MD", TypeMD, true},
		{"m.d.", TypeMD, true},
		{" D.O. ", TypeDO, true},
		{"do", TypeDO, true},
		{"DVM", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSchoolType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSchoolType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestImportReportTotals(t *testing.T) {
	r := ImportReport{Imported: 5, Rejected: 2, Failed: 1}
	if r.Skipped() != 3 || r.Total() != 8 {
		t.Errorf("Skipped/Total: got %d/%d, want 3/8", r.Skipped(), r.Total())
	}
}
