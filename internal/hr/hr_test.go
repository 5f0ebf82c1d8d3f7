package hr

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAmountDecoding(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{`5000`, 5000},
		{`"8500"`, 8500},
		{`" 7200.50 "`, 7200.5},
		{`"abc"`, 0},
		{`""`, 0},
		{`null`, 0},
		{`true`, 0},
		{`"NaN"`, 0},
		{`"-10"`, -10},
	}
	for _, tt := range tests {
		var a Amount
		if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if a != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, a, tt.want)
		}
	}
}

func TestAmountEncodesAsNumber(t *testing.T) {
	var e Employee
	if err := json.Unmarshal([]byte(`{"salario":"4500"}`), &e); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"salario":4500`) {
		t.Errorf("encoded = %s, want numeric salario", out)
	}
}

func TestRecordJSONLayout(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	v := JobOpening{
		Record: Record{ID: "v1", CreatedAt: ts, UpdatedAt: ts},
		Title:  "Desenvolvedor Full Stack",
		Status: VacancyOpen,
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "dataCriacao", "dataAtualizacao", "titulo", "status", "candidatos"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, out)
		}
	}
	if _, ok := m["Record"]; ok {
		t.Error("Record was not flattened")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"2024-01-15T23:30:00Z", "2024-01-15", true},
		{"2024-01-15T23:30:00.123-03:00", "2024-01-15", true},
		{"15/01/2024", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && FormatDate(got) != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, FormatDate(got), tt.want)
		}
	}
}

func TestBRDate(t *testing.T) {
	if got := BRDate("2023-01-15"); got != "15/01/2023" {
		t.Errorf("BRDate = %q", got)
	}
	if got := BRDate("bad"); got != "" {
		t.Errorf("BRDate(bad) = %q, want empty", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 31, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 30 {
		t.Errorf("DaysBetween = %d, want 30", got)
	}
	if got := DaysBetween(b, a); got != -30 {
		t.Errorf("DaysBetween reversed = %d, want -30", got)
	}
}

func TestEmployeeValidate(t *testing.T) {
	valid := Employee{
		Name: "Ana Lima", Email: "ana@x.com", Role: "Analista",
		Department: "TI", AdmissionDate: "2024-01-01", Salary: 5000, Status: EmployeeActive,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid employee rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Employee)
	}{
		{"short name", func(e *Employee) { e.Name = "Al" }},
		{"bad email", func(e *Employee) { e.Email = "ana@x" }},
		{"short role", func(e *Employee) { e.Role = "A" }},
		{"no department", func(e *Employee) { e.Department = " " }},
		{"no admission", func(e *Employee) { e.AdmissionDate = "" }},
		{"bad birth date", func(e *Employee) { e.BirthDate = "20/03/1990" }},
		{"negative salary", func(e *Employee) { e.Salary = -1 }},
		{"unknown status", func(e *Employee) { e.Status = "demitido" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestJobOpeningValidate(t *testing.T) {
	v := JobOpening{
		Title:       "Analista de Marketing",
		Department:  "Marketing",
		Description: "Gestão de campanhas digitais e branding",
	}
	if err := v.Validate(); err != nil {
		t.Fatalf("valid vacancy rejected: %v", err)
	}
	v.Description = "curta"
	if err := v.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("short description: %v, want ErrInvalid", err)
	}
}

func TestReviewValidate(t *testing.T) {
	r := Review{EmployeeID: "e1", Score: 11}
	if err := r.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("score 11: %v, want ErrInvalid", err)
	}
	r.Score = 9
	if err := r.Validate(); err != nil {
		t.Errorf("score 9: %v", err)
	}
}

func TestCandidateLookup(t *testing.T) {
	v := JobOpening{Candidates: []Candidate{{ID: "a"}, {ID: "b"}}}
	if got := v.Candidate("b"); got != 1 {
		t.Errorf("Candidate(b) = %d, want 1", got)
	}
	if got := v.Candidate("z"); got != -1 {
		t.Errorf("Candidate(z) = %d, want -1", got)
	}
}
