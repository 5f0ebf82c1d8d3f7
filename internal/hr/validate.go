package hr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalid marks input rejected by a Validate method.
var ErrInvalid = errors.New("invalid record")

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate applies the checks a new or edited employee must pass.
func (e Employee) Validate() error {
	if len([]rune(strings.TrimSpace(e.Name))) < 3 {
		return invalid("name must have at least 3 characters")
	}
	if !emailRe.MatchString(e.Email) {
		return invalid("invalid email %q", e.Email)
	}
	if len([]rune(strings.TrimSpace(e.Role))) < 2 {
		return invalid("role must have at least 2 characters")
	}
	if strings.TrimSpace(e.Department) == "" {
		return invalid("department is required")
	}
	if _, ok := ParseDate(e.AdmissionDate); !ok {
		return invalid("admission date is required (YYYY-MM-DD)")
	}
	if e.BirthDate != "" {
		if _, ok := ParseDate(e.BirthDate); !ok {
			return invalid("birth date %q is not YYYY-MM-DD", e.BirthDate)
		}
	}
	if e.Salary < 0 {
		return invalid("salary cannot be negative")
	}
	switch e.Status {
	case "", EmployeeActive, EmployeeOnVacation, EmployeeAway:
	default:
		return invalid("unknown status %q", e.Status)
	}
	return nil
}

// Validate applies the checks a published job opening must pass.
func (j JobOpening) Validate() error {
	if len([]rune(strings.TrimSpace(j.Title))) < 5 {
		return invalid("title must have at least 5 characters")
	}
	if strings.TrimSpace(j.Department) == "" {
		return invalid("department is required")
	}
	if len([]rune(strings.TrimSpace(j.Description))) < 20 {
		return invalid("description must have at least 20 characters")
	}
	switch j.Status {
	case "", VacancyOpen, VacancyClosed, VacancyPaused, VacancyFilled:
	default:
		return invalid("unknown status %q", j.Status)
	}
	return nil
}

func (r Review) Validate() error {
	if r.EmployeeID == "" {
		return invalid("employee id is required")
	}
	if r.Score < 0 || r.Score > 10 {
		return invalid("score must be between 0 and 10")
	}
	if r.Date != "" {
		if _, ok := ParseDate(r.Date); !ok {
			return invalid("date %q is not YYYY-MM-DD", r.Date)
		}
	}
	return nil
}

func (c Candidate) Validate() error {
	if len([]rune(strings.TrimSpace(c.Name))) < 3 {
		return invalid("candidate name must have at least 3 characters")
	}
	if c.Email != "" && !emailRe.MatchString(c.Email) {
		return invalid("invalid email %q", c.Email)
	}
	if c.Status != "" && !c.Status.Valid() {
		return invalid("unknown candidate status %q", c.Status)
	}
	return nil
}
