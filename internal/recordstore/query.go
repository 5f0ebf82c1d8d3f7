package recordstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/softrh/softrh/internal/hr"
)

// SearchEmployees matches term case-insensitively against name, email, role
// and department. A blank term returns every employee.
func (s *Store) SearchEmployees(ctx context.Context, term string) ([]hr.Employee, error) {
	all, err := s.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all, nil
	}

	out := []hr.Employee{}
	for _, e := range all {
		for _, f := range []string{e.Name, e.Email, e.Role, e.Department} {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// EmployeeFilter is conjunctive; zero fields match everything. Admission
// bounds are YYYY-MM-DD and inclusive.
type EmployeeFilter struct {
	Department   string
	Status       hr.EmployeeStatus
	AdmittedFrom string
	AdmittedTo   string
}

func parseBound(name, v string) (time.Time, bool, error) {
	if v == "" {
		return time.Time{}, false, nil
	}
	t, ok := hr.ParseDate(v)
	if !ok {
		return time.Time{}, false, fmt.Errorf("%w: %s %q is not YYYY-MM-DD", ErrInvalidQuery, name, v)
	}
	return t, true, nil
}

func (s *Store) FilterEmployees(ctx context.Context, f EmployeeFilter) ([]hr.Employee, error) {
	from, hasFrom, err := parseBound("admitted from", f.AdmittedFrom)
	if err != nil {
		return nil, err
	}
	to, hasTo, err := parseBound("admitted to", f.AdmittedTo)
	if err != nil {
		return nil, err
	}

	all, err := s.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []hr.Employee{}
	for _, e := range all {
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if hasFrom || hasTo {
			adm, ok := hr.ParseDate(e.AdmissionDate)
			if !ok {
				continue
			}
			if hasFrom && adm.Before(from) {
				continue
			}
			if hasTo && adm.After(to) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}
