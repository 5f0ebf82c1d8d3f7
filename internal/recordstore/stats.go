package recordstore

import (
	"context"
	"math"
	"time"

	"github.com/softrh/softrh/internal/hr"
)

// Statistics is computed from the live collections, not from metadata.
type Statistics struct {
	TotalEmployees      int     `json:"totalFuncionarios"`
	NewEmployees        int     `json:"novosFuncionarios"`
	SatisfactionRate    int     `json:"taxaSatisfacao"`
	HRCost              float64 `json:"custoRH"`
	TotalDocuments      int     `json:"totalDocumentos"`
	ExpiringDocuments   int     `json:"documentosVencendo"`
	PendingVacations    int     `json:"feriasPendentes"`
	EmployeesOnVacation int     `json:"funcionariosFerias"`
}

// Window for "new" admissions and "expiring" documents.
const statsWindowDays = 30

func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	d, err := s.load(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return computeStatistics(d, s.clock.Now()), nil
}

// View is the statistics and the lists the dashboard reads, all taken from
// one read of the document.
type View struct {
	Now        time.Time
	Statistics Statistics
	Employees  []hr.Employee
	Vacancies  []hr.JobOpening
	Reviews    []hr.Review
}

func (s *Store) View(ctx context.Context) (View, error) {
	d, err := s.load(ctx)
	if err != nil {
		return View{}, err
	}
	now := s.clock.Now()
	return View{
		Now:        now,
		Statistics: computeStatistics(d, now),
		Employees:  d.Employees,
		Vacancies:  d.Vacancies,
		Reviews:    d.Reviews,
	}, nil
}

func computeStatistics(d *document, now time.Time) Statistics {
	today := hr.DateOf(now)
	st := Statistics{
		TotalEmployees: len(d.Employees),
		TotalDocuments: len(d.Documents),
	}

	for _, e := range d.Employees {
		if adm, ok := hr.ParseDate(e.AdmissionDate); ok {
			if days := hr.DaysBetween(adm, today); days >= 0 && days <= statsWindowDays {
				st.NewEmployees++
			}
		}
		switch e.Status {
		case hr.EmployeeActive:
			st.HRCost += float64(e.Salary)
		case hr.EmployeeOnVacation:
			st.EmployeesOnVacation++
		}
	}

	if n := len(d.Reviews); n > 0 {
		var sum float64
		for _, r := range d.Reviews {
			sum += float64(r.Score)
		}
		st.SatisfactionRate = int(math.Floor(sum/float64(n)*10 + 0.5))
	}

	for _, doc := range d.Documents {
		if exp, ok := hr.ParseDate(doc.ExpiryDate); ok {
			if days := hr.DaysBetween(today, exp); days >= 0 && days <= statsWindowDays {
				st.ExpiringDocuments++
			}
		}
	}

	for _, v := range d.Vacations {
		if v.Status == hr.VacationPending {
			st.PendingVacations++
		}
	}
	return st
}
