// Package dashboard derives the read-only views of the HR overview: alerts,
// breakdowns, upcoming dates and the snapshot pushed to live clients.
package dashboard

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/recruitment"
)

const (
	// UpcomingWindowDays is how far ahead birthdays and reviews are listed.
	UpcomingWindowDays = 30

	reviewOverdueMonths    = 6
	staleVacancyDays       = 90
	vacationShareThreshold = 0.2
)

type Service struct {
	store *recordstore.Store
}

func New(store *recordstore.Store) *Service {
	return &Service{store: store}
}

type Level string

const (
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

type Alert struct {
	Level       Level  `json:"tipo"`
	Title       string `json:"titulo"`
	Description string `json:"descricao"`
}

func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	v, err := s.store.View(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeAlerts(v.Employees, v.Vacancies, v.Reviews, v.Now), nil
}

// ComputeAlerts flags employees without a review in six months, vacancies
// open for more than 90 days, and more than a fifth of the staff on vacation.
func ComputeAlerts(emps []hr.Employee, vagas []hr.JobOpening, reviews []hr.Review, now time.Time) []Alert {
	alerts := []Alert{}

	latest := map[string]time.Time{}
	for _, r := range reviews {
		d, ok := hr.ParseDate(r.Date)
		if !ok {
			continue
		}
		if cur, seen := latest[r.EmployeeID]; !seen || d.After(cur) {
			latest[r.EmployeeID] = d
		}
	}
	overdue := hr.DateOf(now).AddDate(0, -reviewOverdueMonths, 0)
	for _, e := range emps {
		if d, ok := latest[e.ID]; !ok || d.Before(overdue) {
			alerts = append(alerts, Alert{
				Level:       LevelWarning,
				Title:       "Avaliação Pendente",
				Description: fmt.Sprintf("%s está sem avaliação há mais de %d meses", e.Name, reviewOverdueMonths),
			})
		}
	}

	stale := now.AddDate(0, 0, -staleVacancyDays)
	for _, v := range vagas {
		if v.Status == hr.VacancyOpen && !v.CreatedAt.IsZero() && v.CreatedAt.Before(stale) {
			alerts = append(alerts, Alert{
				Level:       LevelInfo,
				Title:       "Vaga Aberta Há Muito Tempo",
				Description: fmt.Sprintf("%s está aberta há mais de %d dias", v.Title, staleVacancyDays),
			})
		}
	}

	away := 0
	for _, e := range emps {
		if e.Status == hr.EmployeeOnVacation {
			away++
		}
	}
	if len(emps) > 0 && float64(away) > float64(len(emps))*vacationShareThreshold {
		pct := int(math.Floor(float64(away)/float64(len(emps))*100 + 0.5))
		alerts = append(alerts, Alert{
			Level:       LevelWarning,
			Title:       "Muitos Funcionários de Férias",
			Description: fmt.Sprintf("%d funcionários estão de férias (%d%%)", away, pct),
		})
	}
	return alerts
}

// ByDepartment counts employees per department.
func ByDepartment(emps []hr.Employee) map[string]int {
	out := map[string]int{}
	for _, e := range emps {
		out[e.Department]++
	}
	return out
}

// ByStatus counts employees per status. The three known statuses are always
// present.
func ByStatus(emps []hr.Employee) map[hr.EmployeeStatus]int {
	out := map[hr.EmployeeStatus]int{
		hr.EmployeeActive:     0,
		hr.EmployeeOnVacation: 0,
		hr.EmployeeAway:       0,
	}
	for _, e := range emps {
		out[e.Status]++
	}
	return out
}

type Birthday struct {
	EmployeeID string `json:"funcionarioId"`
	Name       string `json:"nome"`
	Date       string `json:"data"` // next occurrence, YYYY-MM-DD
}

// UpcomingBirthdays lists birthdays falling within days of now, soonest
// first. A birthday already past this year counts at its next year's date.
func UpcomingBirthdays(emps []hr.Employee, now time.Time, days int) []Birthday {
	today := hr.DateOf(now)
	limit := today.AddDate(0, 0, days)
	out := []Birthday{}
	for _, e := range emps {
		born, ok := hr.ParseDate(e.BirthDate)
		if !ok {
			continue
		}
		next := time.Date(today.Year(), born.Month(), born.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(today) {
			next = next.AddDate(1, 0, 0)
		}
		if next.After(limit) {
			continue
		}
		out = append(out, Birthday{EmployeeID: e.ID, Name: e.Name, Date: hr.FormatDate(next)})
	}
	slices.SortStableFunc(out, func(a, b Birthday) int { return cmp.Compare(a.Date, b.Date) })
	return out
}

// BirthdaysThisMonth lists employees born in now's month, by day.
func BirthdaysThisMonth(emps []hr.Employee, now time.Time) []Birthday {
	out := []Birthday{}
	for _, e := range emps {
		born, ok := hr.ParseDate(e.BirthDate)
		if !ok || born.Month() != now.Month() {
			continue
		}
		d := time.Date(now.Year(), born.Month(), born.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, Birthday{EmployeeID: e.ID, Name: e.Name, Date: hr.FormatDate(d)})
	}
	slices.SortStableFunc(out, func(a, b Birthday) int { return cmp.Compare(a.Date, b.Date) })
	return out
}

type MonthCount struct {
	Month string `json:"mes"` // YYYY-MM
	Count int    `json:"total"`
}

// HiresByMonth counts admissions per calendar month in chronological order.
// Employees without a parsable admission date are left out.
func HiresByMonth(emps []hr.Employee) []MonthCount {
	counts := map[string]int{}
	for _, e := range emps {
		if d, ok := hr.ParseDate(e.AdmissionDate); ok {
			counts[d.Format("2006-01")]++
		}
	}
	out := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, MonthCount{Month: m, Count: n})
	}
	slices.SortFunc(out, func(a, b MonthCount) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

type Band struct {
	Label string `json:"faixa"`
	Count int    `json:"total"`
}

var bands = []struct {
	label string
	floor hr.Amount
}{
	{"Excelente (9-10)", 9},
	{"Bom (7-8)", 7},
	{"Regular (5-6)", 5},
	{"Ruim (3-4)", 3},
	{"Péssimo (1-2)", hr.Amount(math.Inf(-1))},
}

// SatisfactionBands buckets review scores, best band first. Every band is
// present.
func SatisfactionBands(reviews []hr.Review) []Band {
	out := make([]Band, len(bands))
	for i, b := range bands {
		out[i].Label = b.label
	}
	for _, r := range reviews {
		for i, b := range bands {
			if r.Score >= b.floor {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// UpcomingReviews lists reviews dated within days of now, soonest first.
func UpcomingReviews(reviews []hr.Review, now time.Time, days int) []hr.Review {
	today := hr.DateOf(now)
	limit := today.AddDate(0, 0, days)
	out := []hr.Review{}
	for _, r := range reviews {
		d, ok := hr.ParseDate(r.Date)
		if !ok || d.Before(today) || d.After(limit) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b hr.Review) int {
		da, _ := hr.ParseDate(a.Date)
		db, _ := hr.ParseDate(b.Date)
		return da.Compare(db)
	})
	return out
}

// Snapshot is what live dashboard clients receive after every change.
type Snapshot struct {
	GeneratedAt  time.Time              `json:"dataGeracao"`
	Statistics   recordstore.Statistics `json:"estatisticas"`
	Alerts       []Alert                `json:"alertas"`
	Recruitment  recruitment.Stats      `json:"recrutamento"`
	ByDepartment map[string]int         `json:"porDepartamento"`
	Birthdays    []Birthday             `json:"proximosAniversarios"`
	ReviewsSoon  []hr.Review            `json:"proximasAvaliacoes"`
	HiresByMonth []MonthCount           `json:"contratacoesPorMes"`
	Satisfaction []Band                 `json:"satisfacao"`
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	v, err := s.store.View(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		GeneratedAt:  v.Now.UTC(),
		Statistics:   v.Statistics,
		Alerts:       ComputeAlerts(v.Employees, v.Vacancies, v.Reviews, v.Now),
		Recruitment:  recruitment.ComputeStats(v.Vacancies),
		ByDepartment: ByDepartment(v.Employees),
		Birthdays:    UpcomingBirthdays(v.Employees, v.Now, UpcomingWindowDays),
		ReviewsSoon:  UpcomingReviews(v.Reviews, v.Now, UpcomingWindowDays),
		HiresByMonth: HiresByMonth(v.Employees),
		Satisfaction: SatisfactionBands(v.Reviews),
	}, nil
}

type exportDoc struct {
	Statistics recordstore.Statistics `json:"estatisticas"`
	Employees  []hr.Employee          `json:"funcionarios"`
	Vacancies  []hr.JobOpening        `json:"vagas"`
	Reviews    []hr.Review            `json:"avaliacoes"`
	ExportedAt time.Time              `json:"dataExportacao"`
}

// Export renders the dashboard data as indented JSON.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	v, err := s.store.View(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(exportDoc{
		Statistics: v.Statistics,
		Employees:  v.Employees,
		Vacancies:  v.Vacancies,
		Reviews:    v.Reviews,
		ExportedAt: v.Now.UTC(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding dashboard export: %w", err)
	}
	return out, nil
}

// ExportFileName is the suggested name for a dashboard export taken at now.
func ExportFileName(now time.Time) string {
	return "dashboard-soft-rh-" + now.UTC().Format(hr.DateLayout) + ".json"
}
