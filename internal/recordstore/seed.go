package recordstore

import (
	"context"

	"github.com/softrh/softrh/internal/hr"
)

var (
	sampleEmployees = []hr.Employee{
		{
			Name: "João Silva", Email: "joao.silva@empresa.com", Phone: "(11) 98765-4321",
			Role: "Desenvolvedor Sênior", Department: "TI", Salary: 8500,
			AdmissionDate: "2023-01-15", BirthDate: "1990-03-20", Status: hr.EmployeeActive,
		},
		{
			Name: "Maria Santos", Email: "maria.santos@empresa.com", Phone: "(11) 99876-5432",
			Role: "Gerente de RH", Department: "RH", Salary: 7200,
			AdmissionDate: "2022-08-10", BirthDate: "1985-07-12", Status: hr.EmployeeActive,
		},
		{
			Name: "Pedro Oliveira", Email: "pedro.oliveira@empresa.com", Phone: "(11) 91234-5678",
			Role: "Analista de Vendas", Department: "Vendas", Salary: 4500,
			AdmissionDate: "2024-02-01", BirthDate: "1992-11-05", Status: hr.EmployeeActive,
		},
	}

	sampleVacancies = []hr.JobOpening{
		{
			Title: "Desenvolvedor Full Stack", Department: "TI",
			Description:  "Desenvolvimento de aplicações web modernas",
			Requirements: "Conhecimento em JavaScript, Python, banco de dados",
			SalaryRange:  "6000-8000", Type: "CLT", Location: "São Paulo - SP",
			Status: hr.VacancyOpen,
		},
		{
			Title: "Analista de Marketing", Department: "Marketing",
			Description:  "Gestão de campanhas digitais e branding",
			Requirements: "Conhecimento em Google Ads, Facebook Ads",
			SalaryRange:  "4000-5500", Type: "CLT", Location: "São Paulo - SP",
			Status: hr.VacancyOpen,
		},
	}

	sampleReviews = []struct {
		employee int
		review   hr.Review
	}{
		{0, hr.Review{
			Type: "Avaliação Trimestral", Score: 8, Date: "2024-01-30",
			Notes: "Excelente desempenho no desenvolvimento de novas funcionalidades.",
		}},
		{1, hr.Review{
			Type: "Avaliação Trimestral", Score: 9, Date: "2024-01-28",
			Notes: "Líder exemplar, demonstrou excelência na gestão da equipe.",
		}},
	}
)

// Seed fills an empty store with sample employees, vacancies and reviews.
// It does nothing and reports false when any employee exists.
func Seed(ctx context.Context, s *Store) (bool, error) {
	existing, err := s.Employees().List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	added := make([]hr.Employee, 0, len(sampleEmployees))
	for _, e := range sampleEmployees {
		rec, err := s.Employees().Add(ctx, e)
		if err != nil {
			return false, err
		}
		added = append(added, rec)
	}
	for _, v := range sampleVacancies {
		if _, err := s.Vacancies().Add(ctx, v); err != nil {
			return false, err
		}
	}
	for _, sr := range sampleReviews {
		r := sr.review
		r.EmployeeID = added[sr.employee].ID
		r.EmployeeName = added[sr.employee].Name
		if _, err := s.Reviews().Add(ctx, r); err != nil {
			return false, err
		}
	}

	s.log.Info("seeded sample data",
		"employees", len(sampleEmployees), "vacancies", len(sampleVacancies), "reviews", len(sampleReviews))
	return true, nil
}
