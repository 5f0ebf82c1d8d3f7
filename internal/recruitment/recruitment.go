// Package recruitment manages job openings and the candidates embedded in
// them.
package recruitment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
)

var ErrCandidateNotFound = errors.New("candidate not found")

// Service works on the vagas collection of a record store.
type Service struct {
	store *recordstore.Store
}

func New(store *recordstore.Store) *Service {
	return &Service{store: store}
}

// AddCandidate appends c to the vacancy. The candidate gets a fresh id, the
// em_analise status and the registration time.
func (s *Service) AddCandidate(ctx context.Context, vacancyID string, c hr.Candidate) (hr.Candidate, error) {
	if err := c.Validate(); err != nil {
		return hr.Candidate{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return hr.Candidate{}, fmt.Errorf("generating candidate id: %w", err)
	}
	c.ID = id.String()
	c.Status = hr.CandidateInReview

	var added hr.Candidate
	_, err = s.store.Vacancies().Modify(ctx, vacancyID, func(v *hr.JobOpening) error {
		c.RegisteredAt = s.store.Now().UTC()
		v.Candidates = append(v.Candidates, c)
		added = c
		return nil
	})
	if err != nil {
		return hr.Candidate{}, err
	}
	return added, nil
}

// SetCandidateStatus moves one candidate to status.
func (s *Service) SetCandidateStatus(ctx context.Context, vacancyID, candidateID string, status hr.CandidateStatus) (hr.Candidate, error) {
	if !status.Valid() {
		return hr.Candidate{}, fmt.Errorf("%w: unknown candidate status %q", hr.ErrInvalid, status)
	}
	var out hr.Candidate
	_, err := s.store.Vacancies().Modify(ctx, vacancyID, func(v *hr.JobOpening) error {
		i := v.Candidate(candidateID)
		if i < 0 {
			return fmt.Errorf("%w: %q in vacancy %q", ErrCandidateNotFound, candidateID, vacancyID)
		}
		v.Candidates[i].Status = status
		out = v.Candidates[i]
		return nil
	})
	return out, err
}

func (s *Service) RemoveCandidate(ctx context.Context, vacancyID, candidateID string) error {
	_, err := s.store.Vacancies().Modify(ctx, vacancyID, func(v *hr.JobOpening) error {
		i := v.Candidate(candidateID)
		if i < 0 {
			return fmt.Errorf("%w: %q in vacancy %q", ErrCandidateNotFound, candidateID, vacancyID)
		}
		v.Candidates = append(v.Candidates[:i], v.Candidates[i+1:]...)
		return nil
	})
	return err
}

// ToggleStatus closes an open vacancy and reopens any other.
func (s *Service) ToggleStatus(ctx context.Context, vacancyID string) (hr.JobOpening, error) {
	return s.store.Vacancies().Modify(ctx, vacancyID, func(v *hr.JobOpening) error {
		if v.Status == hr.VacancyOpen {
			v.Status = hr.VacancyClosed
		} else {
			v.Status = hr.VacancyOpen
		}
		return nil
	})
}

type Stats struct {
	TotalVacancies  int `json:"totalVagas"`
	OpenVacancies   int `json:"vagasAbertas"`
	FilledVacancies int `json:"vagasPreenchidas"`
	TotalCandidates int `json:"totalCandidatos"`
	ConversionRate  int `json:"taxaConversao"` // hired / candidates, percent
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	vagas, err := s.store.Vacancies().List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(vagas), nil
}

// ComputeStats summarizes vagas. It is exported for callers that already
// hold the list.
func ComputeStats(vagas []hr.JobOpening) Stats {
	st := Stats{TotalVacancies: len(vagas)}
	hired := 0
	for _, v := range vagas {
		switch v.Status {
		case hr.VacancyOpen:
			st.OpenVacancies++
		case hr.VacancyFilled:
			st.FilledVacancies++
		}
		st.TotalCandidates += len(v.Candidates)
		for _, c := range v.Candidates {
			if c.Status == hr.CandidateHired {
				hired++
			}
		}
	}
	if st.TotalCandidates > 0 {
		st.ConversionRate = int(math.Floor(float64(hired)/float64(st.TotalCandidates)*100 + 0.5))
	}
	return st
}

type Report struct {
	GeneratedAt          time.Time      `json:"dataGeracao"`
	TotalVacancies       int            `json:"totalVagas"`
	ByDepartment         map[string]int `json:"vagasPorDepartamento"`
	ByStatus             map[string]int `json:"vagasPorStatus"`
	CandidatesPerVacancy map[string]int `json:"candidatosPorVaga"` // keyed by title
}

func (s *Service) Report(ctx context.Context) (Report, error) {
	vagas, err := s.store.Vacancies().List(ctx)
	if err != nil {
		return Report{}, err
	}
	r := Report{
		GeneratedAt:          s.store.Now().UTC(),
		TotalVacancies:       len(vagas),
		ByDepartment:         map[string]int{},
		ByStatus:             map[string]int{},
		CandidatesPerVacancy: map[string]int{},
	}
	for _, v := range vagas {
		r.ByDepartment[v.Department]++
		r.ByStatus[string(v.Status)]++
		r.CandidatesPerVacancy[v.Title] = len(v.Candidates)
	}
	return r, nil
}
