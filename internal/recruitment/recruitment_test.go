package recruitment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/storage"
)

var ctx = context.Background()

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *recordstore.Store) {
	t.Helper()
	kv, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	st, err := recordstore.New(ctx, kv, recordstore.WithClock(fixedClock(testNow)))
	if err != nil {
		t.Fatal(err)
	}
	return New(st), st
}

func addVacancy(t *testing.T, st *recordstore.Store, v hr.JobOpening) hr.JobOpening {
	t.Helper()
	added, err := st.Vacancies().Add(ctx, v)
	if err != nil {
		t.Fatal(err)
	}
	return added
}

func TestAddCandidate(t *testing.T) {
	svc, st := newTestService(t)
	v := addVacancy(t, st, hr.JobOpening{Title: "Desenvolvedor Go", Department: "TI"})

	c, err := svc.AddCandidate(ctx, v.ID, hr.Candidate{
		ID:     "ignored",
		Name:   "Carla Souza",
		Email:  "carla@x.com",
		Status: hr.CandidateHired,
	})
	if err != nil {
		t.Fatalf("AddCandidate: %v", err)
	}
	if c.ID == "" || c.ID == "ignored" {
		t.Errorf("candidate id = %q", c.ID)
	}
	if c.Status != hr.CandidateInReview {
		t.Errorf("status = %q, want em_analise", c.Status)
	}
	if !c.RegisteredAt.Equal(testNow) {
		t.Errorf("dataCadastro = %v", c.RegisteredAt)
	}

	stored, _ := st.Vacancies().Get(ctx, v.ID)
	if len(stored.Candidates) != 1 || stored.Candidates[0].ID != c.ID {
		t.Errorf("candidates = %+v", stored.Candidates)
	}
}

func TestAddCandidateErrors(t *testing.T) {
	svc, st := newTestService(t)
	v := addVacancy(t, st, hr.JobOpening{Title: "Desenvolvedor Go"})

	if _, err := svc.AddCandidate(ctx, v.ID, hr.Candidate{Name: "Al"}); !errors.Is(err, hr.ErrInvalid) {
		t.Errorf("short name error = %v", err)
	}
	if _, err := svc.AddCandidate(ctx, v.ID, hr.Candidate{Name: "Carla", Email: "nope"}); !errors.Is(err, hr.ErrInvalid) {
		t.Errorf("bad email error = %v", err)
	}
	if _, err := svc.AddCandidate(ctx, "missing", hr.Candidate{Name: "Carla"}); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("missing vacancy error = %v", err)
	}
}

func TestCandidateStatusAndRemoval(t *testing.T) {
	svc, st := newTestService(t)
	v := addVacancy(t, st, hr.JobOpening{Title: "Desenvolvedor Go"})
	a, _ := svc.AddCandidate(ctx, v.ID, hr.Candidate{Name: "Carla"})
	b, _ := svc.AddCandidate(ctx, v.ID, hr.Candidate{Name: "Diego"})

	got, err := svc.SetCandidateStatus(ctx, v.ID, b.ID, hr.CandidateApproved)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != b.ID || got.Status != hr.CandidateApproved {
		t.Errorf("SetCandidateStatus = %+v", got)
	}
	if _, err := svc.SetCandidateStatus(ctx, v.ID, b.ID, "talvez"); !errors.Is(err, hr.ErrInvalid) {
		t.Errorf("invalid status error = %v", err)
	}
	if _, err := svc.SetCandidateStatus(ctx, v.ID, "nobody", hr.CandidateRejected); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("unknown candidate error = %v", err)
	}

	if err := svc.RemoveCandidate(ctx, v.ID, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveCandidate(ctx, v.ID, a.ID); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("second removal error = %v", err)
	}

	stored, _ := st.Vacancies().Get(ctx, v.ID)
	if len(stored.Candidates) != 1 || stored.Candidates[0].ID != b.ID || stored.Candidates[0].Status != hr.CandidateApproved {
		t.Errorf("candidates = %+v", stored.Candidates)
	}
}

func TestToggleStatus(t *testing.T) {
	svc, st := newTestService(t)
	tests := []struct {
		from, want hr.VacancyStatus
	}{
		{hr.VacancyOpen, hr.VacancyClosed},
		{hr.VacancyClosed, hr.VacancyOpen},
		{hr.VacancyPaused, hr.VacancyOpen},
		{hr.VacancyFilled, hr.VacancyOpen},
	}
	for _, tt := range tests {
		v := addVacancy(t, st, hr.JobOpening{Title: "Vaga", Status: tt.from})
		got, err := svc.ToggleStatus(ctx, v.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != tt.want {
			t.Errorf("toggle %s = %s, want %s", tt.from, got.Status, tt.want)
		}
	}
	if _, err := svc.ToggleStatus(ctx, "missing"); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("missing vacancy error = %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	if got := ComputeStats(nil); got != (Stats{}) {
		t.Errorf("empty = %+v", got)
	}

	vagas := []hr.JobOpening{
		{Status: hr.VacancyOpen, Candidates: []hr.Candidate{
			{Status: hr.CandidateHired}, {Status: hr.CandidateInReview}, {Status: hr.CandidateRejected},
		}},
		{Status: hr.VacancyFilled},
		{Status: hr.VacancyOpen},
	}
	want := Stats{TotalVacancies: 3, OpenVacancies: 2, FilledVacancies: 1, TotalCandidates: 3, ConversionRate: 33}
	if got := ComputeStats(vagas); got != want {
		t.Errorf("ComputeStats = %+v, want %+v", got, want)
	}

	vagas[0].Candidates[1].Status = hr.CandidateHired
	if got := ComputeStats(vagas).ConversionRate; got != 67 {
		t.Errorf("taxaConversao = %d, want 67", got)
	}
}

func TestReport(t *testing.T) {
	svc, st := newTestService(t)
	addVacancy(t, st, hr.JobOpening{Title: "Dev Go", Department: "TI", Candidates: []hr.Candidate{{Name: "A"}, {Name: "B"}}})
	addVacancy(t, st, hr.JobOpening{Title: "Dev Web", Department: "TI", Status: hr.VacancyPaused})
	addVacancy(t, st, hr.JobOpening{Title: "Analista", Department: "RH"})

	r, err := svc.Report(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !r.GeneratedAt.Equal(testNow) || r.TotalVacancies != 3 {
		t.Errorf("report header = %v / %d", r.GeneratedAt, r.TotalVacancies)
	}
	if r.ByDepartment["TI"] != 2 || r.ByDepartment["RH"] != 1 {
		t.Errorf("vagasPorDepartamento = %v", r.ByDepartment)
	}
	if r.ByStatus["aberta"] != 2 || r.ByStatus["pausada"] != 1 {
		t.Errorf("vagasPorStatus = %v", r.ByStatus)
	}
	if r.CandidatesPerVacancy["Dev Go"] != 2 || r.CandidatesPerVacancy["Analista"] != 0 {
		t.Errorf("candidatosPorVaga = %v", r.CandidatesPerVacancy)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCandidates != 2 || stats.OpenVacancies != 2 {
		t.Errorf("Stats = %+v", stats)
	}
}
