package recordstore

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/softrh/softrh/internal/hr"
)

func anaLima() hr.Employee {
	return hr.Employee{
		Name:          "Ana Lima",
		Email:         "ana@x.com",
		Role:          "Dev",
		Department:    "TI",
		Salary:        5000,
		AdmissionDate: "2024-01-10",
		Status:        hr.EmployeeActive,
	}
}

func TestAddThenGet(t *testing.T) {
	s, _, _ := newTestStore(t)

	added, err := s.Employees().Add(ctx, anaLima())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == "" {
		t.Fatal("Add did not assign an id")
	}
	if !added.CreatedAt.Equal(testNow) || !added.UpdatedAt.Equal(added.CreatedAt) {
		t.Errorf("timestamps = %v / %v, want both %v", added.CreatedAt, added.UpdatedAt, testNow)
	}

	got, err := s.Employees().Get(ctx, added.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := anaLima()
	want.Record = got.Record
	if got != want {
		t.Errorf("Get = %+v\nwant  %+v", got, want)
	}
	if got.ID != added.ID || !got.CreatedAt.Equal(added.CreatedAt) {
		t.Errorf("stored record differs from returned one: %+v vs %+v", got.Record, added.Record)
	}
}

func TestAddReplacesCallerIDAndTimestamps(t *testing.T) {
	s, _, _ := newTestStore(t)

	in := anaLima()
	in.ID = "mine"
	in.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	added, err := s.Employees().Add(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if added.ID == "mine" {
		t.Error("caller id was kept")
	}
	if !added.CreatedAt.Equal(testNow) {
		t.Errorf("dataCriacao = %v, want %v", added.CreatedAt, testNow)
	}
}

func TestAddDistinctIDs(t *testing.T) {
	s, _, _ := newTestStore(t)

	const n = 30
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Trainings().Add(ctx, hr.Training{Title: "NR-10"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Add: %v", err)
	}

	list, err := s.Trainings().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != n {
		t.Fatalf("len = %d, want %d", len(list), n)
	}
	seen := map[string]bool{}
	for _, tr := range list {
		if seen[tr.ID] {
			t.Fatalf("duplicate id %s", tr.ID)
		}
		seen[tr.ID] = true
	}
}

func TestListNeverNil(t *testing.T) {
	s, _, _ := newTestStore(t)
	list, err := s.Documents().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if list == nil {
		t.Error("List returned nil")
	}
}

func TestListReturnsCopy(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.Employees().Add(ctx, anaLima())

	list, _ := s.Employees().List(ctx)
	list[0].Name = "changed"
	again, _ := s.Employees().List(ctx)
	if again[0].Name != "Ana Lima" {
		t.Error("mutating the returned slice changed the store")
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	s, clock, _ := newTestStore(t)
	added, _ := s.Employees().Add(ctx, anaLima())

	clock.Advance(2 * time.Hour)
	got, err := s.Employees().Update(ctx, added.ID, Patch{
		"cargo":       "Tech Lead",
		"salario":     "7500.50",
		"id":          "hijack",
		"dataCriacao": "2000-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got.Role != "Tech Lead" || got.Salary != 7500.50 {
		t.Errorf("patched fields = %q / %v", got.Role, got.Salary)
	}
	if got.Name != "Ana Lima" || got.Department != "TI" || got.AdmissionDate != "2024-01-10" {
		t.Errorf("absent fields not preserved: %+v", got)
	}
	if got.ID != added.ID {
		t.Errorf("id changed to %q", got.ID)
	}
	if !got.CreatedAt.Equal(added.CreatedAt) {
		t.Errorf("dataCriacao changed to %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(testNow.Add(2 * time.Hour)) {
		t.Errorf("dataAtualizacao = %v", got.UpdatedAt)
	}

	stored, _ := s.Employees().Get(ctx, added.ID)
	if stored.Role != "Tech Lead" {
		t.Errorf("update not persisted: %+v", stored)
	}
}

func TestUpdateTimestampNeverGoesBack(t *testing.T) {
	s, clock, _ := newTestStore(t)
	added, _ := s.Employees().Add(ctx, anaLima())

	clock.Advance(-time.Hour)
	got, err := s.Employees().Update(ctx, added.ID, Patch{"cargo": "QA"})
	if err != nil {
		t.Fatal(err)
	}
	if got.UpdatedAt.Before(added.UpdatedAt) {
		t.Errorf("dataAtualizacao went back: %v < %v", got.UpdatedAt, added.UpdatedAt)
	}
}

func TestUpdateReplacesNestedWholesale(t *testing.T) {
	s, _, _ := newTestStore(t)
	v, err := s.Vacancies().Add(ctx, hr.JobOpening{
		Title: "Dev",
		Candidates: []hr.Candidate{
			{Name: "Carla"},
			{Name: "Diego"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Vacancies().Update(ctx, v.ID, Patch{
		"candidatos": []map[string]any{{"id": "c1", "nome": "Eva", "status": "aprovado"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Name != "Eva" {
		t.Errorf("candidatos = %+v, want only Eva", got.Candidates)
	}
}

func TestUpdateFillsDefaultsOfPatchedCandidates(t *testing.T) {
	s, _, _ := newTestStore(t)
	v, err := s.Vacancies().Add(ctx, hr.JobOpening{Title: "Dev"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Vacancies().Update(ctx, v.ID, Patch{
		"candidatos": []map[string]any{
			{"nome": "Bia Souza"},
			{"id": "c1", "nome": "Eva", "status": "aprovado"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Candidates) != 2 {
		t.Fatalf("candidatos = %+v", got.Candidates)
	}
	bia := got.Candidates[0]
	if bia.ID == "" || bia.Status != hr.CandidateInReview || bia.RegisteredAt.IsZero() {
		t.Errorf("patched candidate = %+v, want id, status and dataCadastro filled", bia)
	}
	if eva := got.Candidates[1]; eva.ID != "c1" || eva.Status != hr.CandidateApproved {
		t.Errorf("explicit candidate fields overwritten: %+v", eva)
	}

	stored, err := s.Vacancies().Get(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if i := stored.Candidate(bia.ID); i != 0 {
		t.Errorf("Candidate(%q) = %d, want 0", bia.ID, i)
	}
}

func TestUpdateNullClearsField(t *testing.T) {
	s, _, _ := newTestStore(t)
	e := anaLima()
	e.Phone = "(11) 1234-5678"
	added, _ := s.Employees().Add(ctx, e)

	got, err := s.Employees().Update(ctx, added.ID, Patch{"telefone": nil})
	if err != nil {
		t.Fatal(err)
	}
	if got.Phone != "" {
		t.Errorf("telefone = %q, want cleared", got.Phone)
	}
}

func TestUpdateInvalidPatch(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
	}{
		{"unknown field", Patch{"apelido": "Aninha"}},
		{"wrong type", Patch{"status": 5}},
		{"nested wrong type", Patch{"nome": map[string]any{"first": "Ana"}}},
		{"unencodable", Patch{"nome": make(chan int)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, kv := newTestStore(t)
			added, _ := s.Employees().Add(ctx, anaLima())
			before := rawDoc(t, kv)

			if _, err := s.Employees().Update(ctx, added.ID, tt.patch); !errors.Is(err, ErrInvalidPatch) {
				t.Errorf("error = %v, want ErrInvalidPatch", err)
			}
			if rawDoc(t, kv) != before {
				t.Error("document changed")
			}
		})
	}
}

func TestMissingIDIsNotFound(t *testing.T) {
	s, _, kv := newTestStore(t)
	s.Employees().Add(ctx, anaLima())
	before := rawDoc(t, kv)

	if _, err := s.Employees().Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v", err)
	}
	if _, err := s.Employees().Update(ctx, "nope", Patch{"nome": "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update error = %v", err)
	}
	if _, err := s.Employees().Modify(ctx, "nope", func(*hr.Employee) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Modify error = %v", err)
	}
	if err := s.Employees().Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v", err)
	}
	if rawDoc(t, kv) != before {
		t.Error("document changed by operations on a missing id")
	}
}

func TestDelete(t *testing.T) {
	s, _, _ := newTestStore(t)
	a, _ := s.Employees().Add(ctx, anaLima())
	b, _ := s.Employees().Add(ctx, hr.Employee{Name: "Bruno"})

	if err := s.Employees().Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ := s.Employees().List(ctx)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("list after delete = %+v", list)
	}
	if _, err := s.Employees().Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
}

func TestDeleteDoesNotCascade(t *testing.T) {
	s, _, _ := newTestStore(t)
	e, _ := s.Employees().Add(ctx, anaLima())
	s.Reviews().Add(ctx, hr.Review{EmployeeID: e.ID, EmployeeName: e.Name, Score: 8})

	if err := s.Employees().Delete(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	reviews, _ := s.Reviews().List(ctx)
	if len(reviews) != 1 || reviews[0].EmployeeID != e.ID {
		t.Errorf("reviews = %+v, want the orphaned review kept", reviews)
	}
}

func TestModifyAbort(t *testing.T) {
	s, _, kv := newTestStore(t)
	e, _ := s.Employees().Add(ctx, anaLima())
	before := rawDoc(t, kv)

	errStop := errors.New("stop")
	_, err := s.Employees().Modify(ctx, e.ID, func(p *hr.Employee) error {
		p.Name = "changed"
		return errStop
	})
	if err != errStop {
		t.Errorf("error = %v, want errStop unwrapped", err)
	}
	if rawDoc(t, kv) != before {
		t.Error("aborted Modify wrote the document")
	}
}

func TestChecksAbort(t *testing.T) {
	s, _, _ := newTestStore(t)
	e, _ := s.Employees().Add(ctx, anaLima())

	errFull := errors.New("full")
	_, err := s.Employees().AddChecked(ctx, hr.Employee{Name: "B"}, func(existing []hr.Employee) error {
		if len(existing) >= 1 {
			return errFull
		}
		return nil
	})
	if !errors.Is(err, errFull) {
		t.Errorf("AddChecked error = %v", err)
	}

	errKeep := errors.New("keep")
	err = s.Employees().DeleteChecked(ctx, e.ID, func(hr.Employee) error { return errKeep })
	if !errors.Is(err, errKeep) {
		t.Errorf("DeleteChecked error = %v", err)
	}

	list, _ := s.Employees().List(ctx)
	if len(list) != 1 {
		t.Errorf("len = %d, want 1", len(list))
	}
}

func TestTypeDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)

	v, err := s.Vacancies().Add(ctx, hr.JobOpening{
		Title:      "Dev",
		Candidates: []hr.Candidate{{Name: "Carla"}, {ID: "keep", Name: "Diego", Status: hr.CandidateApproved}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Status != hr.VacancyOpen {
		t.Errorf("vacancy status = %q", v.Status)
	}
	c := v.Candidates[0]
	if c.ID == "" || c.Status != hr.CandidateInReview || !c.RegisteredAt.Equal(testNow) {
		t.Errorf("candidate defaults = %+v", c)
	}
	if v.Candidates[1].ID != "keep" || v.Candidates[1].Status != hr.CandidateApproved {
		t.Errorf("explicit candidate fields overwritten: %+v", v.Candidates[1])
	}

	empty, _ := s.Vacancies().Add(ctx, hr.JobOpening{Title: "QA", Status: hr.VacancyPaused})
	if empty.Candidates == nil || empty.Status != hr.VacancyPaused {
		t.Errorf("vacancy = %+v", empty)
	}

	tr, _ := s.Trainings().Add(ctx, hr.Training{Title: "NR-35"})
	if tr.Participants == nil {
		t.Error("participantes is nil")
	}

	doc, _ := s.Documents().Add(ctx, hr.Document{Type: hr.DocContract})
	if doc.Status != "ativo" {
		t.Errorf("document status = %q", doc.Status)
	}

	vac, _ := s.Vacations().Add(ctx, hr.VacationRequest{Days: 10})
	if vac.Status != hr.VacationPending {
		t.Errorf("vacation status = %q", vac.Status)
	}

	emp, _ := s.Employees().Add(ctx, hr.Employee{Name: "Sem status"})
	if emp.Status != "" {
		t.Errorf("employee status defaulted to %q", emp.Status)
	}
}
