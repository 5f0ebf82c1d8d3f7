// Package vacation handles vacation requests and their approval workflow.
package vacation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
)

var (
	ErrOverlappingRequest = errors.New("employee already has an open vacation request for this year")
	ErrNotPending         = errors.New("vacation request is not pending")
)

// DefaultApprover is recorded when no approver name is given.
const DefaultApprover = "Administrador"

// BusinessDays counts the weekdays from start to end, both included.
func BusinessDays(start, end time.Time) int {
	start, end = hr.DateOf(start), hr.DateOf(end)
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

// ElapsedDays is how many days of a vacation starting on start have begun by
// now. A partial day counts as a whole one.
func ElapsedDays(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(math.Ceil(now.Sub(start).Hours() / 24))
}

// Service works on the ferias collection of a record store.
type Service struct {
	store *recordstore.Store
}

func New(store *recordstore.Store) *Service {
	return &Service{store: store}
}

// open reports whether a request still blocks a new one for the same year.
func open(r hr.VacationRequest) bool {
	return r.Status != hr.VacationDenied && r.Status != hr.VacationCompleted
}

// Request files a new pending request. Days default to the business-day
// count of the period and the year to the start date's year.
func (s *Service) Request(ctx context.Context, r hr.VacationRequest) (hr.VacationRequest, error) {
	if strings.TrimSpace(r.EmployeeID) == "" {
		return hr.VacationRequest{}, fmt.Errorf("%w: employee id is required", hr.ErrInvalid)
	}
	if _, err := s.store.Employees().Get(ctx, r.EmployeeID); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return hr.VacationRequest{}, fmt.Errorf("%w: unknown employee %q", hr.ErrInvalid, r.EmployeeID)
		}
		return hr.VacationRequest{}, err
	}
	start, ok := hr.ParseDate(r.Start)
	if !ok {
		return hr.VacationRequest{}, fmt.Errorf("%w: start date %q is not YYYY-MM-DD", hr.ErrInvalid, r.Start)
	}
	end, ok := hr.ParseDate(r.End)
	if !ok {
		return hr.VacationRequest{}, fmt.Errorf("%w: end date %q is not YYYY-MM-DD", hr.ErrInvalid, r.End)
	}
	if end.Before(start) {
		return hr.VacationRequest{}, fmt.Errorf("%w: end date is before start date", hr.ErrInvalid)
	}
	if r.Type == "" {
		r.Type = hr.VacationFull
	}
	if !r.Type.Valid() {
		return hr.VacationRequest{}, fmt.Errorf("%w: unknown vacation type %q", hr.ErrInvalid, r.Type)
	}
	if r.Days < 0 {
		return hr.VacationRequest{}, fmt.Errorf("%w: days cannot be negative", hr.ErrInvalid)
	}
	if r.Days == 0 {
		r.Days = BusinessDays(start, end)
	}
	if r.Year == "" {
		r.Year = strconv.Itoa(start.Year())
	}
	r.Start, r.End = hr.FormatDate(start), hr.FormatDate(end)
	r.Status = hr.VacationPending
	r.ApprovedBy, r.ApprovedAt, r.DenialReason = "", time.Time{}, ""

	return s.store.Vacations().AddChecked(ctx, r, func(existing []hr.VacationRequest) error {
		for _, e := range existing {
			if e.EmployeeID == r.EmployeeID && e.Year == r.Year && open(e) {
				return fmt.Errorf("%w: %s (request %s)", ErrOverlappingRequest, r.Year, e.ID)
			}
		}
		return nil
	})
}

func (s *Service) decide(ctx context.Context, id string, fn func(*hr.VacationRequest)) (hr.VacationRequest, error) {
	return s.store.Vacations().Modify(ctx, id, func(r *hr.VacationRequest) error {
		if r.Status != hr.VacationPending {
			return fmt.Errorf("%w: %s is %s", ErrNotPending, id, r.Status)
		}
		fn(r)
		r.ApprovedAt = s.store.Now().UTC()
		return nil
	})
}

func approverOrDefault(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return DefaultApprover
}

// Approve moves a pending request to aprovado.
func (s *Service) Approve(ctx context.Context, id, approver string) (hr.VacationRequest, error) {
	return s.decide(ctx, id, func(r *hr.VacationRequest) {
		r.Status = hr.VacationApproved
		r.ApprovedBy = approverOrDefault(approver)
	})
}

// Deny moves a pending request to negado, recording reason.
func (s *Service) Deny(ctx context.Context, id, approver, reason string) (hr.VacationRequest, error) {
	return s.decide(ctx, id, func(r *hr.VacationRequest) {
		r.Status = hr.VacationDenied
		r.ApprovedBy = approverOrDefault(approver)
		r.DenialReason = reason
	})
}

// Cancel deletes a request that has not been decided yet.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.store.Vacations().DeleteChecked(ctx, id, func(r hr.VacationRequest) error {
		if r.Status != hr.VacationPending {
			return fmt.Errorf("%w: %s is %s", ErrNotPending, id, r.Status)
		}
		return nil
	})
}
