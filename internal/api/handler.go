// Package api serves the record store over a loopback HTTP API and as an MCP
// server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/softrh/softrh/internal/dashboard"
	"github.com/softrh/softrh/internal/documents"
	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/notify"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/recruitment"
	"github.com/softrh/softrh/internal/vacation"
)

const (
	maxRequestBodySize = 1 << 20
	maxImportBodySize  = 10 << 20
)

type Deps struct {
	Store *recordstore.Store
	Token string
	Hub   *notify.Hub  // optional; /ws answers 503 without it
	Feed  *notify.Feed // first frame for new /ws clients
	Log   *slog.Logger
}

type handler struct {
	store       *recordstore.Store
	recruitment *recruitment.Service
	vacations   *vacation.Service
	documents   *documents.Service
	dashboard   *dashboard.Service
	hub         *notify.Hub
	feed        *notify.Feed
	log         *slog.Logger
}

func NewHandler(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	h := &handler{
		store:       deps.Store,
		recruitment: recruitment.New(deps.Store),
		vacations:   vacation.New(deps.Store),
		documents:   documents.New(deps.Store, log),
		dashboard:   dashboard.New(deps.Store),
		hub:         deps.Hub,
		feed:        deps.Feed,
		log:         log.With("cmp", "api"),
	}

	r := chi.NewRouter()
	r.Use(logRequests(h.log))
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Route("/funcionarios", func(r chi.Router) {
			r.Get("/busca", h.searchEmployees)
			r.Get("/filtro", h.filterEmployees)
			r.Get("/exportar", h.exportEmployees)
			mountCollection(r, h.store.Employees(), h.createEmployee)
		})
		r.Route("/vagas", func(r chi.Router) {
			r.Get("/estatisticas", h.recruitmentStats)
			r.Get("/relatorio", h.recruitmentReport)
			r.Post("/{id}/alternar", h.toggleVacancy)
			r.Post("/{id}/candidatos", h.addCandidate)
			r.Patch("/{id}/candidatos/{cid}", h.setCandidateStatus)
			r.Delete("/{id}/candidatos/{cid}", h.removeCandidate)
			mountCollection(r, h.store.Vacancies(), h.createVacancy)
		})
		r.Route("/treinamentos", func(r chi.Router) {
			mountCollection(r, h.store.Trainings(), h.store.Trainings().Add)
		})
		r.Route("/avaliacoes", func(r chi.Router) {
			mountCollection(r, h.store.Reviews(), h.createReview)
		})
		r.Route("/documentos", func(r chi.Router) {
			r.Get("/validade", h.documentStatuses)
			mountCollection(r, h.store.Documents(), func(ctx context.Context, d hr.Document) (hr.Document, error) {
				return h.documents.Register(ctx, d, "")
			})
		})
		r.Route("/ferias", func(r chi.Router) {
			r.Post("/{id}/aprovar", h.approveVacation)
			r.Post("/{id}/negar", h.denyVacation)
			r.Post("/{id}/cancelar", h.cancelVacation)
			mountCollection(r, h.store.Vacations(), h.vacations.Request)
		})

		r.Get("/estatisticas", h.statistics)
		r.Get("/alertas", h.alerts)
		r.Get("/dashboard", h.snapshot)
		r.Get("/dashboard/exportar", h.exportDashboard)
		r.Get("/configuracoes", h.configuration)
		r.Patch("/configuracoes", h.updateConfiguration)
		r.Get("/backup", h.exportBackup)
		r.Post("/backup", h.importBackup)
		r.Post("/reset", h.reset)
		r.Get("/ws", h.serveWS)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a JSON body of at most limit bytes into v, rejecting
// unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, errInvalidRequest, "request body exceeds %d bytes", limit)
			return false
		}
		httpError(w, http.StatusBadRequest, errInvalidRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

// mountCollection registers list, get, create, patch and delete for one
// collection on r. create decides how new records are validated.
func mountCollection[T any, P recordstore.RecordPtr[T]](r chi.Router, c *recordstore.Collection[T, P], create func(context.Context, T) (T, error)) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		items, err := c.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	})

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := c.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if !decodeBody(w, r, maxRequestBodySize, &rec) {
			return
		}
		out, err := create(r.Context(), rec)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	})

	r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
		var p recordstore.Patch
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			httpError(w, http.StatusBadRequest, errInvalidRequest, "invalid request body: %v", err)
			return
		}
		out, err := c.Update(r.Context(), chi.URLParam(r, "id"), p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := c.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	})
}

func (h *handler) createEmployee(ctx context.Context, e hr.Employee) (hr.Employee, error) {
	if err := e.Validate(); err != nil {
		return hr.Employee{}, err
	}
	return h.store.Employees().Add(ctx, e)
}

func (h *handler) createVacancy(ctx context.Context, v hr.JobOpening) (hr.JobOpening, error) {
	if err := v.Validate(); err != nil {
		return hr.JobOpening{}, err
	}
	return h.store.Vacancies().Add(ctx, v)
}

// createReview fills the employee name snapshot when the caller left it out.
func (h *handler) createReview(ctx context.Context, rv hr.Review) (hr.Review, error) {
	if err := rv.Validate(); err != nil {
		return hr.Review{}, err
	}
	if rv.EmployeeName == "" {
		e, err := h.store.Employees().Get(ctx, rv.EmployeeID)
		switch {
		case err == nil:
			rv.EmployeeName = e.Name
		case !errors.Is(err, recordstore.ErrNotFound):
			return hr.Review{}, err
		}
	}
	return h.store.Reviews().Add(ctx, rv)
}

func attachment(w http.ResponseWriter, name, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
