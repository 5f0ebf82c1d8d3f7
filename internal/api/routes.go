package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/softrh/softrh/internal/dashboard"
	"github.com/softrh/softrh/internal/export"
	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
)

func (h *handler) searchEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.store.SearchEmployees(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emps)
}

// filterEmployees takes departamento, status, de and ate query parameters.
func (h *handler) filterEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	emps, err := h.store.FilterEmployees(r.Context(), recordstore.EmployeeFilter{
		Department:   q.Get("departamento"),
		Status:       hr.EmployeeStatus(q.Get("status")),
		AdmittedFrom: q.Get("de"),
		AdmittedTo:   q.Get("ate"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emps)
}

// exportEmployees serves the roster as CSV, or XLSX with formato=xlsx.
func (h *handler) exportEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.store.Employees().List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	now := h.store.Now()
	switch format := r.URL.Query().Get("formato"); format {
	case "", "csv":
		attachment(w, export.FileName(now, "csv"), "text/csv; charset=utf-8")
		err = export.WriteEmployeesCSV(w, emps)
	case "xlsx":
		attachment(w, export.FileName(now, "xlsx"), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = export.WriteEmployeesXLSX(w, emps)
	default:
		httpError(w, http.StatusBadRequest, errInvalidRequest, "unknown format %q (csv or xlsx)", format)
		return
	}
	if err != nil {
		h.log.Error("writing employee export", "error", err)
	}
}

func (h *handler) recruitmentStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.recruitment.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) recruitmentReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.recruitment.Report(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handler) toggleVacancy(w http.ResponseWriter, r *http.Request) {
	v, err := h.recruitment.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) addCandidate(w http.ResponseWriter, r *http.Request) {
	var c hr.Candidate
	if !decodeBody(w, r, maxRequestBodySize, &c) {
		return
	}
	out, err := h.recruitment.AddCandidate(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *handler) setCandidateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status hr.CandidateStatus `json:"status"`
	}
	if !decodeBody(w, r, maxRequestBodySize, &body) {
		return
	}
	c, err := h.recruitment.SetCandidateStatus(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cid"), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) removeCandidate(w http.ResponseWriter, r *http.Request) {
	if err := h.recruitment.RemoveCandidate(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cid")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type decision struct {
	Approver string `json:"aprovadoPor"`
	Reason   string `json:"motivo"`
}

// decodeDecision accepts an empty body.
func decodeDecision(w http.ResponseWriter, r *http.Request) (decision, bool) {
	var d decision
	if r.ContentLength == 0 {
		return d, true
	}
	return d, decodeBody(w, r, maxRequestBodySize, &d)
}

func (h *handler) approveVacation(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDecision(w, r)
	if !ok {
		return
	}
	v, err := h.vacations.Approve(r.Context(), chi.URLParam(r, "id"), d.Approver)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) denyVacation(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDecision(w, r)
	if !ok {
		return
	}
	v, err := h.vacations.Deny(r.Context(), chi.URLParam(r, "id"), d.Approver, d.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) cancelVacation(w http.ResponseWriter, r *http.Request) {
	if err := h.vacations.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) documentStatuses(w http.ResponseWriter, r *http.Request) {
	entries, err := h.documents.Statuses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) statistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Statistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.dashboard.Alerts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.dashboard.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) exportDashboard(w http.ResponseWriter, r *http.Request) {
	b, err := h.dashboard.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	attachment(w, dashboard.ExportFileName(h.store.Now()), "application/json")
	_, _ = w.Write(b)
}

func (h *handler) configuration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Configuration(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handler) updateConfiguration(w http.ResponseWriter, r *http.Request) {
	var p recordstore.Patch
	if !decodeBody(w, r, maxRequestBodySize, &p) {
		return
	}
	cfg, err := h.store.UpdateConfiguration(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	attachment(w, recordstore.BackupFileName(h.store.Now()), "application/json")
	_, _ = w.Write(b)
}

func (h *handler) importBackup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
	defer r.Body.Close()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, http.StatusRequestEntityTooLarge, errInvalidRequest, "reading backup: %v", err)
		return
	}
	if err := h.store.Import(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

// reset wipes every collection. It requires confirm=true.
func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	if !parseBool(r.URL.Query().Get("confirm")) {
		httpError(w, http.StatusBadRequest, errInvalidRequest, "reset requires confirm=true")
		return
	}
	if err := h.store.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
