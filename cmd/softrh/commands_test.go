package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/softrh/softrh/internal/config"
	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/storage"
	"github.com/softrh/softrh/internal/vacation"
)

var (
	ctx     = context.Background()
	testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// keepOpen lets several commands share one in-memory database.
type keepOpen struct{ storage.KV }

func (keepOpen) Close() error { return nil }

// useTestStore points every command at a seeded in-memory store.
func useTestStore(t *testing.T) *recordstore.Store {
	t.Helper()
	kv, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	store, err := recordstore.New(ctx, kv, recordstore.WithClock(fixedClock(testNow)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := recordstore.Seed(ctx, store); err != nil {
		t.Fatal(err)
	}

	old := openApp
	openApp = func(context.Context) (*app, error) {
		return &app{store: store, kv: keepOpen{kv}, log: slog.New(slog.DiscardHandler)}, nil
	}
	t.Cleanup(func() { openApp = old })
	return store
}

// resetFlags undoes flag values left behind by a previous run; the command
// tree is package state.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer func() {
		resetFlags(rootCmd)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("softrh %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func employeeID(t *testing.T, store *recordstore.Store, name string) string {
	t.Helper()
	found, err := store.SearchEmployees(ctx, name)
	if err != nil || len(found) != 1 {
		t.Fatalf("SearchEmployees(%q) = %v, %v", name, found, err)
	}
	return found[0].ID
}

func TestEmployeesList(t *testing.T) {
	useTestStore(t)

	out := mustRun(t, "employees", "list")
	for _, want := range []string{"NOME", "DEPARTAMENTO", "João Silva", "Maria Santos", "Pedro Oliveira", "15/01/2023"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var emps []hr.Employee
	if err := json.Unmarshal([]byte(mustRun(t, "employees", "list", "--json")), &emps); err != nil {
		t.Fatal(err)
	}
	if len(emps) != 3 {
		t.Errorf("employees = %d, want 3", len(emps))
	}
}

func TestEmployeesAddAndSearch(t *testing.T) {
	store := useTestStore(t)

	mustRun(t, "employees", "add",
		"--nome", "Ana Lima", "--email", "ana@empresa.com", "--cargo", "Desenvolvedora",
		"--departamento", "TI", "--salario", "6200.50", "--admissao", "2024-05-02")

	var found []hr.Employee
	if err := json.Unmarshal([]byte(mustRun(t, "employees", "search", "ana", "lima", "--json")), &found); err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d employees", len(found))
	}
	if found[0].Salary != 6200.5 || found[0].Status != hr.EmployeeActive {
		t.Errorf("stored = %+v", found[0])
	}

	all, _ := store.Employees().List(ctx)
	if len(all) != 4 {
		t.Errorf("employees = %d, want 4", len(all))
	}
}

func TestEmployeesAdd_Invalid(t *testing.T) {
	store := useTestStore(t)

	_, err := run(t, "employees", "add",
		"--nome", "Ana Lima", "--email", "nope", "--cargo", "Dev",
		"--departamento", "TI", "--admissao", "2024-05-02")
	if !errors.Is(err, hr.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	all, _ := store.Employees().List(ctx)
	if len(all) != 3 {
		t.Errorf("employees = %d, want 3", len(all))
	}
}

func TestEmployeesUpdateAndDelete(t *testing.T) {
	store := useTestStore(t)
	id := employeeID(t, store, "joão")

	mustRun(t, "employees", "update", id, "cargo=Tech Lead", "salario=9000", "status=ferias")
	e, err := store.Employees().Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if e.Role != "Tech Lead" || e.Salary != 9000 || e.Status != hr.EmployeeOnVacation {
		t.Errorf("updated = %+v", e)
	}

	if _, err := run(t, "employees", "update", id, "nope"); err == nil {
		t.Error("argument without = accepted")
	}
	mustRun(t, "employees", "update", id, "id=other")
	if _, err := store.Employees().Get(ctx, id); err != nil {
		t.Errorf("id changed by patch: %v", err)
	}
	if _, err := run(t, "employees", "update", id, "apelido=Jo"); !errors.Is(err, recordstore.ErrInvalidPatch) {
		t.Errorf("unknown field: %v, want ErrInvalidPatch", err)
	}

	mustRun(t, "employees", "delete", id)
	if _, err := store.Employees().Get(ctx, id); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if _, err := run(t, "employees", "delete", id); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestParsePatch(t *testing.T) {
	p, err := parsePatch([]string{
		"cargo=Tech Lead", "salario=9000", "telefone=11987654321",
		"email=\"a@b.com\"", "dataNascimento=null", "nota=a=b",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := recordstore.Patch{
		"cargo":          "Tech Lead",
		"salario":        "9000",
		"telefone":       "11987654321",
		"email":          "a@b.com",
		"dataNascimento": nil,
		"nota":           "a=b",
	}
	for k, v := range want {
		got, ok := p[k]
		if !ok || got != v {
			t.Errorf("%s = %#v, want %#v", k, got, v)
		}
	}

	p, err = parsePatch([]string{`participantes=["Ana","Bia"]`})
	if err != nil {
		t.Fatal(err)
	}
	if list, ok := p["participantes"].([]any); !ok || len(list) != 2 {
		t.Errorf("participantes = %#v, want a two-element list", p["participantes"])
	}

	if _, err := parsePatch([]string{"=x"}); err == nil {
		t.Error("empty key accepted")
	}
	if _, err := parsePatch([]string{"candidatos=[{"}); err == nil {
		t.Error("malformed JSON list accepted")
	}
}

func TestEmployeesUpdate_NumericText(t *testing.T) {
	store := useTestStore(t)
	id := employeeID(t, store, "joão")

	mustRun(t, "employees", "update", id, "telefone=11987654321", "salario=7250.50")
	e, err := store.Employees().Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if e.Phone != "11987654321" || e.Salary != 7250.50 {
		t.Errorf("updated = %+v", e)
	}
}

func TestEmployeesFilter(t *testing.T) {
	useTestStore(t)

	var emps []hr.Employee
	out := mustRun(t, "employees", "filter", "--de", "2023-01-01", "--ate", "2023-12-31", "--json")
	if err := json.Unmarshal([]byte(out), &emps); err != nil {
		t.Fatal(err)
	}
	if len(emps) != 1 || emps[0].Name != "João Silva" {
		t.Errorf("filtered = %+v", emps)
	}

	if _, err := run(t, "employees", "filter", "--de", "01/01/2023"); !errors.Is(err, recordstore.ErrInvalidQuery) {
		t.Errorf("bad bound: %v, want ErrInvalidQuery", err)
	}
}

func TestEmployeesExport(t *testing.T) {
	useTestStore(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "roster.csv")
	mustRun(t, "employees", "export", "--format", "csv", "--output", csvPath)
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Maria Santos") || !strings.HasPrefix(string(data), "Nome,") {
		t.Errorf("csv = %s", data)
	}

	xlsxPath := filepath.Join(dir, "roster.xlsx")
	mustRun(t, "employees", "export", "--format", "xlsx", "--output", xlsxPath)
	data, err = os.ReadFile(xlsxPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("xlsx output is not a zip archive")
	}

	if _, err := run(t, "employees", "export", "--format", "pdf"); err == nil {
		t.Error("pdf format accepted")
	}
}

func TestVacanciesAndCandidates(t *testing.T) {
	store := useTestStore(t)

	out := mustRun(t, "vacancies", "list")
	if !strings.Contains(out, "Desenvolvedor Full Stack") || !strings.Contains(out, "aberta") {
		t.Errorf("list = %s", out)
	}

	vagas, _ := store.Vacancies().List(ctx)
	vid := vagas[0].ID

	mustRun(t, "vacancies", "candidates", "add", vid, "--nome", "Carla Dias", "--email", "carla@mail.com")
	v, _ := store.Vacancies().Get(ctx, vid)
	if len(v.Candidates) != 1 || v.Candidates[0].Status != hr.CandidateInReview {
		t.Fatalf("candidates = %+v", v.Candidates)
	}
	cid := v.Candidates[0].ID

	mustRun(t, "vacancies", "candidates", "status", vid, cid, "contratado")
	v, _ = store.Vacancies().Get(ctx, vid)
	if v.Candidates[0].Status != hr.CandidateHired {
		t.Errorf("status = %s", v.Candidates[0].Status)
	}
	if _, err := run(t, "vacancies", "candidates", "status", vid, cid, "talvez"); !errors.Is(err, hr.ErrInvalid) {
		t.Errorf("unknown status: %v, want ErrInvalid", err)
	}

	mustRun(t, "vacancies", "toggle", vid)
	v, _ = store.Vacancies().Get(ctx, vid)
	if v.Status != hr.VacancyClosed {
		t.Errorf("toggled status = %s, want fechada", v.Status)
	}

	mustRun(t, "vacancies", "candidates", "remove", vid, cid)
	v, _ = store.Vacancies().Get(ctx, vid)
	if len(v.Candidates) != 0 {
		t.Errorf("candidates after remove = %d", len(v.Candidates))
	}

	_, err := run(t, "vacancies", "add", "--titulo", "Designer", "--departamento", "Marketing", "--descricao", "curta")
	if !errors.Is(err, hr.ErrInvalid) {
		t.Errorf("short description: %v, want ErrInvalid", err)
	}
}

func TestVacationsFlow(t *testing.T) {
	store := useTestStore(t)
	id := employeeID(t, store, "maria")

	mustRun(t, "vacations", "request", "--funcionario", id, "--inicio", "2024-07-01", "--fim", "2024-07-12")

	var reqs []hr.VacationRequest
	if err := json.Unmarshal([]byte(mustRun(t, "vacations", "list", "--json")), &reqs); err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 {
		t.Fatalf("requests = %d", len(reqs))
	}
	r := reqs[0]
	if r.Days != 10 || r.Status != hr.VacationPending || r.Type != hr.VacationFull {
		t.Errorf("request = %+v", r)
	}

	_, err := run(t, "vacations", "request", "--funcionario", id, "--inicio", "2024-08-01", "--fim", "2024-08-05")
	if !errors.Is(err, vacation.ErrOverlappingRequest) {
		t.Errorf("second request: %v, want ErrOverlappingRequest", err)
	}

	mustRun(t, "vacations", "approve", r.ID)
	got, _ := store.Vacations().Get(ctx, r.ID)
	if got.Status != hr.VacationApproved || got.ApprovedBy != vacation.DefaultApprover {
		t.Errorf("approved = %+v", got)
	}

	if _, err := run(t, "vacations", "deny", r.ID, "--motivo", "tarde demais"); !errors.Is(err, vacation.ErrNotPending) {
		t.Errorf("deny after approve: %v, want ErrNotPending", err)
	}
}

func TestDocumentsAddAndStatus(t *testing.T) {
	store := useTestStore(t)
	id := employeeID(t, store, "pedro")

	mustRun(t, "documents", "add", "--funcionario", id, "--tipo", "cnh", "--validade", "2024-07-01")

	out := mustRun(t, "documents", "status")
	if !strings.Contains(out, "vencendo") || !strings.Contains(out, "16") {
		t.Errorf("status = %s", out)
	}
	if !strings.Contains(mustRun(t, "documents", "list"), "01/07/2024") {
		t.Error("list does not show the expiry date")
	}

	if _, err := run(t, "documents", "add", "--funcionario", "missing", "--tipo", "cnh"); err == nil {
		t.Error("document for unknown employee accepted")
	}
}

func TestReviewsAddSnapshotsName(t *testing.T) {
	store := useTestStore(t)
	id := employeeID(t, store, "pedro")

	mustRun(t, "reviews", "add", "--funcionario", id, "--tipo", "Avaliação Trimestral", "--nota", "7", "--data", "2024-06-10")

	reviews, _ := store.Reviews().List(ctx)
	var found bool
	for _, r := range reviews {
		if r.EmployeeID == id {
			found = true
			if r.EmployeeName != "Pedro Oliveira" || r.Score != 7 {
				t.Errorf("review = %+v", r)
			}
		}
	}
	if !found {
		t.Fatal("review not stored")
	}

	if _, err := run(t, "reviews", "add", "--funcionario", id, "--nota", "12"); !errors.Is(err, hr.ErrInvalid) {
		t.Errorf("score 12: %v, want ErrInvalid", err)
	}
}

func TestTrainingsAdd(t *testing.T) {
	store := useTestStore(t)

	mustRun(t, "trainings", "add", "--titulo", "Segurança da Informação", "--data", "2024-07-20", "--participantes", "a, b,,c")
	trainings, _ := store.Trainings().List(ctx)
	if len(trainings) != 1 {
		t.Fatalf("trainings = %d", len(trainings))
	}
	if got := trainings[0].Participants; len(got) != 3 || got[1] != "b" {
		t.Errorf("participants = %v", got)
	}

	if _, err := run(t, "trainings", "add", "--titulo", "X", "--data", "20/07/2024"); !errors.Is(err, hr.ErrInvalid) {
		t.Errorf("bad date: %v, want ErrInvalid", err)
	}
}

func TestStatsAndAlerts(t *testing.T) {
	useTestStore(t)

	var st recordstore.Statistics
	if err := json.Unmarshal([]byte(mustRun(t, "stats", "--json")), &st); err != nil {
		t.Fatal(err)
	}
	if st.TotalEmployees != 3 || st.HRCost != 20200 {
		t.Errorf("statistics = %+v", st)
	}
	if out := mustRun(t, "stats"); !strings.Contains(out, "20200.00") {
		t.Errorf("stats = %s", out)
	}

	if out := mustRun(t, "alerts"); !strings.Contains(out, "Pedro Oliveira") {
		t.Errorf("alerts = %s", out)
	}

	_, err := run(t, "alerts", "--email")
	if err == nil || !strings.Contains(err.Error(), "mail.host") {
		t.Errorf("--email without mail.host: %v", err)
	}
}

func TestReports(t *testing.T) {
	useTestStore(t)

	var r struct {
		Total        int            `json:"totalVagas"`
		ByDepartment map[string]int `json:"vagasPorDepartamento"`
	}
	if err := json.Unmarshal([]byte(mustRun(t, "report", "recruitment")), &r); err != nil {
		t.Fatal(err)
	}
	if r.Total != 2 || r.ByDepartment["TI"] != 1 {
		t.Errorf("report = %+v", r)
	}

	var d map[string]json.RawMessage
	if err := json.Unmarshal([]byte(mustRun(t, "report", "dashboard")), &d); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"estatisticas", "funcionarios", "vagas", "avaliacoes", "dataExportacao"} {
		if _, ok := d[key]; !ok {
			t.Errorf("dashboard export missing %q", key)
		}
	}
}

func TestDataBackupRoundTrip(t *testing.T) {
	store := useTestStore(t)
	path := filepath.Join(t.TempDir(), "backup.json")

	mustRun(t, "data", "export", "--output", path)

	// without --confirm nothing happens
	mustRun(t, "data", "reset")
	if all, _ := store.Employees().List(ctx); len(all) != 3 {
		t.Fatalf("reset without confirm removed data: %d left", len(all))
	}

	mustRun(t, "data", "reset", "--confirm")
	if all, _ := store.Employees().List(ctx); len(all) != 0 {
		t.Fatalf("employees after reset = %d", len(all))
	}

	mustRun(t, "data", "import", path)
	if all, _ := store.Employees().List(ctx); len(all) != 3 {
		t.Errorf("employees after import = %d, want 3", len(all))
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"funcionarios": 5}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "data", "import", bad); !errors.Is(err, recordstore.ErrInvalidImport) {
		t.Errorf("bad import: %v, want ErrInvalidImport", err)
	}
}

func TestDataSeed(t *testing.T) {
	store := useTestStore(t)

	mustRun(t, "data", "seed") // already seeded, no-op
	if all, _ := store.Employees().List(ctx); len(all) != 3 {
		t.Fatalf("employees = %d", len(all))
	}

	mustRun(t, "data", "reset", "--confirm")
	mustRun(t, "data", "seed")
	if all, _ := store.Employees().List(ctx); len(all) != 3 {
		t.Errorf("employees after reseed = %d", len(all))
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "hello")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "hello" {
		t.Errorf("colorize with noColor=true = %q, want %q", result, "hello")
	}

	noColor = false
	result = colorize(colorGreen, "hello")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printTable(&buf, []string{"id"}, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No records found.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestAPIClientAuth(t *testing.T) {
	var gotAuth, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"totalFuncionarios":3}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, token: "my-secret-token", httpClient: ts.Client()}

	resp, err := client.get(ctx, "/estatisticas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var st recordstore.Statistics
	if err := decodeJSON(resp, &st); err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer my-secret-token" {
		t.Errorf("auth = %q, want 'Bearer my-secret-token'", gotAuth)
	}
	if gotPath != "/estatisticas" {
		t.Errorf("path = %q", gotPath)
	}
	if st.TotalEmployees != 3 {
		t.Errorf("statistics = %+v", st)
	}
}

func TestStatusShowsDocument(t *testing.T) {
	useTestStore(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	t.Setenv("SOFTRH_SERVER_PORT", strconv.Itoa(port))

	out := mustRun(t, "status")
	for _, want := range []string{"stopped", "sqlite", "Document:", recordstore.DefaultKey, "bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"record not found: funcionarios \"x\"","type":"not_found"}}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, token: "t", httpClient: ts.Client()}

	resp, err := client.get(ctx, "/funcionarios/x")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "record not found") {
		t.Errorf("error = %q", err.Error())
	}
	if strings.Contains(err.Error(), `"type"`) {
		t.Errorf("error should carry the message, not the raw envelope: %q", err.Error())
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 4300
	cfg.Mail.Password = "hunter2"

	keys := config.ShowAll(cfg)
	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "4300" {
			found = true
		}
		if k.Value == "hunter2" {
			t.Errorf("secret %s shown", k.Key)
		}
	}
	if !found {
		t.Error("expected to find server.port=4300 in ShowAll output")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info logged at warn level")
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("not JSON: %q", out)
	}
	if line["msg"] != "shown" || line["k"] != "v" {
		t.Errorf("line = %v", line)
	}
}
