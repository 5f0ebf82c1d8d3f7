package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/softrh/softrh/internal/documents"
	"github.com/softrh/softrh/internal/export"
	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/recruitment"
	"github.com/softrh/softrh/internal/vacation"
)

// parsePatch turns key=value arguments into a patch. Quoted strings, null,
// arrays and objects are decoded as JSON; any other value is kept as a
// string, so telefone=11987654321 stays text. Numeric fields such as salario
// accept the string form.
func parsePatch(args []string) (recordstore.Patch, error) {
	p := recordstore.Patch{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		p[k] = v
		if !looksLikeJSON(v) {
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		p[k] = decoded
	}
	return p, nil
}

func looksLikeJSON(v string) bool {
	v = strings.TrimSpace(v)
	if v == "null" {
		return true
	}
	return v != "" && strings.ContainsRune(`"[{`, rune(v[0]))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func money(a hr.Amount) string {
	return strconv.FormatFloat(float64(a), 'f', 2, 64)
}

// --- employees ---

var employeesCmd = &cobra.Command{
	Use:     "employees",
	Aliases: []string{"funcionarios"},
	Short:   "Manage employees",
}

func employeeRows(emps []hr.Employee) [][]string {
	rows := make([][]string, len(emps))
	for i, e := range emps {
		rows[i] = []string{e.ID, e.Name, e.Role, e.Department, string(e.Status), hr.BRDate(e.AdmissionDate), money(e.Salary)}
	}
	return rows
}

var employeeHeader = []string{"id", "nome", "cargo", "departamento", "status", "admissão", "salário"}

func printEmployees(cmd *cobra.Command, emps []hr.Employee) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), emps)
	}
	return printTable(cmd.OutOrStdout(), employeeHeader, employeeRows(emps))
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			emps, err := a.store.Employees().List(cmd.Context())
			if err != nil {
				return err
			}
			return printEmployees(cmd, emps)
		})
	},
}

var employeesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one employee as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			e, err := a.store.Employees().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), e)
		})
	},
}

var employeesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an employee",
	Long: `Register an employee.

Example:
  softrh employees add --nome "Ana Lima" --email ana@empresa.com --cargo Dev \
    --departamento TI --salario 5000 --admissao 2024-01-10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		e := hr.Employee{}
		e.Name, _ = f.GetString("nome")
		e.Email, _ = f.GetString("email")
		e.Phone, _ = f.GetString("telefone")
		e.Role, _ = f.GetString("cargo")
		e.Department, _ = f.GetString("departamento")
		e.AdmissionDate, _ = f.GetString("admissao")
		e.BirthDate, _ = f.GetString("nascimento")
		salary, _ := f.GetString("salario")
		e.Salary = hr.ParseAmount(salary)
		status, _ := f.GetString("status")
		e.Status = hr.EmployeeStatus(status)

		if err := e.Validate(); err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			added, err := a.store.Employees().Add(cmd.Context(), e)
			if err != nil {
				return err
			}
			printSuccess("Added employee %s (%s)", added.Name, added.ID)
			return nil
		})
	},
}

var employeesUpdateCmd = &cobra.Command{
	Use:   "update <id> <field=value>...",
	Short: "Change fields of an employee",
	Long: `Change fields of an employee. Fields use their stored names; values are
read as JSON when they parse, so quote digit-only text:

  softrh employees update <id> cargo="Tech Lead" salario=9000 telefone='"11999990000"'`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parsePatch(args[1:])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			e, err := a.store.Employees().Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			printSuccess("Updated employee %s", e.Name)
			return nil
		})
	},
}

var employeesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.store.Employees().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted employee %s", args[0])
			return nil
		})
	},
}

var employeesSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search employees by name, email, role or department",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			emps, err := a.store.SearchEmployees(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printEmployees(cmd, emps)
		})
	},
}

var employeesFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter employees by department, status and admission period",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var filter recordstore.EmployeeFilter
		filter.Department, _ = f.GetString("departamento")
		status, _ := f.GetString("status")
		filter.Status = hr.EmployeeStatus(status)
		filter.AdmittedFrom, _ = f.GetString("de")
		filter.AdmittedTo, _ = f.GetString("ate")

		return withApp(cmd.Context(), func(a *app) error {
			emps, err := a.store.FilterEmployees(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printEmployees(cmd, emps)
		})
	},
}

var employeesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the roster as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format != "csv" && format != "xlsx" {
			return fmt.Errorf("--format must be csv or xlsx, got %q", format)
		}

		return withApp(cmd.Context(), func(a *app) error {
			emps, err := a.store.Employees().List(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				output = export.FileName(a.store.Now(), format)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			if format == "xlsx" {
				err = export.WriteEmployeesXLSX(f, emps)
			} else {
				err = export.WriteEmployeesCSV(f, emps)
			}
			if err = errors.Join(err, f.Close()); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess("Exported %d employees to %s", len(emps), output)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{employeesListCmd, employeesSearchCmd, employeesFilterCmd} {
		c.Flags().Bool("json", false, "print JSON instead of a table")
	}

	f := employeesAddCmd.Flags()
	f.String("nome", "", "full name")
	f.String("email", "", "email address")
	f.String("telefone", "", "phone number")
	f.String("cargo", "", "role")
	f.String("departamento", "", "department")
	f.String("salario", "0", "monthly salary")
	f.String("admissao", "", "admission date (YYYY-MM-DD)")
	f.String("nascimento", "", "birth date (YYYY-MM-DD)")
	f.String("status", string(hr.EmployeeActive), "ativo, ferias or afastado")

	employeesFilterCmd.Flags().String("departamento", "", "department")
	employeesFilterCmd.Flags().String("status", "", "ativo, ferias or afastado")
	employeesFilterCmd.Flags().String("de", "", "admitted on or after (YYYY-MM-DD)")
	employeesFilterCmd.Flags().String("ate", "", "admitted on or before (YYYY-MM-DD)")

	employeesExportCmd.Flags().String("format", "csv", "csv or xlsx")
	employeesExportCmd.Flags().String("output", "", "output file (default funcionarios-<date>.<format>)")

	employeesCmd.AddCommand(employeesListCmd, employeesShowCmd, employeesAddCmd, employeesUpdateCmd,
		employeesDeleteCmd, employeesSearchCmd, employeesFilterCmd, employeesExportCmd)
}

// --- vacancies ---

var vacanciesCmd = &cobra.Command{
	Use:     "vacancies",
	Aliases: []string{"vagas"},
	Short:   "Manage job openings and their candidates",
}

var vacanciesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job openings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			vagas, err := a.store.Vacancies().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), vagas)
			}
			rows := make([][]string, len(vagas))
			for i, v := range vagas {
				rows[i] = []string{v.ID, v.Title, v.Department, string(v.Status), strconv.Itoa(len(v.Candidates))}
			}
			return printTable(cmd.OutOrStdout(), []string{"id", "título", "departamento", "status", "candidatos"}, rows)
		})
	},
}

var vacanciesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Publish a job opening",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		v := hr.JobOpening{}
		v.Title, _ = f.GetString("titulo")
		v.Department, _ = f.GetString("departamento")
		v.Description, _ = f.GetString("descricao")
		v.Requirements, _ = f.GetString("requisitos")
		v.SalaryRange, _ = f.GetString("salario")
		v.Type, _ = f.GetString("tipo")
		v.Location, _ = f.GetString("localizacao")
		if err := v.Validate(); err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			added, err := a.store.Vacancies().Add(cmd.Context(), v)
			if err != nil {
				return err
			}
			printSuccess("Published vacancy %s (%s)", added.Title, added.ID)
			return nil
		})
	},
}

var vacanciesToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Close an open vacancy or reopen a closed one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			v, err := recruitment.New(a.store).ToggleStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSuccess("Vacancy %s is now %s", v.Title, v.Status)
			return nil
		})
	},
}

var vacanciesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a job opening and its candidates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.store.Vacancies().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted vacancy %s", args[0])
			return nil
		})
	},
}

var candidatesCmd = &cobra.Command{
	Use:     "candidates",
	Aliases: []string{"candidatos"},
	Short:   "Manage the candidates of a vacancy",
}

var candidatesAddCmd = &cobra.Command{
	Use:   "add <vacancy-id>",
	Short: "Add a candidate to a vacancy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		c := hr.Candidate{}
		c.Name, _ = f.GetString("nome")
		c.Email, _ = f.GetString("email")
		c.Phone, _ = f.GetString("telefone")
		return withApp(cmd.Context(), func(a *app) error {
			added, err := recruitment.New(a.store).AddCandidate(cmd.Context(), args[0], c)
			if err != nil {
				return err
			}
			printSuccess("Added candidate %s (%s)", added.Name, added.ID)
			return nil
		})
	},
}

var candidatesStatusCmd = &cobra.Command{
	Use:   "status <vacancy-id> <candidate-id> <status>",
	Short: "Move a candidate to em_analise, aprovado, reprovado or contratado",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			c, err := recruitment.New(a.store).SetCandidateStatus(cmd.Context(), args[0], args[1], hr.CandidateStatus(args[2]))
			if err != nil {
				return err
			}
			printSuccess("Candidate %s is now %s", c.Name, c.Status)
			return nil
		})
	},
}

var candidatesRemoveCmd = &cobra.Command{
	Use:   "remove <vacancy-id> <candidate-id>",
	Short: "Remove a candidate from a vacancy",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := recruitment.New(a.store).RemoveCandidate(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printSuccess("Removed candidate %s", args[1])
			return nil
		})
	},
}

func init() {
	vacanciesListCmd.Flags().Bool("json", false, "print JSON instead of a table")

	f := vacanciesAddCmd.Flags()
	f.String("titulo", "", "title")
	f.String("departamento", "", "department")
	f.String("descricao", "", "description (at least 20 characters)")
	f.String("requisitos", "", "requirements")
	f.String("salario", "", "salary range, e.g. 6000-8000")
	f.String("tipo", "CLT", "contract type")
	f.String("localizacao", "", "location")

	cf := candidatesAddCmd.Flags()
	cf.String("nome", "", "full name")
	cf.String("email", "", "email address")
	cf.String("telefone", "", "phone number")

	candidatesCmd.AddCommand(candidatesAddCmd, candidatesStatusCmd, candidatesRemoveCmd)
	vacanciesCmd.AddCommand(vacanciesListCmd, vacanciesAddCmd, vacanciesToggleCmd, vacanciesDeleteCmd, candidatesCmd)
}

// --- vacations ---

var vacationsCmd = &cobra.Command{
	Use:     "vacations",
	Aliases: []string{"ferias"},
	Short:   "Manage vacation requests",
}

var vacationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vacation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			reqs, err := a.store.Vacations().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), reqs)
			}
			rows := make([][]string, len(reqs))
			for i, r := range reqs {
				rows[i] = []string{r.ID, r.EmployeeID, hr.BRDate(r.Start), hr.BRDate(r.End), strconv.Itoa(r.Days), string(r.Type), string(r.Status)}
			}
			return printTable(cmd.OutOrStdout(), []string{"id", "funcionário", "início", "fim", "dias", "tipo", "status"}, rows)
		})
	},
}

var vacationsRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "File a vacation request",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		r := hr.VacationRequest{}
		r.EmployeeID, _ = f.GetString("funcionario")
		r.Start, _ = f.GetString("inicio")
		r.End, _ = f.GetString("fim")
		r.Days, _ = f.GetInt("dias")
		r.Notes, _ = f.GetString("observacoes")
		typ, _ := f.GetString("tipo")
		r.Type = hr.VacationType(typ)

		return withApp(cmd.Context(), func(a *app) error {
			filed, err := vacation.New(a.store).Request(cmd.Context(), r)
			if err != nil {
				return err
			}
			printSuccess("Filed request %s: %d business days from %s", filed.ID, filed.Days, hr.BRDate(filed.Start))
			return nil
		})
	},
}

var vacationsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("por")
		return withApp(cmd.Context(), func(a *app) error {
			r, err := vacation.New(a.store).Approve(cmd.Context(), args[0], by)
			if err != nil {
				return err
			}
			printSuccess("Request %s approved by %s", r.ID, r.ApprovedBy)
			return nil
		})
	},
}

var vacationsDenyCmd = &cobra.Command{
	Use:   "deny <id>",
	Short: "Deny a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("por")
		reason, _ := cmd.Flags().GetString("motivo")
		return withApp(cmd.Context(), func(a *app) error {
			r, err := vacation.New(a.store).Deny(cmd.Context(), args[0], by, reason)
			if err != nil {
				return err
			}
			printSuccess("Request %s denied by %s", r.ID, r.ApprovedBy)
			return nil
		})
	},
}

var vacationsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Withdraw a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := vacation.New(a.store).Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Request %s cancelled", args[0])
			return nil
		})
	},
}

func init() {
	vacationsListCmd.Flags().Bool("json", false, "print JSON instead of a table")

	f := vacationsRequestCmd.Flags()
	f.String("funcionario", "", "employee id")
	f.String("inicio", "", "first day (YYYY-MM-DD)")
	f.String("fim", "", "last day (YYYY-MM-DD)")
	f.Int("dias", 0, "days requested (default: business days in the period)")
	f.String("tipo", string(hr.VacationFull), "completa, parcial, antecipacao or venda")
	f.String("observacoes", "", "notes")

	vacationsApproveCmd.Flags().String("por", "", "approver name")
	vacationsDenyCmd.Flags().String("por", "", "approver name")
	vacationsDenyCmd.Flags().String("motivo", "", "reason for the denial")

	vacationsCmd.AddCommand(vacationsListCmd, vacationsRequestCmd, vacationsApproveCmd, vacationsDenyCmd, vacationsCancelCmd)
}

// --- documents ---

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"documentos"},
	Short:   "Manage employee documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			docs, err := a.store.Documents().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), docs)
			}
			rows := make([][]string, len(docs))
			for i, d := range docs {
				file := "-"
				if d.File != nil {
					file = d.File.Name
				}
				rows[i] = []string{d.ID, d.EmployeeID, string(d.Type), hr.BRDate(d.ExpiryDate), file}
			}
			return printTable(cmd.OutOrStdout(), []string{"id", "funcionário", "tipo", "validade", "arquivo"}, rows)
		})
	},
}

var documentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a document, optionally reading metadata from a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		d := hr.Document{}
		d.EmployeeID, _ = f.GetString("funcionario")
		d.Description, _ = f.GetString("descricao")
		d.ExpiryDate, _ = f.GetString("validade")
		typ, _ := f.GetString("tipo")
		d.Type = hr.DocumentType(typ)
		path, _ := f.GetString("arquivo")

		return withApp(cmd.Context(), func(a *app) error {
			doc, err := documents.New(a.store, a.log).Register(cmd.Context(), d, path)
			if err != nil {
				return err
			}
			if doc.File != nil {
				printSuccess("Registered %s (%s, %d bytes)", doc.ID, doc.File.MIMEType, doc.File.Size)
			} else {
				printSuccess("Registered %s", doc.ID)
			}
			return nil
		})
	},
}

var documentsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the expiry standing of every document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			entries, err := documents.New(a.store, a.log).Statuses(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				days := "-"
				if e.Expiry.DaysLeft != nil {
					days = strconv.Itoa(*e.Expiry.DaysLeft)
				}
				rows[i] = []string{e.ID, e.EmployeeID, string(e.Type), hr.BRDate(e.ExpiryDate), string(e.Expiry.Status), days}
			}
			return printTable(cmd.OutOrStdout(), []string{"id", "funcionário", "tipo", "validade", "situação", "dias"}, rows)
		})
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.store.Documents().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted document %s", args[0])
			return nil
		})
	},
}

func init() {
	documentsListCmd.Flags().Bool("json", false, "print JSON instead of a table")

	f := documentsAddCmd.Flags()
	f.String("funcionario", "", "employee id")
	f.String("tipo", string(hr.DocOther), "contrato, rg, cpf, cnh, certificado or outro")
	f.String("descricao", "", "description")
	f.String("validade", "", "expiry date (YYYY-MM-DD)")
	f.String("arquivo", "", "file to read metadata from; the content is not stored")

	documentsCmd.AddCommand(documentsListCmd, documentsAddCmd, documentsStatusCmd, documentsDeleteCmd)
}

// --- reviews ---

var reviewsCmd = &cobra.Command{
	Use:     "reviews",
	Aliases: []string{"avaliacoes"},
	Short:   "Manage performance reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			reviews, err := a.store.Reviews().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), reviews)
			}
			rows := make([][]string, len(reviews))
			for i, r := range reviews {
				rows[i] = []string{r.ID, r.EmployeeName, r.Type, strconv.FormatFloat(float64(r.Score), 'f', -1, 64), hr.BRDate(r.Date)}
			}
			return printTable(cmd.OutOrStdout(), []string{"id", "funcionário", "tipo", "nota", "data"}, rows)
		})
	},
}

var reviewsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a performance review",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		r := hr.Review{}
		r.EmployeeID, _ = f.GetString("funcionario")
		r.Type, _ = f.GetString("tipo")
		r.Date, _ = f.GetString("data")
		r.Notes, _ = f.GetString("observacoes")
		score, _ := f.GetFloat64("nota")
		r.Score = hr.Amount(score)
		if err := r.Validate(); err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			e, err := a.store.Employees().Get(cmd.Context(), r.EmployeeID)
			if err != nil {
				return err
			}
			r.EmployeeName = e.Name
			added, err := a.store.Reviews().Add(cmd.Context(), r)
			if err != nil {
				return err
			}
			printSuccess("Recorded review %s for %s", added.ID, added.EmployeeName)
			return nil
		})
	},
}

func init() {
	reviewsListCmd.Flags().Bool("json", false, "print JSON instead of a table")

	f := reviewsAddCmd.Flags()
	f.String("funcionario", "", "employee id")
	f.String("tipo", "", "review type, e.g. Avaliação Trimestral")
	f.Float64("nota", 0, "score from 1 to 10")
	f.String("data", "", "review date (YYYY-MM-DD)")
	f.String("observacoes", "", "notes")

	reviewsCmd.AddCommand(reviewsListCmd, reviewsAddCmd)
}

// --- trainings ---

var trainingsCmd = &cobra.Command{
	Use:     "trainings",
	Aliases: []string{"treinamentos"},
	Short:   "Manage trainings",
}

var trainingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trainings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			trainings, err := a.store.Trainings().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), trainings)
			}
			rows := make([][]string, len(trainings))
			for i, t := range trainings {
				rows[i] = []string{t.ID, t.Title, hr.BRDate(t.Date), strconv.Itoa(len(t.Participants))}
			}
			return printTable(cmd.OutOrStdout(), []string{"id", "título", "data", "participantes"}, rows)
		})
	},
}

var trainingsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule a training",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		t := hr.Training{}
		t.Title, _ = f.GetString("titulo")
		t.Description, _ = f.GetString("descricao")
		t.Date, _ = f.GetString("data")
		participants, _ := f.GetString("participantes")
		t.Participants = splitList(participants)

		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("%w: title is required", hr.ErrInvalid)
		}
		if t.Date != "" {
			if _, ok := hr.ParseDate(t.Date); !ok {
				return fmt.Errorf("%w: date %q is not YYYY-MM-DD", hr.ErrInvalid, t.Date)
			}
		}
		return withApp(cmd.Context(), func(a *app) error {
			added, err := a.store.Trainings().Add(cmd.Context(), t)
			if err != nil {
				return err
			}
			printSuccess("Scheduled training %s (%s)", added.Title, added.ID)
			return nil
		})
	},
}

func init() {
	trainingsListCmd.Flags().Bool("json", false, "print JSON instead of a table")

	f := trainingsAddCmd.Flags()
	f.String("titulo", "", "title")
	f.String("descricao", "", "description")
	f.String("data", "", "date (YYYY-MM-DD)")
	f.String("participantes", "", "comma-separated employee ids")

	trainingsCmd.AddCommand(trainingsListCmd, trainingsAddCmd)
}
