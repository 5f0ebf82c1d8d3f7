package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/softrh/softrh/internal/dashboard"
	"github.com/softrh/softrh/internal/hr"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/vacation"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store   *recordstore.Store
	Version string
}

type mcpTools struct {
	store     *recordstore.Store
	vacations *vacation.Service
	dashboard *dashboard.Service
}

// NewMCPServer creates an MCP server exposing the HR records as tools and
// resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = recordstore.FormatVersion
	}
	s := server.NewMCPServer(
		"softrh",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("softrh: local HR records (employees, vacancies, reviews, documents, vacations)."),
		server.WithRecovery(),
	)
	t := &mcpTools{
		store:     deps.Store,
		vacations: vacation.New(deps.Store),
		dashboard: dashboard.New(deps.Store),
	}

	// Tools
	s.AddTool(
		mcp.NewTool("search_employees",
			mcp.WithDescription("Search employees by name, email, role or department. Optional filters narrow the result."),
			mcp.WithString("query", mcp.Description("Search term; empty matches everyone")),
			mcp.WithString("departamento", mcp.Description("Exact department")),
			mcp.WithString("status", mcp.Description("ativo, ferias or afastado")),
		),
		t.searchEmployees,
	)

	s.AddTool(
		mcp.NewTool("hr_statistics",
			mcp.WithDescription("Headcount, new hires, satisfaction, HR cost, document and vacation figures."),
		),
		t.statistics,
	)

	s.AddTool(
		mcp.NewTool("hr_alerts",
			mcp.WithDescription("Current HR alerts: overdue reviews, stale vacancies, too many people on vacation."),
		),
		t.alerts,
	)

	s.AddTool(
		mcp.NewTool("add_employee",
			mcp.WithDescription("Register a new employee."),
			mcp.WithString("nome", mcp.Description("Full name"), mcp.Required()),
			mcp.WithString("email", mcp.Description("Email address"), mcp.Required()),
			mcp.WithString("cargo", mcp.Description("Role"), mcp.Required()),
			mcp.WithString("departamento", mcp.Description("Department"), mcp.Required()),
			mcp.WithString("dataAdmissao", mcp.Description("Admission date, YYYY-MM-DD"), mcp.Required()),
			mcp.WithNumber("salario", mcp.Description("Monthly salary")),
			mcp.WithString("status", mcp.Description("ativo (default), ferias or afastado")),
		),
		t.addEmployee,
	)

	s.AddTool(
		mcp.NewTool("request_vacation",
			mcp.WithDescription("File a pending vacation request for an employee."),
			mcp.WithString("funcionarioId", mcp.Description("Employee id"), mcp.Required()),
			mcp.WithString("dataInicio", mcp.Description("First day, YYYY-MM-DD"), mcp.Required()),
			mcp.WithString("dataFim", mcp.Description("Last day, YYYY-MM-DD"), mcp.Required()),
			mcp.WithString("tipo", mcp.Description("completa (default), parcial, antecipacao or venda")),
			mcp.WithString("observacoes", mcp.Description("Notes")),
		),
		t.requestVacation,
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"hr://statistics",
			"HR Statistics",
			mcp.WithResourceDescription("Dashboard statistics as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		t.resourceStatistics,
	)

	s.AddResource(
		mcp.NewResource(
			"hr://configuration",
			"Company Configuration",
			mcp.WithResourceDescription("Company name, contact email and format version"),
			mcp.WithMIMEType("application/json"),
		),
		t.resourceConfiguration,
	)

	return s
}

func (t *mcpTools) searchEmployees(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	found, err := t.store.SearchEmployees(ctx, req.GetString("query", ""))
	if err != nil {
		return mcpError(fmt.Sprintf("search failed: %v", err)), nil
	}

	dept := req.GetString("departamento", "")
	status := hr.EmployeeStatus(req.GetString("status", ""))
	if dept != "" || status != "" {
		filtered, err := t.store.FilterEmployees(ctx, recordstore.EmployeeFilter{Department: dept, Status: status})
		if err != nil {
			return mcpError(fmt.Sprintf("filter failed: %v", err)), nil
		}
		keep := make(map[string]bool, len(filtered))
		for _, e := range filtered {
			keep[e.ID] = true
		}
		out := []hr.Employee{}
		for _, e := range found {
			if keep[e.ID] {
				out = append(out, e)
			}
		}
		found = out
	}
	return mcpJSON(found)
}

func (t *mcpTools) statistics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.store.Statistics(ctx)
	if err != nil {
		return mcpError(fmt.Sprintf("statistics failed: %v", err)), nil
	}
	return mcpJSON(st)
}

func (t *mcpTools) alerts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	alerts, err := t.dashboard.Alerts(ctx)
	if err != nil {
		return mcpError(fmt.Sprintf("alerts failed: %v", err)), nil
	}
	if len(alerts) == 0 {
		return mcpText("No alerts."), nil
	}
	return mcpJSON(alerts)
}

func (t *mcpTools) addEmployee(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var e hr.Employee
	var err error
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"nome", &e.Name},
		{"email", &e.Email},
		{"cargo", &e.Role},
		{"departamento", &e.Department},
		{"dataAdmissao", &e.AdmissionDate},
	} {
		if *f.dst, err = req.RequireString(f.key); err != nil {
			return mcpError(f.key + " is required"), nil
		}
	}
	e.Salary = hr.Amount(req.GetFloat("salario", 0))
	e.Status = hr.EmployeeStatus(req.GetString("status", string(hr.EmployeeActive)))

	if err := e.Validate(); err != nil {
		return mcpError(err.Error()), nil
	}
	added, err := t.store.Employees().Add(ctx, e)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to save: %v", err)), nil
	}
	return mcpText(fmt.Sprintf("Added employee %s (%s)", added.Name, added.ID)), nil
}

func (t *mcpTools) requestVacation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var r hr.VacationRequest
	var err error
	if r.EmployeeID, err = req.RequireString("funcionarioId"); err != nil {
		return mcpError("funcionarioId is required"), nil
	}
	if r.Start, err = req.RequireString("dataInicio"); err != nil {
		return mcpError("dataInicio is required"), nil
	}
	if r.End, err = req.RequireString("dataFim"); err != nil {
		return mcpError("dataFim is required"), nil
	}
	r.Type = hr.VacationType(req.GetString("tipo", ""))
	r.Notes = req.GetString("observacoes", "")

	filed, err := t.vacations.Request(ctx, r)
	if err != nil {
		return mcpError(fmt.Sprintf("request rejected: %v", err)), nil
	}
	return mcpText(fmt.Sprintf("Vacation request %s filed: %s to %s, %d business days, pending approval",
		filed.ID, filed.Start, filed.End, filed.Days)), nil
}

func (t *mcpTools) resourceStatistics(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := t.store.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return jsonResource(req.Params.URI, st)
}

func (t *mcpTools) resourceConfiguration(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	cfg, err := t.store.Configuration(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	return jsonResource(req.Params.URI, cfg)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
