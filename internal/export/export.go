// Package export renders the employee roster as CSV and XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/softrh/softrh/internal/hr"
)

// SheetName is the worksheet holding the roster in XLSX exports.
const SheetName = "Funcionarios"

var header = []string{"Nome", "Email", "Cargo", "Departamento", "Data Admissão", "Salário", "Status"}

func row(e hr.Employee) []string {
	return []string{
		e.Name,
		e.Email,
		e.Role,
		e.Department,
		hr.BRDate(e.AdmissionDate),
		strconv.FormatFloat(float64(e.Salary), 'f', -1, 64),
		string(e.Status),
	}
}

// WriteEmployeesCSV writes a header line and one line per employee.
func WriteEmployeesCSV(w io.Writer, emps []hr.Employee) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, e := range emps {
		if err := cw.Write(row(e)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEmployeesXLSX writes the same table as WriteEmployeesCSV into a
// single-sheet workbook. Salaries are numeric cells.
func WriteEmployeesXLSX(w io.Writer, emps []hr.Employee) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &hdr); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}
	for i, e := range emps {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := []any{
			e.Name, e.Email, e.Role, e.Department,
			hr.BRDate(e.AdmissionDate), float64(e.Salary), string(e.Status),
		}
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return fmt.Errorf("writing xlsx row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

// FileName is the suggested roster file name for ext ("csv" or "xlsx").
func FileName(now time.Time, ext string) string {
	return "funcionarios-" + now.UTC().Format(hr.DateLayout) + "." + ext
}
