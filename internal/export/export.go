// Package export renders active teacher loans as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/biblioteca/internal/model"
)

// SheetName is the only sheet in the workbook.
const SheetName = "Préstamos Docentes"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ActiveLabel fills the last column of every row.
const ActiveLabel = "ACTIVO"

// HeaderFill is the header background colour.
const HeaderFill = "#1E7940"

// Headers are the column titles, in order.
var Headers = []string{"ID", "Tipo", "Estado", "Correo", "Nombre", "Rol", "Libro", "Status"}

// Filename returns the download name for a report generated at now.
func Filename(now time.Time) string {
	return "Reporte_Prestamos_Docentes_" + now.Format("02012006") + ".xlsx"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func row(l model.TeacherLoan) []string {
	return []string{
		strconv.FormatInt(l.ID, 10),
		orDefault(l.LoanTypeName, "N/A"),
		orDefault(l.ReservationName, "N/A"),
		orDefault(l.Email, "No disponible"),
		orDefault(l.PersonalName, "No disponible"),
		orDefault(l.Role, "No asignado"),
		orDefault(l.BookTitle, "Sin título"),
		ActiveLabel,
	}
}

// WriteLoans writes the workbook for loans to w. Inactive loans are
// skipped.
func WriteLoans(w io.Writer, loans []model.TeacherLoan) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{HeaderFill}},
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	widths := make([]int, len(Headers))
	write := func(r int, values []string) error {
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = v
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
		// The ID column is numeric in the sheet.
		if r > 1 {
			cells[0], _ = strconv.ParseInt(values[0], 10, 64)
		}
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		return f.SetSheetRow(SheetName, cell, &cells)
	}

	if err := write(1, Headers); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(SheetName, "A1", last+"1", header); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	r := 2
	for _, l := range loans {
		if !l.Active {
			continue
		}
		if err := write(r, row(l)); err != nil {
			return fmt.Errorf("writing row %d: %w", r, err)
		}
		r++
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, float64(w+2)); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
