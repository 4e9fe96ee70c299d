package infra

import (
	"bytes"
	"fmt"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"

	"github.com/xuri/excelize/v2"
)

const hojaMovimientos = "Movimientos"

// GenerateMovimientosXLSX returns a workbook with one row per central
// register movement plus a totals row.
func GenerateMovimientosXLSX(movs []dto.MovimientoCajaResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", hojaMovimientos); err != nil {
		return nil, err
	}

	header := []any{"Fecha", "Tipo", "Categoria", "Descripcion", "Ingreso", "Egreso", "Referencia", "Registrado"}
	if err := f.SetSheetRow(hojaMovimientos, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	_ = f.SetRowStyle(hojaMovimientos, 1, 1, bold)

	for i, m := range movs {
		var ingreso, egreso any
		monto, _ := m.Monto.Float64()
		if m.Tipo == "ingreso" {
			ingreso = monto
		} else {
			egreso = monto
		}
		ref := ""
		if m.ReferenciaTipo != nil {
			ref = *m.ReferenciaTipo
		}
		row := []any{m.Fecha, m.Tipo, m.Categoria, m.Descripcion, ingreso, egreso, ref, m.CreatedAt}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(hojaMovimientos, cell, &row); err != nil {
			return nil, err
		}
	}

	if n := len(movs); n > 0 {
		total := n + 2
		_ = f.SetCellValue(hojaMovimientos, fmt.Sprintf("D%d", total), "Total")
		_ = f.SetCellFormula(hojaMovimientos, fmt.Sprintf("E%d", total), fmt.Sprintf("SUM(E2:E%d)", n+1))
		_ = f.SetCellFormula(hojaMovimientos, fmt.Sprintf("F%d", total), fmt.Sprintf("SUM(F2:F%d)", n+1))
		_ = f.SetRowStyle(hojaMovimientos, total, total, bold)
	}
	_ = f.SetColWidth(hojaMovimientos, "D", "D", 45)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}
