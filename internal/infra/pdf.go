package infra

// pdf.go renders the daily close report of the central register with
// go-pdf/fpdf: totals, per-category breakdown and the movement list.

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateCierrePDF returns the A4 report for one register day.
func GenerateCierrePDF(cierre *dto.CierreCajaResponse, movs []dto.MovimientoCajaResponse) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr("Cierre de caja"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	estado := "Abierta"
	if cierre.Cerrado {
		estado = "Cerrada"
		if cierre.AutoCerrado {
			estado = "Cerrada automaticamente"
		}
	}
	pdf.CellFormat(contentW, 6, tr(fmt.Sprintf("Fecha: %s  -  %s", cierre.Fecha, estado)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Totals ───────────────────────────────────────────────────────────────
	fila := func(label string, v decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(contentW*0.6, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 6, "$"+v.StringFixed(2), "", 1, "R", false, 0, "")
	}
	fila("Saldo inicial", cierre.SaldoInicial, false)
	fila("Ingresos", cierre.Ingresos, false)
	fila("Egresos", cierre.Egresos, false)
	fila("Saldo esperado", cierre.SaldoEsperado, true)
	if cierre.SaldoFinal != nil {
		fila("Saldo final declarado", *cierre.SaldoFinal, true)
	}
	if cierre.Diferencia != nil {
		fila("Diferencia", *cierre.Diferencia, true)
	}
	pdf.Ln(3)

	detalle(pdf, tr, contentW, "Ingresos por categoria", cierre.DetalleIngresos)
	detalle(pdf, tr, contentW, "Egresos por categoria", cierre.DetalleEgresos)

	// ── Movements ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, tr(fmt.Sprintf("Movimientos (%d)", len(movs))), "", 1, "L", false, 0, "")

	cols := []float64{contentW * 0.12, contentW * 0.22, contentW * 0.48, contentW * 0.18}
	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range []string{"Tipo", "Categoria", "Descripcion", "Monto"} {
		align := "L"
		if i == 3 {
			align = "R"
		}
		pdf.CellFormat(cols[i], 5, tr(h), "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, m := range movs {
		desc := []rune(m.Descripcion)
		if len(desc) > 60 {
			desc = append(desc[:59], '.')
		}
		monto := m.Monto.StringFixed(2)
		if m.Tipo == "egreso" {
			monto = "-" + monto
		}
		pdf.CellFormat(cols[0], 5, m.Tipo, "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 5, tr(m.Categoria), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[2], 5, tr(string(desc)), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[3], 5, "$"+monto, "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

func detalle(pdf *fpdf.Fpdf, tr func(string) string, w float64, titulo string, m map[string]decimal.Decimal) {
	if len(m) == 0 {
		return
	}
	cats := make([]string, 0, len(m))
	for k := range m {
		cats = append(cats, k)
	}
	sort.Strings(cats)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(w, 6, tr(titulo), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, k := range cats {
		pdf.CellFormat(w*0.6, 5, tr(k), "", 0, "L", false, 0, "")
		pdf.CellFormat(w*0.4, 5, "$"+m[k].StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
}
