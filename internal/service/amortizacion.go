package service

import (
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/shopspring/decimal"
)

// EstadoCuota is the derived status of one installment.
type EstadoCuota string

const (
	CuotaPagada    EstadoCuota = "Pagado"
	CuotaVencida   EstadoCuota = "Vencido"
	CuotaPendiente EstadoCuota = "Pendiente"
)

// Cuota is one row of an amortization schedule. It is always derived from the
// loan and never stored.
type Cuota struct {
	Numero           int
	FechaVencimiento time.Time
	Monto            decimal.Decimal
	Estado           EstadoCuota
}

// CantidadCuotas returns how many installments a plan of plazoDias has at the
// given frequency. Unknown frequencies are treated as weekly.
func CantidadCuotas(plazoDias int, frecuencia model.FrecuenciaPago) int {
	if plazoDias <= 0 {
		return 0
	}
	switch frecuencia {
	case model.FrecuenciaMensual:
		return (plazoDias + 29) / 30
	case model.FrecuenciaDiaria:
		return plazoDias
	default:
		return (plazoDias + 6) / 7
	}
}

// FechaCuota returns the due date of installment i (1-based).
func FechaCuota(inicio time.Time, frecuencia model.FrecuenciaPago, i int) time.Time {
	switch frecuencia {
	case model.FrecuenciaMensual:
		return timeutil.AddMonths(inicio, i)
	case model.FrecuenciaDiaria:
		return timeutil.AddDays(inicio, i)
	default:
		return timeutil.AddDays(inicio, 7*i)
	}
}

// GenerarAmortizacion derives the installment schedule of p as seen on hoy.
// It never fails: a loan without a usable count or amount yields an empty or
// zero-amount schedule.
func GenerarAmortizacion(p *model.Prestamo, hoy time.Time) []Cuota {
	n := p.CuotasTotales
	if n <= 0 {
		n = CantidadCuotas(p.PlazoDias, p.FrecuenciaPago)
	}
	if n <= 0 {
		return []Cuota{}
	}

	monto := p.ValorCuota
	if !monto.IsPositive() {
		monto = p.MontoTotal.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	hoy = timeutil.Fecha(hoy)
	cuotas := make([]Cuota, 0, n)
	for i := 1; i <= n; i++ {
		venc := FechaCuota(p.FechaInicio, p.FrecuenciaPago, i)
		estado := CuotaPendiente
		switch {
		case p.Estado == model.EstadoPagado || i <= p.CuotasPagadas:
			estado = CuotaPagada
		case venc.Before(hoy):
			estado = CuotaVencida
		}
		cuotas = append(cuotas, Cuota{
			Numero:           i,
			FechaVencimiento: venc,
			Monto:            monto,
			Estado:           estado,
		})
	}
	return cuotas
}

// CuotasQueVencen returns the unpaid installments of p due exactly on fecha.
func CuotasQueVencen(p *model.Prestamo, fecha, hoy time.Time) []Cuota {
	fecha = timeutil.Fecha(fecha)
	var out []Cuota
	for _, c := range GenerarAmortizacion(p, hoy) {
		if c.Estado != CuotaPagada && c.FechaVencimiento.Equal(fecha) {
			out = append(out, c)
		}
	}
	return out
}

// CuotasEntre returns the unpaid installments of p due in (desde, hasta].
func CuotasEntre(p *model.Prestamo, desde, hasta, hoy time.Time) []Cuota {
	desde, hasta = timeutil.Fecha(desde), timeutil.Fecha(hasta)
	var out []Cuota
	for _, c := range GenerarAmortizacion(p, hoy) {
		if c.Estado == CuotaPagada {
			continue
		}
		if c.FechaVencimiento.After(desde) && !c.FechaVencimiento.After(hasta) {
			out = append(out, c)
		}
	}
	return out
}

// DiasDeAtraso is the number of days since the oldest overdue installment of
// p, or 0 when nothing is overdue.
func DiasDeAtraso(p *model.Prestamo, hoy time.Time) int {
	for _, c := range GenerarAmortizacion(p, hoy) {
		if c.Estado == CuotaVencida {
			return timeutil.DaysBetween(c.FechaVencimiento, hoy)
		}
	}
	return 0
}

// EstaVencido reports whether p counts as overdue on hoy: still owing, not
// refinanced, and either past its final due date or with an overdue installment.
func EstaVencido(p *model.Prestamo, hoy time.Time) bool {
	if p.Estado == model.EstadoPagado || p.Estado == model.EstadoRefinanciado {
		return false
	}
	if !p.SaldoPendiente.IsPositive() {
		return false
	}
	if timeutil.Fecha(p.FechaVencimiento).Before(timeutil.Fecha(hoy)) {
		return true
	}
	return DiasDeAtraso(p, hoy) > 0
}
