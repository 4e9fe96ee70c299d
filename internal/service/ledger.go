package service

import (
	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/shopspring/decimal"
)

// ResultadoAplicacion is the loan state after a payment was applied.
type ResultadoAplicacion struct {
	CuotasPagadas  int
	SaldoCuota     decimal.Decimal
	SaldoPendiente decimal.Decimal
	Estado         model.EstadoPrestamo
}

// AplicarPago computes the state transition a payment causes on p without
// touching p.
//
// A "total" payment consumes whole obligations (installment plus carry) while
// it covers them and leaves the shortfall as carry. Any other type always
// counts as one installment paid and the carry absorbs the difference, even
// when the amount falls short; this mirrors how the shop has always booked
// partial payments.
func AplicarPago(p *model.Prestamo, monto decimal.Decimal, tipo model.TipoPago) (ResultadoAplicacion, error) {
	if !monto.IsPositive() {
		return ResultadoAplicacion{}, validacion("monto", "debe ser mayor a 0")
	}
	if p.Estado == model.EstadoRefinanciado {
		return ResultadoAplicacion{}, validacion("prestamo", "el préstamo fue refinanciado y no admite pagos")
	}
	if monto.GreaterThan(p.SaldoPendiente) {
		return ResultadoAplicacion{}, validacion("monto", "el monto %s supera el saldo pendiente %s",
			monto.StringFixed(2), p.SaldoPendiente.StringFixed(2))
	}

	pagadas := p.CuotasPagadas
	carry := p.SaldoCuota

	switch tipo {
	case model.TipoPagoTotal:
		restante := monto
		for pagadas < p.CuotasTotales && restante.IsPositive() {
			obligacion := p.ValorCuota.Add(carry)
			if restante.LessThan(obligacion) {
				carry = obligacion.Sub(restante)
				restante = decimal.Zero
				break
			}
			restante = restante.Sub(obligacion)
			pagadas++
			carry = decimal.Zero
		}
		if restante.IsPositive() {
			// Plan exhausted with money left: keep it as credit.
			carry = carry.Sub(restante)
		}
	default:
		obligacion := p.ValorCuota.Add(carry)
		pagadas++
		carry = obligacion.Sub(monto)
	}

	res := ResultadoAplicacion{
		CuotasPagadas:  pagadas,
		SaldoCuota:     carry,
		SaldoPendiente: p.SaldoPendiente.Sub(monto),
	}
	resolverEstado(&res, p.CuotasTotales)
	return res, nil
}

func resolverEstado(res *ResultadoAplicacion, cuotasTotales int) {
	agotado := cuotasTotales > 0 && res.CuotasPagadas >= cuotasTotales
	saldado := !res.SaldoPendiente.IsPositive()
	switch {
	case saldado:
		res.Estado = model.EstadoPagado
		res.SaldoPendiente = decimal.Zero
		res.SaldoCuota = decimal.Zero
	case agotado:
		res.Estado = model.EstadoImpago
	default:
		res.Estado = model.EstadoActivo
	}
}

// aplicarResultado copies a ledger result onto the loan.
func aplicarResultado(p *model.Prestamo, res ResultadoAplicacion) {
	p.CuotasPagadas = res.CuotasPagadas
	p.SaldoCuota = res.SaldoCuota
	p.SaldoPendiente = res.SaldoPendiente
	p.Estado = res.Estado
}
