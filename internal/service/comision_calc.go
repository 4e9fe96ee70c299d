package service

import (
	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/shopspring/decimal"
)

var cien = decimal.NewFromInt(100)

func validarPorcentaje(campo string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(cien) {
		return validacion(campo, "debe estar entre 0 y 100")
	}
	return nil
}

// ComisionCobrador is the collector's cut of a payment.
func ComisionCobrador(monto, porcentaje decimal.Decimal) (decimal.Decimal, error) {
	if err := validarPorcentaje("porcentaje_cobrador", porcentaje); err != nil {
		return decimal.Zero, err
	}
	return monto.Mul(porcentaje).Div(cien).Round(2), nil
}

// ComisionVendedor is the seller's cut of a payment under the loan's agreement.
// It is always computed on the payment amount, whatever the agreement's base.
// A nil agreement earns nothing.
func ComisionVendedor(monto decimal.Decimal, acuerdo *model.PrestamoVendedor) decimal.Decimal {
	if acuerdo == nil {
		return decimal.Zero
	}
	return monto.Mul(acuerdo.Porcentaje).Div(cien).Round(2)
}

// BaseComision returns the amount a seller percentage applies to when the
// agreement is created.
func BaseComision(p *model.Prestamo, base model.BaseComision) decimal.Decimal {
	if base == model.BaseInteres {
		return p.Interes()
	}
	return p.MontoTotal
}

// ComisionEsperada computes the expected commission for a new agreement.
func ComisionEsperada(p *model.Prestamo, porcentaje decimal.Decimal, base model.BaseComision) (decimal.Decimal, decimal.Decimal, error) {
	if err := validarPorcentaje("porcentaje_vendedor", porcentaje); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	montoBase := BaseComision(p, base)
	return montoBase, montoBase.Mul(porcentaje).Div(cien).Round(2), nil
}

// ComisionPendiente is what the seller still expects to earn on a loan.
func ComisionPendiente(esperada, cobrada decimal.Decimal) decimal.Decimal {
	return esperada.Sub(cobrada).Round(2)
}
