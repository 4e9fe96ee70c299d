package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarPagoRequest struct {
	PrestamoID string          `json:"prestamo_id" validate:"required,uuid"`
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	TipoPago   string          `json:"tipo_pago"   validate:"omitempty,oneof=cuota parcial total"`
	MetodoPago string          `json:"metodo_pago" validate:"omitempty,oneof=efectivo transferencia"`
	Notas      *string         `json:"notas"       validate:"omitempty,max=500"`

	CobradorID *string `json:"cobrador_id" validate:"omitempty,uuid"`
	// PorcentajeCobrador defaults to the collector's configured rate; the
	// 0-100 range is checked by the commission calculator.
	PorcentajeCobrador *decimal.Decimal `json:"porcentaje_cobrador"`
}

type PreviewComisionRequest struct {
	Monto      decimal.Decimal `json:"monto"      validate:"required,gt=0"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PagoResponse struct {
	ID         string          `json:"id"`
	PrestamoID string          `json:"prestamo_id"`
	Monto      decimal.Decimal `json:"monto"`
	FechaPago  string          `json:"fecha_pago"`
	MetodoPago string          `json:"metodo_pago"`
	TipoPago   string          `json:"tipo_pago"`
	CobradorID *string         `json:"cobrador_id"`
	Notas      *string         `json:"notas"`
}

type ComisionRegistradaResponse struct {
	Rol            string          `json:"rol"` // vendedor | cobrador
	EmpleadoID     *string         `json:"empleado_id"`
	EmpleadoNombre string          `json:"empleado_nombre"`
	Porcentaje     decimal.Decimal `json:"porcentaje"`
	MontoComision  decimal.Decimal `json:"monto_comision"`
}

type RegistrarPagoResponse struct {
	Pago       PagoResponse                 `json:"pago"`
	Prestamo   PrestamoResponse             `json:"prestamo"`
	Comisiones []ComisionRegistradaResponse `json:"comisiones"`
}

type PreviewComisionResponse struct {
	Monto         decimal.Decimal `json:"monto"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	MontoComision decimal.Decimal `json:"monto_comision"`
}
