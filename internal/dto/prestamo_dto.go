package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearPrestamoRequest struct {
	ClienteID      string          `json:"cliente_id"      validate:"required,uuid"`
	Monto          decimal.Decimal `json:"monto"           validate:"required,gt=0"`
	TasaInteres    decimal.Decimal `json:"tasa_interes"    validate:"min=0,max=1000"`
	PlazoDias      int             `json:"plazo_dias"      validate:"required,min=1,max=3650"`
	FrecuenciaPago string          `json:"frecuencia_pago" validate:"omitempty,oneof=semanal mensual diario"`
	FechaInicio    string          `json:"fecha_inicio"    validate:"omitempty,datetime=2006-01-02"`
	// CuotasTotales overrides the count derived from plazo and frecuencia.
	CuotasTotales int `json:"cuotas_totales" validate:"omitempty,min=1,max=3650"`

	VendedorID         *string          `json:"vendedor_id"          validate:"omitempty,uuid"`
	PorcentajeVendedor *decimal.Decimal `json:"porcentaje_vendedor"  validate:"omitempty,min=0,max=100"`
	BaseComision       string           `json:"base_comision"        validate:"omitempty,oneof=monto_total interes"`
}

type RefinanciarRequest struct {
	// TasaRefinanciacion compounds the outstanding balance; defaults to config.
	TasaRefinanciacion *decimal.Decimal `json:"tasa_refinanciacion" validate:"omitempty,min=0,max=1000"`
	TasaInteres        decimal.Decimal  `json:"tasa_interes"        validate:"min=0,max=1000"`
	PlazoDias          int              `json:"plazo_dias"          validate:"required,min=1,max=3650"`
	FrecuenciaPago     string           `json:"frecuencia_pago"     validate:"omitempty,oneof=semanal mensual diario"`
}

// PrestamoFiltroParams are the query parameters of GET /v1/prestamos.
type PrestamoFiltroParams struct {
	Estado     string `form:"estado"      validate:"omitempty,oneof=activo pagado vencido impago refinanciado"`
	ClienteID  string `form:"cliente_id"  validate:"omitempty,uuid"`
	VendedorID string `form:"vendedor_id" validate:"omitempty,uuid"`
	Desde      string `form:"desde"       validate:"omitempty,datetime=2006-01-02"`
	Hasta      string `form:"hasta"       validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PrestamoResponse struct {
	ID               string          `json:"id"`
	ClienteID        string          `json:"cliente_id"`
	Monto            decimal.Decimal `json:"monto"`
	TasaInteres      decimal.Decimal `json:"tasa_interes"`
	PlazoDias        int             `json:"plazo_dias"`
	FrecuenciaPago   string          `json:"frecuencia_pago"`
	FechaInicio      string          `json:"fecha_inicio"`
	FechaVencimiento string          `json:"fecha_vencimiento"`
	MontoTotal       decimal.Decimal `json:"monto_total"`
	SaldoPendiente   decimal.Decimal `json:"saldo_pendiente"`
	Estado           string          `json:"estado"`
	CuotasTotales    int             `json:"cuotas_totales"`
	CuotasPagadas    int             `json:"cuotas_pagadas"`
	ValorCuota       decimal.Decimal `json:"valor_cuota"`
	SaldoCuota       decimal.Decimal `json:"saldo_cuota"`
	PrestamoOrigenID *string         `json:"prestamo_origen_id"`
}

type CuotaResponse struct {
	Numero           int             `json:"numero"`
	FechaVencimiento string          `json:"fecha_vencimiento"`
	Monto            decimal.Decimal `json:"monto"`
	Estado           string          `json:"estado"` // Pagado | Vencido | Pendiente
}

type AmortizacionResponse struct {
	PrestamoID string          `json:"prestamo_id"`
	Cuotas     []CuotaResponse `json:"cuotas"`
	DiasAtraso int             `json:"dias_atraso"`
	Vencido    bool            `json:"vencido"`
}
