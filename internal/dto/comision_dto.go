package dto

import "github.com/shopspring/decimal"

type ResumenVendedorResponse struct {
	VendedorID           *string         `json:"vendedor_id"`
	ComisionesEsperadas  decimal.Decimal `json:"comisiones_esperadas"`
	ComisionesCobradas   decimal.Decimal `json:"comisiones_cobradas"`
	ComisionesPendientes decimal.Decimal `json:"comisiones_pendientes"`
	PorcentajeCobrado    decimal.Decimal `json:"porcentaje_cobrado"`
	CantidadPrestamos    int             `json:"cantidad_prestamos"`
}

type DetallePrestamoVendedor struct {
	PrestamoID        string          `json:"prestamo_id"`
	ClienteID         string          `json:"cliente_id"`
	MontoPrestamo     decimal.Decimal `json:"monto_prestamo"`
	Porcentaje        decimal.Decimal `json:"porcentaje"`
	BaseCalculo       string          `json:"base_calculo"`
	ComisionEsperada  decimal.Decimal `json:"comision_esperada"`
	ComisionCobrada   decimal.Decimal `json:"comision_cobrada"`
	ComisionPendiente decimal.Decimal `json:"comision_pendiente"`
	EstadoPrestamo    string          `json:"estado_prestamo"`
}

type DetalleVendedorResponse struct {
	VendedorID     string                    `json:"vendedor_id"`
	VendedorNombre string                    `json:"vendedor_nombre"`
	Prestamos      []DetallePrestamoVendedor `json:"prestamos"`
	TotalEsperado  decimal.Decimal           `json:"total_esperado"`
	TotalCobrado   decimal.Decimal           `json:"total_cobrado"`
	TotalPendiente decimal.Decimal           `json:"total_pendiente"`
}

type ResumenCobradorResponse struct {
	CobradorID         *string         `json:"cobrador_id"`
	ComisionesCobradas decimal.Decimal `json:"comisiones_cobradas"`
	MontoCobrado       decimal.Decimal `json:"monto_cobrado"`
	CantidadPagos      int             `json:"cantidad_pagos"`
	PromedioPorPago    decimal.Decimal `json:"promedio_por_pago"`
}

type ComisionesDelDiaResponse struct {
	Fecha              string          `json:"fecha"`
	TotalCobrado       decimal.Decimal `json:"total_cobrado"`
	ComisionesVendedor decimal.Decimal `json:"comisiones_vendedor"`
	ComisionesCobrador decimal.Decimal `json:"comisiones_cobrador"`
	TotalComisiones    decimal.Decimal `json:"total_comisiones"`
	IngresoNeto        decimal.Decimal `json:"ingreso_neto"`
	CantidadPagos      int             `json:"cantidad_pagos"`
}

type RankingEmpleado struct {
	EmpleadoID     *string         `json:"empleado_id"`
	EmpleadoNombre string          `json:"empleado_nombre"`
	TotalComision  decimal.Decimal `json:"total_comision"`
	CantidadPagos  int             `json:"cantidad_pagos"`
}

type RankingEmpleadosResponse struct {
	Desde      *string           `json:"desde"`
	Hasta      *string           `json:"hasta"`
	Vendedores []RankingEmpleado `json:"vendedores"`
	Cobradores []RankingEmpleado `json:"cobradores"`
}
