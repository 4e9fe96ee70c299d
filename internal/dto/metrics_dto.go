package dto

import "github.com/shopspring/decimal"

type SummaryMetricsResponse struct {
	EmpleadoID          *string         `json:"empleado_id"`
	TotalClientes       int             `json:"total_clientes"`
	ClientesActivos     int             `json:"clientes_activos"`
	TotalPrestamos      int             `json:"total_prestamos"`
	PrestamosActivos    int             `json:"prestamos_activos"`
	PrestamosVencidos   int             `json:"prestamos_vencidos"`
	TotalPagos          int             `json:"total_pagos"`
	PagosHoy            int             `json:"pagos_hoy"`
	MontoTotalPrestado  decimal.Decimal `json:"monto_total_prestado"`
	MontoTotalEsperado  decimal.Decimal `json:"monto_total_esperado"`
	MontoTotalRecaudado decimal.Decimal `json:"monto_total_recaudado"`
	SaldoPendienteTotal decimal.Decimal `json:"saldo_pendiente_total"`
	RecaudadoHoy        decimal.Decimal `json:"recaudado_hoy"`
	TasaRecaudo         decimal.Decimal `json:"tasa_recaudo"`
	PromedioPrestamo    decimal.Decimal `json:"average_loan_size"`
	TicketPromedioPago  decimal.Decimal `json:"ticket_promedio_pago"`
	CuotasVencenHoy     int             `json:"cuotas_vencen_hoy"`
	MontoVenceHoy       decimal.Decimal `json:"monto_vence_hoy"`
}

type CuotaAgendaResponse struct {
	PrestamoID       string          `json:"prestamo_id"`
	ClienteID        string          `json:"cliente_id"`
	Numero           int             `json:"numero"`
	FechaVencimiento string          `json:"fecha_vencimiento"`
	Monto            decimal.Decimal `json:"monto"`
	Estado           string          `json:"estado"`
	SaldoPendiente   decimal.Decimal `json:"saldo_pendiente"`
}

type AgendaCobrosResponse struct {
	Desde    string                `json:"desde"`
	Hasta    string                `json:"hasta"`
	Cuotas   []CuotaAgendaResponse `json:"cuotas"`
	Cantidad int                   `json:"cantidad"`
	Total    decimal.Decimal       `json:"total"`
}

type PeriodMetricsResponse struct {
	Desde              string          `json:"desde"`
	Hasta              string          `json:"hasta"`
	EmpleadoID         *string         `json:"empleado_id"`
	PrestamosNuevos    int             `json:"prestamos_nuevos"`
	MontoPrestado      decimal.Decimal `json:"monto_prestado"`
	MontoEsperado      decimal.Decimal `json:"monto_esperado"`
	CantidadPagos      int             `json:"cantidad_pagos"`
	MontoRecaudado     decimal.Decimal `json:"monto_recaudado"`
	ComisionesVendedor decimal.Decimal `json:"comisiones_vendedor"`
	ComisionesCobrador decimal.Decimal `json:"comisiones_cobrador"`
	IngresoNeto        decimal.Decimal `json:"ingreso_neto"`
	ClientesNuevos     int             `json:"clientes_nuevos"`
}

type ProfitabilityResponse struct {
	CapitalPrestado   decimal.Decimal `json:"capital_prestado"`
	MontoRecaudado    decimal.Decimal `json:"monto_recaudado"`
	InteresEsperado   decimal.Decimal `json:"interes_esperado"`
	InteresRecuperado decimal.Decimal `json:"interes_recuperado"`
	CapitalRecuperado decimal.Decimal `json:"capital_recuperado"`
	ComisionesPagadas decimal.Decimal `json:"comisiones_pagadas"`
	GananciaNeta      decimal.Decimal `json:"ganancia_neta"`
	ROI               decimal.Decimal `json:"roi"` // percent over capital_prestado
}

type SegmentoResponse struct {
	Segmento       string          `json:"segmento"`
	Cantidad       int             `json:"cantidad"`
	MontoPrestado  decimal.Decimal `json:"monto_prestado"`
	SaldoPendiente decimal.Decimal `json:"saldo_pendiente"`
	MontoRecaudado decimal.Decimal `json:"monto_recaudado"`
}

type SegmentMetricsResponse struct {
	Dimension string             `json:"dimension"`
	Segmentos []SegmentoResponse `json:"segmentos"`
}
