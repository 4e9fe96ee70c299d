package dto

import "github.com/shopspring/decimal"

// EspejoDepositoJob re-attempts the central mirror write of an employee deposit.
type EspejoDepositoJob struct {
	ClaveIdempotencia string          `json:"clave_idempotencia"`
	Fecha             string          `json:"fecha"`
	EmpleadoID        string          `json:"empleado_id"`
	EmpleadoNombre    string          `json:"empleado_nombre"`
	Monto             decimal.Decimal `json:"monto"`
	UsuarioID         *string         `json:"usuario_id"`
}

// ReporteCierreJob asks the worker to render and mail a day-close report.
type ReporteCierreJob struct {
	Fecha string `json:"fecha"`
	To    string `json:"to"`
}
