package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type MovimientoCajaRequest struct {
	Fecha       string          `json:"fecha"       validate:"omitempty,datetime=2006-01-02"`
	Tipo        string          `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Categoria   string          `json:"categoria"   validate:"omitempty,oneof=ajuste otros"`
	Monto       decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Descripcion string          `json:"descripcion" validate:"required,min=3,max=300"`
}

type CerrarDiaRequest struct {
	Fecha      string           `json:"fecha"       validate:"omitempty,datetime=2006-01-02"`
	SaldoFinal *decimal.Decimal `json:"saldo_final" validate:"required"`
}

type FechaRequest struct {
	Fecha string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

type MovimientoEmpleadoRequest struct {
	Fecha       string          `json:"fecha"       validate:"omitempty,datetime=2006-01-02"`
	Categoria   string          `json:"categoria"   validate:"required,oneof=ingreso_otro egreso_otro deposito_caja_central"`
	Monto       decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Descripcion string          `json:"descripcion" validate:"omitempty,max=300"`
}

type CerrarDiaEmpleadoRequest struct {
	Fecha     string           `json:"fecha"     validate:"omitempty,datetime=2006-01-02"`
	Entregado *decimal.Decimal `json:"entregado" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoCajaResponse struct {
	ID             string          `json:"id"`
	Fecha          string          `json:"fecha"`
	Tipo           string          `json:"tipo"`
	Categoria      string          `json:"categoria"`
	Descripcion    string          `json:"descripcion"`
	Monto          decimal.Decimal `json:"monto"`
	ReferenciaTipo *string         `json:"referencia_tipo"`
	ReferenciaID   *string         `json:"referencia_id"`
	EmpleadoID     *string         `json:"empleado_id"`
	CreatedAt      string          `json:"created_at"`
}

type CierreCajaResponse struct {
	ID                  string                     `json:"id"`
	Fecha               string                     `json:"fecha"`
	SaldoInicial        decimal.Decimal            `json:"saldo_inicial"`
	Ingresos            decimal.Decimal            `json:"ingresos"`
	Egresos             decimal.Decimal            `json:"egresos"`
	SaldoEsperado       decimal.Decimal            `json:"saldo_esperado"`
	SaldoFinal          *decimal.Decimal           `json:"saldo_final"`
	Diferencia          *decimal.Decimal           `json:"diferencia"`
	Cerrado             bool                       `json:"cerrado"`
	AutoCerrado         bool                       `json:"auto_cerrado"`
	ClosedAt            *string                    `json:"closed_at"`
	DetalleIngresos     map[string]decimal.Decimal `json:"detalle_ingresos,omitempty"`
	DetalleEgresos      map[string]decimal.Decimal `json:"detalle_egresos,omitempty"`
	CantidadMovimientos int                        `json:"cantidad_movimientos"`
}

type ResumenCajaEmpleadoResponse struct {
	Fecha                 string           `json:"fecha"`
	EmpleadoID            string           `json:"empleado_id"`
	EmpleadoNombre        string           `json:"empleado_nombre"`
	Rol                   string           `json:"rol"`
	IngresosCobrados      decimal.Decimal  `json:"ingresos_cobrados"`
	ComisionGanada        decimal.Decimal  `json:"comision_ganada"`
	IngresosOtros         decimal.Decimal  `json:"ingresos_otros"`
	Egresos               decimal.Decimal  `json:"egresos"`
	Depositos             decimal.Decimal  `json:"depositos"`
	SaldoEsperadoEntregar decimal.Decimal  `json:"saldo_esperado_entregar"`
	Entregado             *decimal.Decimal `json:"entregado"`
	Diferencia            *decimal.Decimal `json:"diferencia"`
	Cerrado               bool             `json:"cerrado"`
	AutoCerrado           bool             `json:"auto_cerrado"`
	ClosedAt              *string          `json:"closed_at"`
}

type MovimientoEmpleadoResponse struct {
	ID          string          `json:"id"`
	Fecha       string          `json:"fecha"`
	EmpleadoID  string          `json:"empleado_id"`
	Tipo        string          `json:"tipo"`
	Categoria   string          `json:"categoria"`
	Descripcion string          `json:"descripcion"`
	Monto       decimal.Decimal `json:"monto"`
	// EspejoPendiente is true when the central mirror write was queued for retry.
	EspejoPendiente bool   `json:"espejo_pendiente"`
	CreatedAt       string `json:"created_at"`
}
