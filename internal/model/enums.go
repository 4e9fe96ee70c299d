package model

import "github.com/google/uuid"

// EstadoPrestamo is the lifecycle state of a loan.
type EstadoPrestamo string

const (
	EstadoActivo       EstadoPrestamo = "activo"
	EstadoPagado       EstadoPrestamo = "pagado"
	EstadoVencido      EstadoPrestamo = "vencido"
	EstadoImpago       EstadoPrestamo = "impago"
	EstadoRefinanciado EstadoPrestamo = "refinanciado"
)

// FrecuenciaPago sets the installment cadence of a loan.
type FrecuenciaPago string

const (
	FrecuenciaSemanal FrecuenciaPago = "semanal"
	FrecuenciaMensual FrecuenciaPago = "mensual"
	FrecuenciaDiaria  FrecuenciaPago = "diario"
)

// TipoPago decides how a payment is applied to the installment plan.
type TipoPago string

const (
	TipoPagoCuota   TipoPago = "cuota"
	TipoPagoParcial TipoPago = "parcial"
	TipoPagoTotal   TipoPago = "total"
)

// BaseComision is what a seller's percentage is applied to when computing
// the expected commission of a loan.
type BaseComision string

const (
	BaseMontoTotal BaseComision = "monto_total"
	BaseInteres    BaseComision = "interes"
)

// RolEmpleado distinguishes sellers from collectors.
type RolEmpleado string

const (
	RolVendedor RolEmpleado = "vendedor"
	RolCobrador RolEmpleado = "cobrador"
)

// TipoMovimiento is the direction of a cash movement.
type TipoMovimiento string

const (
	Ingreso TipoMovimiento = "ingreso"
	Egreso  TipoMovimiento = "egreso"
)

// Categorías of the central register.
const (
	CategoriaDesembolso       = "desembolso_prestamo"
	CategoriaPagoCuota        = "pago_cuota"
	CategoriaComisionVendedor = "comision_vendedor"
	CategoriaComisionCobrador = "comision_cobrador"
	CategoriaDepositoEmpleado = "deposito_empleado"
	CategoriaReversoPago      = "reverso_pago"
	CategoriaReversoComision  = "reverso_comision"
	CategoriaAjuste           = "ajuste"
	CategoriaOtros            = "otros"
)

// Categorías of an employee register.
const (
	CategoriaEmpleadoIngresoOtro = "ingreso_otro"
	CategoriaEmpleadoEgresoOtro  = "egreso_otro"
	CategoriaEmpleadoDeposito    = "deposito_caja_central"
)

// Referencias link a cash movement to its origin.
const (
	ReferenciaPrestamo = "prestamo"
	ReferenciaPago     = "pago"
	ReferenciaEmpleado = "empleado"
	ReferenciaManual   = "manual"
)

func asignarID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
