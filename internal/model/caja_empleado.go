package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CajaEmpleadoCierre is one employee's register for one calendar date.
// SaldoEsperadoEntregar is what the employee owes the central register;
// Entregado is what they actually handed in.
type CajaEmpleadoCierre struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Fecha                 time.Time        `gorm:"type:date;not null;uniqueIndex:idx_caja_empleado_fecha"`
	EmpleadoID            uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_caja_empleado_fecha"`
	IngresosCobrados      decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	ComisionGanada        decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	IngresosOtros         decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	Egresos               decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	Depositos             decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	SaldoEsperadoEntregar decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	Entregado             *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Diferencia            *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Cerrado               bool             `gorm:"not null;default:false;index"`
	AutoCerrado           bool             `gorm:"not null;default:false"`
	ClosedAt              *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (CajaEmpleadoCierre) TableName() string { return "caja_empleado_cierres" }

func (c *CajaEmpleadoCierre) BeforeCreate(_ *gorm.DB) error {
	asignarID(&c.ID)
	return nil
}

// CajaEmpleadoMovimiento is an entry in an employee register that does not
// come from a loan payment (those are read from pagos directly).
type CajaEmpleadoMovimiento struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Fecha             time.Time       `gorm:"type:date;not null;index:idx_caja_empleado_mov"`
	EmpleadoID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_caja_empleado_mov"`
	Tipo              TipoMovimiento  `gorm:"type:varchar(10);not null"`
	Categoria         string          `gorm:"type:varchar(40);not null"`
	Descripcion       string          `gorm:"not null;default:''"`
	Monto             decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ClaveIdempotencia *string         `gorm:"type:varchar(120);uniqueIndex"`
	UsuarioID         *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt         time.Time
}

func (CajaEmpleadoMovimiento) TableName() string { return "caja_empleado_movimientos" }

func (m *CajaEmpleadoMovimiento) BeforeCreate(_ *gorm.DB) error {
	asignarID(&m.ID)
	return nil
}
