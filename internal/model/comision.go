package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrestamoVendedor is the commission agreement between a loan and the seller
// who originated it. MontoComision is the expected total commission.
type PrestamoVendedor struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PrestamoID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	EmpleadoID     *uuid.UUID      `gorm:"type:uuid;index"`
	EmpleadoNombre string          `gorm:"not null"`
	Porcentaje     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	BaseCalculo    BaseComision    `gorm:"type:varchar(20);not null;default:'monto_total'"`
	MontoBase      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoComision  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
}

func (PrestamoVendedor) TableName() string { return "prestamos_vendedores" }

func (a *PrestamoVendedor) BeforeCreate(_ *gorm.DB) error {
	asignarID(&a.ID)
	return nil
}

// PagoVendedor is the seller commission earned on one payment.
// EmpleadoNombre is kept so the record survives the employee's deletion.
type PagoVendedor struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PagoID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	PrestamoID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	EmpleadoID     *uuid.UUID      `gorm:"type:uuid;index"`
	EmpleadoNombre string          `gorm:"not null"`
	Porcentaje     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MontoPago      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoComision  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Fecha          time.Time       `gorm:"type:date;not null;index"`
	CreatedAt      time.Time
}

func (PagoVendedor) TableName() string { return "pagos_vendedores" }

func (r *PagoVendedor) BeforeCreate(_ *gorm.DB) error {
	asignarID(&r.ID)
	return nil
}

// PagoCobrador is the collector commission earned on one payment.
type PagoCobrador struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PagoID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	PrestamoID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	EmpleadoID     *uuid.UUID      `gorm:"type:uuid;index"`
	EmpleadoNombre string          `gorm:"not null"`
	Porcentaje     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MontoPago      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoComision  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Fecha          time.Time       `gorm:"type:date;not null;index"`
	CreatedAt      time.Time
}

func (PagoCobrador) TableName() string { return "pagos_cobradores" }

func (r *PagoCobrador) BeforeCreate(_ *gorm.DB) error {
	asignarID(&r.ID)
	return nil
}
