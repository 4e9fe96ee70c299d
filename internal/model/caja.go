package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CajaCierre is the central register state for one calendar date.
// The row is created lazily on first access. SaldoFinal, Diferencia and
// ClosedAt are only set while Cerrado is true.
type CajaCierre struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Fecha         time.Time        `gorm:"type:date;uniqueIndex;not null"`
	SaldoInicial  decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	Ingresos      decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	Egresos       decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	SaldoEsperado decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	SaldoFinal    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Diferencia    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Cerrado       bool             `gorm:"not null;default:false;index"`
	// AutoCerrado marks closes performed by the sweep instead of a person.
	AutoCerrado bool `gorm:"not null;default:false"`
	ClosedAt    *time.Time
	UsuarioID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *CajaCierre) BeforeCreate(_ *gorm.DB) error {
	asignarID(&c.ID)
	return nil
}

// MovimientoCaja is an immutable entry in the central register.
// Monto is always positive; Tipo carries the direction.
// Movements are never modified or deleted; reversals append new entries.
type MovimientoCaja struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Fecha          time.Time       `gorm:"type:date;not null;index"`
	Tipo           TipoMovimiento  `gorm:"type:varchar(10);not null"`
	Categoria      string          `gorm:"type:varchar(40);not null;default:'otros'"`
	Descripcion    string          `gorm:"not null;default:''"`
	Monto          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ReferenciaTipo *string         `gorm:"type:varchar(20)"`
	ReferenciaID   *uuid.UUID      `gorm:"type:uuid;index"`
	EmpleadoID     *uuid.UUID      `gorm:"type:uuid;index"`
	UsuarioID      *uuid.UUID      `gorm:"type:uuid"`
	// ClaveIdempotencia deduplicates mirror writes coming from employee deposits.
	ClaveIdempotencia *string `gorm:"type:varchar(120);uniqueIndex"`
	CreatedAt         time.Time
}

func (MovimientoCaja) TableName() string { return "caja_movimientos" }

func (m *MovimientoCaja) BeforeCreate(_ *gorm.DB) error {
	asignarID(&m.ID)
	return nil
}
