package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Pago records money received against a loan.
// The *Antes fields snapshot the loan's installment state right before the
// payment was applied so a deletion can revert it.
type Pago struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PrestamoID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_pagos_prestamo_secuencia,priority:1"`
	// Secuencia orders the payments of one loan; assigned under the loan's row lock.
	Secuencia  int             `gorm:"not null;default:0;uniqueIndex:idx_pagos_prestamo_secuencia,priority:2"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaPago  time.Time       `gorm:"type:date;not null;index"`
	MetodoPago string          `gorm:"type:varchar(20);not null;default:'efectivo'"`
	TipoPago   TipoPago        `gorm:"type:varchar(20);not null;default:'parcial'"`
	// CobradorID is the employee who physically received the money.
	CobradorID *uuid.UUID `gorm:"type:uuid;index"`
	UsuarioID  *uuid.UUID `gorm:"type:uuid"`
	Notas      *string

	CuotasPagadasAntes  int             `gorm:"not null;default:0"`
	SaldoCuotaAntes     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EstadoPrestamoAntes EstadoPrestamo  `gorm:"type:varchar(20)"`

	CreatedAt time.Time
}

func (p *Pago) BeforeCreate(_ *gorm.DB) error {
	asignarID(&p.ID)
	return nil
}
