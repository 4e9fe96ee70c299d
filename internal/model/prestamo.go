package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Prestamo is a loan with a fixed installment plan.
// MontoTotal = Monto * (1 + TasaInteres/100). SaldoPendiente only decreases
// through payments and is restored by payment deletion.
// SaldoCuota is the carry between installments: positive means owed on top of
// the next installment, negative means a credit toward it.
type Prestamo struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClienteID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TasaInteres      decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	PlazoDias        int             `gorm:"not null"`
	FrecuenciaPago   FrecuenciaPago  `gorm:"type:varchar(20);not null;default:'semanal'"`
	FechaInicio      time.Time       `gorm:"type:date;not null"`
	FechaVencimiento time.Time       `gorm:"type:date;not null;index"`
	MontoTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoPendiente   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado           EstadoPrestamo  `gorm:"type:varchar(20);not null;default:'activo';index"`
	CuotasTotales    int             `gorm:"not null;default:0"`
	CuotasPagadas    int             `gorm:"not null;default:0"`
	ValorCuota       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SaldoCuota       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// PrestamoOrigenID points at the loan this one refinanced.
	PrestamoOrigenID *uuid.UUID `gorm:"type:uuid"`
	UsuarioID        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Prestamo) BeforeCreate(_ *gorm.DB) error {
	asignarID(&p.ID)
	return nil
}

// Interes is the interest portion of the loan total.
func (p *Prestamo) Interes() decimal.Decimal {
	return p.MontoTotal.Sub(p.Monto)
}

// Pagado is what has been collected so far.
func (p *Prestamo) Pagado() decimal.Decimal {
	return p.MontoTotal.Sub(p.SaldoPendiente)
}
