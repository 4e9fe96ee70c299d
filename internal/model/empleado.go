package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Empleado is a seller or collector working for the shop.
// PorcentajeComision is the default rate used when a request does not carry one.
type Empleado struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Nombre             string          `gorm:"not null"`
	Rol                RolEmpleado     `gorm:"type:varchar(20);not null;index"`
	PorcentajeComision decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Telefono           *string
	Activo             bool `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (e *Empleado) BeforeCreate(_ *gorm.DB) error {
	asignarID(&e.ID)
	return nil
}
