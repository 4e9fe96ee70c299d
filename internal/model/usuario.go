package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Usuario stores system users with role-based access.
// Rol: "administrador" | "supervisor" | "vendedor" | "cobrador"
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	// EmpleadoID links a login to an employee register; nil for back-office users.
	EmpleadoID *uuid.UUID `gorm:"type:uuid"`
	Activo     bool       `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	asignarID(&u.ID)
	return nil
}
