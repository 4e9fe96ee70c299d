package repository

import (
	"context"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmpleadoRepository interface {
	Create(ctx context.Context, e *model.Empleado) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Empleado, error)
	// List returns active employees; rol "" means every role.
	List(ctx context.Context, rol model.RolEmpleado) ([]model.Empleado, error)
}

type empleadoRepo struct{ db *gorm.DB }

func NewEmpleadoRepository(db *gorm.DB) EmpleadoRepository { return &empleadoRepo{db: db} }

func (r *empleadoRepo) Create(ctx context.Context, e *model.Empleado) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *empleadoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Empleado, error) {
	var e model.Empleado
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	return &e, err
}

func (r *empleadoRepo) List(ctx context.Context, rol model.RolEmpleado) ([]model.Empleado, error) {
	q := r.db.WithContext(ctx).Where("activo = ?", true)
	if rol != "" {
		q = q.Where("rol = ?", rol)
	}
	var out []model.Empleado
	err := q.Order("nombre ASC").Find(&out).Error
	return out, err
}
