package repository

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CajaEmpleadoRepository interface {
	DB() *gorm.DB
	FindCierreTx(tx *gorm.DB, fecha time.Time, empleadoID uuid.UUID, bloquear bool) (*model.CajaEmpleadoCierre, error)
	CreateCierreTx(tx *gorm.DB, c *model.CajaEmpleadoCierre) error
	UpdateCierreTx(tx *gorm.DB, c *model.CajaEmpleadoCierre) error
	ListCierresAbiertosAntes(ctx context.Context, fecha time.Time) ([]model.CajaEmpleadoCierre, error)

	CreateMovimientoTx(tx *gorm.DB, m *model.CajaEmpleadoMovimiento) error
	ListMovimientos(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) ([]model.CajaEmpleadoMovimiento, error)
}

type cajaEmpleadoRepo struct{ db *gorm.DB }

func NewCajaEmpleadoRepository(db *gorm.DB) CajaEmpleadoRepository {
	return &cajaEmpleadoRepo{db: db}
}

func (r *cajaEmpleadoRepo) DB() *gorm.DB { return r.db }

func (r *cajaEmpleadoRepo) FindCierreTx(tx *gorm.DB, fecha time.Time, empleadoID uuid.UUID, bloquear bool) (*model.CajaEmpleadoCierre, error) {
	q := tx
	if bloquear {
		q = forUpdate(tx)
	}
	var c model.CajaEmpleadoCierre
	err := q.Where("fecha = ? AND empleado_id = ?", fecha, empleadoID).First(&c).Error
	return &c, err
}

func (r *cajaEmpleadoRepo) CreateCierreTx(tx *gorm.DB, c *model.CajaEmpleadoCierre) error {
	return tx.Create(c).Error
}

func (r *cajaEmpleadoRepo) UpdateCierreTx(tx *gorm.DB, c *model.CajaEmpleadoCierre) error {
	return tx.Save(c).Error
}

func (r *cajaEmpleadoRepo) ListCierresAbiertosAntes(ctx context.Context, fecha time.Time) ([]model.CajaEmpleadoCierre, error) {
	var out []model.CajaEmpleadoCierre
	err := r.db.WithContext(ctx).
		Where("cerrado = ? AND fecha < ?", false, fecha).
		Order("fecha ASC").Find(&out).Error
	return out, err
}

func (r *cajaEmpleadoRepo) CreateMovimientoTx(tx *gorm.DB, m *model.CajaEmpleadoMovimiento) error {
	return tx.Create(m).Error
}

func (r *cajaEmpleadoRepo) ListMovimientos(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) ([]model.CajaEmpleadoMovimiento, error) {
	var out []model.CajaEmpleadoMovimiento
	err := r.db.WithContext(ctx).
		Where("fecha = ? AND empleado_id = ?", fecha, empleadoID).
		Order("created_at ASC").Find(&out).Error
	return out, err
}
