package repository

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PrestamoFiltro narrows a loan listing. Zero values mean "any".
type PrestamoFiltro struct {
	Estado     model.EstadoPrestamo
	ClienteID  *uuid.UUID
	VendedorID *uuid.UUID // loans whose seller agreement names this employee
	Desde      *time.Time // fecha_inicio >= Desde
	Hasta      *time.Time // fecha_inicio <= Hasta
}

type PrestamoRepository interface {
	DB() *gorm.DB
	CreateTx(tx *gorm.DB, p *model.Prestamo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prestamo, error)
	// FindByIDForUpdateTx reads the loan holding a row lock until tx ends.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Prestamo, error)
	UpdateTx(tx *gorm.DB, p *model.Prestamo) error
	List(ctx context.Context, f PrestamoFiltro) ([]model.Prestamo, error)
}

type prestamoRepo struct{ db *gorm.DB }

func NewPrestamoRepository(db *gorm.DB) PrestamoRepository { return &prestamoRepo{db: db} }

func (r *prestamoRepo) DB() *gorm.DB { return r.db }

func (r *prestamoRepo) CreateTx(tx *gorm.DB, p *model.Prestamo) error {
	return tx.Create(p).Error
}

func (r *prestamoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Prestamo, error) {
	var p model.Prestamo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *prestamoRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Prestamo, error) {
	var p model.Prestamo
	err := forUpdate(tx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *prestamoRepo) UpdateTx(tx *gorm.DB, p *model.Prestamo) error {
	return tx.Save(p).Error
}

func (r *prestamoRepo) List(ctx context.Context, f PrestamoFiltro) ([]model.Prestamo, error) {
	q := r.db.WithContext(ctx).Model(&model.Prestamo{})
	if f.Estado != "" {
		q = q.Where("estado = ?", f.Estado)
	}
	if f.ClienteID != nil {
		q = q.Where("cliente_id = ?", *f.ClienteID)
	}
	if f.VendedorID != nil {
		q = q.Where("id IN (?)", r.db.Model(&model.PrestamoVendedor{}).
			Select("prestamo_id").Where("empleado_id = ?", *f.VendedorID))
	}
	if f.Desde != nil {
		q = q.Where("fecha_inicio >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("fecha_inicio <= ?", *f.Hasta)
	}
	var out []model.Prestamo
	err := q.Order("fecha_inicio ASC, created_at ASC").Find(&out).Error
	return out, err
}
