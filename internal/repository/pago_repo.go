package repository

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PagoFiltro narrows a payment listing. Zero values mean "any".
type PagoFiltro struct {
	Desde       *time.Time
	Hasta       *time.Time
	CobradorID  *uuid.UUID
	PrestamoIDs []uuid.UUID // nil = any loan; empty non-nil = none
}

type PagoRepository interface {
	CreateTx(tx *gorm.DB, p *model.Pago) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// UltimoTx returns the most recent payment of a loan.
	UltimoTx(tx *gorm.DB, prestamoID uuid.UUID) (*model.Pago, error)
	ListByPrestamo(ctx context.Context, prestamoID uuid.UUID) ([]model.Pago, error)
	List(ctx context.Context, f PagoFiltro) ([]model.Pago, error)
}

type pagoRepo struct{ db *gorm.DB }

func NewPagoRepository(db *gorm.DB) PagoRepository { return &pagoRepo{db: db} }

func (r *pagoRepo) CreateTx(tx *gorm.DB, p *model.Pago) error {
	return tx.Create(p).Error
}

func (r *pagoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error) {
	var p model.Pago
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *pagoRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&model.Pago{}).Error
}

func (r *pagoRepo) UltimoTx(tx *gorm.DB, prestamoID uuid.UUID) (*model.Pago, error) {
	var p model.Pago
	err := tx.Where("prestamo_id = ?", prestamoID).
		Order("secuencia DESC").Order("created_at DESC").First(&p).Error
	return &p, err
}

func (r *pagoRepo) ListByPrestamo(ctx context.Context, prestamoID uuid.UUID) ([]model.Pago, error) {
	var out []model.Pago
	err := r.db.WithContext(ctx).Where("prestamo_id = ?", prestamoID).
		Order("secuencia ASC").Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *pagoRepo) List(ctx context.Context, f PagoFiltro) ([]model.Pago, error) {
	if f.PrestamoIDs != nil && len(f.PrestamoIDs) == 0 {
		return []model.Pago{}, nil
	}
	q := r.db.WithContext(ctx).Model(&model.Pago{})
	if f.Desde != nil {
		q = q.Where("fecha_pago >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("fecha_pago <= ?", *f.Hasta)
	}
	if f.CobradorID != nil {
		q = q.Where("cobrador_id = ?", *f.CobradorID)
	}
	if f.PrestamoIDs != nil {
		q = q.Where("prestamo_id IN ?", f.PrestamoIDs)
	}
	var out []model.Pago
	err := q.Order("fecha_pago ASC, created_at ASC").Find(&out).Error
	return out, err
}
