package repository

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComisionFiltro narrows commission record listings.
type ComisionFiltro struct {
	EmpleadoID *uuid.UUID
	PrestamoID *uuid.UUID
	Desde      *time.Time
	Hasta      *time.Time
}

type ComisionRepository interface {
	CreateAcuerdoTx(tx *gorm.DB, a *model.PrestamoVendedor) error
	FindAcuerdoTx(tx *gorm.DB, prestamoID uuid.UUID) (*model.PrestamoVendedor, error)
	ListAcuerdos(ctx context.Context, vendedorID *uuid.UUID) ([]model.PrestamoVendedor, error)

	CreatePagoVendedorTx(tx *gorm.DB, r *model.PagoVendedor) error
	CreatePagoCobradorTx(tx *gorm.DB, r *model.PagoCobrador) error
	ListPagosVendedor(ctx context.Context, f ComisionFiltro) ([]model.PagoVendedor, error)
	ListPagosCobrador(ctx context.Context, f ComisionFiltro) ([]model.PagoCobrador, error)
	// DeleteByPagoTx removes both kinds of commission records of a payment.
	DeleteByPagoTx(tx *gorm.DB, pagoID uuid.UUID) error
}

type comisionRepo struct{ db *gorm.DB }

func NewComisionRepository(db *gorm.DB) ComisionRepository { return &comisionRepo{db: db} }

func (r *comisionRepo) CreateAcuerdoTx(tx *gorm.DB, a *model.PrestamoVendedor) error {
	return tx.Create(a).Error
}

func (r *comisionRepo) FindAcuerdoTx(tx *gorm.DB, prestamoID uuid.UUID) (*model.PrestamoVendedor, error) {
	var a model.PrestamoVendedor
	err := tx.Where("prestamo_id = ?", prestamoID).First(&a).Error
	return &a, err
}

func (r *comisionRepo) ListAcuerdos(ctx context.Context, vendedorID *uuid.UUID) ([]model.PrestamoVendedor, error) {
	q := r.db.WithContext(ctx)
	if vendedorID != nil {
		q = q.Where("empleado_id = ?", *vendedorID)
	}
	var out []model.PrestamoVendedor
	err := q.Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *comisionRepo) CreatePagoVendedorTx(tx *gorm.DB, rec *model.PagoVendedor) error {
	return tx.Create(rec).Error
}

func (r *comisionRepo) CreatePagoCobradorTx(tx *gorm.DB, rec *model.PagoCobrador) error {
	return tx.Create(rec).Error
}

func (r *comisionRepo) filtrar(ctx context.Context, f ComisionFiltro) *gorm.DB {
	q := r.db.WithContext(ctx)
	if f.EmpleadoID != nil {
		q = q.Where("empleado_id = ?", *f.EmpleadoID)
	}
	if f.PrestamoID != nil {
		q = q.Where("prestamo_id = ?", *f.PrestamoID)
	}
	if f.Desde != nil {
		q = q.Where("fecha >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("fecha <= ?", *f.Hasta)
	}
	return q.Order("fecha ASC, created_at ASC")
}

func (r *comisionRepo) ListPagosVendedor(ctx context.Context, f ComisionFiltro) ([]model.PagoVendedor, error) {
	var out []model.PagoVendedor
	err := r.filtrar(ctx, f).Find(&out).Error
	return out, err
}

func (r *comisionRepo) ListPagosCobrador(ctx context.Context, f ComisionFiltro) ([]model.PagoCobrador, error) {
	var out []model.PagoCobrador
	err := r.filtrar(ctx, f).Find(&out).Error
	return out, err
}

func (r *comisionRepo) DeleteByPagoTx(tx *gorm.DB, pagoID uuid.UUID) error {
	if err := tx.Where("pago_id = ?", pagoID).Delete(&model.PagoVendedor{}).Error; err != nil {
		return err
	}
	return tx.Where("pago_id = ?", pagoID).Delete(&model.PagoCobrador{}).Error
}
