package repository

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CajaRepository interface {
	DB() *gorm.DB
	// FindCierreTx reads the close row of fecha; bloquear takes a row lock.
	FindCierreTx(tx *gorm.DB, fecha time.Time, bloquear bool) (*model.CajaCierre, error)
	FindCierre(ctx context.Context, fecha time.Time) (*model.CajaCierre, error)
	CreateCierreTx(tx *gorm.DB, c *model.CajaCierre) error
	UpdateCierreTx(tx *gorm.DB, c *model.CajaCierre) error
	ListCierres(ctx context.Context, desde, hasta time.Time) ([]model.CajaCierre, error)
	// ListCierresAbiertosAntes returns open days strictly before fecha, oldest first.
	ListCierresAbiertosAntes(ctx context.Context, fecha time.Time) ([]model.CajaCierre, error)

	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	FindMovimientoPorClave(ctx context.Context, clave string) (*model.MovimientoCaja, error)
	// SumarMovimientosTx totals inflows and outflows of one date.
	SumarMovimientosTx(tx *gorm.DB, fecha time.Time) (ingresos, egresos decimal.Decimal, err error)
	ListMovimientos(ctx context.Context, desde, hasta time.Time) ([]model.MovimientoCaja, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) FindCierreTx(tx *gorm.DB, fecha time.Time, bloquear bool) (*model.CajaCierre, error) {
	q := tx
	if bloquear {
		q = forUpdate(tx)
	}
	var c model.CajaCierre
	err := q.Where("fecha = ?", fecha).First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindCierre(ctx context.Context, fecha time.Time) (*model.CajaCierre, error) {
	return r.FindCierreTx(r.db.WithContext(ctx), fecha, false)
}

func (r *cajaRepo) CreateCierreTx(tx *gorm.DB, c *model.CajaCierre) error {
	return tx.Create(c).Error
}

func (r *cajaRepo) UpdateCierreTx(tx *gorm.DB, c *model.CajaCierre) error {
	return tx.Save(c).Error
}

func (r *cajaRepo) ListCierres(ctx context.Context, desde, hasta time.Time) ([]model.CajaCierre, error) {
	var out []model.CajaCierre
	err := r.db.WithContext(ctx).
		Where("fecha >= ? AND fecha <= ?", desde, hasta).
		Order("fecha ASC").Find(&out).Error
	return out, err
}

func (r *cajaRepo) ListCierresAbiertosAntes(ctx context.Context, fecha time.Time) ([]model.CajaCierre, error) {
	var out []model.CajaCierre
	err := r.db.WithContext(ctx).
		Where("cerrado = ? AND fecha < ?", false, fecha).
		Order("fecha ASC").Find(&out).Error
	return out, err
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	return tx.Create(m).Error
}

func (r *cajaRepo) FindMovimientoPorClave(ctx context.Context, clave string) (*model.MovimientoCaja, error) {
	var m model.MovimientoCaja
	err := r.db.WithContext(ctx).Where("clave_idempotencia = ?", clave).First(&m).Error
	return &m, err
}

type totalPorTipo struct {
	Tipo  string
	Total decimal.Decimal
}

func (r *cajaRepo) SumarMovimientosTx(tx *gorm.DB, fecha time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var rows []totalPorTipo
	err := tx.Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS total").
		Where("fecha = ?", fecha).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	ingresos, egresos := decimal.Zero, decimal.Zero
	for _, row := range rows {
		switch model.TipoMovimiento(row.Tipo) {
		case model.Ingreso:
			ingresos = ingresos.Add(row.Total)
		case model.Egreso:
			egresos = egresos.Add(row.Total)
		}
	}
	return ingresos.Round(2), egresos.Round(2), nil
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, desde, hasta time.Time) ([]model.MovimientoCaja, error) {
	var out []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("fecha >= ? AND fecha <= ?", desde, hasta).
		Order("fecha ASC, created_at ASC").Find(&out).Error
	return out, err
}
