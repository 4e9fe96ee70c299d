package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/infra"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infra.NewSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	return db
}

func dia(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func mov(fecha string, tipo model.TipoMovimiento, monto string) *model.MovimientoCaja {
	return &model.MovimientoCaja{
		Fecha: dia(fecha), Tipo: tipo, Categoria: model.CategoriaOtros,
		Descripcion: "test", Monto: decimal.RequireFromString(monto),
	}
}

func TestCajaRepo_SumasYCierresAbiertos(t *testing.T) {
	db := newDB(t)
	repo := repository.NewCajaRepository(db)
	ctx := context.Background()

	for _, m := range []*model.MovimientoCaja{
		mov("2025-01-08", model.Ingreso, "500"),
		mov("2025-01-08", model.Ingreso, "300.25"),
		mov("2025-01-08", model.Egreso, "100"),
		mov("2025-01-09", model.Ingreso, "999"),
	} {
		require.NoError(t, repo.CreateMovimientoTx(db, m))
	}
	ing, egr, err := repo.SumarMovimientosTx(db, dia("2025-01-08"))
	require.NoError(t, err)
	assert.Equal(t, "800.25", ing.StringFixed(2))
	assert.Equal(t, "100.00", egr.StringFixed(2))

	for _, f := range []string{"2025-01-09", "2025-01-07", "2025-01-08"} {
		require.NoError(t, repo.CreateCierreTx(db, &model.CajaCierre{Fecha: dia(f)}))
	}
	c, err := repo.FindCierre(ctx, dia("2025-01-08"))
	require.NoError(t, err)
	c.Cerrado = true
	require.NoError(t, repo.UpdateCierreTx(db, c))

	abiertos, err := repo.ListCierresAbiertosAntes(ctx, dia("2025-01-10"))
	require.NoError(t, err)
	require.Len(t, abiertos, 2)
	assert.Equal(t, dia("2025-01-07"), abiertos[0].Fecha.UTC(), "oldest first")
	assert.Equal(t, dia("2025-01-09"), abiertos[1].Fecha.UTC())

	_, err = repo.FindCierre(ctx, dia("2024-12-31"))
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	err = repo.CreateCierreTx(db, &model.CajaCierre{Fecha: dia("2025-01-08")})
	assert.Error(t, err, "one close row per date")
}

func TestCajaRepo_ClaveIdempotenciaUnica(t *testing.T) {
	db := newDB(t)
	repo := repository.NewCajaRepository(db)
	clave := "dep:e1:2025-01-08:200:1"

	m := mov("2025-01-08", model.Ingreso, "200")
	m.ClaveIdempotencia = &clave
	require.NoError(t, repo.CreateMovimientoTx(db, m))

	dup := mov("2025-01-08", model.Ingreso, "200")
	dup.ClaveIdempotencia = &clave
	assert.Error(t, repo.CreateMovimientoTx(db, dup))

	got, err := repo.FindMovimientoPorClave(context.Background(), clave)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestPrestamoRepo_FiltroPorVendedor(t *testing.T) {
	db := newDB(t)
	prestamos := repository.NewPrestamoRepository(db)
	comisiones := repository.NewComisionRepository(db)
	ctx := context.Background()
	vendedor := uuid.New()

	nuevo := func(inicio string) *model.Prestamo {
		p := &model.Prestamo{
			ClienteID: uuid.New(), Monto: decimal.NewFromInt(1000), PlazoDias: 30,
			FechaInicio: dia(inicio), FechaVencimiento: dia(inicio).AddDate(0, 0, 30),
			MontoTotal: decimal.NewFromInt(1100), SaldoPendiente: decimal.NewFromInt(1100),
			Estado: model.EstadoActivo, CuotasTotales: 5, ValorCuota: decimal.NewFromInt(220),
		}
		require.NoError(t, prestamos.CreateTx(db, p))
		return p
	}
	a := nuevo("2025-01-01")
	nuevo("2025-01-05")
	require.NoError(t, comisiones.CreateAcuerdoTx(db, &model.PrestamoVendedor{
		PrestamoID: a.ID, EmpleadoID: &vendedor, EmpleadoNombre: "Vera",
		Porcentaje: decimal.NewFromInt(10), BaseCalculo: model.BaseMontoTotal,
		MontoBase: decimal.NewFromInt(1100), MontoComision: decimal.NewFromInt(110),
	}))

	todos, err := prestamos.List(ctx, repository.PrestamoFiltro{})
	require.NoError(t, err)
	assert.Len(t, todos, 2)

	suyos, err := prestamos.List(ctx, repository.PrestamoFiltro{VendedorID: &vendedor})
	require.NoError(t, err)
	require.Len(t, suyos, 1)
	assert.Equal(t, a.ID, suyos[0].ID)

	desde := dia("2025-01-02")
	recientes, err := prestamos.List(ctx, repository.PrestamoFiltro{Desde: &desde})
	require.NoError(t, err)
	assert.Len(t, recientes, 1)

	acuerdo, err := comisiones.FindAcuerdoTx(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "110.00", acuerdo.MontoComision.StringFixed(2))
}

func TestEmpleadoYUsuarioRepo(t *testing.T) {
	db := newDB(t)
	empleados := repository.NewEmpleadoRepository(db)
	usuarios := repository.NewUsuarioRepository(db)
	ctx := context.Background()

	e := &model.Empleado{Nombre: "Coco", Rol: model.RolCobrador, PorcentajeComision: decimal.NewFromInt(5), Activo: true}
	require.NoError(t, empleados.Create(ctx, e))
	require.NoError(t, empleados.Create(ctx, &model.Empleado{Nombre: "Vera", Rol: model.RolVendedor, Activo: true}))

	cobradores, err := empleados.List(ctx, model.RolCobrador)
	require.NoError(t, err)
	require.Len(t, cobradores, 1)
	assert.Equal(t, e.ID, cobradores[0].ID)

	u := &model.Usuario{Username: "coco", Nombre: "Coco", PasswordHash: "x", Rol: "cobrador", EmpleadoID: &e.ID, Activo: true}
	require.NoError(t, usuarios.Create(ctx, u))
	require.NoError(t, usuarios.SetActivo(ctx, u.ID, false))

	_, err = usuarios.FindByUsername(ctx, "coco")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "inactive users cannot log in")
	assert.True(t, errors.Is(usuarios.SetActivo(ctx, uuid.New(), true), gorm.ErrRecordNotFound))
}

func TestPagoRepo_UltimoPorSecuencia(t *testing.T) {
	db := newDB(t)
	repo := repository.NewPagoRepository(db)
	prestamoID := uuid.New()
	mismoInstante := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)

	nuevo := func(secuencia int, monto int64) *model.Pago {
		return &model.Pago{
			PrestamoID: prestamoID, Secuencia: secuencia, Monto: decimal.NewFromInt(monto),
			FechaPago: dia("2025-01-08"), CreatedAt: mismoInstante,
		}
	}
	// Inserted out of order with the same timestamp.
	segundo := nuevo(2, 340)
	require.NoError(t, repo.CreateTx(db, segundo))
	require.NoError(t, repo.CreateTx(db, nuevo(1, 100)))

	ultimo, err := repo.UltimoTx(db, prestamoID)
	require.NoError(t, err)
	assert.Equal(t, segundo.ID, ultimo.ID)

	todos, err := repo.ListByPrestamo(context.Background(), prestamoID)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, 1, todos[0].Secuencia)

	assert.Error(t, repo.CreateTx(db, nuevo(2, 5)), "one sequence number per loan")

	_, err = repo.UltimoTx(db, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
