package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// carteraConComisiones: Vera sold one loan (10% of 1100 expected), Coco
// collected 220 and 100 at 5%, Otto collected 300 at 10%.
func carteraConComisiones(t *testing.T, e *entorno) (vera, coco, otto *model.Empleado) {
	t.Helper()
	vera = e.empleados.alta("Vera", model.RolVendedor, "10")
	coco = e.empleados.alta("Coco", model.RolCobrador, "5")
	otto = e.empleados.alta("Otto", model.RolCobrador, "10")
	p := crearPrestamo(t, e, vera, "2025-01-01")
	pagos := e.pagoSvc(config.EliminarPagoSaldo)
	pagar(t, pagos, p.ID, "220", coco)
	pagar(t, pagos, p.ID, "100", coco)
	pagar(t, pagos, p.ID, "300", otto)
	return vera, coco, otto
}

func TestComision_ResumenVendedor(t *testing.T) {
	e := nuevoEntorno("2025-01-08")
	vera, _, _ := carteraConComisiones(t, e)

	r, err := e.comisionSvc().ResumenVendedor(context.Background(), &vera.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "110.00", r.ComisionesEsperadas.StringFixed(2))
	assert.Equal(t, "62.00", r.ComisionesCobradas.StringFixed(2)) // 22 + 10 + 30
	assert.Equal(t, "48.00", r.ComisionesPendientes.StringFixed(2))
	assert.Equal(t, "56.36", r.PorcentajeCobrado.StringFixed(2))
	assert.Equal(t, 1, r.CantidadPrestamos)

	desde, hasta := fecha("2025-01-09"), fecha("2025-01-31")
	r, err = e.comisionSvc().ResumenVendedor(context.Background(), &vera.ID, &desde, &hasta)
	require.NoError(t, err)
	assert.True(t, r.ComisionesCobradas.IsZero())
	assert.Equal(t, "110.00", r.ComisionesEsperadas.StringFixed(2), "el rango solo filtra lo cobrado")
}

func TestComision_DetalleVendedor(t *testing.T) {
	e := nuevoEntorno("2025-01-08")
	vera, _, _ := carteraConComisiones(t, e)

	d, err := e.comisionSvc().DetalleVendedor(context.Background(), vera.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vera", d.VendedorNombre)
	require.Len(t, d.Prestamos, 1)
	assert.Equal(t, "62.00", d.Prestamos[0].ComisionCobrada.StringFixed(2))
	assert.Equal(t, "48.00", d.Prestamos[0].ComisionPendiente.StringFixed(2))
	assert.Equal(t, "48.00", d.TotalPendiente.StringFixed(2))

	_, err = e.comisionSvc().DetalleVendedor(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestComision_ResumenCobrador(t *testing.T) {
	e := nuevoEntorno("2025-01-08")
	_, coco, _ := carteraConComisiones(t, e)

	r, err := e.comisionSvc().ResumenCobrador(context.Background(), &coco.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, r.CantidadPagos)
	assert.Equal(t, "320.00", r.MontoCobrado.StringFixed(2))
	assert.Equal(t, "16.00", r.ComisionesCobradas.StringFixed(2))
	assert.Equal(t, "8.00", r.PromedioPorPago.StringFixed(2))
}

func TestComision_DelDia(t *testing.T) {
	e := nuevoEntorno("2025-01-08")
	carteraConComisiones(t, e)

	d, err := e.comisionSvc().ComisionesDelDia(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-08", d.Fecha)
	assert.Equal(t, 3, d.CantidadPagos)
	assert.Equal(t, "620.00", d.TotalCobrado.StringFixed(2))
	assert.Equal(t, "62.00", d.ComisionesVendedor.StringFixed(2))
	assert.Equal(t, "46.00", d.ComisionesCobrador.StringFixed(2))
	assert.Equal(t, "512.00", d.IngresoNeto.StringFixed(2))

	otro := fecha("2025-01-07")
	d, err = e.comisionSvc().ComisionesDelDia(context.Background(), &otro)
	require.NoError(t, err)
	assert.Zero(t, d.CantidadPagos)
}

func TestComision_Ranking(t *testing.T) {
	e := nuevoEntorno("2025-01-08")
	carteraConComisiones(t, e)

	r, err := e.comisionSvc().RankingEmpleados(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, r.Cobradores, 2)
	assert.Equal(t, "Otto", r.Cobradores[0].EmpleadoNombre)
	assert.Equal(t, "30.00", r.Cobradores[0].TotalComision.StringFixed(2))
	assert.Equal(t, "Coco", r.Cobradores[1].EmpleadoNombre)
	assert.Equal(t, 2, r.Cobradores[1].CantidadPagos)
	require.Len(t, r.Vendedores, 1)
	assert.Equal(t, 3, r.Vendedores[0].CantidadPagos)

	desde, hasta := fecha("2025-02-01"), fecha("2025-01-01")
	_, err = e.comisionSvc().RankingEmpleados(context.Background(), &desde, &hasta)
	assert.True(t, service.IsValidation(err))
}
