package service_test

import (
	"context"
	"testing"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// carteraMetricas leaves, on 2025-01-15, loan A (1000, started 01-01, sold by
// Vera, first installment overdue) and loan B (3000, started today).
func carteraMetricas(t *testing.T, e *entorno) (a *dto.PrestamoResponse, vera *model.Empleado) {
	t.Helper()
	vera = e.empleados.alta("Vera", model.RolVendedor, "10")
	a = crearPrestamo(t, e, vera, "2025-01-01")
	_, err := e.prestamoSvc().Crear(context.Background(), uuid.New(), dto.CrearPrestamoRequest{
		ClienteID:   uuid.NewString(),
		Monto:       dec("3000"),
		TasaInteres: dec("10"),
		PlazoDias:   30,
	})
	require.NoError(t, err)
	return a, vera
}

func TestMetrics_Summary(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	carteraMetricas(t, e)

	s, err := e.metricsSvc().GetSummaryMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalPrestamos)
	assert.Equal(t, 2, s.TotalClientes)
	assert.Equal(t, 2, s.PrestamosActivos)
	assert.Equal(t, 1, s.PrestamosVencidos)
	assert.Equal(t, 1, s.CuotasVencenHoy)
	assert.Equal(t, "220.00", s.MontoVenceHoy.StringFixed(2))
	assert.Equal(t, "4000.00", s.MontoTotalPrestado.StringFixed(2))
	assert.Equal(t, "4400.00", s.MontoTotalEsperado.StringFixed(2))
	assert.Equal(t, "2000.00", s.PromedioPrestamo.StringFixed(2))
	assert.Zero(t, s.TotalPagos)
	assert.True(t, s.TasaRecaudo.IsZero())
}

func TestMetrics_SummaryCacheSeInvalidaConPagos(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	a, _ := carteraMetricas(t, e)
	svc := e.metricsSvc()
	ctx := context.Background()

	_, err := svc.GetSummaryMetrics(ctx, nil)
	require.NoError(t, err)
	_, err = svc.GetSummaryMetrics(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.cache.lecturasHit)

	pagar(t, e.pagoSvc(config.EliminarPagoSaldo), a.ID, "220", nil)

	s, err := svc.GetSummaryMetrics(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalPagos)
	assert.Equal(t, 1, s.PagosHoy)
	assert.Equal(t, "220.00", s.RecaudadoHoy.StringFixed(2))
	assert.Equal(t, "0.0500", s.TasaRecaudo.StringFixed(4))
	assert.Equal(t, "220.00", s.TicketPromedioPago.StringFixed(2))
}

func TestMetrics_TasaRecaudoTopeaEnUno(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	a, _ := carteraMetricas(t, e)
	// Imported history can hold more collected than expected.
	e.pagos.pagos = append(e.pagos.pagos, &model.Pago{
		ID: uuid.New(), PrestamoID: uuid.MustParse(a.ID), Secuencia: 1,
		Monto: dec("5000"), FechaPago: fecha("2025-01-10"),
	})

	s, err := e.metricsSvc().GetSummaryMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "5000.00", s.MontoTotalRecaudado.StringFixed(2))
	assert.Equal(t, "1.0000", s.TasaRecaudo.StringFixed(4))
}

func TestMetrics_SummaryPorVendedor(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	_, vera := carteraMetricas(t, e)

	s, err := e.metricsSvc().GetSummaryMetrics(context.Background(), &vera.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalPrestamos)
	require.NotNil(t, s.EmpleadoID)
	assert.Equal(t, vera.ID.String(), *s.EmpleadoID)
}

func TestMetrics_Agenda(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	carteraMetricas(t, e)
	svc := e.metricsSvc()

	hoy, err := svc.GetDueToday(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, hoy.Cantidad)
	assert.Equal(t, 2, hoy.Cuotas[0].Numero)
	assert.Equal(t, "220.00", hoy.Total.StringFixed(2))

	semana, err := svc.GetDueNext(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-16", semana.Desde)
	assert.Equal(t, "2025-01-22", semana.Hasta)
	assert.Equal(t, 2, semana.Cantidad)
	assert.Equal(t, "880.00", semana.Total.StringFixed(2))

	_, err = svc.GetDueNext(context.Background(), 0)
	assert.True(t, service.IsValidation(err))
}

func TestMetrics_Periodo(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	a, vera := carteraMetricas(t, e)
	coco := e.empleados.alta("Coco", model.RolCobrador, "5")
	pagar(t, e.pagoSvc(config.EliminarPagoSaldo), a.ID, "220", coco)
	svc := e.metricsSvc()
	desde, hasta := fecha("2025-01-01"), fecha("2025-01-31")

	p, err := svc.GetPeriodMetrics(context.Background(), desde, hasta, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.PrestamosNuevos)
	assert.Equal(t, 2, p.ClientesNuevos)
	assert.Equal(t, "4000.00", p.MontoPrestado.StringFixed(2))
	assert.Equal(t, 1, p.CantidadPagos)
	assert.Equal(t, "22.00", p.ComisionesVendedor.StringFixed(2))
	assert.Equal(t, "11.00", p.ComisionesCobrador.StringFixed(2))
	assert.Equal(t, "187.00", p.IngresoNeto.StringFixed(2))

	p, err = svc.GetPeriodMetrics(context.Background(), desde, hasta, &vera.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.PrestamosNuevos)
	assert.Equal(t, "220.00", p.MontoRecaudado.StringFixed(2))
	assert.Equal(t, "187.00", p.IngresoNeto.StringFixed(2))

	_, err = svc.GetPeriodMetrics(context.Background(), hasta, desde, nil)
	assert.True(t, service.IsValidation(err))
}

func TestMetrics_Rentabilidad(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	a, _ := carteraMetricas(t, e)
	coco := e.empleados.alta("Coco", model.RolCobrador, "5")
	pagar(t, e.pagoSvc(config.EliminarPagoSaldo), a.ID, "220", coco)

	r, err := e.metricsSvc().GetProfitability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4000.00", r.CapitalPrestado.StringFixed(2))
	assert.Equal(t, "400.00", r.InteresEsperado.StringFixed(2))
	assert.Equal(t, "20.00", r.InteresRecuperado.StringFixed(2))
	assert.Equal(t, "200.00", r.CapitalRecuperado.StringFixed(2))
	assert.Equal(t, "33.00", r.ComisionesPagadas.StringFixed(2))
	assert.Equal(t, "-13.00", r.GananciaNeta.StringFixed(2))
	assert.True(t, r.ROI.IsNegative())
}

func TestMetrics_Segmentos(t *testing.T) {
	e := nuevoEntorno("2025-01-15")
	carteraMetricas(t, e)
	svc := e.metricsSvc()

	porSegmento := func(r *dto.SegmentMetricsResponse) map[string]int {
		out := map[string]int{}
		for _, s := range r.Segmentos {
			out[s.Segmento] = s.Cantidad
		}
		return out
	}

	r, err := svc.GetSegmentMetrics(context.Background(), service.DimensionMonto, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"menos_500": 0, "500_2000": 1, "2000_5000": 1, "mas_5000": 0}, porSegmento(r))

	r, err = svc.GetSegmentMetrics(context.Background(), service.DimensionMorosidad, nil, nil)
	require.NoError(t, err)
	m := porSegmento(r)
	assert.Equal(t, 1, m["al_dia"])
	assert.Equal(t, 1, m["1_7"])
	assert.Zero(t, m["impago"])

	r, err = svc.GetSegmentMetrics(context.Background(), service.DimensionAntiguedad, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, porSegmento(r)["0_30"])

	_, err = svc.GetSegmentMetrics(context.Background(), "color", nil, nil)
	assert.True(t, service.IsValidation(err))
}
