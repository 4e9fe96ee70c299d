package service

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Segment dimensions accepted by GetSegmentMetrics.
const (
	DimensionMonto      = "monto"
	DimensionAntiguedad = "antiguedad"
	DimensionMorosidad  = "morosidad"
)

// MetricsService derives portfolio figures from loans, payments and
// commission records. Nothing it computes is stored.
type MetricsService interface {
	GetSummaryMetrics(ctx context.Context, empleadoID *uuid.UUID) (*dto.SummaryMetricsResponse, error)
	GetDueToday(ctx context.Context) (*dto.AgendaCobrosResponse, error)
	GetDueNext(ctx context.Context, dias int) (*dto.AgendaCobrosResponse, error)
	GetPeriodMetrics(ctx context.Context, desde, hasta time.Time, empleadoID *uuid.UUID) (*dto.PeriodMetricsResponse, error)
	GetProfitability(ctx context.Context) (*dto.ProfitabilityResponse, error)
	GetSegmentMetrics(ctx context.Context, dimension string, desde, hasta *time.Time) (*dto.SegmentMetricsResponse, error)
}

type metricsService struct {
	prestamos  repository.PrestamoRepository
	pagos      repository.PagoRepository
	comisiones repository.ComisionRepository
	cache      MetricsCache
	cacheTTL   time.Duration
	clock      timeutil.Clock
}

func NewMetricsService(
	prestamos repository.PrestamoRepository,
	pagos repository.PagoRepository,
	comisiones repository.ComisionRepository,
	cache MetricsCache,
	cacheTTL time.Duration,
	clock timeutil.Clock,
) MetricsService {
	return &metricsService{
		prestamos:  prestamos,
		pagos:      pagos,
		comisiones: comisiones,
		cache:      cacheOrNoop(cache),
		cacheTTL:   cacheTTL,
		clock:      clock,
	}
}

// ── Summary ───────────────────────────────────────────────────────────────────

func (s *metricsService) GetSummaryMetrics(ctx context.Context, empleadoID *uuid.UUID) (*dto.SummaryMetricsResponse, error) {
	hoy := timeutil.Hoy(s.clock)
	key := prefijoMetricas + "summary:todos:" + timeutil.FormatFecha(hoy)
	if empleadoID != nil {
		key = prefijoMetricas + "summary:" + empleadoID.String() + ":" + timeutil.FormatFecha(hoy)
	}
	var cached dto.SummaryMetricsResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	prestamos, pagos, err := s.cartera(ctx, repository.PrestamoFiltro{VendedorID: empleadoID})
	if err != nil {
		return nil, err
	}

	resp := &dto.SummaryMetricsResponse{
		EmpleadoID:     uuidPtrString(empleadoID),
		TotalPrestamos: len(prestamos),
		TotalPagos:     len(pagos),
	}
	clientes := map[uuid.UUID]struct{}{}
	activos := map[uuid.UUID]struct{}{}
	for i := range prestamos {
		p := &prestamos[i]
		clientes[p.ClienteID] = struct{}{}
		resp.MontoTotalPrestado = resp.MontoTotalPrestado.Add(p.Monto)
		resp.MontoTotalEsperado = resp.MontoTotalEsperado.Add(p.MontoTotal)
		resp.SaldoPendienteTotal = resp.SaldoPendienteTotal.Add(p.SaldoPendiente)
		if p.SaldoPendiente.IsPositive() {
			activos[p.ClienteID] = struct{}{}
			if p.Estado == model.EstadoActivo {
				resp.PrestamosActivos++
			}
		}
		if EstaVencido(p, hoy) {
			resp.PrestamosVencidos++
		}
		for _, c := range CuotasQueVencen(p, hoy, hoy) {
			resp.CuotasVencenHoy++
			resp.MontoVenceHoy = resp.MontoVenceHoy.Add(c.Monto)
		}
	}
	for _, pg := range pagos {
		resp.MontoTotalRecaudado = resp.MontoTotalRecaudado.Add(pg.Monto)
		if timeutil.Fecha(pg.FechaPago).Equal(hoy) {
			resp.PagosHoy++
			resp.RecaudadoHoy = resp.RecaudadoHoy.Add(pg.Monto)
		}
	}
	resp.TotalClientes = len(clientes)
	resp.ClientesActivos = len(activos)

	if resp.MontoTotalEsperado.IsPositive() {
		tasa := resp.MontoTotalRecaudado.Div(resp.MontoTotalEsperado)
		resp.TasaRecaudo = decimal.Min(tasa, decimal.NewFromInt(1)).Round(4)
	}
	if n := len(prestamos); n > 0 {
		resp.PromedioPrestamo = resp.MontoTotalPrestado.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	if n := len(pagos); n > 0 {
		resp.TicketPromedioPago = resp.MontoTotalRecaudado.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	resp.MontoTotalPrestado = resp.MontoTotalPrestado.Round(2)
	resp.MontoTotalEsperado = resp.MontoTotalEsperado.Round(2)
	resp.MontoTotalRecaudado = resp.MontoTotalRecaudado.Round(2)
	resp.SaldoPendienteTotal = resp.SaldoPendienteTotal.Round(2)
	resp.RecaudadoHoy = resp.RecaudadoHoy.Round(2)
	resp.MontoVenceHoy = resp.MontoVenceHoy.Round(2)

	s.cache.Set(ctx, key, resp, s.cacheTTL)
	return resp, nil
}

// ── Agenda ────────────────────────────────────────────────────────────────────

func (s *metricsService) GetDueToday(ctx context.Context) (*dto.AgendaCobrosResponse, error) {
	hoy := timeutil.Hoy(s.clock)
	return s.agenda(ctx, hoy, hoy, func(p *model.Prestamo) []Cuota {
		return CuotasQueVencen(p, hoy, hoy)
	})
}

func (s *metricsService) GetDueNext(ctx context.Context, dias int) (*dto.AgendaCobrosResponse, error) {
	if dias < 1 || dias > 365 {
		return nil, validacion("dias", "debe estar entre 1 y 365")
	}
	hoy := timeutil.Hoy(s.clock)
	hasta := timeutil.AddDays(hoy, dias)
	return s.agenda(ctx, timeutil.AddDays(hoy, 1), hasta, func(p *model.Prestamo) []Cuota {
		return CuotasEntre(p, hoy, hasta, hoy)
	})
}

func (s *metricsService) agenda(ctx context.Context, desde, hasta time.Time, cuotas func(*model.Prestamo) []Cuota) (*dto.AgendaCobrosResponse, error) {
	prestamos, err := s.prestamos.List(ctx, repository.PrestamoFiltro{})
	if err != nil {
		return nil, err
	}
	resp := &dto.AgendaCobrosResponse{
		Desde:  timeutil.FormatFecha(desde),
		Hasta:  timeutil.FormatFecha(hasta),
		Cuotas: []dto.CuotaAgendaResponse{},
	}
	for i := range prestamos {
		p := &prestamos[i]
		if p.Estado == model.EstadoPagado || p.Estado == model.EstadoRefinanciado {
			continue
		}
		for _, c := range cuotas(p) {
			resp.Cuotas = append(resp.Cuotas, dto.CuotaAgendaResponse{
				PrestamoID:       p.ID.String(),
				ClienteID:        p.ClienteID.String(),
				Numero:           c.Numero,
				FechaVencimiento: timeutil.FormatFecha(c.FechaVencimiento),
				Monto:            c.Monto,
				Estado:           string(c.Estado),
				SaldoPendiente:   p.SaldoPendiente,
			})
			resp.Total = resp.Total.Add(c.Monto)
		}
	}
	resp.Cantidad = len(resp.Cuotas)
	resp.Total = resp.Total.Round(2)
	return resp, nil
}

// ── Period ────────────────────────────────────────────────────────────────────

func (s *metricsService) GetPeriodMetrics(ctx context.Context, desde, hasta time.Time, empleadoID *uuid.UUID) (*dto.PeriodMetricsResponse, error) {
	desde, hasta = timeutil.Fecha(desde), timeutil.Fecha(hasta)
	if desde.After(hasta) {
		return nil, validacion("desde", "debe ser anterior o igual a hasta")
	}

	cartera, err := s.prestamos.List(ctx, repository.PrestamoFiltro{VendedorID: empleadoID})
	if err != nil {
		return nil, err
	}
	pf := repository.PagoFiltro{Desde: &desde, Hasta: &hasta}
	enCartera := map[uuid.UUID]struct{}{}
	if empleadoID != nil {
		pf.PrestamoIDs = idsDe(cartera)
		for _, p := range cartera {
			enCartera[p.ID] = struct{}{}
		}
	}
	pagos, err := s.pagos.List(ctx, pf)
	if err != nil {
		return nil, err
	}

	resp := &dto.PeriodMetricsResponse{
		Desde:      timeutil.FormatFecha(desde),
		Hasta:      timeutil.FormatFecha(hasta),
		EmpleadoID: uuidPtrString(empleadoID),
	}

	primerPrestamo := map[uuid.UUID]time.Time{}
	for _, p := range cartera {
		inicio := timeutil.Fecha(p.FechaInicio)
		if prev, ok := primerPrestamo[p.ClienteID]; !ok || inicio.Before(prev) {
			primerPrestamo[p.ClienteID] = inicio
		}
		if entre(inicio, desde, hasta) {
			resp.PrestamosNuevos++
			resp.MontoPrestado = resp.MontoPrestado.Add(p.Monto)
			resp.MontoEsperado = resp.MontoEsperado.Add(p.MontoTotal)
		}
	}
	for _, inicio := range primerPrestamo {
		if entre(inicio, desde, hasta) {
			resp.ClientesNuevos++
		}
	}
	for _, pg := range pagos {
		resp.CantidadPagos++
		resp.MontoRecaudado = resp.MontoRecaudado.Add(pg.Monto)
	}

	cf := repository.ComisionFiltro{Desde: &desde, Hasta: &hasta, EmpleadoID: empleadoID}
	vendedor, err := s.comisiones.ListPagosVendedor(ctx, cf)
	if err != nil {
		return nil, err
	}
	for _, r := range vendedor {
		resp.ComisionesVendedor = resp.ComisionesVendedor.Add(r.MontoComision)
	}
	cobrador, err := s.comisiones.ListPagosCobrador(ctx, repository.ComisionFiltro{Desde: &desde, Hasta: &hasta})
	if err != nil {
		return nil, err
	}
	for _, r := range cobrador {
		if empleadoID != nil {
			if _, ok := enCartera[r.PrestamoID]; !ok {
				continue
			}
		}
		resp.ComisionesCobrador = resp.ComisionesCobrador.Add(r.MontoComision)
	}

	resp.MontoPrestado = resp.MontoPrestado.Round(2)
	resp.MontoEsperado = resp.MontoEsperado.Round(2)
	resp.MontoRecaudado = resp.MontoRecaudado.Round(2)
	resp.ComisionesVendedor = resp.ComisionesVendedor.Round(2)
	resp.ComisionesCobrador = resp.ComisionesCobrador.Round(2)
	resp.IngresoNeto = resp.MontoRecaudado.Sub(resp.ComisionesVendedor).Sub(resp.ComisionesCobrador)
	return resp, nil
}

// ── Profitability ─────────────────────────────────────────────────────────────

// GetProfitability splits each loan's collected amount between principal and
// interest in the proportion the loan total was built with.
func (s *metricsService) GetProfitability(ctx context.Context) (*dto.ProfitabilityResponse, error) {
	prestamos, pagos, err := s.cartera(ctx, repository.PrestamoFiltro{})
	if err != nil {
		return nil, err
	}
	cobrado := cobradoPorPrestamo(pagos)

	resp := &dto.ProfitabilityResponse{}
	for i := range prestamos {
		p := &prestamos[i]
		resp.CapitalPrestado = resp.CapitalPrestado.Add(p.Monto)
		resp.InteresEsperado = resp.InteresEsperado.Add(p.Interes())
		if p.MontoTotal.IsPositive() {
			resp.InteresRecuperado = resp.InteresRecuperado.Add(cobrado[p.ID].Mul(p.Interes()).Div(p.MontoTotal))
		}
	}
	for _, pg := range pagos {
		resp.MontoRecaudado = resp.MontoRecaudado.Add(pg.Monto)
	}

	vendedor, err := s.comisiones.ListPagosVendedor(ctx, repository.ComisionFiltro{})
	if err != nil {
		return nil, err
	}
	cobrador, err := s.comisiones.ListPagosCobrador(ctx, repository.ComisionFiltro{})
	if err != nil {
		return nil, err
	}
	for _, r := range vendedor {
		resp.ComisionesPagadas = resp.ComisionesPagadas.Add(r.MontoComision)
	}
	for _, r := range cobrador {
		resp.ComisionesPagadas = resp.ComisionesPagadas.Add(r.MontoComision)
	}

	resp.CapitalPrestado = resp.CapitalPrestado.Round(2)
	resp.MontoRecaudado = resp.MontoRecaudado.Round(2)
	resp.InteresEsperado = resp.InteresEsperado.Round(2)
	resp.InteresRecuperado = resp.InteresRecuperado.Round(2)
	resp.CapitalRecuperado = resp.MontoRecaudado.Sub(resp.InteresRecuperado)
	resp.ComisionesPagadas = resp.ComisionesPagadas.Round(2)
	resp.GananciaNeta = resp.InteresRecuperado.Sub(resp.ComisionesPagadas)
	resp.ROI = porcentaje(resp.GananciaNeta, resp.CapitalPrestado)
	return resp, nil
}

// ── Segments ──────────────────────────────────────────────────────────────────

type segmento struct {
	nombre  string
	incluye func(p *model.Prestamo, hoy time.Time) bool
}

var (
	quinientos = decimal.NewFromInt(500)
	dosMil     = decimal.NewFromInt(2000)
	cincoMil   = decimal.NewFromInt(5000)
)

var segmentos = map[string][]segmento{
	DimensionMonto: {
		{"menos_500", func(p *model.Prestamo, _ time.Time) bool { return p.Monto.LessThan(quinientos) }},
		{"500_2000", func(p *model.Prestamo, _ time.Time) bool {
			return p.Monto.GreaterThanOrEqual(quinientos) && p.Monto.LessThan(dosMil)
		}},
		{"2000_5000", func(p *model.Prestamo, _ time.Time) bool {
			return p.Monto.GreaterThanOrEqual(dosMil) && p.Monto.LessThanOrEqual(cincoMil)
		}},
		{"mas_5000", func(p *model.Prestamo, _ time.Time) bool { return p.Monto.GreaterThan(cincoMil) }},
	},
	DimensionAntiguedad: {
		{"0_30", antiguedadEntre(0, 30)},
		{"31_90", antiguedadEntre(31, 90)},
		{"91_180", antiguedadEntre(91, 180)},
		{"mas_180", antiguedadEntre(181, -1)},
	},
	DimensionMorosidad: {
		{"al_dia", atrasoEntre(0, 0)},
		{"1_7", atrasoEntre(1, 7)},
		{"8_30", atrasoEntre(8, 30)},
		{"mas_30", atrasoEntre(31, -1)},
		{"impago", func(p *model.Prestamo, _ time.Time) bool { return p.Estado == model.EstadoImpago }},
	},
}

// antiguedadEntre matches loans started between desde and hasta days ago;
// a negative hasta means no upper bound.
func antiguedadEntre(desde, hasta int) func(*model.Prestamo, time.Time) bool {
	return func(p *model.Prestamo, hoy time.Time) bool {
		d := timeutil.DaysBetween(p.FechaInicio, hoy)
		return d >= desde && (hasta < 0 || d <= hasta)
	}
}

// atrasoEntre buckets by days overdue. Defaulted and refinanced loans are
// left out; defaulted ones have their own bucket.
func atrasoEntre(desde, hasta int) func(*model.Prestamo, time.Time) bool {
	return func(p *model.Prestamo, hoy time.Time) bool {
		if p.Estado == model.EstadoImpago || p.Estado == model.EstadoRefinanciado {
			return false
		}
		d := DiasDeAtraso(p, hoy)
		return d >= desde && (hasta < 0 || d <= hasta)
	}
}

func (s *metricsService) GetSegmentMetrics(ctx context.Context, dimension string, desde, hasta *time.Time) (*dto.SegmentMetricsResponse, error) {
	defs, ok := segmentos[dimension]
	if !ok {
		return nil, validacion("dimension", "debe ser monto, antiguedad o morosidad")
	}
	if err := validarRango(desde, hasta); err != nil {
		return nil, err
	}
	prestamos, pagos, err := s.cartera(ctx, repository.PrestamoFiltro{Desde: desde, Hasta: hasta})
	if err != nil {
		return nil, err
	}
	cobrado := cobradoPorPrestamo(pagos)
	hoy := timeutil.Hoy(s.clock)

	resp := &dto.SegmentMetricsResponse{Dimension: dimension, Segmentos: make([]dto.SegmentoResponse, len(defs))}
	for i, d := range defs {
		resp.Segmentos[i].Segmento = d.nombre
	}
	for i := range prestamos {
		p := &prestamos[i]
		for j, d := range defs {
			if !d.incluye(p, hoy) {
				continue
			}
			seg := &resp.Segmentos[j]
			seg.Cantidad++
			seg.MontoPrestado = seg.MontoPrestado.Add(p.Monto)
			seg.SaldoPendiente = seg.SaldoPendiente.Add(p.SaldoPendiente)
			seg.MontoRecaudado = seg.MontoRecaudado.Add(cobrado[p.ID])
			break
		}
	}
	for i := range resp.Segmentos {
		seg := &resp.Segmentos[i]
		seg.MontoPrestado = seg.MontoPrestado.Round(2)
		seg.SaldoPendiente = seg.SaldoPendiente.Round(2)
		seg.MontoRecaudado = seg.MontoRecaudado.Round(2)
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// cartera loads the loans matching f and the payments made on them. With a
// seller filter, only payments of that seller's loans are returned.
func (s *metricsService) cartera(ctx context.Context, f repository.PrestamoFiltro) ([]model.Prestamo, []model.Pago, error) {
	prestamos, err := s.prestamos.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	var pf repository.PagoFiltro
	if f.VendedorID != nil || f.Desde != nil || f.Hasta != nil || f.ClienteID != nil || f.Estado != "" {
		pf.PrestamoIDs = idsDe(prestamos)
	}
	pagos, err := s.pagos.List(ctx, pf)
	if err != nil {
		return nil, nil, err
	}
	return prestamos, pagos, nil
}

func idsDe(prestamos []model.Prestamo) []uuid.UUID {
	ids := make([]uuid.UUID, len(prestamos))
	for i, p := range prestamos {
		ids[i] = p.ID
	}
	return ids
}

func cobradoPorPrestamo(pagos []model.Pago) map[uuid.UUID]decimal.Decimal {
	out := map[uuid.UUID]decimal.Decimal{}
	for _, pg := range pagos {
		out[pg.PrestamoID] = out[pg.PrestamoID].Add(pg.Monto)
	}
	return out
}

func entre(f, desde, hasta time.Time) bool {
	return !f.Before(desde) && !f.After(hasta)
}
