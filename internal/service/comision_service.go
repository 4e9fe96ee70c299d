package service

import (
	"context"
	"sort"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComisionService is the read side of seller and collector commissions.
type ComisionService interface {
	ResumenVendedor(ctx context.Context, vendedorID *uuid.UUID, desde, hasta *time.Time) (*dto.ResumenVendedorResponse, error)
	DetalleVendedor(ctx context.Context, vendedorID uuid.UUID) (*dto.DetalleVendedorResponse, error)
	ResumenCobrador(ctx context.Context, cobradorID *uuid.UUID, desde, hasta *time.Time) (*dto.ResumenCobradorResponse, error)
	ComisionesDelDia(ctx context.Context, fecha *time.Time) (*dto.ComisionesDelDiaResponse, error)
	RankingEmpleados(ctx context.Context, desde, hasta *time.Time) (*dto.RankingEmpleadosResponse, error)
}

type comisionService struct {
	repo      repository.ComisionRepository
	prestamos repository.PrestamoRepository
	pagos     repository.PagoRepository
	empleados repository.EmpleadoRepository
	clock     timeutil.Clock
}

func NewComisionService(
	repo repository.ComisionRepository,
	prestamos repository.PrestamoRepository,
	pagos repository.PagoRepository,
	empleados repository.EmpleadoRepository,
	clock timeutil.Clock,
) ComisionService {
	return &comisionService{repo: repo, prestamos: prestamos, pagos: pagos, empleados: empleados, clock: clock}
}

// ResumenVendedor compares what sellers expect from their agreements with
// what they have been paid. The date range only narrows the paid side.
func (s *comisionService) ResumenVendedor(ctx context.Context, vendedorID *uuid.UUID, desde, hasta *time.Time) (*dto.ResumenVendedorResponse, error) {
	if err := validarRango(desde, hasta); err != nil {
		return nil, err
	}
	acuerdos, err := s.repo.ListAcuerdos(ctx, vendedorID)
	if err != nil {
		return nil, err
	}
	registros, err := s.repo.ListPagosVendedor(ctx, repository.ComisionFiltro{EmpleadoID: vendedorID, Desde: desde, Hasta: hasta})
	if err != nil {
		return nil, err
	}

	esperadas := decimal.Zero
	for _, a := range acuerdos {
		esperadas = esperadas.Add(a.MontoComision)
	}
	cobradas := decimal.Zero
	for _, r := range registros {
		cobradas = cobradas.Add(r.MontoComision)
	}

	return &dto.ResumenVendedorResponse{
		VendedorID:           uuidPtrString(vendedorID),
		ComisionesEsperadas:  esperadas.Round(2),
		ComisionesCobradas:   cobradas.Round(2),
		ComisionesPendientes: ComisionPendiente(esperadas, cobradas),
		PorcentajeCobrado:    porcentaje(cobradas, esperadas),
		CantidadPrestamos:    len(acuerdos),
	}, nil
}

func (s *comisionService) DetalleVendedor(ctx context.Context, vendedorID uuid.UUID) (*dto.DetalleVendedorResponse, error) {
	vendedor, err := s.empleados.FindByID(ctx, vendedorID)
	if err != nil {
		return nil, traducirNoEncontrado(err, "vendedor")
	}
	acuerdos, err := s.repo.ListAcuerdos(ctx, &vendedorID)
	if err != nil {
		return nil, err
	}
	prestamos, err := s.prestamos.List(ctx, repository.PrestamoFiltro{VendedorID: &vendedorID})
	if err != nil {
		return nil, err
	}
	registros, err := s.repo.ListPagosVendedor(ctx, repository.ComisionFiltro{EmpleadoID: &vendedorID})
	if err != nil {
		return nil, err
	}

	porPrestamo := make(map[uuid.UUID]*model.Prestamo, len(prestamos))
	for i := range prestamos {
		porPrestamo[prestamos[i].ID] = &prestamos[i]
	}
	cobradoPorPrestamo := map[uuid.UUID]decimal.Decimal{}
	for _, r := range registros {
		cobradoPorPrestamo[r.PrestamoID] = cobradoPorPrestamo[r.PrestamoID].Add(r.MontoComision)
	}

	resp := &dto.DetalleVendedorResponse{
		VendedorID:     vendedor.ID.String(),
		VendedorNombre: vendedor.Nombre,
		Prestamos:      []dto.DetallePrestamoVendedor{},
	}
	for _, a := range acuerdos {
		p, ok := porPrestamo[a.PrestamoID]
		if !ok {
			continue
		}
		cobrada := cobradoPorPrestamo[a.PrestamoID].Round(2)
		pendiente := ComisionPendiente(a.MontoComision, cobrada)
		resp.Prestamos = append(resp.Prestamos, dto.DetallePrestamoVendedor{
			PrestamoID:        p.ID.String(),
			ClienteID:         p.ClienteID.String(),
			MontoPrestamo:     p.Monto,
			Porcentaje:        a.Porcentaje,
			BaseCalculo:       string(a.BaseCalculo),
			ComisionEsperada:  a.MontoComision,
			ComisionCobrada:   cobrada,
			ComisionPendiente: pendiente,
			EstadoPrestamo:    string(p.Estado),
		})
		resp.TotalEsperado = resp.TotalEsperado.Add(a.MontoComision)
		resp.TotalCobrado = resp.TotalCobrado.Add(cobrada)
		resp.TotalPendiente = resp.TotalPendiente.Add(pendiente)
	}
	return resp, nil
}

func (s *comisionService) ResumenCobrador(ctx context.Context, cobradorID *uuid.UUID, desde, hasta *time.Time) (*dto.ResumenCobradorResponse, error) {
	if err := validarRango(desde, hasta); err != nil {
		return nil, err
	}
	registros, err := s.repo.ListPagosCobrador(ctx, repository.ComisionFiltro{EmpleadoID: cobradorID, Desde: desde, Hasta: hasta})
	if err != nil {
		return nil, err
	}
	comisiones, cobrado := decimal.Zero, decimal.Zero
	for _, r := range registros {
		comisiones = comisiones.Add(r.MontoComision)
		cobrado = cobrado.Add(r.MontoPago)
	}
	promedio := decimal.Zero
	if n := len(registros); n > 0 {
		promedio = comisiones.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	return &dto.ResumenCobradorResponse{
		CobradorID:         uuidPtrString(cobradorID),
		ComisionesCobradas: comisiones.Round(2),
		MontoCobrado:       cobrado.Round(2),
		CantidadPagos:      len(registros),
		PromedioPorPago:    promedio,
	}, nil
}

func (s *comisionService) ComisionesDelDia(ctx context.Context, fecha *time.Time) (*dto.ComisionesDelDiaResponse, error) {
	dia := timeutil.Hoy(s.clock)
	if fecha != nil {
		dia = timeutil.Fecha(*fecha)
	}
	pagos, err := s.pagos.List(ctx, repository.PagoFiltro{Desde: &dia, Hasta: &dia})
	if err != nil {
		return nil, err
	}
	f := repository.ComisionFiltro{Desde: &dia, Hasta: &dia}
	vendedor, err := s.repo.ListPagosVendedor(ctx, f)
	if err != nil {
		return nil, err
	}
	cobrador, err := s.repo.ListPagosCobrador(ctx, f)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, p := range pagos {
		total = total.Add(p.Monto)
	}
	comV := decimal.Zero
	for _, r := range vendedor {
		comV = comV.Add(r.MontoComision)
	}
	comC := decimal.Zero
	for _, r := range cobrador {
		comC = comC.Add(r.MontoComision)
	}
	return &dto.ComisionesDelDiaResponse{
		Fecha:              timeutil.FormatFecha(dia),
		TotalCobrado:       total.Round(2),
		ComisionesVendedor: comV.Round(2),
		ComisionesCobrador: comC.Round(2),
		TotalComisiones:    comV.Add(comC).Round(2),
		IngresoNeto:        total.Sub(comV).Sub(comC).Round(2),
		CantidadPagos:      len(pagos),
	}, nil
}

// RankingEmpleados orders sellers and collectors by commission earned in the
// range, highest first.
func (s *comisionService) RankingEmpleados(ctx context.Context, desde, hasta *time.Time) (*dto.RankingEmpleadosResponse, error) {
	if err := validarRango(desde, hasta); err != nil {
		return nil, err
	}
	f := repository.ComisionFiltro{Desde: desde, Hasta: hasta}
	vendedor, err := s.repo.ListPagosVendedor(ctx, f)
	if err != nil {
		return nil, err
	}
	cobrador, err := s.repo.ListPagosCobrador(ctx, f)
	if err != nil {
		return nil, err
	}

	rv := newRanking()
	for _, r := range vendedor {
		rv.sumar(r.EmpleadoID, r.EmpleadoNombre, r.MontoComision)
	}
	rc := newRanking()
	for _, r := range cobrador {
		rc.sumar(r.EmpleadoID, r.EmpleadoNombre, r.MontoComision)
	}

	resp := &dto.RankingEmpleadosResponse{
		Vendedores: rv.ordenado(),
		Cobradores: rc.ordenado(),
	}
	if desde != nil {
		resp.Desde = strPtr(timeutil.FormatFecha(*desde))
	}
	if hasta != nil {
		resp.Hasta = strPtr(timeutil.FormatFecha(*hasta))
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type ranking struct {
	orden []string
	filas map[string]*dto.RankingEmpleado
}

func newRanking() *ranking {
	return &ranking{filas: map[string]*dto.RankingEmpleado{}}
}

// sumar groups by employee ID and name, the same key the records were
// stored under.
func (r *ranking) sumar(id *uuid.UUID, nombre string, monto decimal.Decimal) {
	clave := nombre
	if id != nil {
		clave = id.String() + "|" + nombre
	}
	fila, ok := r.filas[clave]
	if !ok {
		fila = &dto.RankingEmpleado{EmpleadoID: uuidPtrString(id), EmpleadoNombre: nombre}
		r.filas[clave] = fila
		r.orden = append(r.orden, clave)
	}
	fila.TotalComision = fila.TotalComision.Add(monto)
	fila.CantidadPagos++
}

func (r *ranking) ordenado() []dto.RankingEmpleado {
	out := make([]dto.RankingEmpleado, 0, len(r.orden))
	for _, k := range r.orden {
		fila := *r.filas[k]
		fila.TotalComision = fila.TotalComision.Round(2)
		out = append(out, fila)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalComision.GreaterThan(out[j].TotalComision)
	})
	return out
}

func validarRango(desde, hasta *time.Time) error {
	if desde != nil && hasta != nil && desde.After(*hasta) {
		return validacion("desde", "debe ser anterior o igual a hasta")
	}
	return nil
}

// porcentaje returns parte/total*100 rounded to 2, or 0 when total is 0.
func porcentaje(parte, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return parte.Div(total).Mul(cien).Round(2)
}
