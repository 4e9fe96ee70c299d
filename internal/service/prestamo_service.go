package service

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/metrics"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PrestamoService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearPrestamoRequest) (*dto.PrestamoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.PrestamoResponse, error)
	Listar(ctx context.Context, params dto.PrestamoFiltroParams) ([]dto.PrestamoResponse, error)
	Amortizacion(ctx context.Context, id uuid.UUID) (*dto.AmortizacionResponse, error)
	Refinanciar(ctx context.Context, usuarioID uuid.UUID, id uuid.UUID, req dto.RefinanciarRequest) (*dto.PrestamoResponse, error)
}

type prestamoService struct {
	repo               repository.PrestamoRepository
	comisiones         repository.ComisionRepository
	empleados          repository.EmpleadoRepository
	caja               CajaService
	cache              MetricsCache
	clock              timeutil.Clock
	tasaRefinanciacion decimal.Decimal
}

func NewPrestamoService(
	repo repository.PrestamoRepository,
	comisiones repository.ComisionRepository,
	empleados repository.EmpleadoRepository,
	caja CajaService,
	cache MetricsCache,
	clock timeutil.Clock,
	tasaRefinanciacion float64,
) PrestamoService {
	return &prestamoService{
		repo:               repo,
		comisiones:         comisiones,
		empleados:          empleados,
		caja:               caja,
		cache:              cacheOrNoop(cache),
		clock:              clock,
		tasaRefinanciacion: decimal.NewFromFloat(tasaRefinanciacion),
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *prestamoService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearPrestamoRequest) (*dto.PrestamoResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, validacion("cliente_id", "uuid inválido")
	}
	inicio, err := fechaOHoy(s.clock, "fecha_inicio", req.FechaInicio)
	if err != nil {
		return nil, err
	}
	p, err := armarPrestamo(clienteID, req.Monto, req.TasaInteres, req.PlazoDias,
		model.FrecuenciaPago(req.FrecuenciaPago), inicio, req.CuotasTotales)
	if err != nil {
		return nil, err
	}
	p.UsuarioID = &usuarioID

	acuerdo, err := s.armarAcuerdo(ctx, p, req)
	if err != nil {
		return nil, err
	}

	hoy := s.caja.Hoy()
	err = conLock(ctx, s.caja.Locker(), claveCaja(hoy), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if err := s.repo.CreateTx(tx, p); err != nil {
				return err
			}
			if acuerdo != nil {
				acuerdo.PrestamoID = p.ID
				if err := s.comisiones.CreateAcuerdoTx(tx, acuerdo); err != nil {
					return err
				}
			}
			id := p.ID
			return s.caja.RegistrarMovimientosTx(tx, hoy, &model.MovimientoCaja{
				Tipo:           model.Egreso,
				Categoria:      model.CategoriaDesembolso,
				Descripcion:    "Desembolso de préstamo",
				Monto:          p.Monto,
				ReferenciaTipo: strPtr(model.ReferenciaPrestamo),
				ReferenciaID:   &id,
				EmpleadoID:     acuerdoEmpleado(acuerdo),
				UsuarioID:      &usuarioID,
			})
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePrefix(ctx, prefijoMetricas)
	metrics.PrestamosCreados.WithLabelValues("nuevo").Inc()
	log.Info().Str("prestamo_id", p.ID.String()).Str("monto", p.Monto.StringFixed(2)).Msg("préstamo creado")
	resp := prestamoToDTO(p)
	return &resp, nil
}

// armarAcuerdo builds the seller agreement requested for p, if any. The
// percentage falls back to the seller's default rate.
func (s *prestamoService) armarAcuerdo(ctx context.Context, p *model.Prestamo, req dto.CrearPrestamoRequest) (*model.PrestamoVendedor, error) {
	vendedorID, err := parseUUIDPtr("vendedor_id", req.VendedorID)
	if err != nil || vendedorID == nil {
		return nil, err
	}
	vendedor, err := s.empleados.FindByID(ctx, *vendedorID)
	if err != nil {
		return nil, traducirNoEncontrado(err, "vendedor")
	}
	if vendedor.Rol != model.RolVendedor {
		return nil, validacion("vendedor_id", "el empleado no es vendedor")
	}

	porcentaje := vendedor.PorcentajeComision
	if req.PorcentajeVendedor != nil {
		porcentaje = *req.PorcentajeVendedor
	}
	base := model.BaseComision(req.BaseComision)
	if base == "" {
		base = model.BaseMontoTotal
	}
	montoBase, comision, err := ComisionEsperada(p, porcentaje, base)
	if err != nil {
		return nil, err
	}
	return &model.PrestamoVendedor{
		EmpleadoID:     vendedorID,
		EmpleadoNombre: vendedor.Nombre,
		Porcentaje:     porcentaje,
		BaseCalculo:    base,
		MontoBase:      montoBase,
		MontoComision:  comision,
	}, nil
}

func acuerdoEmpleado(a *model.PrestamoVendedor) *uuid.UUID {
	if a == nil {
		return nil
	}
	return a.EmpleadoID
}

// armarPrestamo derives totals and the installment plan of a new loan.
func armarPrestamo(clienteID uuid.UUID, monto, tasa decimal.Decimal, plazo int, frec model.FrecuenciaPago, inicio time.Time, cuotas int) (*model.Prestamo, error) {
	if !monto.IsPositive() {
		return nil, validacion("monto", "debe ser mayor a 0")
	}
	if tasa.IsNegative() {
		return nil, validacion("tasa_interes", "no puede ser negativa")
	}
	if plazo <= 0 {
		return nil, validacion("plazo_dias", "debe ser mayor a 0")
	}
	switch frec {
	case "":
		frec = model.FrecuenciaSemanal
	case model.FrecuenciaSemanal, model.FrecuenciaMensual, model.FrecuenciaDiaria:
	default:
		return nil, validacion("frecuencia_pago", "frecuencia desconocida %q", frec)
	}
	if cuotas <= 0 {
		cuotas = CantidadCuotas(plazo, frec)
	}

	monto = monto.Round(2)
	total := monto.Mul(decimal.NewFromInt(1).Add(tasa.Div(cien))).Round(2)
	inicio = timeutil.Fecha(inicio)
	return &model.Prestamo{
		ClienteID:        clienteID,
		Monto:            monto,
		TasaInteres:      tasa,
		PlazoDias:        plazo,
		FrecuenciaPago:   frec,
		FechaInicio:      inicio,
		FechaVencimiento: timeutil.AddDays(inicio, plazo),
		MontoTotal:       total,
		SaldoPendiente:   total,
		Estado:           model.EstadoActivo,
		CuotasTotales:    cuotas,
		ValorCuota:       total.Div(decimal.NewFromInt(int64(cuotas))).Round(2),
		SaldoCuota:       decimal.Zero,
	}, nil
}

// ── Lectura ───────────────────────────────────────────────────────────────────

func (s *prestamoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.PrestamoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirNoEncontrado(err, "préstamo")
	}
	resp := prestamoToDTO(p)
	return &resp, nil
}

// Listar applies params. Estado "vencido" is derived from the schedule, not
// stored, so it is filtered after loading.
func (s *prestamoService) Listar(ctx context.Context, params dto.PrestamoFiltroParams) ([]dto.PrestamoResponse, error) {
	var f repository.PrestamoFiltro
	var err error
	if params.Estado != "" && params.Estado != string(model.EstadoVencido) {
		f.Estado = model.EstadoPrestamo(params.Estado)
	}
	if f.ClienteID, err = parseUUIDPtr("cliente_id", &params.ClienteID); err != nil {
		return nil, err
	}
	if f.VendedorID, err = parseUUIDPtr("vendedor_id", &params.VendedorID); err != nil {
		return nil, err
	}
	if f.Desde, err = parseFechaPtr("desde", params.Desde); err != nil {
		return nil, err
	}
	if f.Hasta, err = parseFechaPtr("hasta", params.Hasta); err != nil {
		return nil, err
	}

	prestamos, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	hoy := timeutil.Hoy(s.clock)
	out := make([]dto.PrestamoResponse, 0, len(prestamos))
	for i := range prestamos {
		if params.Estado == string(model.EstadoVencido) && !EstaVencido(&prestamos[i], hoy) {
			continue
		}
		out = append(out, prestamoToDTO(&prestamos[i]))
	}
	return out, nil
}

func (s *prestamoService) Amortizacion(ctx context.Context, id uuid.UUID) (*dto.AmortizacionResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirNoEncontrado(err, "préstamo")
	}
	hoy := timeutil.Hoy(s.clock)
	return &dto.AmortizacionResponse{
		PrestamoID: p.ID.String(),
		Cuotas:     cuotasToDTO(GenerarAmortizacion(p, hoy)),
		DiasAtraso: DiasDeAtraso(p, hoy),
		Vencido:    EstaVencido(p, hoy),
	}, nil
}

// ── Refinanciar ───────────────────────────────────────────────────────────────

// Refinanciar replaces a defaulted loan with a new one whose principal is
// the outstanding balance grown by the refinancing rate. No cash changes
// hands, so the register is not touched.
func (s *prestamoService) Refinanciar(ctx context.Context, usuarioID uuid.UUID, id uuid.UUID, req dto.RefinanciarRequest) (*dto.PrestamoResponse, error) {
	tasaRef := s.tasaRefinanciacion
	if req.TasaRefinanciacion != nil {
		tasaRef = *req.TasaRefinanciacion
	}
	if tasaRef.IsNegative() {
		return nil, validacion("tasa_refinanciacion", "no puede ser negativa")
	}

	var nuevo *model.Prestamo
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		viejo, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return traducirNoEncontrado(err, "préstamo")
		}
		if !refinanciable(viejo) {
			return validacion("estado", "solo se refinancian préstamos impagos o con el plan agotado y saldo pendiente")
		}

		frec := model.FrecuenciaPago(req.FrecuenciaPago)
		if frec == "" {
			frec = viejo.FrecuenciaPago
		}
		principal := viejo.SaldoPendiente.Mul(decimal.NewFromInt(1).Add(tasaRef.Div(cien))).Round(2)
		n, err := armarPrestamo(viejo.ClienteID, principal, req.TasaInteres, req.PlazoDias, frec, timeutil.Hoy(s.clock), 0)
		if err != nil {
			return err
		}
		origen := viejo.ID
		n.PrestamoOrigenID = &origen
		n.UsuarioID = &usuarioID
		if err := s.repo.CreateTx(tx, n); err != nil {
			return err
		}

		viejo.Estado = model.EstadoRefinanciado
		if err := s.repo.UpdateTx(tx, viejo); err != nil {
			return err
		}
		nuevo = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePrefix(ctx, prefijoMetricas)
	metrics.PrestamosCreados.WithLabelValues("refinanciacion").Inc()
	log.Info().
		Str("prestamo_origen_id", id.String()).
		Str("prestamo_id", nuevo.ID.String()).
		Str("monto", nuevo.Monto.StringFixed(2)).
		Msg("préstamo refinanciado")
	resp := prestamoToDTO(nuevo)
	return &resp, nil
}

func refinanciable(p *model.Prestamo) bool {
	if p.Estado == model.EstadoRefinanciado || p.Estado == model.EstadoPagado {
		return false
	}
	if p.Estado == model.EstadoImpago {
		return true
	}
	return p.CuotasTotales > 0 && p.CuotasPagadas >= p.CuotasTotales && p.SaldoPendiente.IsPositive()
}

func parseFechaPtr(campo, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	f, err := timeutil.ParseFecha(s)
	if err != nil {
		return nil, validacion(campo, "fecha inválida, se espera AAAA-MM-DD")
	}
	return &f, nil
}
