package service

import (
	"context"
	"errors"
	"fmt"
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

// CajaEmpleadoService tracks what each seller or collector holds during a day
// and what they owe the central register at close.
type CajaEmpleadoService interface {
	RegistrarMovimiento(ctx context.Context, usuarioID *uuid.UUID, empleadoID uuid.UUID, req dto.MovimientoEmpleadoRequest) (*dto.MovimientoEmpleadoResponse, error)
	ObtenerResumen(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) (*dto.ResumenCajaEmpleadoResponse, error)
	CerrarDia(ctx context.Context, empleadoID uuid.UUID, req dto.CerrarDiaEmpleadoRequest) (*dto.ResumenCajaEmpleadoResponse, error)
	ReabrirDia(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) (*dto.ResumenCajaEmpleadoResponse, error)
	AutoCerrarDiasPendientes(ctx context.Context) (int, error)
	ListarMovimientos(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) ([]dto.MovimientoEmpleadoResponse, error)
}

type cajaEmpleadoService struct {
	repo       repository.CajaEmpleadoRepository
	empleados  repository.EmpleadoRepository
	pagos      repository.PagoRepository
	comisiones repository.ComisionRepository
	caja       CajaService
	locker     DayLocker
	jobs       JobEnqueuer
	clock      timeutil.Clock
}

func NewCajaEmpleadoService(
	repo repository.CajaEmpleadoRepository,
	empleados repository.EmpleadoRepository,
	pagos repository.PagoRepository,
	comisiones repository.ComisionRepository,
	caja CajaService,
	locker DayLocker,
	jobs JobEnqueuer,
	clock timeutil.Clock,
) CajaEmpleadoService {
	return &cajaEmpleadoService{
		repo:       repo,
		empleados:  empleados,
		pagos:      pagos,
		comisiones: comisiones,
		caja:       caja,
		locker:     locker,
		jobs:       enqueuerOrNoop(jobs),
		clock:      clock,
	}
}

// totalesEmpleado are the figures an employee register derives for one day.
type totalesEmpleado struct {
	cobrado   decimal.Decimal
	comision  decimal.Decimal
	otros     decimal.Decimal
	egresos   decimal.Decimal
	depositos decimal.Decimal
	esperado  decimal.Decimal
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────

func (s *cajaEmpleadoService) RegistrarMovimiento(ctx context.Context, usuarioID *uuid.UUID, empleadoID uuid.UUID, req dto.MovimientoEmpleadoRequest) (*dto.MovimientoEmpleadoResponse, error) {
	fecha, err := fechaOHoy(s.clock, "fecha", req.Fecha)
	if err != nil {
		return nil, err
	}
	if !req.Monto.IsPositive() {
		return nil, validacion("monto", "debe ser mayor a 0")
	}
	var tipo model.TipoMovimiento
	switch req.Categoria {
	case model.CategoriaEmpleadoIngresoOtro:
		tipo = model.Ingreso
	case model.CategoriaEmpleadoEgresoOtro, model.CategoriaEmpleadoDeposito:
		tipo = model.Egreso
	default:
		return nil, validacion("categoria", "categoría desconocida %q", req.Categoria)
	}
	emp, err := s.empleado(ctx, empleadoID)
	if err != nil {
		return nil, err
	}

	monto := req.Monto.Round(2)
	mov := &model.CajaEmpleadoMovimiento{
		Fecha:       fecha,
		EmpleadoID:  empleadoID,
		Tipo:        tipo,
		Categoria:   req.Categoria,
		Descripcion: req.Descripcion,
		Monto:       monto,
		UsuarioID:   usuarioID,
	}
	esDeposito := req.Categoria == model.CategoriaEmpleadoDeposito
	var clave string
	if esDeposito {
		clave = fmt.Sprintf("dep:%s:%s:%s:%d", empleadoID, timeutil.FormatFecha(fecha), monto.StringFixed(2), s.clock.Now().UnixNano())
		mov.ClaveIdempotencia = &clave
		if mov.Descripcion == "" {
			mov.Descripcion = "Depósito a caja central"
		}
	}

	err = conLock(ctx, s.locker, claveCajaEmpleado(fecha, empleadoID.String()), func() error {
		t, err := s.calcular(ctx, fecha, emp)
		if err != nil {
			return err
		}
		t.sumar(mov.Categoria, mov.Monto, emp.Rol)
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.obtenerOCrearTx(tx, fecha, empleadoID)
			if err != nil {
				return err
			}
			if c.Cerrado {
				return diaCerrado(timeutil.FormatFecha(fecha))
			}
			if err := s.repo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
			aplicarTotales(c, t)
			return s.repo.UpdateCierreTx(tx, c)
		})
	})
	if err != nil {
		return nil, err
	}

	resp := movimientoEmpleadoToDTO(mov)
	if esDeposito {
		resp.EspejoPendiente = !s.espejar(ctx, dto.EspejoDepositoJob{
			ClaveIdempotencia: clave,
			Fecha:             timeutil.FormatFecha(fecha),
			EmpleadoID:        empleadoID.String(),
			EmpleadoNombre:    emp.Nombre,
			Monto:             monto,
			UsuarioID:         uuidPtrString(usuarioID),
		})
	}
	return &resp, nil
}

// espejar posts the deposit to the central register and reports whether it
// landed. A failed write is queued for the worker pool.
func (s *cajaEmpleadoService) espejar(ctx context.Context, job dto.EspejoDepositoJob) bool {
	_, err := s.caja.RegistrarEspejoDeposito(ctx, job)
	if err == nil {
		return true
	}
	metrics.EspejosFallidos.Inc()
	log.Warn().Err(err).
		Str("empleado_id", job.EmpleadoID).
		Str("clave", job.ClaveIdempotencia).
		Msg("caja_empleado: espejo de depósito falló, se encola reintento")
	if err := s.jobs.EnqueueEspejoDeposito(ctx, job); err != nil {
		log.Error().Err(err).Str("clave", job.ClaveIdempotencia).Msg("caja_empleado: no se pudo encolar el espejo")
	}
	return false
}

// ── Resumen ───────────────────────────────────────────────────────────────────

func (s *cajaEmpleadoService) ObtenerResumen(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) (*dto.ResumenCajaEmpleadoResponse, error) {
	if _, err := s.AutoCerrarDiasPendientes(ctx); err != nil {
		log.Error().Err(err).Msg("caja_empleado: auto-cierre previo a consulta falló")
	}
	emp, err := s.empleado(ctx, empleadoID)
	if err != nil {
		return nil, err
	}
	fecha = timeutil.Fecha(fecha)

	var cierre *model.CajaEmpleadoCierre
	err = conLock(ctx, s.locker, claveCajaEmpleado(fecha, empleadoID.String()), func() error {
		if err := s.recalcular(ctx, fecha, emp); err != nil {
			return err
		}
		c, err := s.repo.FindCierreTx(s.dbCtx(ctx), fecha, empleadoID, false)
		cierre = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return resumenEmpleadoToDTO(cierre, emp), nil
}

// ── Cierre / reapertura ───────────────────────────────────────────────────────

func (s *cajaEmpleadoService) CerrarDia(ctx context.Context, empleadoID uuid.UUID, req dto.CerrarDiaEmpleadoRequest) (*dto.ResumenCajaEmpleadoResponse, error) {
	fecha, err := fechaOHoy(s.clock, "fecha", req.Fecha)
	if err != nil {
		return nil, err
	}
	if fecha.After(timeutil.Hoy(s.clock)) {
		return nil, validacion("fecha", "no se puede cerrar un día futuro")
	}
	if req.Entregado == nil {
		return nil, validacion("entregado", "requerido")
	}
	emp, err := s.empleado(ctx, empleadoID)
	if err != nil {
		return nil, err
	}
	entregado := req.Entregado.Round(2)

	var cierre *model.CajaEmpleadoCierre
	err = conLock(ctx, s.locker, claveCajaEmpleado(fecha, empleadoID.String()), func() error {
		t, err := s.calcular(ctx, fecha, emp)
		if err != nil {
			return err
		}
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.obtenerOCrearTx(tx, fecha, empleadoID)
			if err != nil {
				return err
			}
			if c.Cerrado {
				return diaCerrado(timeutil.FormatFecha(fecha))
			}
			aplicarTotales(c, t)
			diferencia := entregado.Sub(c.SaldoEsperadoEntregar).Round(2)
			ahora := s.clock.Now()
			c.Entregado = &entregado
			c.Diferencia = &diferencia
			c.Cerrado = true
			c.AutoCerrado = false
			c.ClosedAt = &ahora
			cierre = c
			return s.repo.UpdateCierreTx(tx, c)
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.CierresCaja.WithLabelValues("empleado", "manual").Inc()
	log.Info().
		Str("fecha", timeutil.FormatFecha(fecha)).
		Str("empleado_id", empleadoID.String()).
		Str("esperado", cierre.SaldoEsperadoEntregar.StringFixed(2)).
		Str("diferencia", cierre.Diferencia.StringFixed(2)).
		Msg("caja_empleado: día cerrado")
	return resumenEmpleadoToDTO(cierre, emp), nil
}

func (s *cajaEmpleadoService) ReabrirDia(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) (*dto.ResumenCajaEmpleadoResponse, error) {
	emp, err := s.empleado(ctx, empleadoID)
	if err != nil {
		return nil, err
	}
	fecha = timeutil.Fecha(fecha)

	var cierre *model.CajaEmpleadoCierre
	err = conLock(ctx, s.locker, claveCajaEmpleado(fecha, empleadoID.String()), func() error {
		err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.obtenerOCrearTx(tx, fecha, empleadoID)
			if err != nil || !c.Cerrado {
				return err
			}
			c.Cerrado = false
			c.AutoCerrado = false
			c.Entregado = nil
			c.Diferencia = nil
			c.ClosedAt = nil
			log.Info().Str("fecha", timeutil.FormatFecha(fecha)).Str("empleado_id", empleadoID.String()).
				Msg("caja_empleado: día reabierto")
			return s.repo.UpdateCierreTx(tx, c)
		})
		if err != nil {
			return err
		}
		if err := s.recalcular(ctx, fecha, emp); err != nil {
			return err
		}
		c, err := s.repo.FindCierreTx(s.dbCtx(ctx), fecha, empleadoID, false)
		cierre = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return resumenEmpleadoToDTO(cierre, emp), nil
}

// AutoCerrarDiasPendientes closes every open employee day before today,
// taking the expected hand-over as delivered.
func (s *cajaEmpleadoService) AutoCerrarDiasPendientes(ctx context.Context) (int, error) {
	hoy := timeutil.Hoy(s.clock)
	pendientes, err := s.repo.ListCierresAbiertosAntes(ctx, hoy)
	if err != nil {
		return 0, err
	}

	cerrados := 0
	for _, p := range pendientes {
		fecha := timeutil.Fecha(p.Fecha)
		emp, err := s.empleados.FindByID(ctx, p.EmpleadoID)
		if err != nil {
			// The employee row is gone; close on stored figures.
			emp = &model.Empleado{ID: p.EmpleadoID, Rol: model.RolCobrador}
		}
		cerro := false
		err = conLock(ctx, s.locker, claveCajaEmpleado(fecha, p.EmpleadoID.String()), func() error {
			t, err := s.calcular(ctx, fecha, emp)
			if err != nil {
				return err
			}
			return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
				c, err := s.repo.FindCierreTx(tx, fecha, p.EmpleadoID, true)
				if err != nil {
					return err
				}
				if c.Cerrado {
					return nil
				}
				aplicarTotales(c, t)
				entregado := c.SaldoEsperadoEntregar
				cero := decimal.Zero
				ahora := s.clock.Now()
				c.Entregado = &entregado
				c.Diferencia = &cero
				c.Cerrado = true
				c.AutoCerrado = true
				c.ClosedAt = &ahora
				cerro = true
				return s.repo.UpdateCierreTx(tx, c)
			})
		})
		if err != nil {
			return cerrados, fmt.Errorf("auto-cierre empleado %s %s: %w", p.EmpleadoID, timeutil.FormatFecha(fecha), err)
		}
		if cerro {
			cerrados++
			metrics.CierresCaja.WithLabelValues("empleado", "auto").Inc()
			log.Info().Str("fecha", timeutil.FormatFecha(fecha)).Str("empleado_id", p.EmpleadoID.String()).
				Msg("caja_empleado: día auto-cerrado")
		}
	}
	return cerrados, nil
}

func (s *cajaEmpleadoService) ListarMovimientos(ctx context.Context, fecha time.Time, empleadoID uuid.UUID) ([]dto.MovimientoEmpleadoResponse, error) {
	if _, err := s.empleado(ctx, empleadoID); err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, timeutil.Fecha(fecha), empleadoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoEmpleadoResponse, len(movs))
	for i := range movs {
		out[i] = movimientoEmpleadoToDTO(&movs[i])
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *cajaEmpleadoService) empleado(ctx context.Context, id uuid.UUID) (*model.Empleado, error) {
	e, err := s.empleados.FindByID(ctx, id)
	if err != nil {
		return nil, traducirNoEncontrado(err, "empleado")
	}
	return e, nil
}

func (s *cajaEmpleadoService) dbCtx(ctx context.Context) *gorm.DB {
	if db := s.repo.DB(); db != nil {
		return db.WithContext(ctx)
	}
	return nil
}

func (s *cajaEmpleadoService) obtenerOCrearTx(tx *gorm.DB, fecha time.Time, empleadoID uuid.UUID) (*model.CajaEmpleadoCierre, error) {
	c, err := s.repo.FindCierreTx(tx, fecha, empleadoID, true)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = &model.CajaEmpleadoCierre{Fecha: fecha, EmpleadoID: empleadoID}
	if err := s.repo.CreateCierreTx(tx, c); err != nil {
		return nil, fmt.Errorf("crear caja de empleado %s: %w", timeutil.FormatFecha(fecha), err)
	}
	return c, nil
}

// recalcular stores fresh totals on an open day. Closed days keep the
// figures they were closed with.
func (s *cajaEmpleadoService) recalcular(ctx context.Context, fecha time.Time, emp *model.Empleado) error {
	t, err := s.calcular(ctx, fecha, emp)
	if err != nil {
		return err
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		c, err := s.obtenerOCrearTx(tx, fecha, emp.ID)
		if err != nil || c.Cerrado {
			return err
		}
		aplicarTotales(c, t)
		return s.repo.UpdateCierreTx(tx, c)
	})
}

// calcular derives the day figures of emp from payments, commission records
// and register movements.
func (s *cajaEmpleadoService) calcular(ctx context.Context, fecha time.Time, emp *model.Empleado) (totalesEmpleado, error) {
	var t totalesEmpleado
	desde, hasta := fecha, fecha

	pagos, err := s.pagos.List(ctx, repository.PagoFiltro{Desde: &desde, Hasta: &hasta, CobradorID: &emp.ID})
	if err != nil {
		return t, err
	}
	for _, p := range pagos {
		t.cobrado = t.cobrado.Add(p.Monto)
	}

	filtro := repository.ComisionFiltro{EmpleadoID: &emp.ID, Desde: &desde, Hasta: &hasta}
	vendedor, err := s.comisiones.ListPagosVendedor(ctx, filtro)
	if err != nil {
		return t, err
	}
	for _, r := range vendedor {
		t.comision = t.comision.Add(r.MontoComision)
	}
	cobrador, err := s.comisiones.ListPagosCobrador(ctx, filtro)
	if err != nil {
		return t, err
	}
	for _, r := range cobrador {
		t.comision = t.comision.Add(r.MontoComision)
	}

	movs, err := s.repo.ListMovimientos(ctx, fecha, emp.ID)
	if err != nil {
		return t, err
	}
	for _, m := range movs {
		t.sumar(m.Categoria, m.Monto, emp.Rol)
	}
	t.calcularEsperado(emp.Rol)
	return t, nil
}

// sumar adds one register movement and refreshes the expected hand-over.
func (t *totalesEmpleado) sumar(categoria string, monto decimal.Decimal, rol model.RolEmpleado) {
	switch categoria {
	case model.CategoriaEmpleadoIngresoOtro:
		t.otros = t.otros.Add(monto)
	case model.CategoriaEmpleadoEgresoOtro:
		t.egresos = t.egresos.Add(monto)
	case model.CategoriaEmpleadoDeposito:
		t.depositos = t.depositos.Add(monto)
	}
	t.calcularEsperado(rol)
}

func (t *totalesEmpleado) calcularEsperado(rol model.RolEmpleado) {
	if rol == model.RolVendedor {
		// Sellers only answer for what they collected net of their cut.
		t.esperado = t.cobrado.Sub(t.comision)
		return
	}
	t.esperado = t.cobrado.Add(t.otros).Sub(t.comision).Sub(t.egresos)
}

func aplicarTotales(c *model.CajaEmpleadoCierre, t totalesEmpleado) {
	c.IngresosCobrados = t.cobrado.Round(2)
	c.ComisionGanada = t.comision.Round(2)
	c.IngresosOtros = t.otros.Round(2)
	c.Egresos = t.egresos.Round(2)
	c.Depositos = t.depositos.Round(2)
	c.SaldoEsperadoEntregar = t.esperado.Round(2)
}

func resumenEmpleadoToDTO(c *model.CajaEmpleadoCierre, emp *model.Empleado) *dto.ResumenCajaEmpleadoResponse {
	return &dto.ResumenCajaEmpleadoResponse{
		Fecha:                 timeutil.FormatFecha(c.Fecha),
		EmpleadoID:            c.EmpleadoID.String(),
		EmpleadoNombre:        emp.Nombre,
		Rol:                   string(emp.Rol),
		IngresosCobrados:      c.IngresosCobrados,
		ComisionGanada:        c.ComisionGanada,
		IngresosOtros:         c.IngresosOtros,
		Egresos:               c.Egresos,
		Depositos:             c.Depositos,
		SaldoEsperadoEntregar: c.SaldoEsperadoEntregar,
		Entregado:             c.Entregado,
		Diferencia:            c.Diferencia,
		Cerrado:               c.Cerrado,
		AutoCerrado:           c.AutoCerrado,
		ClosedAt:              timePtrString(c.ClosedAt),
	}
}
