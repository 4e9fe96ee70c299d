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

// CajaService owns the central register: one row per calendar date that is
// open until someone (or the sweep) closes it.
type CajaService interface {
	ObtenerOCrearCierre(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error)
	// ObtenerCierre closes stale days first, then reports fecha with its
	// per-category breakdown.
	ObtenerCierre(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error)
	RecalcularTotales(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error)

	RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error)
	// RegistrarMovimientosTx posts movs to fecha inside the caller's
	// transaction. The caller must hold the day lock for fecha.
	RegistrarMovimientosTx(tx *gorm.DB, fecha time.Time, movs ...*model.MovimientoCaja) error
	RegistrarEspejoDeposito(ctx context.Context, job dto.EspejoDepositoJob) (*dto.MovimientoCajaResponse, error)

	CerrarDia(ctx context.Context, usuarioID uuid.UUID, req dto.CerrarDiaRequest) (*dto.CierreCajaResponse, error)
	ReabrirDia(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error)
	AutoCerrarDiasPendientes(ctx context.Context) (int, error)

	ListarMovimientos(ctx context.Context, fecha time.Time) ([]dto.MovimientoCajaResponse, error)
	ListarMovimientosRango(ctx context.Context, desde, hasta time.Time) ([]dto.MovimientoCajaResponse, error)
	HistorialCierres(ctx context.Context, desde, hasta time.Time) ([]dto.CierreCajaResponse, error)

	Hoy() time.Time
	Locker() DayLocker
}

type cajaService struct {
	repo         repository.CajaRepository
	locker       DayLocker
	jobs         JobEnqueuer
	clock        timeutil.Clock
	reporteEmail string
}

func NewCajaService(repo repository.CajaRepository, locker DayLocker, jobs JobEnqueuer, clock timeutil.Clock, reporteEmail string) CajaService {
	return &cajaService{
		repo:         repo,
		locker:       locker,
		jobs:         enqueuerOrNoop(jobs),
		clock:        clock,
		reporteEmail: reporteEmail,
	}
}

func (s *cajaService) Hoy() time.Time    { return timeutil.Hoy(s.clock) }
func (s *cajaService) Locker() DayLocker { return s.locker }

// ── Lectura / creación perezosa ───────────────────────────────────────────────

func (s *cajaService) ObtenerOCrearCierre(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error) {
	fecha = timeutil.Fecha(fecha)
	var cierre *model.CajaCierre
	err := conLock(ctx, s.locker, claveCaja(fecha), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.obtenerOCrearTx(tx, fecha)
			cierre = c
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return cierreToDTO(cierre), nil
}

func (s *cajaService) ObtenerCierre(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error) {
	if _, err := s.AutoCerrarDiasPendientes(ctx); err != nil {
		log.Error().Err(err).Msg("caja: auto-cierre previo a consulta falló")
	}

	resp, err := s.RecalcularTotales(ctx, fecha)
	if err != nil {
		return nil, err
	}

	movs, err := s.repo.ListMovimientos(ctx, timeutil.Fecha(fecha), timeutil.Fecha(fecha))
	if err != nil {
		return nil, err
	}
	resp.DetalleIngresos = map[string]decimal.Decimal{}
	resp.DetalleEgresos = map[string]decimal.Decimal{}
	for _, m := range movs {
		detalle := resp.DetalleIngresos
		if m.Tipo == model.Egreso {
			detalle = resp.DetalleEgresos
		}
		detalle[m.Categoria] = detalle[m.Categoria].Add(m.Monto)
	}
	resp.CantidadMovimientos = len(movs)
	return resp, nil
}

func (s *cajaService) RecalcularTotales(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error) {
	fecha = timeutil.Fecha(fecha)
	var cierre *model.CajaCierre
	err := conLock(ctx, s.locker, claveCaja(fecha), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.obtenerOCrearTx(tx, fecha)
			if err != nil {
				return err
			}
			if err := s.recalcularTx(tx, c); err != nil {
				return err
			}
			cierre = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return cierreToDTO(cierre), nil
}

// ── Movimientos ───────────────────────────────────────────────────────────────

func (s *cajaService) RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error) {
	fecha, err := fechaOHoy(s.clock, "fecha", req.Fecha)
	if err != nil {
		return nil, err
	}
	if !req.Monto.IsPositive() {
		return nil, validacion("monto", "debe ser mayor a 0")
	}
	tipo := model.TipoMovimiento(req.Tipo)
	if tipo != model.Ingreso && tipo != model.Egreso {
		return nil, validacion("tipo", "debe ser ingreso o egreso")
	}
	categoria := req.Categoria
	if categoria == "" {
		categoria = model.CategoriaOtros
	}

	mov := &model.MovimientoCaja{
		Tipo:           tipo,
		Categoria:      categoria,
		Descripcion:    req.Descripcion,
		Monto:          req.Monto.Round(2),
		ReferenciaTipo: strPtr(model.ReferenciaManual),
		UsuarioID:      &usuarioID,
	}
	err = conLock(ctx, s.locker, claveCaja(fecha), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			return s.RegistrarMovimientosTx(tx, fecha, mov)
		})
	})
	if err != nil {
		return nil, err
	}
	resp := movimientoToDTO(mov)
	return &resp, nil
}

func (s *cajaService) RegistrarMovimientosTx(tx *gorm.DB, fecha time.Time, movs ...*model.MovimientoCaja) error {
	fecha = timeutil.Fecha(fecha)
	cierre, err := s.obtenerOCrearTx(tx, fecha)
	if err != nil {
		return err
	}
	if cierre.Cerrado {
		return diaCerrado(timeutil.FormatFecha(fecha))
	}
	for _, m := range movs {
		if !m.Monto.IsPositive() {
			return validacion("monto", "los movimientos de caja deben ser positivos")
		}
		m.Fecha = fecha
		if err := s.repo.CreateMovimientoTx(tx, m); err != nil {
			return fmt.Errorf("registrar movimiento %s: %w", m.Categoria, err)
		}
	}
	return s.recalcularTx(tx, cierre)
}

// RegistrarEspejoDeposito posts the central inflow matching an employee
// deposit. Repeated calls with the same key return the first movement.
// When the deposit's day is already closed the inflow lands on today.
func (s *cajaService) RegistrarEspejoDeposito(ctx context.Context, job dto.EspejoDepositoJob) (*dto.MovimientoCajaResponse, error) {
	if job.ClaveIdempotencia == "" {
		return nil, validacion("clave_idempotencia", "requerida")
	}
	if existente, err := s.repo.FindMovimientoPorClave(ctx, job.ClaveIdempotencia); err == nil {
		resp := movimientoToDTO(existente)
		return &resp, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	empleadoID, err := uuid.Parse(job.EmpleadoID)
	if err != nil {
		return nil, validacion("empleado_id", "uuid inválido")
	}
	usuarioID, err := parseUUIDPtr("usuario_id", job.UsuarioID)
	if err != nil {
		return nil, err
	}
	fecha, err := fechaOHoy(s.clock, "fecha", job.Fecha)
	if err != nil {
		return nil, err
	}

	nuevo := func(f time.Time) *model.MovimientoCaja {
		desc := "Depósito de " + job.EmpleadoNombre
		if !f.Equal(fecha) {
			desc += " del " + timeutil.FormatFecha(fecha)
		}
		clave := job.ClaveIdempotencia
		return &model.MovimientoCaja{
			Tipo:              model.Ingreso,
			Categoria:         model.CategoriaDepositoEmpleado,
			Descripcion:       desc,
			Monto:             job.Monto.Round(2),
			ReferenciaTipo:    strPtr(model.ReferenciaEmpleado),
			ReferenciaID:      &empleadoID,
			EmpleadoID:        &empleadoID,
			UsuarioID:         usuarioID,
			ClaveIdempotencia: &clave,
		}
	}

	mov, err := s.postearEspejo(ctx, fecha, nuevo(fecha))
	if errors.Is(err, ErrAlreadyClosed) && !fecha.Equal(s.Hoy()) {
		log.Warn().Str("fecha", job.Fecha).Str("empleado_id", job.EmpleadoID).
			Msg("caja: día del depósito cerrado, espejo registrado hoy")
		mov, err = s.postearEspejo(ctx, s.Hoy(), nuevo(s.Hoy()))
	}
	if err != nil {
		// A concurrent retry may have won the unique key.
		if existente, findErr := s.repo.FindMovimientoPorClave(ctx, job.ClaveIdempotencia); findErr == nil {
			resp := movimientoToDTO(existente)
			return &resp, nil
		}
		return nil, err
	}
	resp := movimientoToDTO(mov)
	return &resp, nil
}

func (s *cajaService) postearEspejo(ctx context.Context, fecha time.Time, mov *model.MovimientoCaja) (*model.MovimientoCaja, error) {
	err := conLock(ctx, s.locker, claveCaja(fecha), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			return s.RegistrarMovimientosTx(tx, fecha, mov)
		})
	})
	return mov, err
}

// ── Cierre / reapertura ───────────────────────────────────────────────────────

func (s *cajaService) CerrarDia(ctx context.Context, usuarioID uuid.UUID, req dto.CerrarDiaRequest) (*dto.CierreCajaResponse, error) {
	fecha, err := fechaOHoy(s.clock, "fecha", req.Fecha)
	if err != nil {
		return nil, err
	}
	if fecha.After(s.Hoy()) {
		return nil, validacion("fecha", "no se puede cerrar un día futuro")
	}
	if req.SaldoFinal == nil {
		return nil, validacion("saldo_final", "requerido")
	}
	saldoFinal := req.SaldoFinal.Round(2)

	var cierre *model.CajaCierre
	err = conLock(ctx, s.locker, claveCaja(fecha), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.obtenerOCrearTx(tx, fecha)
			if err != nil {
				return err
			}
			if c.Cerrado {
				return diaCerrado(timeutil.FormatFecha(fecha))
			}
			if err := s.recalcularTx(tx, c); err != nil {
				return err
			}
			diferencia := saldoFinal.Sub(c.SaldoEsperado).Round(2)
			ahora := s.clock.Now()
			c.SaldoFinal = &saldoFinal
			c.Diferencia = &diferencia
			c.Cerrado = true
			c.AutoCerrado = false
			c.ClosedAt = &ahora
			c.UsuarioID = &usuarioID
			if err := s.repo.UpdateCierreTx(tx, c); err != nil {
				return err
			}
			cierre = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.CierresCaja.WithLabelValues("central", "manual").Inc()
	metrics.DiferenciaCierre.Observe(cierre.Diferencia.InexactFloat64())
	log.Info().
		Str("fecha", timeutil.FormatFecha(fecha)).
		Str("esperado", cierre.SaldoEsperado.StringFixed(2)).
		Str("final", saldoFinal.StringFixed(2)).
		Str("diferencia", cierre.Diferencia.StringFixed(2)).
		Msg("caja: día cerrado")

	if s.reporteEmail != "" {
		job := dto.ReporteCierreJob{Fecha: timeutil.FormatFecha(fecha), To: s.reporteEmail}
		if err := s.jobs.EnqueueReporteCierre(ctx, job); err != nil {
			log.Error().Err(err).Str("fecha", job.Fecha).Msg("caja: no se pudo encolar el reporte de cierre")
		}
	}
	return cierreToDTO(cierre), nil
}

// ReabrirDia returns a closed day to Open. Reopening an open day is a no-op.
func (s *cajaService) ReabrirDia(ctx context.Context, fecha time.Time) (*dto.CierreCajaResponse, error) {
	fecha = timeutil.Fecha(fecha)
	var cierre *model.CajaCierre
	reabierto := false
	err := conLock(ctx, s.locker, claveCaja(fecha), func() error {
		return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			c, err := s.obtenerOCrearTx(tx, fecha)
			if err != nil {
				return err
			}
			cierre = c
			if !c.Cerrado {
				return nil
			}
			c.Cerrado = false
			c.AutoCerrado = false
			c.SaldoFinal = nil
			c.Diferencia = nil
			c.ClosedAt = nil
			reabierto = true
			return s.recalcularTx(tx, c)
		})
	})
	if err != nil {
		return nil, err
	}
	if reabierto {
		log.Info().Str("fecha", timeutil.FormatFecha(fecha)).Msg("caja: día reabierto")
	}
	return cierreToDTO(cierre), nil
}

// AutoCerrarDiasPendientes closes every open day before today with the
// expected balance as confirmed. Days are processed oldest first so each
// opening balance picks up the previous automatic close.
func (s *cajaService) AutoCerrarDiasPendientes(ctx context.Context) (int, error) {
	hoy := s.Hoy()
	pendientes, err := s.repo.ListCierresAbiertosAntes(ctx, hoy)
	if err != nil {
		return 0, err
	}

	cerrados := 0
	for _, p := range pendientes {
		fecha := timeutil.Fecha(p.Fecha)
		cerro := false
		err := conLock(ctx, s.locker, claveCaja(fecha), func() error {
			return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
				c, err := s.repo.FindCierreTx(tx, fecha, true)
				if err != nil {
					return err
				}
				if c.Cerrado {
					return nil
				}
				if err := s.recalcularTx(tx, c); err != nil {
					return err
				}
				final := c.SaldoEsperado
				cero := decimal.Zero
				ahora := s.clock.Now()
				c.SaldoFinal = &final
				c.Diferencia = &cero
				c.Cerrado = true
				c.AutoCerrado = true
				c.ClosedAt = &ahora
				cerro = true
				return s.repo.UpdateCierreTx(tx, c)
			})
		})
		if err != nil {
			return cerrados, fmt.Errorf("auto-cierre %s: %w", timeutil.FormatFecha(fecha), err)
		}
		if cerro {
			cerrados++
			metrics.CierresCaja.WithLabelValues("central", "auto").Inc()
			log.Info().Str("fecha", timeutil.FormatFecha(fecha)).Msg("caja: día auto-cerrado")
		}
	}
	return cerrados, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) ListarMovimientos(ctx context.Context, fecha time.Time) ([]dto.MovimientoCajaResponse, error) {
	return s.ListarMovimientosRango(ctx, fecha, fecha)
}

func (s *cajaService) ListarMovimientosRango(ctx context.Context, desde, hasta time.Time) ([]dto.MovimientoCajaResponse, error) {
	desde, hasta = timeutil.Fecha(desde), timeutil.Fecha(hasta)
	if desde.After(hasta) {
		return nil, validacion("desde", "debe ser anterior o igual a hasta")
	}
	movs, err := s.repo.ListMovimientos(ctx, desde, hasta)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoCajaResponse, len(movs))
	for i := range movs {
		out[i] = movimientoToDTO(&movs[i])
	}
	return out, nil
}

func (s *cajaService) HistorialCierres(ctx context.Context, desde, hasta time.Time) ([]dto.CierreCajaResponse, error) {
	desde, hasta = timeutil.Fecha(desde), timeutil.Fecha(hasta)
	if desde.After(hasta) {
		return nil, validacion("desde", "debe ser anterior o igual a hasta")
	}
	cierres, err := s.repo.ListCierres(ctx, desde, hasta)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CierreCajaResponse, len(cierres))
	for i := range cierres {
		out[i] = *cierreToDTO(&cierres[i])
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// obtenerOCrearTx locks the row of fecha, creating it with the previous
// day's confirmed balance as opening when it does not exist yet.
func (s *cajaService) obtenerOCrearTx(tx *gorm.DB, fecha time.Time) (*model.CajaCierre, error) {
	c, err := s.repo.FindCierreTx(tx, fecha, true)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	inicial, err := s.saldoInicialTx(tx, fecha)
	if err != nil {
		return nil, err
	}
	c = &model.CajaCierre{
		Fecha:         fecha,
		SaldoInicial:  inicial,
		SaldoEsperado: inicial,
	}
	if err := s.repo.CreateCierreTx(tx, c); err != nil {
		return nil, fmt.Errorf("crear caja %s: %w", timeutil.FormatFecha(fecha), err)
	}
	return c, nil
}

// saldoInicialTx is the confirmed close of the day before fecha, or zero.
func (s *cajaService) saldoInicialTx(tx *gorm.DB, fecha time.Time) (decimal.Decimal, error) {
	prev, err := s.repo.FindCierreTx(tx, timeutil.AddDays(fecha, -1), false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if prev.Cerrado && prev.SaldoFinal != nil {
		return prev.SaldoFinal.Round(2), nil
	}
	return decimal.Zero, nil
}

// recalcularTx refreshes the day totals from its movements. The opening
// balance only follows the previous day while this day is still open.
func (s *cajaService) recalcularTx(tx *gorm.DB, c *model.CajaCierre) error {
	if !c.Cerrado {
		inicial, err := s.saldoInicialTx(tx, c.Fecha)
		if err != nil {
			return err
		}
		c.SaldoInicial = inicial
	}
	ingresos, egresos, err := s.repo.SumarMovimientosTx(tx, c.Fecha)
	if err != nil {
		return err
	}
	c.Ingresos = ingresos
	c.Egresos = egresos
	c.SaldoEsperado = c.SaldoInicial.Add(ingresos).Sub(egresos).Round(2)
	if c.Cerrado && c.SaldoFinal != nil {
		diferencia := c.SaldoFinal.Sub(c.SaldoEsperado).Round(2)
		c.Diferencia = &diferencia
	}
	return s.repo.UpdateCierreTx(tx, c)
}
