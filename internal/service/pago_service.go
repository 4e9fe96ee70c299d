package service

import (
	"context"
	"errors"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
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

type PagoService interface {
	RegistrarPago(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.RegistrarPagoResponse, error)
	EliminarPago(ctx context.Context, pagoID uuid.UUID) (*dto.PrestamoResponse, error)
	ObtenerPago(ctx context.Context, id uuid.UUID) (*dto.PagoResponse, error)
	ListarPagosPorPrestamo(ctx context.Context, prestamoID uuid.UUID) ([]dto.PagoResponse, error)
	PreviewComisionCobrador(req dto.PreviewComisionRequest) (*dto.PreviewComisionResponse, error)
}

type pagoService struct {
	prestamos  repository.PrestamoRepository
	pagos      repository.PagoRepository
	comisiones repository.ComisionRepository
	empleados  repository.EmpleadoRepository
	caja       CajaService
	cache      MetricsCache
	politica   string
}

func NewPagoService(
	prestamos repository.PrestamoRepository,
	pagos repository.PagoRepository,
	comisiones repository.ComisionRepository,
	empleados repository.EmpleadoRepository,
	caja CajaService,
	cache MetricsCache,
	politicaEliminacion string,
) PagoService {
	return &pagoService{
		prestamos:  prestamos,
		pagos:      pagos,
		comisiones: comisiones,
		empleados:  empleados,
		caja:       caja,
		cache:      cacheOrNoop(cache),
		politica:   politicaEliminacion,
	}
}

// ── RegistrarPago ─────────────────────────────────────────────────────────────

// RegistrarPago applies a payment to its loan, books the seller and collector
// commissions and posts the cash to today's register, all in one transaction.
func (s *pagoService) RegistrarPago(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.RegistrarPagoResponse, error) {
	prestamoID, err := uuid.Parse(req.PrestamoID)
	if err != nil {
		return nil, validacion("prestamo_id", "uuid inválido")
	}
	monto := req.Monto.Round(2)
	if !monto.IsPositive() {
		return nil, validacion("monto", "debe ser mayor a 0")
	}
	tipo := model.TipoPago(req.TipoPago)
	if tipo == "" {
		tipo = model.TipoPagoParcial
	}
	metodo := req.MetodoPago
	if metodo == "" {
		metodo = "efectivo"
	}

	cobradorID, err := parseUUIDPtr("cobrador_id", req.CobradorID)
	if err != nil {
		return nil, err
	}
	var cobrador *model.Empleado
	pctCobrador := decimal.Zero
	if cobradorID != nil {
		if cobrador, err = s.empleados.FindByID(ctx, *cobradorID); err != nil {
			return nil, traducirNoEncontrado(err, "cobrador")
		}
		if cobrador.Rol != model.RolCobrador {
			return nil, validacion("cobrador_id", "el empleado no es cobrador")
		}
		pctCobrador = cobrador.PorcentajeComision
		if req.PorcentajeCobrador != nil {
			pctCobrador = *req.PorcentajeCobrador
		}
	}
	comCobrador, err := ComisionCobrador(monto, pctCobrador)
	if err != nil {
		return nil, err
	}

	hoy := s.caja.Hoy()
	var (
		prestamo  *model.Prestamo
		pago      *model.Pago
		registros []dto.ComisionRegistradaResponse
	)
	err = conLock(ctx, s.caja.Locker(), claveCaja(hoy), func() error {
		return runTx(ctx, s.prestamos.DB(), func(tx *gorm.DB) error {
			p, err := s.prestamos.FindByIDForUpdateTx(tx, prestamoID)
			if err != nil {
				return traducirNoEncontrado(err, "préstamo")
			}
			res, err := AplicarPago(p, monto, tipo)
			if err != nil {
				return err
			}
			secuencia := 1
			ultimo, err := s.pagos.UltimoTx(tx, p.ID)
			switch {
			case err == nil:
				secuencia = ultimo.Secuencia + 1
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}

			pg := &model.Pago{
				PrestamoID:          p.ID,
				Secuencia:           secuencia,
				Monto:               monto,
				FechaPago:           hoy,
				MetodoPago:          metodo,
				TipoPago:            tipo,
				CobradorID:          cobradorID,
				UsuarioID:           &usuarioID,
				Notas:               req.Notas,
				CuotasPagadasAntes:  p.CuotasPagadas,
				SaldoCuotaAntes:     p.SaldoCuota,
				EstadoPrestamoAntes: p.Estado,
			}
			aplicarResultado(p, res)
			if err := s.prestamos.UpdateTx(tx, p); err != nil {
				return err
			}
			if err := s.pagos.CreateTx(tx, pg); err != nil {
				return err
			}

			pagoID := pg.ID
			movs := []*model.MovimientoCaja{{
				Tipo:           model.Ingreso,
				Categoria:      model.CategoriaPagoCuota,
				Descripcion:    "Cobro de cuota",
				Monto:          monto,
				ReferenciaTipo: strPtr(model.ReferenciaPago),
				ReferenciaID:   &pagoID,
				EmpleadoID:     cobradorID,
				UsuarioID:      &usuarioID,
			}}

			acuerdo, err := s.comisiones.FindAcuerdoTx(tx, p.ID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				comVendedor := ComisionVendedor(monto, acuerdo)
				rv := &model.PagoVendedor{
					PagoID:         pg.ID,
					PrestamoID:     p.ID,
					EmpleadoID:     acuerdo.EmpleadoID,
					EmpleadoNombre: acuerdo.EmpleadoNombre,
					Porcentaje:     acuerdo.Porcentaje,
					MontoPago:      monto,
					MontoComision:  comVendedor,
					Fecha:          hoy,
				}
				if err := s.comisiones.CreatePagoVendedorTx(tx, rv); err != nil {
					return err
				}
				registros = append(registros, dto.ComisionRegistradaResponse{
					Rol:            string(model.RolVendedor),
					EmpleadoID:     uuidPtrString(rv.EmpleadoID),
					EmpleadoNombre: rv.EmpleadoNombre,
					Porcentaje:     rv.Porcentaje,
					MontoComision:  rv.MontoComision,
				})
				if comVendedor.IsPositive() {
					movs = append(movs, &model.MovimientoCaja{
						Tipo:           model.Egreso,
						Categoria:      model.CategoriaComisionVendedor,
						Descripcion:    "Comisión vendedor " + acuerdo.EmpleadoNombre,
						Monto:          comVendedor,
						ReferenciaTipo: strPtr(model.ReferenciaPago),
						ReferenciaID:   &pagoID,
						EmpleadoID:     acuerdo.EmpleadoID,
						UsuarioID:      &usuarioID,
					})
				}
			}

			if cobrador != nil {
				rc := &model.PagoCobrador{
					PagoID:         pg.ID,
					PrestamoID:     p.ID,
					EmpleadoID:     cobradorID,
					EmpleadoNombre: cobrador.Nombre,
					Porcentaje:     pctCobrador,
					MontoPago:      monto,
					MontoComision:  comCobrador,
					Fecha:          hoy,
				}
				if err := s.comisiones.CreatePagoCobradorTx(tx, rc); err != nil {
					return err
				}
				registros = append(registros, dto.ComisionRegistradaResponse{
					Rol:            string(model.RolCobrador),
					EmpleadoID:     uuidPtrString(cobradorID),
					EmpleadoNombre: cobrador.Nombre,
					Porcentaje:     pctCobrador,
					MontoComision:  comCobrador,
				})
				if comCobrador.IsPositive() {
					movs = append(movs, &model.MovimientoCaja{
						Tipo:           model.Egreso,
						Categoria:      model.CategoriaComisionCobrador,
						Descripcion:    "Comisión cobrador " + cobrador.Nombre,
						Monto:          comCobrador,
						ReferenciaTipo: strPtr(model.ReferenciaPago),
						ReferenciaID:   &pagoID,
						EmpleadoID:     cobradorID,
						UsuarioID:      &usuarioID,
					})
				}
			}

			if err := s.caja.RegistrarMovimientosTx(tx, hoy, movs...); err != nil {
				return err
			}
			prestamo, pago = p, pg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePrefix(ctx, prefijoMetricas)
	metrics.PagosRegistrados.WithLabelValues(string(tipo)).Inc()
	metrics.MontoCobrado.Add(monto.InexactFloat64())
	log.Info().
		Str("pago_id", pago.ID.String()).
		Str("prestamo_id", prestamo.ID.String()).
		Str("monto", monto.StringFixed(2)).
		Str("estado", string(prestamo.Estado)).
		Msg("pago registrado")

	if registros == nil {
		registros = []dto.ComisionRegistradaResponse{}
	}
	return &dto.RegistrarPagoResponse{
		Pago:       pagoToDTO(pago),
		Prestamo:   prestamoToDTO(prestamo),
		Comisiones: registros,
	}, nil
}

// ── EliminarPago ──────────────────────────────────────────────────────────────

// EliminarPago undoes a payment. The register history is append-only, so the
// cash effect is reversed with new movements on today's register.
func (s *pagoService) EliminarPago(ctx context.Context, pagoID uuid.UUID) (*dto.PrestamoResponse, error) {
	pago, err := s.pagos.FindByID(ctx, pagoID)
	if err != nil {
		return nil, traducirNoEncontrado(err, "pago")
	}
	comision, err := s.comisionesDelPago(ctx, pago)
	if err != nil {
		return nil, err
	}

	hoy := s.caja.Hoy()
	var prestamo *model.Prestamo
	err = conLock(ctx, s.caja.Locker(), claveCaja(hoy), func() error {
		return runTx(ctx, s.prestamos.DB(), func(tx *gorm.DB) error {
			p, err := s.prestamos.FindByIDForUpdateTx(tx, pago.PrestamoID)
			if err != nil {
				return traducirNoEncontrado(err, "préstamo")
			}
			if p.Estado == model.EstadoRefinanciado {
				return validacion("prestamo", "el préstamo fue refinanciado; sus pagos no se pueden eliminar")
			}

			p.SaldoPendiente = p.SaldoPendiente.Add(pago.Monto).Round(2)
			if s.politica == config.EliminarPagoCompleta {
				ultimo, err := s.pagos.UltimoTx(tx, p.ID)
				if err != nil {
					return err
				}
				if ultimo.ID != pago.ID {
					return validacion("pago", "solo se puede eliminar el último pago del préstamo")
				}
				p.CuotasPagadas = pago.CuotasPagadasAntes
				p.SaldoCuota = pago.SaldoCuotaAntes
				p.Estado = pago.EstadoPrestamoAntes
				if p.Estado == "" {
					p.Estado = model.EstadoActivo
				}
			} else if p.Estado == model.EstadoPagado {
				p.Estado = model.EstadoActivo
			}

			if err := s.prestamos.UpdateTx(tx, p); err != nil {
				return err
			}
			if err := s.comisiones.DeleteByPagoTx(tx, pago.ID); err != nil {
				return err
			}
			if err := s.pagos.DeleteTx(tx, pago.ID); err != nil {
				return err
			}

			ref := pago.ID
			movs := []*model.MovimientoCaja{{
				Tipo:           model.Egreso,
				Categoria:      model.CategoriaReversoPago,
				Descripcion:    "Reverso de pago del " + timeutil.FormatFecha(pago.FechaPago),
				Monto:          pago.Monto,
				ReferenciaTipo: strPtr(model.ReferenciaPago),
				ReferenciaID:   &ref,
				EmpleadoID:     pago.CobradorID,
			}}
			if comision.IsPositive() {
				movs = append(movs, &model.MovimientoCaja{
					Tipo:           model.Ingreso,
					Categoria:      model.CategoriaReversoComision,
					Descripcion:    "Reverso de comisiones del pago",
					Monto:          comision,
					ReferenciaTipo: strPtr(model.ReferenciaPago),
					ReferenciaID:   &ref,
				})
			}
			if err := s.caja.RegistrarMovimientosTx(tx, hoy, movs...); err != nil {
				return err
			}
			prestamo = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidatePrefix(ctx, prefijoMetricas)
	log.Info().
		Str("pago_id", pago.ID.String()).
		Str("prestamo_id", prestamo.ID.String()).
		Str("politica", s.politica).
		Msg("pago eliminado")
	resp := prestamoToDTO(prestamo)
	return &resp, nil
}

// comisionesDelPago sums every commission booked on pago.
func (s *pagoService) comisionesDelPago(ctx context.Context, pago *model.Pago) (decimal.Decimal, error) {
	total := decimal.Zero
	f := repository.ComisionFiltro{PrestamoID: &pago.PrestamoID}
	vendedor, err := s.comisiones.ListPagosVendedor(ctx, f)
	if err != nil {
		return total, err
	}
	for _, r := range vendedor {
		if r.PagoID == pago.ID {
			total = total.Add(r.MontoComision)
		}
	}
	cobrador, err := s.comisiones.ListPagosCobrador(ctx, f)
	if err != nil {
		return total, err
	}
	for _, r := range cobrador {
		if r.PagoID == pago.ID {
			total = total.Add(r.MontoComision)
		}
	}
	return total.Round(2), nil
}

// ── Lectura ───────────────────────────────────────────────────────────────────

func (s *pagoService) ObtenerPago(ctx context.Context, id uuid.UUID) (*dto.PagoResponse, error) {
	p, err := s.pagos.FindByID(ctx, id)
	if err != nil {
		return nil, traducirNoEncontrado(err, "pago")
	}
	resp := pagoToDTO(p)
	return &resp, nil
}

func (s *pagoService) ListarPagosPorPrestamo(ctx context.Context, prestamoID uuid.UUID) ([]dto.PagoResponse, error) {
	if _, err := s.prestamos.FindByID(ctx, prestamoID); err != nil {
		return nil, traducirNoEncontrado(err, "préstamo")
	}
	pagos, err := s.pagos.ListByPrestamo(ctx, prestamoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PagoResponse, len(pagos))
	for i := range pagos {
		out[i] = pagoToDTO(&pagos[i])
	}
	return out, nil
}

func (s *pagoService) PreviewComisionCobrador(req dto.PreviewComisionRequest) (*dto.PreviewComisionResponse, error) {
	if err := validarPorcentaje("porcentaje", req.Porcentaje); err != nil {
		return nil, err
	}
	comision, err := ComisionCobrador(req.Monto, req.Porcentaje)
	if err != nil {
		return nil, err
	}
	return &dto.PreviewComisionResponse{
		Monto:         req.Monto,
		Porcentaje:    req.Porcentaje,
		MontoComision: comision,
	}, nil
}
