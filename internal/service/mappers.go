package service

import (
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/google/uuid"
)

const timestampLayout = "2006-01-02T15:04:05Z07:00"

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timePtrString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timestampLayout)
	return &s
}

func parseUUIDPtr(campo string, s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, validacion(campo, "uuid inválido")
	}
	return &id, nil
}

func prestamoToDTO(p *model.Prestamo) dto.PrestamoResponse {
	return dto.PrestamoResponse{
		ID:               p.ID.String(),
		ClienteID:        p.ClienteID.String(),
		Monto:            p.Monto,
		TasaInteres:      p.TasaInteres,
		PlazoDias:        p.PlazoDias,
		FrecuenciaPago:   string(p.FrecuenciaPago),
		FechaInicio:      timeutil.FormatFecha(p.FechaInicio),
		FechaVencimiento: timeutil.FormatFecha(p.FechaVencimiento),
		MontoTotal:       p.MontoTotal,
		SaldoPendiente:   p.SaldoPendiente,
		Estado:           string(p.Estado),
		CuotasTotales:    p.CuotasTotales,
		CuotasPagadas:    p.CuotasPagadas,
		ValorCuota:       p.ValorCuota,
		SaldoCuota:       p.SaldoCuota,
		PrestamoOrigenID: uuidPtrString(p.PrestamoOrigenID),
	}
}

func cuotasToDTO(cuotas []Cuota) []dto.CuotaResponse {
	out := make([]dto.CuotaResponse, len(cuotas))
	for i, c := range cuotas {
		out[i] = dto.CuotaResponse{
			Numero:           c.Numero,
			FechaVencimiento: timeutil.FormatFecha(c.FechaVencimiento),
			Monto:            c.Monto,
			Estado:           string(c.Estado),
		}
	}
	return out
}

func pagoToDTO(p *model.Pago) dto.PagoResponse {
	return dto.PagoResponse{
		ID:         p.ID.String(),
		PrestamoID: p.PrestamoID.String(),
		Monto:      p.Monto,
		FechaPago:  timeutil.FormatFecha(p.FechaPago),
		MetodoPago: p.MetodoPago,
		TipoPago:   string(p.TipoPago),
		CobradorID: uuidPtrString(p.CobradorID),
		Notas:      p.Notas,
	}
}

func cierreToDTO(c *model.CajaCierre) *dto.CierreCajaResponse {
	return &dto.CierreCajaResponse{
		ID:            c.ID.String(),
		Fecha:         timeutil.FormatFecha(c.Fecha),
		SaldoInicial:  c.SaldoInicial,
		Ingresos:      c.Ingresos,
		Egresos:       c.Egresos,
		SaldoEsperado: c.SaldoEsperado,
		SaldoFinal:    c.SaldoFinal,
		Diferencia:    c.Diferencia,
		Cerrado:       c.Cerrado,
		AutoCerrado:   c.AutoCerrado,
		ClosedAt:      timePtrString(c.ClosedAt),
	}
}

func movimientoToDTO(m *model.MovimientoCaja) dto.MovimientoCajaResponse {
	return dto.MovimientoCajaResponse{
		ID:             m.ID.String(),
		Fecha:          timeutil.FormatFecha(m.Fecha),
		Tipo:           string(m.Tipo),
		Categoria:      m.Categoria,
		Descripcion:    m.Descripcion,
		Monto:          m.Monto,
		ReferenciaTipo: m.ReferenciaTipo,
		ReferenciaID:   uuidPtrString(m.ReferenciaID),
		EmpleadoID:     uuidPtrString(m.EmpleadoID),
		CreatedAt:      m.CreatedAt.Format(timestampLayout),
	}
}

func movimientoEmpleadoToDTO(m *model.CajaEmpleadoMovimiento) dto.MovimientoEmpleadoResponse {
	return dto.MovimientoEmpleadoResponse{
		ID:          m.ID.String(),
		Fecha:       timeutil.FormatFecha(m.Fecha),
		EmpleadoID:  m.EmpleadoID.String(),
		Tipo:        string(m.Tipo),
		Categoria:   m.Categoria,
		Descripcion: m.Descripcion,
		Monto:       m.Monto,
		CreatedAt:   m.CreatedAt.Format(timestampLayout),
	}
}

func empleadoToDTO(e *model.Empleado) dto.EmpleadoResponse {
	return dto.EmpleadoResponse{
		ID:                 e.ID.String(),
		Nombre:             e.Nombre,
		Rol:                string(e.Rol),
		PorcentajeComision: e.PorcentajeComision,
		Telefono:           e.Telefono,
		Activo:             e.Activo,
	}
}

func strPtr(s string) *string { return &s }

// fechaOHoy parses s as a calendar date, or returns today when s is empty.
func fechaOHoy(clock timeutil.Clock, campo, s string) (time.Time, error) {
	if s == "" {
		return timeutil.Hoy(clock), nil
	}
	f, err := timeutil.ParseFecha(s)
	if err != nil {
		return time.Time{}, validacion(campo, "fecha inválida, se espera AAAA-MM-DD")
	}
	return f, nil
}
