package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory repositories ────────────────────────────────────────────────────
//
// Every stub returns gorm.ErrRecordNotFound on a miss and a nil DB, so the
// services run their transactional paths with tx == nil.

func enRango(f time.Time, desde, hasta *time.Time) bool {
	f = timeutil.Fecha(f)
	if desde != nil && f.Before(timeutil.Fecha(*desde)) {
		return false
	}
	if hasta != nil && f.After(timeutil.Fecha(*hasta)) {
		return false
	}
	return true
}

func nuevoID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// ── CajaRepository ────────────────────────────────────────────────────────────

type stubCajaRepo struct {
	cierres     map[string]*model.CajaCierre
	movimientos []*model.MovimientoCaja
	// failCreate makes CreateMovimientoTx fail while set.
	failCreate error
}

func newStubCajaRepo() *stubCajaRepo {
	return &stubCajaRepo{cierres: map[string]*model.CajaCierre{}}
}

func (r *stubCajaRepo) DB() *gorm.DB { return nil }

func (r *stubCajaRepo) FindCierreTx(_ *gorm.DB, fecha time.Time, _ bool) (*model.CajaCierre, error) {
	c, ok := r.cierres[timeutil.FormatFecha(fecha)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCajaRepo) FindCierre(_ context.Context, fecha time.Time) (*model.CajaCierre, error) {
	return r.FindCierreTx(nil, fecha, false)
}

func (r *stubCajaRepo) CreateCierreTx(_ *gorm.DB, c *model.CajaCierre) error {
	clave := timeutil.FormatFecha(c.Fecha)
	if _, ok := r.cierres[clave]; ok {
		return errors.New("duplicate key fecha")
	}
	nuevoID(&c.ID)
	r.cierres[clave] = c
	return nil
}

func (r *stubCajaRepo) UpdateCierreTx(_ *gorm.DB, c *model.CajaCierre) error {
	r.cierres[timeutil.FormatFecha(c.Fecha)] = c
	return nil
}

func (r *stubCajaRepo) ordenados(incluir func(*model.CajaCierre) bool) []model.CajaCierre {
	var out []model.CajaCierre
	for _, c := range r.cierres {
		if incluir(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.Before(out[j].Fecha) })
	return out
}

func (r *stubCajaRepo) ListCierres(_ context.Context, desde, hasta time.Time) ([]model.CajaCierre, error) {
	return r.ordenados(func(c *model.CajaCierre) bool { return enRango(c.Fecha, &desde, &hasta) }), nil
}

func (r *stubCajaRepo) ListCierresAbiertosAntes(_ context.Context, fecha time.Time) ([]model.CajaCierre, error) {
	return r.ordenados(func(c *model.CajaCierre) bool { return !c.Cerrado && c.Fecha.Before(fecha) }), nil
}

func (r *stubCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	if m.ClaveIdempotencia != nil {
		if _, err := r.FindMovimientoPorClave(context.Background(), *m.ClaveIdempotencia); err == nil {
			return errors.New("duplicate key clave_idempotencia")
		}
	}
	nuevoID(&m.ID)
	r.movimientos = append(r.movimientos, m)
	return nil
}

func (r *stubCajaRepo) FindMovimientoPorClave(_ context.Context, clave string) (*model.MovimientoCaja, error) {
	for _, m := range r.movimientos {
		if m.ClaveIdempotencia != nil && *m.ClaveIdempotencia == clave {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) SumarMovimientosTx(_ *gorm.DB, fecha time.Time) (decimal.Decimal, decimal.Decimal, error) {
	ingresos, egresos := decimal.Zero, decimal.Zero
	for _, m := range r.movimientos {
		if !timeutil.Fecha(m.Fecha).Equal(timeutil.Fecha(fecha)) {
			continue
		}
		if m.Tipo == model.Ingreso {
			ingresos = ingresos.Add(m.Monto)
		} else {
			egresos = egresos.Add(m.Monto)
		}
	}
	return ingresos, egresos, nil
}

func (r *stubCajaRepo) ListMovimientos(_ context.Context, desde, hasta time.Time) ([]model.MovimientoCaja, error) {
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if enRango(m.Fecha, &desde, &hasta) {
			out = append(out, *m)
		}
	}
	return out, nil
}

// delDia returns the movements of fecha with categoria.
func (r *stubCajaRepo) delDia(fecha time.Time, categoria string) []*model.MovimientoCaja {
	var out []*model.MovimientoCaja
	for _, m := range r.movimientos {
		if timeutil.Fecha(m.Fecha).Equal(fecha) && m.Categoria == categoria {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

// ── CajaEmpleadoRepository ────────────────────────────────────────────────────

type stubCajaEmpleadoRepo struct {
	cierres     map[string]*model.CajaEmpleadoCierre
	movimientos []*model.CajaEmpleadoMovimiento
	// failUpdate makes UpdateCierreTx fail while set.
	failUpdate error
}

func newStubCajaEmpleadoRepo() *stubCajaEmpleadoRepo {
	return &stubCajaEmpleadoRepo{cierres: map[string]*model.CajaEmpleadoCierre{}}
}

func claveEmpleado(fecha time.Time, id uuid.UUID) string {
	return timeutil.FormatFecha(fecha) + "|" + id.String()
}

func (r *stubCajaEmpleadoRepo) DB() *gorm.DB { return nil }

func (r *stubCajaEmpleadoRepo) FindCierreTx(_ *gorm.DB, fecha time.Time, empleadoID uuid.UUID, _ bool) (*model.CajaEmpleadoCierre, error) {
	c, ok := r.cierres[claveEmpleado(fecha, empleadoID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCajaEmpleadoRepo) CreateCierreTx(_ *gorm.DB, c *model.CajaEmpleadoCierre) error {
	nuevoID(&c.ID)
	r.cierres[claveEmpleado(c.Fecha, c.EmpleadoID)] = c
	return nil
}

func (r *stubCajaEmpleadoRepo) UpdateCierreTx(_ *gorm.DB, c *model.CajaEmpleadoCierre) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	r.cierres[claveEmpleado(c.Fecha, c.EmpleadoID)] = c
	return nil
}

func (r *stubCajaEmpleadoRepo) ListCierresAbiertosAntes(_ context.Context, fecha time.Time) ([]model.CajaEmpleadoCierre, error) {
	var out []model.CajaEmpleadoCierre
	for _, c := range r.cierres {
		if !c.Cerrado && c.Fecha.Before(fecha) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.Before(out[j].Fecha) })
	return out, nil
}

func (r *stubCajaEmpleadoRepo) CreateMovimientoTx(_ *gorm.DB, m *model.CajaEmpleadoMovimiento) error {
	nuevoID(&m.ID)
	r.movimientos = append(r.movimientos, m)
	return nil
}

func (r *stubCajaEmpleadoRepo) ListMovimientos(_ context.Context, fecha time.Time, empleadoID uuid.UUID) ([]model.CajaEmpleadoMovimiento, error) {
	var out []model.CajaEmpleadoMovimiento
	for _, m := range r.movimientos {
		if m.EmpleadoID == empleadoID && timeutil.Fecha(m.Fecha).Equal(timeutil.Fecha(fecha)) {
			out = append(out, *m)
		}
	}
	return out, nil
}

var _ repository.CajaEmpleadoRepository = (*stubCajaEmpleadoRepo)(nil)

// ── EmpleadoRepository ────────────────────────────────────────────────────────

type stubEmpleadoRepo struct {
	empleados []*model.Empleado
}

func (r *stubEmpleadoRepo) Create(_ context.Context, e *model.Empleado) error {
	nuevoID(&e.ID)
	r.empleados = append(r.empleados, e)
	return nil
}

func (r *stubEmpleadoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Empleado, error) {
	for _, e := range r.empleados {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubEmpleadoRepo) List(_ context.Context, rol model.RolEmpleado) ([]model.Empleado, error) {
	var out []model.Empleado
	for _, e := range r.empleados {
		if e.Activo && (rol == "" || e.Rol == rol) {
			out = append(out, *e)
		}
	}
	return out, nil
}

// alta registers an active employee and returns it.
func (r *stubEmpleadoRepo) alta(nombre string, rol model.RolEmpleado, pct string) *model.Empleado {
	e := &model.Empleado{Nombre: nombre, Rol: rol, PorcentajeComision: dec(pct), Activo: true}
	_ = r.Create(context.Background(), e)
	return e
}

var _ repository.EmpleadoRepository = (*stubEmpleadoRepo)(nil)

// ── ComisionRepository ────────────────────────────────────────────────────────

type stubComisionRepo struct {
	acuerdos []*model.PrestamoVendedor
	vendedor []*model.PagoVendedor
	cobrador []*model.PagoCobrador
}

func (r *stubComisionRepo) CreateAcuerdoTx(_ *gorm.DB, a *model.PrestamoVendedor) error {
	nuevoID(&a.ID)
	r.acuerdos = append(r.acuerdos, a)
	return nil
}

func (r *stubComisionRepo) FindAcuerdoTx(_ *gorm.DB, prestamoID uuid.UUID) (*model.PrestamoVendedor, error) {
	for _, a := range r.acuerdos {
		if a.PrestamoID == prestamoID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubComisionRepo) ListAcuerdos(_ context.Context, vendedorID *uuid.UUID) ([]model.PrestamoVendedor, error) {
	var out []model.PrestamoVendedor
	for _, a := range r.acuerdos {
		if vendedorID == nil || (a.EmpleadoID != nil && *a.EmpleadoID == *vendedorID) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubComisionRepo) CreatePagoVendedorTx(_ *gorm.DB, rv *model.PagoVendedor) error {
	nuevoID(&rv.ID)
	r.vendedor = append(r.vendedor, rv)
	return nil
}

func (r *stubComisionRepo) CreatePagoCobradorTx(_ *gorm.DB, rc *model.PagoCobrador) error {
	nuevoID(&rc.ID)
	r.cobrador = append(r.cobrador, rc)
	return nil
}

func coincide(f repository.ComisionFiltro, empleadoID *uuid.UUID, prestamoID uuid.UUID, fecha time.Time) bool {
	if f.EmpleadoID != nil && (empleadoID == nil || *empleadoID != *f.EmpleadoID) {
		return false
	}
	if f.PrestamoID != nil && prestamoID != *f.PrestamoID {
		return false
	}
	return enRango(fecha, f.Desde, f.Hasta)
}

func (r *stubComisionRepo) ListPagosVendedor(_ context.Context, f repository.ComisionFiltro) ([]model.PagoVendedor, error) {
	var out []model.PagoVendedor
	for _, rv := range r.vendedor {
		if coincide(f, rv.EmpleadoID, rv.PrestamoID, rv.Fecha) {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (r *stubComisionRepo) ListPagosCobrador(_ context.Context, f repository.ComisionFiltro) ([]model.PagoCobrador, error) {
	var out []model.PagoCobrador
	for _, rc := range r.cobrador {
		if coincide(f, rc.EmpleadoID, rc.PrestamoID, rc.Fecha) {
			out = append(out, *rc)
		}
	}
	return out, nil
}

func (r *stubComisionRepo) DeleteByPagoTx(_ *gorm.DB, pagoID uuid.UUID) error {
	vendedor := r.vendedor[:0]
	for _, rv := range r.vendedor {
		if rv.PagoID != pagoID {
			vendedor = append(vendedor, rv)
		}
	}
	r.vendedor = vendedor
	cobrador := r.cobrador[:0]
	for _, rc := range r.cobrador {
		if rc.PagoID != pagoID {
			cobrador = append(cobrador, rc)
		}
	}
	r.cobrador = cobrador
	return nil
}

var _ repository.ComisionRepository = (*stubComisionRepo)(nil)

// ── PagoRepository ────────────────────────────────────────────────────────────

type stubPagoRepo struct {
	pagos []*model.Pago
}

func (r *stubPagoRepo) CreateTx(_ *gorm.DB, p *model.Pago) error {
	nuevoID(&p.ID)
	r.pagos = append(r.pagos, p)
	return nil
}

func (r *stubPagoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pago, error) {
	for _, p := range r.pagos {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPagoRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	for i, p := range r.pagos {
		if p.ID == id {
			r.pagos = append(r.pagos[:i], r.pagos[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubPagoRepo) UltimoTx(_ *gorm.DB, prestamoID uuid.UUID) (*model.Pago, error) {
	var ultimo *model.Pago
	for _, p := range r.pagos {
		if p.PrestamoID == prestamoID && (ultimo == nil || p.Secuencia > ultimo.Secuencia) {
			ultimo = p
		}
	}
	if ultimo == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return ultimo, nil
}

func (r *stubPagoRepo) ListByPrestamo(_ context.Context, prestamoID uuid.UUID) ([]model.Pago, error) {
	return r.List(context.Background(), repository.PagoFiltro{PrestamoIDs: []uuid.UUID{prestamoID}})
}

func (r *stubPagoRepo) List(_ context.Context, f repository.PagoFiltro) ([]model.Pago, error) {
	var ids map[uuid.UUID]struct{}
	if f.PrestamoIDs != nil {
		ids = map[uuid.UUID]struct{}{}
		for _, id := range f.PrestamoIDs {
			ids[id] = struct{}{}
		}
	}
	var out []model.Pago
	for _, p := range r.pagos {
		if ids != nil {
			if _, ok := ids[p.PrestamoID]; !ok {
				continue
			}
		}
		if f.CobradorID != nil && (p.CobradorID == nil || *p.CobradorID != *f.CobradorID) {
			continue
		}
		if enRango(p.FechaPago, f.Desde, f.Hasta) {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ repository.PagoRepository = (*stubPagoRepo)(nil)

// ── PrestamoRepository ────────────────────────────────────────────────────────

type stubPrestamoRepo struct {
	prestamos  []*model.Prestamo
	comisiones *stubComisionRepo
}

func (r *stubPrestamoRepo) DB() *gorm.DB { return nil }

func (r *stubPrestamoRepo) CreateTx(_ *gorm.DB, p *model.Prestamo) error {
	nuevoID(&p.ID)
	r.prestamos = append(r.prestamos, p)
	return nil
}

func (r *stubPrestamoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Prestamo, error) {
	for _, p := range r.prestamos {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPrestamoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Prestamo, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPrestamoRepo) UpdateTx(_ *gorm.DB, p *model.Prestamo) error {
	for i := range r.prestamos {
		if r.prestamos[i].ID == p.ID {
			r.prestamos[i] = p
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubPrestamoRepo) List(_ context.Context, f repository.PrestamoFiltro) ([]model.Prestamo, error) {
	var out []model.Prestamo
	for _, p := range r.prestamos {
		if f.Estado != "" && p.Estado != f.Estado {
			continue
		}
		if f.ClienteID != nil && p.ClienteID != *f.ClienteID {
			continue
		}
		if f.VendedorID != nil {
			a, err := r.comisiones.FindAcuerdoTx(nil, p.ID)
			if err != nil || a.EmpleadoID == nil || *a.EmpleadoID != *f.VendedorID {
				continue
			}
		}
		if enRango(p.FechaInicio, f.Desde, f.Hasta) {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ repository.PrestamoRepository = (*stubPrestamoRepo)(nil)

// ── UsuarioRepository ─────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	usuarios []*model.Usuario
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	for _, x := range r.usuarios {
		if x.Username == u.Username {
			return errors.New("duplicate key username")
		}
	}
	nuevoID(&u.ID)
	r.usuarios = append(r.usuarios, u)
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username && u.Activo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) List(_ context.Context, incluirInactivos bool) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if incluirInactivos || u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	for _, u := range r.usuarios {
		if u.ID == id {
			u.Activo = activo
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// ── Ports ─────────────────────────────────────────────────────────────────────

type stubEnqueuer struct {
	mu       sync.Mutex
	espejos  []dto.EspejoDepositoJob
	reportes []dto.ReporteCierreJob
}

func (q *stubEnqueuer) EnqueueEspejoDeposito(_ context.Context, job dto.EspejoDepositoJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.espejos = append(q.espejos, job)
	return nil
}

func (q *stubEnqueuer) EnqueueReporteCierre(_ context.Context, job dto.ReporteCierreJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reportes = append(q.reportes, job)
	return nil
}

// stubCache keeps values by pointer; Get copies through a type switch on the
// response types the services cache.
type stubCache struct {
	valores     map[string]any
	invalidados []string
	lecturasHit int
}

func newStubCache() *stubCache { return &stubCache{valores: map[string]any{}} }

func (c *stubCache) Get(_ context.Context, key string, dest any) bool {
	v, ok := c.valores[key]
	if !ok {
		return false
	}
	switch d := dest.(type) {
	case *dto.SummaryMetricsResponse:
		*d = *v.(*dto.SummaryMetricsResponse)
	default:
		return false
	}
	c.lecturasHit++
	return true
}

func (c *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) {
	c.valores[key] = value
}

func (c *stubCache) InvalidatePrefix(_ context.Context, prefix string) {
	c.invalidados = append(c.invalidados, prefix)
	for k := range c.valores {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.valores, k)
		}
	}
}

// ── Fixture ───────────────────────────────────────────────────────────────────

// entorno wires every service over the in-memory stubs with a pinned clock.
type entorno struct {
	reloj      *relojMovil
	caja       *stubCajaRepo
	cajaEmp    *stubCajaEmpleadoRepo
	empleados  *stubEmpleadoRepo
	comisiones *stubComisionRepo
	pagos      *stubPagoRepo
	prestamos  *stubPrestamoRepo
	jobs       *stubEnqueuer
	cache      *stubCache
}

// relojMovil is a clock tests can move between days.
type relojMovil struct {
	t time.Time
}

func (r *relojMovil) Now() time.Time { return r.t }

func (r *relojMovil) irA(dia string) { r.t = fecha(dia).Add(10 * time.Hour) }

func nuevoEntorno(hoy string) *entorno {
	com := &stubComisionRepo{}
	e := &entorno{
		reloj:      &relojMovil{},
		caja:       newStubCajaRepo(),
		cajaEmp:    newStubCajaEmpleadoRepo(),
		empleados:  &stubEmpleadoRepo{},
		comisiones: com,
		pagos:      &stubPagoRepo{},
		prestamos:  &stubPrestamoRepo{comisiones: com},
		jobs:       &stubEnqueuer{},
		cache:      newStubCache(),
	}
	e.reloj.irA(hoy)
	return e
}

func (e *entorno) cajaSvc() service.CajaService {
	return service.NewCajaService(e.caja, nil, e.jobs, e.reloj, "")
}

func (e *entorno) pagoSvc(politica string) service.PagoService {
	return service.NewPagoService(e.prestamos, e.pagos, e.comisiones, e.empleados, e.cajaSvc(), e.cache, politica)
}

func (e *entorno) prestamoSvc() service.PrestamoService {
	return service.NewPrestamoService(e.prestamos, e.comisiones, e.empleados, e.cajaSvc(), e.cache, e.reloj, 20)
}

func (e *entorno) cajaEmpleadoSvc(caja service.CajaService) service.CajaEmpleadoService {
	return service.NewCajaEmpleadoService(e.cajaEmp, e.empleados, e.pagos, e.comisiones, caja, nil, e.jobs, e.reloj)
}

func (e *entorno) comisionSvc() service.ComisionService {
	return service.NewComisionService(e.comisiones, e.prestamos, e.pagos, e.empleados, e.reloj)
}

func (e *entorno) metricsSvc() service.MetricsService {
	return service.NewMetricsService(e.prestamos, e.pagos, e.comisiones, e.cache, time.Minute, e.reloj)
}
