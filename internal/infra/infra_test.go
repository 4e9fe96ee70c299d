package infra

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ── Circuit breaker ───────────────────────────────────────────────────────────

func TestCircuitBreaker_Ciclo(t *testing.T) {
	var transiciones []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
		OnStateChange: func(_ string, from, to CBState) {
			transiciones = append(transiciones, from.String()+"->"+to.String())
		},
	})
	ahora := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return ahora }
	falla := errors.New("boom")

	assert.ErrorIs(t, cb.Execute(func() error { return falla }), falla)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return falla }), falla)
	assert.Equal(t, CBOpen, cb.State())

	llamado := false
	err := cb.Execute(func() error { llamado = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, llamado)

	ahora = ahora.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transiciones)
}

func TestCircuitBreaker_FalloEnSemiAbiertoReabre(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 1, OpenTimeout: time.Second})
	ahora := time.Now()
	cb.now = func() time.Time { return ahora }

	_ = cb.Execute(func() error { return errors.New("x") })
	ahora = ahora.Add(time.Second)
	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_ExitoReiniciaFallos(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 2})
	_ = cb.Execute(func() error { return errors.New("x") })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, CBClosed, cb.State())
}

// ── Cache ─────────────────────────────────────────────────────────────────────

func TestRedisCache_RedisCaidoEsMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "cache", FailureThreshold: 2})
	cache := NewRedisCache(rdb, cb)
	ctx := context.Background()

	var dest map[string]int
	assert.False(t, cache.Get(ctx, "k", &dest))
	cache.Set(ctx, "k", map[string]int{"a": 1}, time.Minute)
	assert.Equal(t, CBOpen, cb.State())
	cache.InvalidatePrefix(ctx, "metrics:")
	assert.False(t, cache.Get(ctx, "k", &dest))
}

// ── Locks ─────────────────────────────────────────────────────────────────────

func TestLocalLocker_SerializaPorClave(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()
	var dentro, maximo int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "caja:2025-01-08")
			if err != nil {
				return
			}
			n := atomic.AddInt32(&dentro, 1)
			for {
				m := atomic.LoadInt32(&maximo)
				if n <= m || atomic.CompareAndSwapInt32(&maximo, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&dentro, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maximo)
	assert.Empty(t, l.locks, "las entradas sin uso se liberan")
}

func TestLocalLocker_ClavesIndependientesYTimeout(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	otra, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	otra()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}

// ── Reports ───────────────────────────────────────────────────────────────────

func movimientosDePrueba() []dto.MovimientoCajaResponse {
	ref := "pago"
	return []dto.MovimientoCajaResponse{
		{Fecha: "2025-01-08", Tipo: "ingreso", Categoria: "cobro_cuota", Descripcion: "Cobro cuota", Monto: decimal.RequireFromString("220"), ReferenciaTipo: &ref},
		{Fecha: "2025-01-08", Tipo: "egreso", Categoria: "desembolso_prestamo", Descripcion: "Desembolso préstamo", Monto: decimal.RequireFromString("1000")},
	}
}

func TestGenerateCierrePDF(t *testing.T) {
	final := decimal.RequireFromString("-780")
	cierre := &dto.CierreCajaResponse{
		Fecha:           "2025-01-08",
		Ingresos:        decimal.RequireFromString("220"),
		Egresos:         decimal.RequireFromString("1000"),
		SaldoEsperado:   decimal.RequireFromString("-780"),
		SaldoFinal:      &final,
		Diferencia:      &decimal.Zero,
		Cerrado:         true,
		DetalleIngresos: map[string]decimal.Decimal{"cobro_cuota": decimal.RequireFromString("220")},
		DetalleEgresos:  map[string]decimal.Decimal{"desembolso_prestamo": decimal.RequireFromString("1000")},
	}
	b, err := GenerateCierrePDF(cierre, movimientosDePrueba())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestGenerateMovimientosXLSX(t *testing.T) {
	b, err := GenerateMovimientosXLSX(movimientosDePrueba())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(hojaMovimientos)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Fecha", rows[0][0])
	assert.Equal(t, "cobro_cuota", rows[1][2])
	assert.Equal(t, "pago", rows[1][6])
	formula, err := f.GetCellFormula(hojaMovimientos, "E4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(E2:E3)", formula)
}
