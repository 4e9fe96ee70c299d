//go:build integration

package worker

// Queue, retry and DLQ behaviour against a real Redis.
// Run with: go test -tags integration ./internal/worker/... -v

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// popOne takes the next job off queue the way a pool goroutine does.
func popOne(t *testing.T, rdb *redis.Client, queue string) string {
	t.Helper()
	res, err := rdb.BRPop(context.Background(), time.Second, queue).Result()
	require.NoError(t, err)
	return res[1]
}

func TestQueue_ReintentoYDLQ(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	intentos := 0
	p := NewPool(rdb, 2)
	p.backoff = 0
	p.Handle(TipoEspejoDeposito, func(context.Context, json.RawMessage) error {
		intentos++
		return errors.New("caja central no disponible")
	})

	require.NoError(t, NewDispatcher(rdb).EnqueueEspejoDeposito(ctx, dto.EspejoDepositoJob{
		ClaveIdempotencia: "dep:e1:2025-01-08:200:1", Fecha: "2025-01-08", Monto: decimal.NewFromInt(200),
	}))

	p.process(ctx, QueueEspejoDeposito, popOne(t, rdb, QueueEspejoDeposito))
	assert.Equal(t, 1, intentos)
	n, err := rdb.ZCard(ctx, retrySet).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "first failure is scheduled for retry")

	moved, err := moveDueRetries(ctx, rdb, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	p.process(ctx, QueueEspejoDeposito, popOne(t, rdb, QueueEspejoDeposito))
	assert.Equal(t, 2, intentos)
	largo, err := DLQLength(ctx, rdb, QueueEspejoDeposito)
	require.NoError(t, err)
	assert.Equal(t, int64(1), largo, "attempts exhausted")

	requeued, err := RequeueDLQ(ctx, rdb, QueueEspejoDeposito)
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	var job Job
	require.NoError(t, json.Unmarshal([]byte(popOne(t, rdb, QueueEspejoDeposito)), &job))
	assert.Zero(t, job.Attempts)
	var payload dto.EspejoDepositoJob
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "dep:e1:2025-01-08:200:1", payload.ClaveIdempotencia)
}

func TestQueue_ErrorPermanenteVaDirectoADLQ(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	p := NewPool(rdb, 5)
	p.Handle(TipoReporteCierre, NewEmailWorker(nil, nil).Process)
	require.NoError(t, NewDispatcher(rdb).EnqueueReporteCierre(ctx, dto.ReporteCierreJob{To: "a@b.c", Fecha: "ayer"}))

	p.process(ctx, QueueEmail, popOne(t, rdb, QueueEmail))
	largo, err := DLQLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), largo)
	n, err := rdb.ZCard(ctx, retrySet).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueue_TipoDesconocido(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	require.NoError(t, push(ctx, rdb, QueueEmail, Job{Type: "otro", Payload: json.RawMessage(`{}`)}))
	NewPool(rdb, 1).process(ctx, QueueEmail, popOne(t, rdb, QueueEmail))
	largo, err := DLQLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), largo)
}

func TestPool_ConsumeEnSegundoPlano(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hecho := make(chan dto.EspejoDepositoJob, 1)
	p := NewPool(rdb, 3)
	p.Handle(TipoEspejoDeposito, func(_ context.Context, raw json.RawMessage) error {
		var j dto.EspejoDepositoJob
		if err := json.Unmarshal(raw, &j); err != nil {
			return err
		}
		hecho <- j
		return nil
	})
	p.Start(ctx, 1)

	require.NoError(t, NewDispatcher(rdb).EnqueueEspejoDeposito(ctx, dto.EspejoDepositoJob{ClaveIdempotencia: "k", Fecha: "2025-01-08"}))
	select {
	case j := <-hecho:
		assert.Equal(t, "k", j.ClaveIdempotencia)
	case <-time.After(10 * time.Second):
		t.Fatal("job not consumed")
	}
}

func TestRedisLocker_Exclusion(t *testing.T) {
	rdb := startRedis(t)
	l := infra.NewRedisLocker(rdb, 5*time.Second)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "caja:2025-01-08")
	require.NoError(t, err)

	adquirido := make(chan struct{})
	go func() {
		u, err := l.Lock(ctx, "caja:2025-01-08")
		if err == nil {
			close(adquirido)
			u()
		}
	}()
	select {
	case <-adquirido:
		t.Fatal("lock acquired twice")
	case <-time.After(100 * time.Millisecond):
	}
	unlock()
	select {
	case <-adquirido:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestRedisCache_Roundtrip(t *testing.T) {
	rdb := startRedis(t)
	cache := infra.NewRedisCache(rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig("cache")))
	ctx := context.Background()

	cache.Set(ctx, "metrics:summary:todos:2025-01-08", dto.SummaryMetricsResponse{TotalPrestamos: 3}, time.Minute)
	var got dto.SummaryMetricsResponse
	require.True(t, cache.Get(ctx, "metrics:summary:todos:2025-01-08", &got))
	assert.Equal(t, 3, got.TotalPrestamos)

	cache.InvalidatePrefix(ctx, "metrics:")
	assert.False(t, cache.Get(ctx, "metrics:summary:todos:2025-01-08", &got))
}
