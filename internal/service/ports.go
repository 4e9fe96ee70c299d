package service

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
)

// DayLocker serializes writes that touch the same register date.
type DayLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MetricsCache stores computed read models. Misses and errors are silent.
type MetricsCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// JobEnqueuer hands work to the background worker pool.
type JobEnqueuer interface {
	EnqueueEspejoDeposito(ctx context.Context, job dto.EspejoDepositoJob) error
	EnqueueReporteCierre(ctx context.Context, job dto.ReporteCierreJob) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) bool           { return false }
func (noopCache) Set(context.Context, string, any, time.Duration) {}
func (noopCache) InvalidatePrefix(context.Context, string)        {}

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueEspejoDeposito(context.Context, dto.EspejoDepositoJob) error { return nil }
func (noopEnqueuer) EnqueueReporteCierre(context.Context, dto.ReporteCierreJob) error   { return nil }

func cacheOrNoop(c MetricsCache) MetricsCache {
	if c == nil {
		return noopCache{}
	}
	return c
}

func enqueuerOrNoop(q JobEnqueuer) JobEnqueuer {
	if q == nil {
		return noopEnqueuer{}
	}
	return q
}

const prefijoMetricas = "metrics:"
