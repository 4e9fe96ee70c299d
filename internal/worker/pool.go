package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEspejoDeposito = "jobs:espejo_deposito"
	QueueEmail          = "jobs:email"

	TipoEspejoDeposito = "espejo_deposito"
	TipoReporteCierre  = "reporte_cierre"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// HandlerFunc processes one job payload. A returned error schedules a retry.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// ErrPermanent marks failures that retrying cannot fix; the job goes
// straight to the dead letter queue.
var ErrPermanent = errors.New("permanent job failure")

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEspejoDeposito queues a retry of a central mirror write.
func (d *Dispatcher) EnqueueEspejoDeposito(ctx context.Context, job dto.EspejoDepositoJob) error {
	return d.enqueue(ctx, QueueEspejoDeposito, TipoEspejoDeposito, job)
}

// EnqueueReporteCierre queues the close report e-mail.
func (d *Dispatcher) EnqueueReporteCierre(ctx context.Context, job dto.ReporteCierreJob) error {
	return d.enqueue(ctx, QueueEmail, TipoReporteCierre, job)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb         *redis.Client
	handlers    map[string]HandlerFunc
	maxAttempts int
	backoff     time.Duration
}

func NewPool(rdb *redis.Client, maxAttempts int) *Pool {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Pool{rdb: rdb, handlers: map[string]HandlerFunc{}, maxAttempts: maxAttempts, backoff: 5 * time.Second}
}

// Handle registers fn for jobs of the given type.
func (p *Pool) Handle(jobType string, fn HandlerFunc) {
	p.handlers[jobType] = fn
}

// Start launches numWorkers goroutines plus the retry scheduler.
// Each goroutine blocks on BRPOP; zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	go p.runRetries(ctx)
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueEspejoDeposito, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

// process runs one job and decides between done, retry and DLQ.
func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "", json.RawMessage(raw), "envelope invalido", 0)
		return
	}
	fn, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "tipo de job desconocido", job.Attempts)
		return
	}

	job.Attempts++
	err := p.safeCall(ctx, fn, job.Payload)
	switch {
	case err == nil:
		metrics.JobsProcesados.WithLabelValues(job.Type, "ok").Inc()
		log.Info().Str("type", job.Type).Int("attempt", job.Attempts).Msg("job processed")
	case errors.Is(err, ErrPermanent) || job.Attempts >= p.maxAttempts:
		metrics.JobsProcesados.WithLabelValues(job.Type, "dlq").Inc()
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
	default:
		metrics.JobsProcesados.WithLabelValues(job.Type, "retry").Inc()
		delay := p.backoff * time.Duration(1<<(job.Attempts-1))
		if err := scheduleRetry(ctx, p.rdb, queue, job, time.Now().Add(delay)); err != nil {
			log.Error().Err(err).Str("type", job.Type).Msg("failed to schedule retry")
			SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
			return
		}
		log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Dur("delay", delay).Msg("job failed, retry scheduled")
	}
}

func (p *Pool) safeCall(ctx context.Context, fn HandlerFunc, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrPermanent, r)
		}
	}()
	return fn(ctx, payload)
}
