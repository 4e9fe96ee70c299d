package worker

// deposito_worker.go
// Retries the central register mirror of an employee deposit. The central
// write is idempotent on the deposit key, so a retry after a partial
// success is harmless.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/rs/zerolog/log"
)

type DepositoWorker struct {
	caja service.CajaService
}

func NewDepositoWorker(caja service.CajaService) *DepositoWorker {
	return &DepositoWorker{caja: caja}
}

func (w *DepositoWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var job dto.EspejoDepositoJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return fmt.Errorf("%w: payload invalido: %v", ErrPermanent, err)
	}
	if job.ClaveIdempotencia == "" {
		return fmt.Errorf("%w: clave_idempotencia vacia", ErrPermanent)
	}

	mov, err := w.caja.RegistrarEspejoDeposito(ctx, job)
	if err != nil {
		if service.IsValidation(err) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}
	log.Info().
		Str("clave", job.ClaveIdempotencia).
		Str("movimiento_id", mov.ID).
		Str("fecha", mov.Fecha).
		Msg("deposito_worker: mirror posted")
	return nil
}
