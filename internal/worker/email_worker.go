package worker

// email_worker.go
// Renders the close report of a day and mails it to the configured address.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/infra"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/rs/zerolog/log"
)

// ReporteMailer is the subset of infra.Mailer the worker needs.
type ReporteMailer interface {
	SendReporteCierre(to, fecha string, pdf []byte) error
}

type EmailWorker struct {
	caja   service.CajaService
	mailer ReporteMailer
}

func NewEmailWorker(caja service.CajaService, mailer ReporteMailer) *EmailWorker {
	return &EmailWorker{caja: caja, mailer: mailer}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var job dto.ReporteCierreJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return fmt.Errorf("%w: payload invalido: %v", ErrPermanent, err)
	}
	if job.To == "" {
		log.Warn().Str("fecha", job.Fecha).Msg("email_worker: empty recipient, skipping")
		return nil
	}
	fecha, err := timeutil.ParseFecha(job.Fecha)
	if err != nil {
		return fmt.Errorf("%w: fecha invalida %q", ErrPermanent, job.Fecha)
	}

	cierre, err := w.caja.ObtenerCierre(ctx, fecha)
	if err != nil {
		return err
	}
	movs, err := w.caja.ListarMovimientos(ctx, fecha)
	if err != nil {
		return err
	}
	pdf, err := infra.GenerateCierrePDF(cierre, movs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if err := w.mailer.SendReporteCierre(job.To, job.Fecha, pdf); err != nil {
		return err
	}
	log.Info().Str("to", job.To).Str("fecha", job.Fecha).Msg("email_worker: close report sent")
	return nil
}
