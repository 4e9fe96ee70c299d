package worker

// cierre_cron.go
// Periodically closes register days left open before today, for the
// central register and every employee register.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// AutoCerrador is implemented by both register services.
type AutoCerrador interface {
	AutoCerrarDiasPendientes(ctx context.Context) (int, error)
}

// StartCierreCron runs one sweep immediately and then every interval until
// ctx is cancelled.
func StartCierreCron(ctx context.Context, interval time.Duration, cajas map[string]AutoCerrador) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("cierre_cron: started")
		BarrerCajas(ctx, cajas)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("cierre_cron: shutting down")
				return
			case <-ticker.C:
				BarrerCajas(ctx, cajas)
			}
		}
	}()
}

// BarrerCajas runs one auto-close pass. Errors are logged per register so
// one failing register does not block the others.
func BarrerCajas(ctx context.Context, cajas map[string]AutoCerrador) {
	for nombre, c := range cajas {
		n, err := c.AutoCerrarDiasPendientes(ctx)
		if err != nil {
			log.Error().Err(err).Str("caja", nombre).Msg("cierre_cron: sweep failed")
			continue
		}
		if n > 0 {
			log.Info().Int("cerrados", n).Str("caja", nombre).Msg("cierre_cron: days auto-closed")
		}
	}
}
