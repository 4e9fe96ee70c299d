package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/infra"
	"github.com/Leoramirez777/gestor-prestamista/internal/router"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"
	"github.com/Leoramirez777/gestor-prestamista/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	// Redis backs the day locks, the metrics cache and the job queues.
	// With LOCK_BACKEND=local the server also runs without it.
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		if cfg.LockBackend != "local" {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		log.Warn().Err(err).Msg("running without redis: local locks, no cache, no background jobs")
		rdb = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := timeutil.NewSystemClock(cfg.Timezone)
	svc := router.NewServices(cfg, db, rdb, clock)

	// Worker handlers are wired here (composition root) so the pool has
	// access to the services and the mailer.
	if rdb != nil {
		pool := worker.NewPool(rdb, cfg.MaxReintentosJob)
		pool.Handle(worker.TipoEspejoDeposito, worker.NewDepositoWorker(svc.Caja).Process)
		mailer := infra.NewMailer(cfg)
		if mailer.Configured() {
			pool.Handle(worker.TipoReporteCierre, worker.NewEmailWorker(svc.Caja, mailer).Process)
		} else {
			log.Warn().Msg("SMTP_HOST not set: close reports will go to the DLQ")
		}
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	worker.StartCierreCron(ctx, time.Duration(cfg.AutoCierreIntervaloMin)*time.Minute, map[string]worker.AutoCerrador{
		"central":   svc.Caja,
		"empleados": svc.CajaEmpleado,
	})

	r := router.New(ctx, cfg, db, rdb, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("gestor-prestamista listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

// openDatabase accepts a Postgres DSN or sqlite://<path> for single-node
// installs.
func openDatabase(url string) (*gorm.DB, error) {
	if path, ok := strings.CutPrefix(url, "sqlite://"); ok {
		return infra.NewSQLite(path)
	}
	return infra.NewDatabase(url)
}
