package router

import (
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/infra"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"
	"github.com/Leoramirez777/gestor-prestamista/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Services is the wired service layer, shared by the HTTP router and the
// background workers.
type Services struct {
	Auth         service.AuthService
	Empleados    service.EmpleadoService
	Caja         service.CajaService
	CajaEmpleado service.CajaEmpleadoService
	Prestamos    service.PrestamoService
	Pagos        service.PagoService
	Comisiones   service.ComisionService
	Metricas     service.MetricsService
}

// NewServices builds every service. rdb may be nil: locking then falls
// back to the in-process locker, caching is disabled and jobs are dropped.
// Dependency graph: Service ← Repository ← DB/Redis
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, clock timeutil.Clock) *Services {
	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		locker service.DayLocker
		cache  service.MetricsCache
		jobs   service.JobEnqueuer
	)
	if rdb != nil && cfg.LockBackend != "local" {
		locker = infra.NewRedisLocker(rdb, time.Duration(cfg.LockTTLSeconds)*time.Second)
	} else {
		locker = infra.NewLocalLocker()
	}
	if rdb != nil {
		cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
			Name: "redis-cache",
			OnStateChange: func(name string, from, to infra.CBState) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		})
		cache = infra.NewRedisCache(rdb, cb)
		jobs = worker.NewDispatcher(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	empleadoRepo := repository.NewEmpleadoRepository(db)
	prestamoRepo := repository.NewPrestamoRepository(db)
	pagoRepo := repository.NewPagoRepository(db)
	comisionRepo := repository.NewComisionRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	cajaEmpleadoRepo := repository.NewCajaEmpleadoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cajaSvc := service.NewCajaService(cajaRepo, locker, jobs, clock, cfg.ReporteCierreEmail)
	return &Services{
		Auth:         service.NewAuthService(usuarioRepo, empleadoRepo, cfg),
		Empleados:    service.NewEmpleadoService(empleadoRepo),
		Caja:         cajaSvc,
		CajaEmpleado: service.NewCajaEmpleadoService(cajaEmpleadoRepo, empleadoRepo, pagoRepo, comisionRepo, cajaSvc, locker, jobs, clock),
		Prestamos:    service.NewPrestamoService(prestamoRepo, comisionRepo, empleadoRepo, cajaSvc, cache, clock, cfg.TasaRefinanciacion),
		Pagos:        service.NewPagoService(prestamoRepo, pagoRepo, comisionRepo, empleadoRepo, cajaSvc, cache, cfg.PoliticaEliminacionPago),
		Comisiones:   service.NewComisionService(comisionRepo, prestamoRepo, pagoRepo, empleadoRepo, clock),
		Metricas:     service.NewMetricsService(prestamoRepo, pagoRepo, comisionRepo, cache, time.Duration(cfg.MetricsCacheTTL)*time.Second, clock),
	}
}
