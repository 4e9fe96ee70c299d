package router

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/handler"
	"github.com/Leoramirez777/gestor-prestamista/internal/middleware"
	"github.com/Leoramirez777/gestor-prestamista/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	rolAdmin      = handler.RolAdministrador
	rolSupervisor = handler.RolSupervisor
	rolVendedor   = handler.RolVendedor
	rolCobrador   = handler.RolCobrador
)

// New returns a configured Gin engine. Rate limiter windows are purged
// until ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loginLimiter := middleware.LoginLimiter()
	apiLimiter := middleware.APILimiter(1000, time.Minute)
	go middleware.RunPurge(ctx, 5*time.Minute, loginLimiter, apiLimiter)

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Env, cfg.Origenes()...))
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Handler())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svc.Auth)
	usuariosH := handler.NewUsuariosHandler(svc.Auth)
	empleadosH := handler.NewEmpleadosHandler(svc.Empleados)
	prestamosH := handler.NewPrestamosHandler(svc.Prestamos, svc.Pagos)
	pagosH := handler.NewPagosHandler(svc.Pagos)
	cajaH := handler.NewCajaHandler(svc.Caja)
	cajaEmpH := handler.NewCajaEmpleadoHandler(svc.CajaEmpleado, svc.Caja)
	comisionesH := handler.NewComisionesHandler(svc.Comisiones)
	metricsH := handler.NewMetricsHandler(svc.Metricas)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, dlqLengths(rdb)))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter.Handler(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		todos := middleware.RequireRole(rolAdmin, rolSupervisor, rolVendedor, rolCobrador)
		backOffice := middleware.RequireRole(rolAdmin, rolSupervisor)

		prestamos := v1.Group("/prestamos")
		{
			prestamos.GET("", todos, prestamosH.Listar)
			prestamos.GET("/:id", todos, prestamosH.Obtener)
			prestamos.GET("/:id/amortizacion", todos, prestamosH.Amortizacion)
			prestamos.GET("/:id/pagos", todos, prestamosH.ListarPagos)
			prestamos.POST("", middleware.RequireRole(rolAdmin, rolSupervisor, rolVendedor), prestamosH.Crear)
			prestamos.POST("/:id/refinanciar", backOffice, prestamosH.Refinanciar)
		}

		pagos := v1.Group("/pagos")
		{
			pagos.POST("", middleware.RequireRole(rolAdmin, rolSupervisor, rolCobrador), pagosH.Registrar)
			pagos.POST("/preview-comision", todos, pagosH.PreviewComision)
			pagos.GET("/:id", todos, pagosH.Obtener)
			pagos.DELETE("/:id", backOffice, pagosH.Eliminar)
		}

		caja := v1.Group("/caja", backOffice)
		{
			caja.GET("/hoy", cajaH.Hoy)
			caja.GET("/movimientos", cajaH.ListarMovimientos)
			caja.GET("/movimientos.xlsx", cajaH.MovimientosXLSX)
			caja.POST("/movimientos", cajaH.RegistrarMovimiento)
			caja.POST("/cerrar", cajaH.CerrarDia)
			caja.POST("/reabrir", middleware.RequireRole(rolAdmin), cajaH.ReabrirDia)
			caja.POST("/auto-cierre", middleware.RequireRole(rolAdmin), cajaH.AutoCerrar)
			caja.GET("/historial", cajaH.Historial)
			caja.GET("/dia/:fecha", cajaH.ObtenerCierre)
			caja.POST("/dia/:fecha/recalcular", cajaH.Recalcular)
			caja.GET("/dia/:fecha/reporte.pdf", cajaH.ReportePDF)
		}

		cajaEmp := v1.Group("/caja-empleado", todos)
		{
			cajaEmp.GET("/resumen", cajaEmpH.Resumen)
			cajaEmp.GET("/movimientos", cajaEmpH.ListarMovimientos)
			cajaEmp.POST("/movimientos", cajaEmpH.RegistrarMovimiento)
			cajaEmp.POST("/cerrar", cajaEmpH.CerrarDia)
			cajaEmp.POST("/reabrir", backOffice, cajaEmpH.ReabrirDia)
		}

		comisiones := v1.Group("/comisiones", backOffice)
		{
			comisiones.GET("/vendedores", comisionesH.ResumenVendedor)
			comisiones.GET("/vendedores/:id", comisionesH.DetalleVendedor)
			comisiones.GET("/cobradores", comisionesH.ResumenCobrador)
			comisiones.GET("/dia", comisionesH.DelDia)
			comisiones.GET("/ranking", comisionesH.Ranking)
		}

		metricas := v1.Group("/metricas")
		{
			metricas.GET("/resumen", todos, metricsH.Summary)
			metricas.GET("/vencen-hoy", todos, metricsH.DueToday)
			metricas.GET("/proximos", todos, metricsH.DueNext)
			metricas.GET("/periodo", backOffice, metricsH.Period)
			metricas.GET("/rentabilidad", backOffice, metricsH.Profitability)
			metricas.GET("/segmentos", backOffice, metricsH.Segments)
		}

		empleados := v1.Group("/empleados", backOffice)
		{
			empleados.GET("", empleadosH.Listar)
			empleados.GET("/:id", empleadosH.Obtener)
			empleados.POST("", middleware.RequireRole(rolAdmin), empleadosH.Crear)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole(rolAdmin))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

func dlqLengths(rdb *redis.Client) func(ctx context.Context) map[string]int64 {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) map[string]int64 {
		out := map[string]int64{}
		for _, q := range []string{worker.QueueEspejoDeposito, worker.QueueEmail} {
			if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
				out[q] = n
			}
		}
		return out
	}
}
