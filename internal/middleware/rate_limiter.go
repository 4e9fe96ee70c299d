package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ──────────────────────────────────────────────────────

type ventana struct {
	count int
	fin   time.Time
}

// Limiter counts requests per client IP in fixed windows.
type Limiter struct {
	limite  int
	ventana time.Duration
	mensaje string

	mu       sync.Mutex
	clientes map[string]*ventana
}

func NewLimiter(limite int, dur time.Duration, mensaje string) *Limiter {
	return &Limiter{limite: limite, ventana: dur, mensaje: mensaje, clientes: map[string]*ventana{}}
}

// Allow reports whether ip may make another request, and when its window ends.
func (l *Limiter) Allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.clientes[ip]
	if !ok || now.After(v.fin) {
		v = &ventana{fin: now.Add(l.ventana)}
		l.clientes[ip] = v
	}
	v.count++
	return v.count <= l.limite, v.fin
}

// Purge drops windows that ended before now and returns how many it removed.
func (l *Limiter) Purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, v := range l.clientes {
		if now.After(v.fin) {
			delete(l.clientes, ip)
			n++
		}
	}
	return n
}

// Handler aborts with 429 once the caller's window is exhausted.
func (l *Limiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, fin := l.Allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", fin.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.mensaje))
			return
		}
		c.Next()
	}
}

// RunPurge clears expired windows every interval until ctx is cancelled.
func RunPurge(ctx context.Context, interval time.Duration, limiters ...*Limiter) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			total := 0
			for _, l := range limiters {
				total += l.Purge(now)
			}
			if total > 0 {
				log.Debug().Int("purged", total).Msg("rate limiter windows purged")
			}
		}
	}
}

// LoginLimiter allows 20 login attempts per minute per IP.
func LoginLimiter() *Limiter {
	return NewLimiter(20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.")
}

// APILimiter is the general limit applied to every route.
func APILimiter(limite int, dur time.Duration) *Limiter {
	return NewLimiter(limite, dur, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}
