package infra

import (
	"errors"
	"sync"
	"time"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards Redis-backed helpers (cache, queue) so an unreachable Redis fails
// fast instead of adding a network timeout to every request.
//
//   closed    → calls pass; consecutive failures trip it open
//   open      → calls fail with ErrCircuitOpen until the cool-down elapses
//   half-open → calls pass as probes; enough successes close it again

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures to trip open
	SuccessThreshold int           // consecutive half-open successes to close
	OpenTimeout      time.Duration // cool-down before probing
	// OnStateChange is called outside the lock after every transition.
	OnStateChange func(name string, from, to CBState)
}

func DefaultCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     CBState
	fallos    int
	exitos    int
	abiertoEn time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig(cfg.Name)
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// State reports the current state, moving open to half-open once the
// cool-down has elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	from, to := cb.refrescar()
	cb.mu.Unlock()
	cb.notificar(from, to)
	return to
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	from := cb.state
	if err != nil {
		cb.registrarFallo()
	} else {
		cb.registrarExito()
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notificar(from, to)
	return err
}

// refrescar must be called under lock.
func (cb *CircuitBreaker) refrescar() (CBState, CBState) {
	from := cb.state
	if cb.state == CBOpen && cb.now().Sub(cb.abiertoEn) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.exitos = 0
	}
	return from, cb.state
}

func (cb *CircuitBreaker) registrarFallo() {
	cb.fallos++
	switch cb.state {
	case CBClosed:
		if cb.fallos >= cb.cfg.FailureThreshold {
			cb.abrir()
		}
	case CBHalfOpen:
		cb.abrir()
	}
}

func (cb *CircuitBreaker) registrarExito() {
	switch cb.state {
	case CBClosed:
		cb.fallos = 0
	case CBHalfOpen:
		cb.exitos++
		if cb.exitos >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.fallos, cb.exitos = 0, 0
		}
	}
}

func (cb *CircuitBreaker) abrir() {
	cb.state = CBOpen
	cb.abiertoEn = cb.now()
	cb.fallos, cb.exitos = 0, 0
}

func (cb *CircuitBreaker) notificar(from, to CBState) {
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
