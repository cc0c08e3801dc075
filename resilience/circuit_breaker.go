package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs; usually the remote host.
	Name string `yaml:"-" mapstructure:"-"`
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
	// HalfOpenMaxCalls is the number of probes allowed while half-open.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`
	// Disabled turns the breaker into a pass-through.
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`

	// IsFailure decides which errors count against the circuit. Nil counts all.
	IsFailure     func(err error) bool              `yaml:"-" mapstructure:"-"`
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
	Now           func() time.Time                  `yaml:"-" mapstructure:"-"`
}

func (c *CircuitBreakerConfig) applyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
}

// Named returns a copy of c carrying name.
func (c CircuitBreakerConfig) Named(name string) CircuitBreakerConfig {
	c.Name = name
	return c
}

// CircuitBreaker stops sending downloads to a host that keeps failing.
//
//	closed --MaxFailures--> open --Cooldown--> half-open --successes--> closed
//	                                           half-open --failure----> open
//
// Every transition starts a new generation. A result that arrives after
// the generation it was admitted in has ended is ignored.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	expiry     time.Time
	failures   int
	probes     int
	successes  int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.applyDefaults()
	return &CircuitBreaker{cfg: cfg, now: clock(cfg.Now)}
}

// Execute runs fn when the circuit admits it and returns ErrCircuitOpen
// otherwise, without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.cfg.Disabled {
		return fn()
	}
	gen, ok := cb.admit()
	if !ok {
		return ErrCircuitOpen
	}
	err := fn()
	cb.settle(gen, cb.counts(err))
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.refresh()
}

// Failures is the current run of consecutive failures.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

func (cb *CircuitBreaker) counts(err error) bool {
	if err == nil {
		return false
	}
	return cb.cfg.IsFailure == nil || cb.cfg.IsFailure(err)
}

func (cb *CircuitBreaker) admit() (uint64, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.refresh() {
	case StateOpen:
		return 0, false
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxCalls {
			return 0, false
		}
		cb.probes++
	}
	return cb.generation, true
}

func (cb *CircuitBreaker) settle(gen uint64, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.refresh()
	if gen != cb.generation {
		return
	}
	switch {
	case failed && state == StateHalfOpen:
		cb.enter(StateOpen)
	case failed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.enter(StateOpen)
		}
	case state == StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenMaxCalls {
			cb.enter(StateClosed)
		}
	default:
		cb.failures = 0
	}
}

// refresh moves an open circuit to half-open once its cooldown is over.
func (cb *CircuitBreaker) refresh() State {
	if cb.state == StateOpen && !cb.now().Before(cb.expiry) {
		cb.enter(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) enter(to State) {
	from := cb.state
	cb.state = to
	cb.generation++
	cb.failures, cb.probes, cb.successes = 0, 0, 0
	cb.expiry = time.Time{}
	if to == StateOpen {
		cb.expiry = cb.now().Add(cb.cfg.Cooldown)
	}
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
