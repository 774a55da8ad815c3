package zbitvector

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/benbjohnson/zbitvector/sat"
	"github.com/benbjohnson/zbitvector/smt"
	"github.com/prometheus/client_golang/prometheus"
)

// Session binds a backend to the constant registry, logger and metrics used
// by every value built in it. Values from different sessions cannot be mixed.
//
// Session is not safe for concurrent use.
type Session struct {
	backend  smt.Backend
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession returns a new session over b.
func NewSession(b smt.Backend, opts ...Option) *Session {
	s := &Session{
		backend:  b,
		registry: NewRegistry(b),
		logger:   slog.Default(),
		metrics:  newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	defaultOnce    sync.Once
	defaultSession *Session
)

// Default returns the process-wide session. It is created on first use over a
// sat backend unless SetDefault was called first.
func Default() *Session {
	defaultOnce.Do(func() {
		if defaultSession == nil {
			defaultSession = NewSession(sat.New(sat.Config{}))
		}
	})
	return defaultSession
}

// SetDefault replaces the process-wide session. Values built in the previous
// default session remain bound to it.
func SetDefault(s *Session) {
	defaultOnce.Do(func() {})
	defaultSession = s
}

// Backend returns the session backend.
func (s *Session) Backend() smt.Backend { return s.backend }

// Registry returns the session's constant registry.
func (s *Session) Registry() *Registry { return s.registry }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Register registers the session metrics with r.
func (s *Session) Register(r prometheus.Registerer) error {
	for _, c := range s.metrics.collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewSolver returns a new solver in s.
func (s *Session) NewSolver() *Solver {
	return newSolver(s)
}

// Eval returns the value of x in the model found by the most recent
// satisfiable check. Int values are returned as signed integers and
// constraints as 0 or 1.
func (s *Session) Eval(x Symbolic) (*big.Int, error) {
	e, ok := s.backend.(smt.Evaluator)
	if !ok {
		return nil, fmt.Errorf("backend %T cannot evaluate terms", s.backend)
	}

	v := x.val()
	if v.s == nil {
		return nil, fmt.Errorf("%w: uninitialized symbolic value", ErrUsage)
	} else if v.s != s {
		return nil, fmt.Errorf("%w: %s belongs to another session", ErrUsage, x)
	}

	n, err := e.Eval(v.t)
	if err != nil {
		return nil, err
	}

	// Reinterpret the bit pattern as two's complement.
	if k := x.Kind(); k.Class == IntClass && n.Bit(int(k.Width)-1) == 1 {
		n = new(big.Int).Sub(n, new(big.Int).Lsh(big.NewInt(1), k.Width))
	}
	return n, nil
}

func (s *Session) intern(name string, k Kind) (smt.Term, error) {
	t, err := s.registry.Intern(name, k)
	if err != nil {
		s.logger.Debug("name conflict", slog.String("name", name), slog.String("kind", k.String()), slog.Any("err", err))
		return nil, err
	}
	return t, nil
}

// literal returns a backend literal. Panic if v does not fit sort.
func (s *Session) literal(sort smt.Sort, v *big.Int) smt.Term {
	t, err := s.backend.Value(sort, v)
	if err != nil {
		panic(err)
	}
	return t
}
