// Package session is the incremental boundary of a SAT engine: callers grow
// the variable universe implicitly, assemble clauses in staging buffers,
// solve under a rolling set of assumptions and exchange learnt clauses with
// cooperating sessions.
//
// A Session is not safe for concurrent use. Portfolio solving runs one
// session per goroutine and connects them through a Link.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rhartert/satshare/internal/engine"
	"github.com/rhartert/satshare/internal/sat"
)

var (
	// ErrZeroLiteral is the panic value for literal 0, which references no
	// variable.
	ErrZeroLiteral = errors.New("session: literal 0 is not a valid literal")

	// ErrClosed is the panic value for operations on a closed session.
	ErrClosed = errors.New("session: session is closed")

	// ErrNoModel is the panic value for reading a model that does not exist
	// anymore, or never existed: the last solve was unsatisfiable, or a
	// variable or clause was added since.
	ErrNoModel = errors.New("session: no model available")
)

// Engine is the CDCL solver driven by a session. Literals use the encoding
// of package sat and variables are numbered from 0 in allocation order.
type Engine interface {
	// NewVariable allocates a variable and returns its index.
	NewVariable() int

	// AddClause adds a clause at the root level. It returns false if the
	// engine is known to be unsatisfiable. The slice may be reordered but
	// must not be retained.
	AddClause(lits []sat.Literal) bool

	// Solve returns true iff the clauses are satisfiable under the
	// assumptions.
	Solve(assumptions []sat.Literal) bool

	// Value returns the value of l in the last model.
	Value(l sat.Literal) bool

	Decisions() uint64
	Learnts() uint64
	SetRandomSeed(seed float64)
	PrintStats(w io.Writer)
}

// noCopy may be embedded in structs that must not be copied after first use
// (see go vet's copylocks check).
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Session owns one engine and the state used to feed it.
type Session struct {
	noCopy noCopy

	engine Engine
	logger *zap.Logger
	stats  io.Writer

	u           universe
	clause      stagingBuffer
	send        stagingBuffer
	receive     stagingBuffer
	assumptions assumptions

	// The last model is readable iff modelValid and no variable was added
	// since, that is modelSize == u.size.
	modelValid bool
	modelSize  int

	link        Link
	exportLimit int
	nExported   uint64
	nImported   uint64

	nSolves int
	closed  bool
}

// Option configures a Session.
type Option func(*Session)

// WithEngine sets the engine of the session. The engine must be fresh: no
// variable allocated. The default is a native engine.
func WithEngine(e Engine) Option {
	return func(s *Session) { s.engine = e }
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithStatsOutput sets where PrintIncrementalStats writes. The default is
// os.Stdout.
func WithStatsOutput(w io.Writer) Option {
	return func(s *Session) { s.stats = w }
}

// WithExportLimit sets the size of the largest learnt clause exported to a
// connected Link. Limits lower than 1 export every clause.
func WithExportLimit(n int) Option {
	return func(s *Session) { s.exportLimit = n }
}

// New returns a session with no variable, no clause and no assumption.
func New(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = engine.NewDefaultNative()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.stats == nil {
		s.stats = os.Stdout
	}

	s.u.engine = s.engine
	s.clause.u = &s.u
	s.send.u = &s.u
	s.receive.u = &s.u
	s.assumptions.u = &s.u
	return s
}

func (s *Session) checkOpen() {
	if s.closed {
		panic(ErrClosed)
	}
}

// Close releases the engine. Any later call on the session panics with
// ErrClosed except Close itself.
func (s *Session) Close() {
	if s.closed {
		return
	}
	if x, ok := s.engine.(exchanger); ok && s.link != nil {
		x.SetExchange(nil)
	}
	s.closed = true
	s.engine = nil
	s.u.engine = nil
	s.link = nil
	s.clause.lits = nil
	s.send.lits = nil
	s.receive.lits = nil
	s.assumptions.lits = nil
	s.logger.Debug("session closed", zap.Int("solves", s.nSolves))
}

// NumVariables returns the size of the variable universe.
func (s *Session) NumVariables() int {
	s.checkOpen()
	return s.u.size
}

// AddLiteralToClause appends l to the clause being assembled, allocating its
// variable if needed.
func (s *Session) AddLiteralToClause(l int) {
	s.checkOpen()
	s.clause.stage(l)
}

// CleanClause discards the clause being assembled.
func (s *Session) CleanClause() {
	s.checkOpen()
	s.clause.clean()
}

// CommitClause adds the assembled clause to the engine and empties the
// buffer. It returns false if the engine is known to be unsatisfiable after
// the clause, which is the case for the empty clause.
func (s *Session) CommitClause() bool {
	s.checkOpen()
	s.modelValid = false
	return s.clause.commit()
}

// AddClause adds the clause to the engine as CommitClause does, allocating
// the variables of its literals. The clause being assembled with
// AddLiteralToClause is left untouched.
func (s *Session) AddClause(lits ...int) bool {
	s.checkOpen()
	clause := make([]sat.Literal, len(lits))
	for i, l := range lits {
		clause[i] = s.u.literal(l)
	}
	s.modelValid = false
	return s.engine.AddClause(clause)
}

// AddAssumption adds l to the assumptions of the next solve.
func (s *Session) AddAssumption(l int) {
	s.checkOpen()
	s.assumptions.add(l)
}

// ClearAssumptions removes all the assumptions. Solve already does it.
func (s *Session) ClearAssumptions() {
	s.checkOpen()
	s.assumptions.clear()
}

// Solve returns true iff the committed clauses are satisfiable under the
// current assumptions. The assumptions are cleared whatever the result.
func (s *Session) Solve() bool {
	s.checkOpen()
	defer s.assumptions.clear()

	s.modelValid = false
	nAssumptions := len(s.assumptions.lits)

	start := time.Now()
	ok := s.engine.Solve(s.assumptions.lits)
	elapsed := time.Since(start)

	s.nSolves++
	s.modelValid = ok
	s.modelSize = s.u.size

	s.logger.Debug("solve",
		zap.Int("solve", s.nSolves),
		zap.Bool("satisfiable", ok),
		zap.Int("assumptions", nAssumptions),
		zap.Int("variables", s.u.size),
		zap.Duration("elapsed", elapsed))

	return ok
}

// lookup returns the engine literal of l if the last model assigns it.
func (s *Session) lookup(l int) sat.Literal {
	s.checkOpen()
	if l == 0 {
		panic(ErrZeroLiteral)
	}
	lit := sat.FromDIMACS(l)
	if !s.modelValid || s.modelSize != s.u.size || lit.VarID() >= s.u.size {
		panic(ErrNoModel)
	}
	return lit
}

// ValueOf returns the value of l in the model found by the last solve. It
// panics with ErrNoModel if there is no such model.
func (s *Session) ValueOf(l int) bool {
	return s.engine.Value(s.lookup(l))
}

// Model returns the model found by the last solve as DIMACS literals, one
// per variable in increasing order.
func (s *Session) Model() []int {
	if s.u.size == 0 {
		s.checkOpen()
		if !s.modelValid {
			panic(ErrNoModel)
		}
		return []int{}
	}
	s.lookup(1)

	model := make([]int, s.u.size)
	for v := range model {
		model[v] = v + 1
		if !s.engine.Value(sat.PositiveLiteral(v)) {
			model[v] = -model[v]
		}
	}
	return model
}

// DecisionCount returns the number of decisions made by the engine since
// the session was created.
func (s *Session) DecisionCount() uint64 {
	s.checkOpen()
	return s.engine.Decisions()
}

// LearnedClauseCount returns the number of clauses learnt by the engine
// since the session was created.
func (s *Session) LearnedClauseCount() uint64 {
	s.checkOpen()
	return s.engine.Learnts()
}

// SetRandomSeed seeds the engine's randomized decisions. It only affects
// decisions made after the call.
func (s *Session) SetRandomSeed(seed float64) {
	s.checkOpen()
	s.engine.SetRandomSeed(seed)
}

// PrintIncrementalStats writes the engine and session statistics.
func (s *Session) PrintIncrementalStats() {
	s.checkOpen()
	s.engine.PrintStats(s.stats)
	fmt.Fprintf(s.stats, "c universe:   %d\n", s.u.size)
	fmt.Fprintf(s.stats, "c exported:   %d\n", s.nExported)
	fmt.Fprintf(s.stats, "c imported:   %d\n", s.nImported)
}
