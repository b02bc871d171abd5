package engine

import (
	"io"

	"github.com/rhartert/satshare/internal/sat"
)

// Native is an engine backed by the solver of package sat.
type Native struct {
	solver *sat.Solver
}

// NewNative returns an engine using the given solver options. Stop
// conditions (MaxConflicts, Timeout) are disabled: a session expects every
// solve to reach a definite answer.
func NewNative(ops sat.Options) *Native {
	ops.MaxConflicts = -1
	ops.Timeout = -1
	return &Native{solver: sat.NewSolver(ops)}
}

// NewDefaultNative returns a Native engine with sat.DefaultOptions.
func NewDefaultNative() *Native {
	return NewNative(sat.DefaultOptions)
}

func (n *Native) NewVariable() int {
	return n.solver.AddVariable()
}

func (n *Native) AddClause(lits []sat.Literal) bool {
	return n.solver.AddClause(lits)
}

// Solve returns true iff a model was found. An interrupted search is
// reported as unsatisfiable; the engine must then be discarded.
func (n *Native) Solve(assumptions []sat.Literal) bool {
	return n.solver.Solve(assumptions) == sat.True
}

func (n *Native) Value(l sat.Literal) bool {
	return n.solver.ModelValue(l)
}

func (n *Native) Decisions() uint64 {
	return uint64(n.solver.TotalDecisions)
}

func (n *Native) Learnts() uint64 {
	return uint64(n.solver.TotalLearnts)
}

func (n *Native) SetRandomSeed(seed float64) {
	n.solver.SetRandomSeed(seed)
}

func (n *Native) PrintStats(w io.Writer) {
	io.WriteString(w, "c engine:     native\n")
	n.solver.PrintStats(w)
}

// SetExchange connects the engine's learnt clause stream to x.
func (n *Native) SetExchange(x sat.Exchange) {
	n.solver.SetExchange(x)
}

// Interrupt stops the ongoing search, if any, and every future one. It is
// safe to call from any goroutine.
func (n *Native) Interrupt() {
	n.solver.Interrupt()
}

// Interrupted reports whether Interrupt was called. A false answer from
// Solve is only a proof of unsatisfiability if the engine was not
// interrupted.
func (n *Native) Interrupted() bool {
	return n.solver.Interrupted()
}
