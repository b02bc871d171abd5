package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/rhartert/satshare/internal/sat"
)

// Results of gini's Solve.
const (
	giniSat   = 1
	giniUnsat = -1
)

// Gini is an engine backed by github.com/go-air/gini.
type Gini struct {
	g *gini.Gini

	nVars    int
	nClauses int
	nSolves  int
	unsat    bool

	// Closed by Interrupt.
	stop     chan struct{}
	stopOnce sync.Once
}

// Bounds of the polling interval used to wait for gini's result.
const (
	minPoll = 100 * time.Microsecond
	maxPoll = 10 * time.Millisecond
)

func NewGini() *Gini {
	return &Gini{
		g:    gini.New(),
		stop: make(chan struct{}),
	}
}

// toZ converts a literal to gini's encoding where variables start at 1.
func toZ(l sat.Literal) z.Lit {
	v := z.Var(l.VarID() + 1)
	if l.IsPositive() {
		return v.Pos()
	}
	return v.Neg()
}

func (e *Gini) NewVariable() int {
	m := e.g.Lit()
	e.nVars++
	return int(m.Var()) - 1
}

// AddClause adds the clause to gini. Gini only detects inconsistencies when
// solving so the status is false only for the empty clause.
func (e *Gini) AddClause(lits []sat.Literal) bool {
	for _, l := range lits {
		e.g.Add(toZ(l))
	}
	e.g.Add(z.LitNull)
	e.nClauses++
	if len(lits) == 0 {
		e.unsat = true
	}
	return !e.unsat
}

func (e *Gini) Solve(assumptions []sat.Literal) bool {
	e.nSolves++
	if e.unsat {
		return false
	}
	select {
	case <-e.stop:
		return false
	default:
	}

	for _, l := range assumptions {
		e.g.Assume(toZ(l))
	}

	// The search runs in gini's own goroutine. Its result is polled rather
	// than waited for because a stopped search never delivers it to Wait.
	run := e.g.GoSolve()
	poll := minPoll
	for {
		if res, done := run.Test(); done {
			return e.result(res, assumptions)
		}
		select {
		case <-e.stop:
			return e.result(run.Stop(), assumptions)
		case <-time.After(poll):
			poll = min(2*poll, maxPoll)
		}
	}
}

// result records an unsatisfiability that does not depend on the
// assumptions. Gini cannot be solved again once its clauses are
// inconsistent.
func (e *Gini) result(res int, assumptions []sat.Literal) bool {
	if res == giniUnsat && (len(assumptions) == 0 || len(e.g.Why(nil)) == 0) {
		e.unsat = true
	}
	return res == giniSat
}

func (e *Gini) Value(l sat.Literal) bool {
	return e.g.Value(toZ(l))
}

// Decisions always returns 0, gini does not expose its search statistics.
func (e *Gini) Decisions() uint64 {
	return 0
}

// Learnts always returns 0, gini does not expose its search statistics.
func (e *Gini) Learnts() uint64 {
	return 0
}

// SetRandomSeed is a no-op, gini's search is not randomized.
func (e *Gini) SetRandomSeed(float64) {}

func (e *Gini) PrintStats(w io.Writer) {
	fmt.Fprintf(w, "c engine:     gini\n")
	fmt.Fprintf(w, "c variables:  %d\n", e.nVars)
	fmt.Fprintf(w, "c clauses:    %d\n", e.nClauses)
	fmt.Fprintf(w, "c solves:     %d\n", e.nSolves)
}

// Interrupt stops the ongoing search, if any, and every future one. It is
// safe to call from any goroutine.
func (e *Gini) Interrupt() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Interrupted reports whether Interrupt was called.
func (e *Gini) Interrupted() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}
