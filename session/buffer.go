package session

import (
	"github.com/rhartert/satshare/internal/sat"
)

// stagingBuffer assembles one clause at a time. The session holds three of
// them: general, send and receive.
type stagingBuffer struct {
	u    *universe
	lits []sat.Literal
}

func (b *stagingBuffer) stage(l int) {
	b.lits = append(b.lits, b.u.literal(l))
}

func (b *stagingBuffer) clean() {
	b.lits = b.lits[:0]
}

// commit adds the staged literals to the engine as one clause and empties
// the buffer, whatever the engine's answer. An empty buffer commits the
// empty clause.
func (b *stagingBuffer) commit() bool {
	defer b.clean()
	// The engine may reorder the slice; it never retains it.
	return b.u.engine.AddClause(b.lits)
}

// contents returns the staged clause as DIMACS literals.
func (b *stagingBuffer) contents() []int {
	out := make([]int, len(b.lits))
	for i, l := range b.lits {
		out[i] = l.DIMACS()
	}
	return out
}
