package session

import (
	"github.com/rhartert/satshare/internal/sat"
)

// assumptions is the hypothesis of the next solve. Contradictory or
// repeated literals are left to the engine.
type assumptions struct {
	u    *universe
	lits []sat.Literal
}

func (a *assumptions) add(l int) {
	a.lits = append(a.lits, a.u.literal(l))
}

func (a *assumptions) clear() {
	a.lits = a.lits[:0]
}
