package session

import (
	"fmt"

	"github.com/rhartert/satshare/internal/sat"
)

// universe tracks the variables known to the engine and grows it on demand.
type universe struct {
	engine Engine
	size   int
}

// ensure allocates variables in the engine until varID is known. It is a
// no-op if the variable already exists.
func (u *universe) ensure(varID int) {
	for u.size <= varID {
		if got := u.engine.NewVariable(); got != u.size {
			panic(fmt.Sprintf("session: engine allocated variable %d, want %d", got, u.size))
		}
		u.size++
	}
}

// literal converts a DIMACS literal to the engine's encoding after making
// sure its variable exists.
func (u *universe) literal(l int) sat.Literal {
	if l == 0 {
		panic(ErrZeroLiteral)
	}
	lit := sat.FromDIMACS(l)
	u.ensure(lit.VarID())
	return lit
}
