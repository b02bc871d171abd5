package sat

import "fmt"

// Literal represents a literal, which either represent a boolean variable or
// its negation. Variable x is encoded as 2*x and its negation as 2*x+1.
type Literal int

// litUndef is used where no literal is available yet (e.g. the conflict
// itself during analysis, or no pending assumption).
const litUndef Literal = -1

// PositiveLiteral returns the literal that is true iff variable varID is true.
func PositiveLiteral(varID int) Literal {
	return Literal(varID * 2)
}

// NegativeLiteral returns the literal that is true iff variable varID is
// false.
func NegativeLiteral(varID int) Literal {
	return PositiveLiteral(varID).Opposite()
}

// FromDIMACS converts a signed DIMACS literal (1-based, non-zero) to a
// Literal. The caller is responsible for rejecting 0.
func FromDIMACS(lit int) Literal {
	if lit < 0 {
		return NegativeLiteral(-lit - 1)
	}
	return PositiveLiteral(lit - 1)
}

// VarID returns the ID of the literal's variable.
func (l Literal) VarID() int {
	return int(l) / 2
}

// IsPositive returns true if and only if the literal represent the value of
// its boolean variable (i.e. not its negation)
func (l Literal) IsPositive() bool {
	return l&1 == 0
}

// Opposite returns the opposite literal.
func (l Literal) Opposite() Literal {
	return l ^ 1
}

// DIMACS returns the signed 1-based representation of the literal.
func (l Literal) DIMACS() int {
	if l.IsPositive() {
		return l.VarID() + 1
	}
	return -(l.VarID() + 1)
}

func (l Literal) String() string {
	if l.IsPositive() {
		return fmt.Sprintf("%d", l.VarID())
	}
	return fmt.Sprintf("!%d", l.VarID())
}

// LBool represents a lifted boolean. That is, a boolean that can either be
// True, False, or Unknown.
type LBool int8

const (
	Unknown LBool = 0
	True    LBool = 1
	False   LBool = -1
)

// Opposite returns the opposite of the lifted boolean as follows:
//
//	True -> False
//	False -> True
//	Unknown -> Unknown
func (l LBool) Opposite() LBool {
	return -l
}

// Lift returns a LBool corresponding to the given bool.
func Lift(b bool) LBool {
	if b {
		return True
	}
	return False
}

func (l LBool) String() string {
	switch l {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}
