package sat

import (
	"strings"
)

type status uint8

const (
	statusDeleted status = 0b01
	statusLearnt  status = 0b10
)

type Clause struct {
	activity float64

	// The clause's literals. The slice contains at least two literals if the
	// clause is active, it is nil if the clause has been marked as deleted.
	literals []Literal

	// Pooled backing array of literals, returned to the pool on deletion.
	ref *[]Literal

	// This is used to speed-up the search for a new literal to watch by
	// starting the search from the position at which the previous watched
	// literal was swapped in (if such literal exists). This value must always
	// be in [2, len(literals) - 1].
	prevPos int

	statusMask status
}

func (c *Clause) isLearnt() bool {
	return c.statusMask&statusLearnt != 0
}

func (c *Clause) isDeleted() bool {
	return c.statusMask&statusDeleted != 0
}

// NewClause creates a clause from tmpLiterals and attaches it to the solver's
// watchers. The content of tmpLiterals may be reordered but is never retained.
//
// Problem clauses (i.e. not learnt) are simplified first: duplicate literals
// and literals false at the root level are removed, tautologies and clauses
// satisfied at the root level are dropped. The function returns a nil clause
// if no clause needs to be stored; the boolean is false if the clause makes
// the problem unsatisfiable.
func NewClause(s *Solver, tmpLiterals []Literal, learnt bool) (*Clause, bool) {
	size := len(tmpLiterals)

	if !learnt {
		seen := map[Literal]struct{}{}

		for i := size - 1; i >= 0; i-- {
			// If the opposite literal is in the clause, then the clause is
			// always true.
			if _, ok := seen[tmpLiterals[i].Opposite()]; ok {
				return nil, true
			}

			// Remove the literal if it is already present.
			if _, ok := seen[tmpLiterals[i]]; ok {
				size--
				tmpLiterals[i], tmpLiterals[size] = tmpLiterals[size], tmpLiterals[i]
				continue
			}

			seen[tmpLiterals[i]] = struct{}{}

			switch s.LitValue(tmpLiterals[i]) {
			case True:
				return nil, true // clause is always true
			case False:
				size--
				tmpLiterals[i], tmpLiterals[size] = tmpLiterals[size], tmpLiterals[i]
			}
		}

		tmpLiterals = tmpLiterals[:size]
	}

	switch size {
	case 0:
		// Empty clauses cannot be valid.
		return nil, false
	case 1:
		// Directly enqueue unit facts.
		return nil, s.enqueue(tmpLiterals[0], nil)
	default:
		c := &Clause{
			prevPos: 2, // no previous literal
			ref:     allocSlice(size),
		}
		*c.ref = append(*c.ref, tmpLiterals...)
		c.literals = *c.ref

		if learnt {
			c.statusMask |= statusLearnt

			// The second watch must be the literal assigned at the highest
			// level so that the clause is correctly watched after the
			// backjump. The first literal is the asserting one.
			maxLevel := -1
			wl := -1
			for i := 1; i < len(c.literals); i++ {
				if level := s.level[c.literals[i].VarID()]; level > maxLevel {
					maxLevel = level
					wl = i
				}
			}
			c.literals[wl], c.literals[1] = c.literals[1], c.literals[wl]
		}

		s.Watch(c, c.literals[0].Opposite(), c.literals[1])
		s.Watch(c, c.literals[1].Opposite(), c.literals[0])

		return c, true
	}
}

func (c *Clause) locked(solver *Solver) bool {
	return solver.reason[c.literals[0].VarID()] == c
}

// Delete detaches the clause from the solver and releases its literals.
func (c *Clause) Delete(s *Solver) {
	c.statusMask |= statusDeleted

	s.Unwatch(c, c.literals[0].Opposite())
	s.Unwatch(c, c.literals[1].Opposite())

	*c.ref = c.literals
	freeSlice(c.ref)

	// Cut the reference to the slice of literals so that it can be garbage
	// collected even if the clause itself is still referenced.
	c.ref = nil
	c.literals = nil
}

// Simplify removes the literals that are false at the root level. It returns
// true if the clause is satisfied, in which case the clause can be deleted.
func (c *Clause) Simplify(s *Solver) bool {
	k := 0
	for _, lit := range c.literals {
		v := s.LitValue(lit)
		switch v {
		case True:
			return true
		case False:
			// discard the literal.
		case Unknown:
			c.literals[k] = lit
			k++
		}
	}
	c.literals = c.literals[:k]
	return false
}

func (c *Clause) Propagate(s *Solver, l Literal) bool {
	// Make sure that the triggering literal is c.literals[1]. This simplifies
	// the rest of this function as c.literals[0] is always the literal to be
	// potentially enqueued (if all other literals are false).
	opp := l.Opposite()
	if c.literals[0] == opp {
		c.literals[0] = c.literals[1]
		c.literals[1] = opp
	}

	// If c.literals[0] is True, then the clause is already true.
	if s.LitValue(c.literals[0]) == True {
		s.Watch(c, l, c.literals[0])
		return true
	}

	// Look for a new literal to watch, starting from the position of the
	// previous watched literal. Reset the position if it is not valid anymore,
	// which happens when the clause was shortened by Simplify.
	if c.prevPos >= len(c.literals) {
		c.prevPos = 2
	}
	for i, lit := range c.literals[c.prevPos:] {
		if s.LitValue(lit) != False {
			c.prevPos += i
			c.literals[1] = lit
			c.literals[c.prevPos] = opp
			s.Watch(c, lit.Opposite(), c.literals[0])
			return true
		}
	}
	for i, lit := range c.literals[2:c.prevPos] {
		if s.LitValue(lit) != False {
			c.prevPos = i + 2
			c.literals[1] = lit
			c.literals[c.prevPos] = opp
			s.Watch(c, lit.Opposite(), c.literals[0])
			return true
		}
	}

	// All literals in literals[1:] are False: the first one must be True.
	s.Watch(c, l, c.literals[0])
	return s.enqueue(c.literals[0], c)
}

func (c *Clause) explainConflict(outReason *[]Literal) {
	exp := (*outReason)[:0]
	for _, l := range c.literals {
		exp = append(exp, l.Opposite())
	}
	*outReason = exp
}

func (c *Clause) explainAssign(outReason *[]Literal) {
	exp := (*outReason)[:0]
	for _, l := range c.literals[1:] {
		exp = append(exp, l.Opposite())
	}
	*outReason = exp
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	sb.WriteString(c.literals[0].String())
	for _, l := range c.literals[1:] {
		sb.WriteByte(' ')
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
