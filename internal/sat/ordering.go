package sat

import (
	"log"

	"github.com/rhartert/yagh"
)

// VarOrder selects the next decision variable. Unassigned variables are kept
// in a heap ordered by decreasing activity (VSIDS). With probability randFreq
// a random variable is picked instead, which is what makes different seeds
// explore different parts of the search space.
type VarOrder struct {
	solver      *Solver
	phase       []LBool
	phaseSaving bool
	randFreq    float64
	heap        *yagh.IntMap[float64]
	capacity    int
}

func NewVarOrder(s *Solver, nVar int) *VarOrder {
	vo := &VarOrder{
		solver:      s,
		phase:       make([]LBool, nVar),
		phaseSaving: s.phaseSaving,
		randFreq:    s.randomVarFreq,
		heap:        yagh.New[float64](nVar),
		capacity:    nVar,
	}

	vo.UpdateAll()
	return vo
}

// NewVar registers a variable created after the order was built. This happens
// when clauses imported from peers mention variables unseen so far.
func (vo *VarOrder) NewVar(varID int) {
	for len(vo.phase) <= varID {
		vo.phase = append(vo.phase, Unknown)
	}
	if varID >= vo.capacity {
		vo.grow(varID + 1)
	}
	vo.Undo(varID)
}

// grow replaces the heap by a larger one holding the same variables.
func (vo *VarOrder) grow(minCapacity int) {
	old, oldCapacity := vo.heap, vo.capacity
	vo.capacity = max(2*oldCapacity, minCapacity)
	vo.heap = yagh.New[float64](vo.capacity)
	for v := 0; v < oldCapacity; v++ {
		if old.Contains(v) {
			vo.heap.Put(v, -vo.solver.activities[v])
		}
	}
}

func (vo *VarOrder) Update(varID int) {
	if vo.heap.Contains(varID) {
		vo.heap.Put(varID, -vo.solver.activities[varID])
	}
}

func (vo *VarOrder) UpdateAll() {
	for i := 0; i < vo.capacity; i++ {
		vo.Undo(i)
	}
}

// Undo puts the variable back in the heap. It must be called before the
// variable is unassigned for phase saving to record its last value.
func (vo *VarOrder) Undo(varID int) {
	if vo.phaseSaving {
		if v := vo.solver.VarValue(varID); v != Unknown {
			vo.phase[varID] = v
		}
	}

	act := vo.solver.activities[varID]
	vo.heap.Put(varID, -act)
}

func (vo *VarOrder) Select() Literal {
	if vo.randFreq > 0 && drand(&vo.solver.randomSeed) < vo.randFreq {
		v := irand(&vo.solver.randomSeed, vo.solver.NumVariables())
		if vo.solver.VarValue(v) == Unknown {
			return vo.literal(v)
		}
	}

	for {
		next, ok := vo.heap.Pop()
		if !ok {
			log.Fatalln("empty heap")
		}
		if vo.solver.VarValue(next.Elem) != Unknown {
			continue // already assigned
		}
		return vo.literal(next.Elem)
	}
}

func (vo *VarOrder) literal(varID int) Literal {
	if vo.phase[varID] == True {
		return PositiveLiteral(varID)
	}
	return NegativeLiteral(varID)
}
