package sat

// Exchange connects a solver to cooperating solvers (portfolio solving).
//
// Both methods are called synchronously from the goroutine running Solve.
type Exchange interface {
	// Export is called with every clause learnt by the solver. The slice is
	// owned by the solver and only valid for the duration of the call.
	Export(clause []Literal)

	// Import is called at the root level, after each restart. Implementations
	// may call AddVariable and AddClause to import clauses from peers.
	Import()
}

// SetExchange attaches x to the solver; nil detaches the current one.
func (s *Solver) SetExchange(x Exchange) {
	s.exchange = x
}
