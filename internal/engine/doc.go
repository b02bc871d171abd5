// Package engine provides the CDCL engines a session can drive.
//
// Native is the solver of internal/sat. It supports every session feature,
// including learnt clause exchange and random seeds. Gini adapts
// github.com/go-air/gini; it does not expose its search statistics nor
// learnt clauses, so its counters stay at zero and it cannot take part in
// clause exchange.
package engine
