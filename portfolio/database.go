package portfolio

// Database decides which clauses are worth sharing. A clause passes when it
// is new to the global filter, then new to the local one. The global filter
// can be reset independently, the local filter then keeps recently shared
// clauses out. Database is not safe for concurrent use.
type Database struct {
	global Filter
	local  Filter
}

// NewDatabase returns a database with two empty filters of the given kind.
func NewDatabase(kind FilterKind, ops FilterOptions) (*Database, error) {
	global, err := NewFilter(kind, ops)
	if err != nil {
		return nil, err
	}
	local, err := NewFilter(kind, ops)
	if err != nil {
		return nil, err
	}
	return &Database{global: global, local: local}, nil
}

// Offer returns true if the clause should be shared.
func (db *Database) Offer(clause []int) bool {
	return db.global.Register(clause) && db.local.Register(clause)
}

func (db *Database) ResetGlobal() {
	db.global.Reset()
}

func (db *Database) ResetLocal() {
	db.local.Reset()
}

// Reset forgets every clause.
func (db *Database) Reset() {
	db.global.Reset()
	db.local.Reset()
}
