package dimacs

import (
	"fmt"

	"github.com/rhartert/dimacs"
)

// modelBuilder implements dimacs.Builder for model files: one model per
// line, written as the literals of a clause.
type modelBuilder struct {
	models [][]bool
}

func (b *modelBuilder) Problem(problem string, nVars int, nClauses int) error {
	return fmt.Errorf("model files should not have problem lines")
}

func (b *modelBuilder) Comment(_ string) error {
	return nil // ignore comments
}

func (b *modelBuilder) Clause(tmpClause []int) error {
	model := make([]bool, len(tmpClause))
	for i, l := range tmpClause {
		model[i] = l > 0
	}
	b.models = append(b.models, model)
	return nil
}

// ReadModels returns the list of models (if any) contained in filename.
func ReadModels(filename string, gzipped bool) ([][]bool, error) {
	rc, err := reader(filename, gzipped)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", filename, err)
	}
	defer rc.Close()

	b := &modelBuilder{}
	if err := dimacs.ReadBuilder(rc, b); err != nil {
		return nil, err
	}

	return b.models, nil
}
