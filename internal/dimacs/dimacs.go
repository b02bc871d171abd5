// Package dimacs reads DIMACS CNF instances and model files, optionally
// gzipped, and loads instances into solving sessions.
package dimacs

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/rhartert/dimacs"
)

// Instance is a CNF formula read from a DIMACS file.
type Instance struct {
	Variables int
	Clauses   [][]int
	Comments  []string
}

// ClauseAdder receives the clauses of an instance as DIMACS literals.
type ClauseAdder interface {
	AddClause(lits ...int) bool
}

// Load adds the instance's clauses to dst. It returns false if dst became
// unsatisfiable while loading; the remaining clauses are still added.
func (inst *Instance) Load(dst ClauseAdder) bool {
	ok := true
	for _, c := range inst.Clauses {
		ok = dst.AddClause(c...) && ok
	}
	return ok
}

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !gzipped {
		return file, nil
	}
	zr, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &gzipFile{Reader: zr, file: file}, nil
}

// gzipFile closes both the gzip stream and its underlying file.
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if ferr := g.file.Close(); err == nil {
		err = ferr
	}
	return err
}

// ParseDIMACS reads the CNF instance contained in filename.
func ParseDIMACS(filename string, gzipped bool) (*Instance, error) {
	rc, err := reader(filename, gzipped)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %w", filename, err)
	}
	defer rc.Close()

	b := &instanceBuilder{}
	if err := dimacs.ReadBuilder(rc, b); err != nil {
		return nil, fmt.Errorf("error parsing file %q: %w", filename, err)
	}
	if !b.header {
		return nil, fmt.Errorf("error parsing file %q: missing problem line", filename)
	}
	return &b.instance, nil
}

// instanceBuilder implements dimacs.Builder.
type instanceBuilder struct {
	instance Instance
	header   bool
}

func (b *instanceBuilder) Problem(problem string, nVars int, nClauses int) error {
	if b.header {
		return fmt.Errorf("found a second problem line")
	}
	if problem != "cnf" {
		return fmt.Errorf("instance of type %q are not supported", problem)
	}
	b.header = true
	b.instance.Variables = nVars
	b.instance.Clauses = make([][]int, 0, nClauses)
	return nil
}

func (b *instanceBuilder) Clause(tmpClause []int) error {
	if !b.header {
		return fmt.Errorf("found clause before problem line")
	}
	for _, l := range tmpClause {
		if l > b.instance.Variables || -l > b.instance.Variables {
			return fmt.Errorf("literal %d out of range [1, %d]", l, b.instance.Variables)
		}
	}
	b.instance.Clauses = append(b.instance.Clauses, append([]int(nil), tmpClause...))
	return nil
}

func (b *instanceBuilder) Comment(c string) error {
	b.instance.Comments = append(b.instance.Comments, c)
	return nil
}
