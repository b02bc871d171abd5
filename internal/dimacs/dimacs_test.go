package dimacs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var testInstance = Instance{
	Variables: 3,
	Clauses: [][]int{
		{1, 2, 3},
		{1, 2, -3},
		{1, -2, 3},
		{-1, 2, 3},
		{-1, -2, 3},
		{-1, 2, -3},
		{1, -2, -3},
		{-1, -2, -3},
	},
}

// Comments are checked by count only, their exact text is up to the reader.
var ignoreComments = cmpopts.IgnoreFields(Instance{}, "Comments")

func TestParseDIMACS_cnf(t *testing.T) {
	want := &testInstance

	got, err := ParseDIMACS("testdata/test_instance.cnf", false)

	if err != nil {
		t.Fatalf("ParseDIMACS(): want no error, got %s", err)
	}
	if diff := cmp.Diff(want, got, ignoreComments); diff != "" {
		t.Errorf("ParseDIMACS(): mismatch (-want, +got):\n%s", diff)
	}
	if len(got.Comments) != 1 {
		t.Errorf("ParseDIMACS(): want 1 comment, got %d", len(got.Comments))
	}
}

func TestParseDIMACS_gzip(t *testing.T) {
	want := &testInstance

	got, err := ParseDIMACS("testdata/test_instance.cnf.gz", true)

	if err != nil {
		t.Fatalf("ParseDIMACS(): want no error, got %s", err)
	}
	if diff := cmp.Diff(want, got, ignoreComments); diff != "" {
		t.Errorf("ParseDIMACS(): mismatch (-want, +got):\n%s", diff)
	}
}

func TestParseDIMACS_errors(t *testing.T) {
	testCases := []struct {
		desc     string
		filename string
		gzipped  bool
	}{
		{"no file", "", false},
		{"not a gzip file", "testdata/test_instance.cnf", true},
		{"literal out of range", "testdata/out_of_range.cnf", false},
		{"missing problem line", "testdata/no_header.cnf", false},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := ParseDIMACS(tc.filename, tc.gzipped)

			if err == nil {
				t.Errorf("ParseDIMACS(): want error, got none")
			}
			if got != nil {
				t.Errorf("ParseDIMACS(): want nil instance, got %+v", got)
			}
		})
	}
}

func TestReadModels(t *testing.T) {
	want := [][]bool{
		{true, false, true},
		{false, false, false},
	}

	got, err := ReadModels("testdata/test_instance.models", false)

	if err != nil {
		t.Fatalf("ReadModels(): want no error, got %s", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadModels(): mismatch (-want, +got):\n%s", diff)
	}
}

func TestReadModels_problemLine(t *testing.T) {
	if _, err := ReadModels("testdata/test_instance.cnf", false); err == nil {
		t.Errorf("ReadModels(): want error, got none")
	}
}

type recorder struct {
	clauses [][]int
	unsatAt int
}

func (r *recorder) AddClause(lits ...int) bool {
	r.clauses = append(r.clauses, lits)
	return r.unsatAt <= 0 || len(r.clauses) < r.unsatAt
}

func TestInstance_Load(t *testing.T) {
	r := &recorder{}

	ok := testInstance.Load(r)

	if !ok {
		t.Errorf("Load(): want true, got false")
	}
	if diff := cmp.Diff(testInstance.Clauses, r.clauses); diff != "" {
		t.Errorf("Load(): mismatch (-want, +got):\n%s", diff)
	}
}

func TestInstance_Load_unsat(t *testing.T) {
	r := &recorder{unsatAt: 3}

	ok := testInstance.Load(r)

	if ok {
		t.Errorf("Load(): want false, got true")
	}
	if len(r.clauses) != len(testInstance.Clauses) {
		t.Errorf("Load(): want %d clauses added, got %d", len(testInstance.Clauses), len(r.clauses))
	}
}
