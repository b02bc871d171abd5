package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rhartert/satshare/internal/dimacs"
)

func pigeonHole(p, h int) *dimacs.Instance {
	v := func(i, j int) int { return i*h + j + 1 }
	inst := &dimacs.Instance{Variables: p * h}
	for i := 0; i < p; i++ {
		c := []int{}
		for j := 0; j < h; j++ {
			c = append(c, v(i, j))
		}
		inst.Clauses = append(inst.Clauses, c)
	}
	for j := 0; j < h; j++ {
		for i := 0; i < p; i++ {
			for k := i + 1; k < p; k++ {
				inst.Clauses = append(inst.Clauses, []int{-v(i, j), -v(k, j)})
			}
		}
	}
	return inst
}

// satisfies returns true if model satisfies every clause and assumption.
func satisfies(model []int, inst *dimacs.Instance, assumptions []int) bool {
	value := func(l int) bool {
		if l > 0 {
			return model[l-1] > 0
		}
		return model[-l-1] < 0
	}
	for _, a := range assumptions {
		if !value(a) {
			return false
		}
	}
	for _, c := range inst.Clauses {
		ok := false
		for _, l := range c {
			ok = ok || value(l)
		}
		if !ok {
			return false
		}
	}
	return true
}

func newPortfolio(t *testing.T, cfg Config, opts ...Option) *Portfolio {
	t.Helper()
	p, err := New(cfg, opts...)
	require.NoError(t, err)
	return p
}

func TestNew_errors(t *testing.T) {
	testCases := []struct {
		desc   string
		mutate func(*Config)
	}{
		{"no worker", func(c *Config) { c.Workers = 0 }},
		{"negative inbox", func(c *Config) { c.InboxCapacity = -1 }},
		{"unknown filter", func(c *Config) { c.Filter = "cuckoo" }},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := DefaultConfig(2)
			tc.mutate(&cfg)

			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestPortfolio_Solve_unsat(t *testing.T) {
	for _, kind := range []FilterKind{FilterHash, FilterBloom, FilterExact} {
		t.Run(string(kind), func(t *testing.T) {
			cfg := DefaultConfig(4)
			cfg.Filter = kind
			p := newPortfolio(t, cfg)

			res, err := p.Solve(context.Background(), pigeonHole(6, 5), nil)
			require.NoError(t, err)

			assert.False(t, res.Satisfiable)
			assert.Nil(t, res.Model)
			assert.Equal(t, verdictUnsat, res.Workers[res.Winner].Verdict)
			assert.NotZero(t, res.Stats.Sent)
			assert.LessOrEqual(t, res.Stats.Accepted, res.Stats.Sent)
		})
	}
}

func TestPortfolio_Solve_sat(t *testing.T) {
	for _, workers := range []int{1, 3} {
		inst := pigeonHole(6, 6)
		inst.Variables += 2 // variables in no clause
		p := newPortfolio(t, DefaultConfig(workers))

		res, err := p.Solve(context.Background(), inst, nil)
		require.NoError(t, err)

		require.True(t, res.Satisfiable)
		require.Len(t, res.Model, inst.Variables)
		assert.True(t, satisfies(res.Model, inst, nil))
		assert.Len(t, res.Workers, workers)
	}
}

func TestPortfolio_Solve_assumptions(t *testing.T) {
	inst := pigeonHole(3, 3)
	p := newPortfolio(t, DefaultConfig(2))

	// Pigeons 1 and 2 in hole 1.
	res, err := p.Solve(context.Background(), inst, []int{1, 4})
	require.NoError(t, err)
	assert.False(t, res.Satisfiable)

	// Pigeon 1 in hole 2, pigeon 2 in hole 3.
	assumptions := []int{2, 6}
	res, err = p.Solve(context.Background(), inst, assumptions)
	require.NoError(t, err)
	require.True(t, res.Satisfiable)
	assert.True(t, satisfies(res.Model, inst, assumptions))
}

func TestPortfolio_Solve_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newPortfolio(t, DefaultConfig(2))

	_, err := p.Solve(ctx, pigeonHole(3, 2), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPortfolio_Solve_timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p := newPortfolio(t, DefaultConfig(2))

	_, err := p.Solve(ctx, pigeonHole(11, 10), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPortfolio_Solve_metricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	core, logs := observer.New(zapcore.InfoLevel)
	p := newPortfolio(t, DefaultConfig(2), WithMetrics(m), WithLogger(zap.New(core)))

	_, err := p.Solve(context.Background(), pigeonHole(5, 4), nil)
	require.NoError(t, err)

	// One series per verdict: the loser may be interrupted or reach the
	// same verdict.
	assert.GreaterOrEqual(t, testutil.CollectAndCount(m.solveDuration), 1)
	assert.Equal(t, 1, logs.FilterMessage("portfolio solved").Len())
}
