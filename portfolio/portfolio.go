// Package portfolio solves a CNF instance with several native sessions
// running concurrently. The sessions share the clauses they learn through a
// Hub; the first definite verdict wins and stops the others.
package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rhartert/satshare/internal/dimacs"
	"github.com/rhartert/satshare/internal/engine"
	"github.com/rhartert/satshare/internal/sat"
	"github.com/rhartert/satshare/session"
)

// Random decision frequency of the workers other than the first one, when
// the configured frequency is lower.
const diversifyFreq = 0.02

type Config struct {
	Workers int

	// Worker i is seeded with Seed+i.
	Seed          float64
	RandomVarFreq float64

	// Size of the largest learnt clause published by a worker, 0 for no
	// limit.
	ExportLimit int

	// Number of clauses a worker's inbox can hold between two restarts.
	InboxCapacity int

	// The database's global filter is reset after this many shared clauses,
	// 0 for never.
	GlobalReset int

	Filter        FilterKind
	FilterOptions FilterOptions
}

// DefaultConfig returns a configuration for n workers.
func DefaultConfig(n int) Config {
	return Config{
		Workers:       n,
		Seed:          sat.DefaultRandomSeed,
		ExportLimit:   10,
		InboxCapacity: 10000,
		Filter:        FilterHash,
		FilterOptions: FilterOptions{BloomCapacity: 100000, BloomFPRate: 0.03},
	}
}

// Option configures a Portfolio.
type Option func(*Portfolio)

func WithLogger(l *zap.Logger) Option {
	return func(p *Portfolio) { p.logger = l }
}

// WithMetrics records the portfolio's activity in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Portfolio) { p.metrics = m }
}

type Portfolio struct {
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics
}

// New returns a portfolio. It fails if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Portfolio, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("portfolio needs at least one worker, got %d", cfg.Workers)
	}
	if cfg.InboxCapacity < 0 {
		return nil, fmt.Errorf("negative inbox capacity %d", cfg.InboxCapacity)
	}
	if _, err := NewFilter(cfg.Filter, cfg.FilterOptions); err != nil {
		return nil, err
	}

	p := &Portfolio{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p, nil
}

// Verdicts of a worker.
const (
	verdictSat         = "sat"
	verdictUnsat       = "unsat"
	verdictInterrupted = "interrupted"
)

// WorkerStats describes the search of one worker.
type WorkerStats struct {
	Verdict   string
	Decisions uint64
	Learnts   uint64
	Elapsed   time.Duration
}

type Result struct {
	Satisfiable bool

	// Model has one DIMACS literal per variable of the instance, nil if the
	// instance is unsatisfiable.
	Model []int

	// Winner is the index of the worker whose verdict was kept.
	Winner int

	Stats   HubStats
	Workers []WorkerStats
}

// Solve solves inst under the assumptions (DIMACS literals). It returns
// ctx.Err() if ctx is done before any worker reaches a verdict.
func (p *Portfolio) Solve(ctx context.Context, inst *dimacs.Instance, assumptions []int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	n := p.cfg.Workers

	db, err := NewDatabase(p.cfg.Filter, p.cfg.FilterOptions)
	if err != nil {
		return Result{}, err
	}
	hub := NewHub(n, db, p.cfg.InboxCapacity, p.cfg.GlobalReset, p.metrics)

	engines := make([]*engine.Native, n)
	for i := range engines {
		ops := sat.DefaultOptions
		ops.RandomSeed = p.cfg.Seed + float64(i)
		ops.RandomVarFreq = p.cfg.RandomVarFreq
		if i > 0 {
			ops.RandomVarFreq = max(ops.RandomVarFreq, diversifyFreq)
		}
		engines[i] = engine.NewNative(ops)
	}

	// The first verdict cancels runCtx, which interrupts every engine.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, func() {
		for _, e := range engines {
			e.Interrupt()
		}
	})
	defer stop()

	var (
		once   sync.Once
		found  bool
		result = Result{Workers: make([]WorkerStats, n)}
	)

	g := &errgroup.Group{}
	for i := range engines {
		i := i
		g.Go(func() error {
			log := p.logger.With(zap.Int("worker", i))
			s := session.New(
				session.WithEngine(engines[i]),
				session.WithLogger(log),
				session.WithExportLimit(p.cfg.ExportLimit))
			defer s.Close()

			if n > 1 {
				if err := s.Connect(hub.Link(i)); err != nil {
					return fmt.Errorf("worker %d: %w", i, err)
				}
			}
			inst.Load(s)
			for _, a := range assumptions {
				s.AddAssumption(a)
			}

			log.Debug("worker started", zap.Float64("seed", p.cfg.Seed+float64(i)))
			start := time.Now()
			ok := s.Solve()
			elapsed := time.Since(start)

			verdict := verdictInterrupted
			switch {
			case ok:
				verdict = verdictSat
			case !engines[i].Interrupted():
				verdict = verdictUnsat
			}

			result.Workers[i] = WorkerStats{
				Verdict:   verdict,
				Decisions: s.DecisionCount(),
				Learnts:   s.LearnedClauseCount(),
				Elapsed:   elapsed,
			}
			p.metrics.solveDone("native", verdict, elapsed)
			log.Debug("worker finished",
				zap.String("verdict", verdict),
				zap.Duration("elapsed", elapsed))

			if verdict == verdictInterrupted {
				return nil
			}
			once.Do(func() {
				found = true
				result.Winner = i
				result.Satisfiable = ok
				if ok {
					result.Model = completeModel(s.Model(), inst.Variables)
				}
				cancel()
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	result.Stats = hub.Stats()

	if !found {
		return Result{}, ctx.Err()
	}

	p.logger.Info("portfolio solved",
		zap.Bool("satisfiable", result.Satisfiable),
		zap.Int("winner", result.Winner),
		zap.Int64("shared", result.Stats.Accepted),
		zap.Int64("filtered", result.Stats.Filtered),
		zap.Int64("dropped", result.Stats.Dropped))
	return result, nil
}

// completeModel extends model to nVars variables. Variables that appear in
// no clause are set to false.
func completeModel(model []int, nVars int) []int {
	for v := len(model); v < nVars; v++ {
		model = append(model, -(v + 1))
	}
	return model
}
