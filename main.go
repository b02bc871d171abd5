package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rhartert/satshare/internal/config"
	"github.com/rhartert/satshare/internal/dimacs"
	"github.com/rhartert/satshare/internal/engine"
	"github.com/rhartert/satshare/internal/logging"
	"github.com/rhartert/satshare/internal/sat"
	"github.com/rhartert/satshare/portfolio"
	"github.com/rhartert/satshare/session"
)

// Exit codes of the SAT competitions.
const (
	exitUnknown = 0
	exitSat     = 10
	exitUnsat   = 20
)

var (
	flagConfig      = flag.String("config", "", "YAML configuration file")
	flagEngine      = flag.String("engine", "", "engine of single-session solves: native or gini")
	flagWorkers     = flag.Int("workers", 0, "number of portfolio workers (1 = single session)")
	flagSeed        = flag.Float64("seed", 0, "random seed")
	flagTimeout     = flag.Duration("timeout", 0, "give up after this duration (0 = no limit)")
	flagAssume      = flag.IntSlice("assume", nil, "assumptions as DIMACS literals")
	flagGzip        = flag.Bool("gzip", false, "the instance file is gzipped")
	flagModel       = flag.Bool("model", false, "print the model of satisfiable instances")
	flagStats       = flag.Bool("stats", false, "print search statistics")
	flagCPUProfile  = flag.Bool("cpuprof", false, "save pprof CPU profile in cpuprof")
	flagMemProfile  = flag.Bool("memprof", false, "save pprof memory profile in memprof")
	flagMetricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address")
)

type options struct {
	instanceFile string
	gzipped      bool
	assumptions  []int
	printModel   bool
	printStats   bool
	cpuProfile   bool
	memProfile   bool
	cfg          *config.Config
}

func parseOptions() (*options, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		return nil, err
	}
	// Flags set on the command line take precedence over the configuration.
	if flag.CommandLine.Changed("engine") {
		cfg.Engine = *flagEngine
	}
	if flag.CommandLine.Changed("workers") {
		cfg.Portfolio.Workers = *flagWorkers
	}
	if flag.CommandLine.Changed("seed") {
		cfg.Seed = *flagSeed
	}
	if flag.CommandLine.Changed("timeout") {
		cfg.Timeout = *flagTimeout
	}
	if flag.CommandLine.Changed("metrics-addr") {
		cfg.Metrics.Addr = *flagMetricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return &options{
		instanceFile: flag.Arg(0),
		gzipped:      *flagGzip || strings.HasSuffix(flag.Arg(0), ".gz"),
		assumptions:  *flagAssume,
		printModel:   *flagModel,
		printStats:   *flagStats,
		cpuProfile:   *flagCPUProfile,
		memProfile:   *flagMemProfile,
		cfg:          cfg,
	}, nil
}

// outcome of a solve: nil when the search was interrupted.
type outcome struct {
	satisfiable bool
	model       []int
}

func portfolioConfig(cfg *config.Config) portfolio.Config {
	p := cfg.Portfolio
	return portfolio.Config{
		Workers:       p.Workers,
		Seed:          cfg.Seed,
		RandomVarFreq: cfg.RandomVarFreq,
		ExportLimit:   p.ExportLimit,
		InboxCapacity: p.InboxCapacity,
		GlobalReset:   p.GlobalReset,
		Filter:        portfolio.FilterKind(p.Filter),
		FilterOptions: portfolio.FilterOptions{
			BloomCapacity: p.BloomCapacity,
			BloomFPRate:   p.BloomFPRate,
		},
	}
}

func solvePortfolio(ctx context.Context, opts *options, inst *dimacs.Instance, logger *zap.Logger, m *portfolio.Metrics) (*outcome, error) {
	p, err := portfolio.New(portfolioConfig(opts.cfg), portfolio.WithLogger(logger), portfolio.WithMetrics(m))
	if err != nil {
		return nil, err
	}
	res, err := p.Solve(ctx, inst, opts.assumptions)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if opts.printStats {
		fmt.Printf("c winner:     %d\n", res.Winner)
		for i, w := range res.Workers {
			fmt.Printf("c worker %d:   %s, %d decisions, %d learnts, %s\n", i, w.Verdict, w.Decisions, w.Learnts, w.Elapsed)
		}
		fmt.Printf("c shared:     %d/%d (%d filtered, %d dropped, avg size %.2f)\n",
			res.Stats.Accepted, res.Stats.Sent, res.Stats.Filtered, res.Stats.Dropped, res.Stats.AvgClauseSize)
	}
	return &outcome{satisfiable: res.Satisfiable, model: res.Model}, nil
}

type interruptible interface {
	session.Engine
	Interrupt()
	Interrupted() bool
}

func newEngine(cfg *config.Config) interruptible {
	if cfg.Engine == "gini" {
		return engine.NewGini()
	}
	ops := sat.DefaultOptions
	ops.RandomVarFreq = cfg.RandomVarFreq
	return engine.NewNative(ops)
}

func solveSession(ctx context.Context, opts *options, inst *dimacs.Instance, logger *zap.Logger) (*outcome, error) {
	e := newEngine(opts.cfg)
	s := session.New(session.WithEngine(e), session.WithLogger(logger))
	defer s.Close()

	s.SetRandomSeed(opts.cfg.Seed)
	inst.Load(s)
	for _, a := range opts.assumptions {
		s.AddAssumption(a)
	}

	stop := context.AfterFunc(ctx, e.Interrupt)
	defer stop()

	ok := s.Solve()
	if opts.printStats {
		s.PrintIncrementalStats()
	}
	if !ok && e.Interrupted() {
		return nil, nil
	}

	out := &outcome{satisfiable: ok}
	if ok {
		out.model = s.Model()
		for v := len(out.model); v < inst.Variables; v++ {
			out.model = append(out.model, -(v + 1))
		}
	}
	return out, nil
}

// serveMetrics exposes reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	context.AfterFunc(ctx, func() { srv.Close() })
}

// printModel writes the model as "v" lines of at most 10 literals, ended by
// literal 0.
func printModel(w io.Writer, model []int) {
	for i := 0; i < len(model); i += 10 {
		sb := strings.Builder{}
		sb.WriteString("v")
		for _, l := range model[i:min(i+10, len(model))] {
			fmt.Fprintf(&sb, " %d", l)
		}
		fmt.Fprintln(w, sb.String())
	}
	fmt.Fprintln(w, "v 0")
}

func run(opts *options) (int, error) {
	logger, err := logging.New(opts.cfg.Log)
	if err != nil {
		return exitUnknown, err
	}
	defer logger.Sync()

	instance, err := dimacs.ParseDIMACS(opts.instanceFile, opts.gzipped)
	if err != nil {
		return exitUnknown, fmt.Errorf("could not parse instance: %w", err)
	}
	fmt.Printf("c variables:  %d\n", instance.Variables)
	fmt.Printf("c clauses:    %d\n", len(instance.Clauses))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if opts.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.cfg.Timeout)
		defer cancel()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := portfolio.NewMetrics(reg)
	if addr := opts.cfg.Metrics.Addr; addr != "" {
		serveMetrics(ctx, addr, reg, logger)
	}

	t := time.Now()
	var out *outcome
	if opts.cfg.Portfolio.Workers > 1 {
		out, err = solvePortfolio(ctx, opts, instance, logger, metrics)
	} else {
		out, err = solveSession(ctx, opts, instance, logger)
	}
	if err != nil {
		return exitUnknown, err
	}
	fmt.Printf("c time (sec): %f\n", time.Since(t).Seconds())

	switch {
	case out == nil:
		fmt.Println("s UNKNOWN")
		return exitUnknown, nil
	case !out.satisfiable:
		fmt.Println("s UNSATISFIABLE")
		return exitUnsat, nil
	default:
		fmt.Println("s SATISFIABLE")
		if opts.printModel {
			printModel(os.Stdout, out.model)
		}
		return exitSat, nil
	}
}

func main() {
	opts, err := parseOptions()
	if err != nil {
		log.Fatal(err)
	}

	if opts.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
	}

	code, err := run(opts)

	if opts.cpuProfile {
		pprof.StopCPUProfile()
	}
	if err != nil {
		log.Fatal(err)
	}

	if opts.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}

	os.Exit(code)
}
