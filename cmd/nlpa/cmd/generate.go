package cmd

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/nlpa-go/nlpa/internal/config"
	"github.com/nlpa-go/nlpa/internal/edgewriter"
	"github.com/nlpa-go/nlpa/internal/engine"
	"github.com/nlpa-go/nlpa/internal/histogram"
	"github.com/nlpa-go/nlpa/internal/nlpaerr"
	"github.com/nlpa-go/nlpa/internal/output"
	"github.com/nlpa-go/nlpa/internal/params"
	"github.com/nlpa-go/nlpa/internal/parstats"
	"github.com/nlpa-go/nlpa/internal/sequential"
	"github.com/nlpa-go/nlpa/internal/weightfn"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var genFlags struct {
	algorithm          string
	seedNodes          int64
	seedValue          uint64
	numRandNodes       int64
	initialDegree      int64
	exponent           float64
	offset             float64
	withoutReplacement bool
	resamplePrevious   bool
	reportDistribution bool
	numThreads         int

	degreesOut  string
	compression string
}

func registerGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&genFlags.algorithm, "algorithm", "a", "dyn", "Algorithm: dyn, polypa, polypa-prefetch, par-polypa")
	f.Int64VarP(&genFlags.seedNodes, "seed-nodes", "i", -1, "Seed-graph node count n0 (must be even, >= d); default 10*d")
	f.Uint64VarP(&genFlags.seedValue, "seed", "s", 0, "RNG seed; absent = seed from OS entropy")
	f.Int64VarP(&genFlags.numRandNodes, "nodes", "n", -1, "Number of nodes to add (required)")
	f.Int64VarP(&genFlags.initialDegree, "degree", "d", 1, "Attachment degree per new node")
	f.Float64VarP(&genFlags.exponent, "exponent", "e", 1.0, "Exponent (gamma >= 0)")
	f.Float64VarP(&genFlags.offset, "offset", "c", 0.0, "Offset (c >= 0)")
	f.BoolVarP(&genFlags.withoutReplacement, "without-replacement", "p", false, "Without-replacement host sampling")
	f.BoolVarP(&genFlags.resamplePrevious, "resample-previous", "l", false, "Re-sample previously chosen hosts (dyn algorithm only)")
	f.BoolVarP(&genFlags.reportDistribution, "histogram", "r", false, "Emit degree-distribution histogram on stdout")
	f.IntVarP(&genFlags.numThreads, "threads", "t", 0, "Thread count (par-polypa only); must be > 0, default hardware cores")

	f.StringVar(&genFlags.degreesOut, "degrees-out", "", "Optional path to dump the final degree sequence")
	f.StringVar(&genFlags.compression, "compression", "", "Compression for --degrees-out: gzip, zstd, none (default from config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	raw := params.Raw{
		Algorithm:          genFlags.algorithm,
		Nodes:              genFlags.numRandNodes,
		InitialDegree:      genFlags.initialDegree,
		Exponent:           genFlags.exponent,
		Offset:             genFlags.offset,
		WithoutReplacement: genFlags.withoutReplacement,
		ResamplePrevious:   genFlags.resamplePrevious,
		ReportDistribution: genFlags.reportDistribution,
	}
	if !cmd.Flags().Changed("algorithm") && cfg.Generator.Algorithm != "" {
		raw.Algorithm = cfg.Generator.Algorithm
	}
	if !cmd.Flags().Changed("degree") && cfg.Generator.InitialDegree > 0 {
		raw.InitialDegree = cfg.Generator.InitialDegree
	}
	if !cmd.Flags().Changed("exponent") {
		raw.Exponent = cfg.Generator.Exponent
	}
	if !cmd.Flags().Changed("offset") {
		raw.Offset = cfg.Generator.Offset
	}
	if raw.Nodes < 0 {
		return nlpaerr.New(nlpaerr.CodeInvalidInput, "-n/--nodes is required")
	}
	if cmd.Flags().Changed("seed-nodes") {
		v := genFlags.seedNodes
		raw.SeedNodes = &v
	}
	if cmd.Flags().Changed("seed") {
		v := genFlags.seedValue
		raw.SeedValue = &v
	}
	if cmd.Flags().Changed("threads") {
		v := genFlags.numThreads
		raw.NumThreads = &v
	} else if cfg.Generator.NumThreads > 0 {
		v := cfg.Generator.NumThreads
		raw.NumThreads = &v
	}

	opts, err := params.Validate(raw)
	if err != nil {
		return err
	}
	if opts.ResamplePrevious && opts.Algorithm == params.AlgorithmParallelPolyPA {
		return nlpaerr.New(nlpaerr.CodeConfigError, "-l/--resample-previous is not supported by par-polypa")
	}

	wf := weightfn.New(opts.Exponent, opts.Offset)
	if wf.Get(1) <= 0 {
		return nlpaerr.New(nlpaerr.CodeConfigError, "w(1) must be > 0")
	}

	seed := opts.SeedValue
	if !opts.HasSeedValue {
		seed, err = seedFromEntropy()
		if err != nil {
			return nlpaerr.Wrap(nlpaerr.CodeIOError, "failed to seed RNG from OS entropy", err)
		}
	}
	masterRNG := rand.New(rand.NewSource(int64(seed)))

	logger.Info("nlpa: algorithm=%s seed_nodes=%d nodes=%d degree=%d exponent=%.4g offset=%.4g seed=%d regime=%s threads=%d",
		opts.Algorithm, opts.SeedNodes, opts.NumRandNodes, opts.InitialDegree, opts.Exponent, opts.Offset, seed, wf.Regime(), opts.NumThreads)

	ctx, span := otel.Tracer("nlpa-generator").Start(cmd.Context(), "generate")
	span.SetAttributes(
		attribute.String("nlpa.algorithm", string(opts.Algorithm)),
		attribute.Int64("nlpa.seed_nodes", opts.SeedNodes),
		attribute.Int64("nlpa.nodes", opts.NumRandNodes),
		attribute.Int64("nlpa.degree", opts.InitialDegree),
	)
	defer span.End()

	seedDegrees := unitDegreeSeed(ctx, opts.SeedNodes, opts.NumThreads)

	start := time.Now()
	var degrees []int64
	var edgeCount int64

	switch opts.Algorithm {
	case params.AlgorithmParallelPolyPA:
		degrees, edgeCount, err = runParallel(ctx, opts, wf, seedDegrees, masterRNG)
	default:
		degrees, edgeCount, err = runSequential(opts, wf, seedDegrees, masterRNG)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	logger.Info("generated %d edges across %d nodes in %s", edgeCount, len(degrees), elapsed)

	if opts.ReportDistribution {
		entries := histogram.Build(ctx, degrees, opts.NumThreads)
		if err := histogram.WriteText(os.Stdout, entries); err != nil {
			return nlpaerr.Wrap(nlpaerr.CodeIOError, "failed to write histogram", err)
		}
	}

	if genFlags.degreesOut != "" {
		if err := writeDegrees(degrees, genFlags.degreesOut, pickCompression(cfg.Output.Compression)); err != nil {
			return nlpaerr.Wrap(nlpaerr.CodeIOError, "failed to write degrees-out", err)
		}
	}

	fmt.Printf("runtime_s:%f\n", elapsed.Seconds())
	return nil
}

// unitDegreeSeed builds the seed-graph degree sequence: a 1-regular
// graph of seedNodes/2 disjoint pairs, matching main.rs's default seed
// shape and the degree-sum invariant (each seed node contributes
// exactly 1 to the total degree sum). Large seed graphs are filled in
// parallel chunks; small ones are filled directly.
func unitDegreeSeed(ctx context.Context, seedNodes int64, numWorkers int) []int64 {
	degrees := make([]int64, seedNodes)
	const parallelThreshold = 1 << 16
	if seedNodes < parallelThreshold {
		for i := range degrees {
			degrees[i] = 1
		}
		return degrees
	}

	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	idx := make([]int64, seedNodes)
	for i := range idx {
		idx[i] = int64(i)
	}
	cfg := parstats.DefaultPoolConfig().WithWorkers(numWorkers)
	parstats.ForEach(ctx, idx, cfg, func(_ context.Context, i int64) error {
		degrees[i] = 1
		return nil
	})
	return degrees
}

func runParallel(ctx context.Context, opts params.Options, wf *weightfn.Function, seedDegrees []int64, masterRNG *rand.Rand) ([]int64, int64, error) {
	eng := engine.New(engine.Options{
		NumSeedNodes:   opts.SeedNodes,
		NumRandNodes:   opts.NumRandNodes,
		InitialDegree:  opts.InitialDegree,
		WeightFunction: wf,
		NumThreads:     opts.NumThreads,
	})
	eng.SetSeedGraphDegrees(seedDegrees)

	tracer := otel.Tracer("nlpa-generator")
	lastLog := time.Now()
	eng.Run(ctx, masterRNG, func(p engine.Progress) {
		_, span := tracer.Start(ctx, "engine.epoch")
		span.SetAttributes(
			attribute.Int64("nlpa.epoch.id", p.EpochID),
			attribute.Int64("nlpa.epoch.start", p.Start),
			attribute.Int64("nlpa.epoch.end", p.End),
			attribute.Int64("nlpa.epoch.elapsed_ms", p.Elapsed.Milliseconds()),
		)
		span.End()

		if time.Since(lastLog) < time.Second {
			return
		}
		lastLog = time.Now()
		logger.Debug("elapsed Epoch %d from %d to %d; len %d", p.EpochID, p.Start, p.End, p.End-p.Start)
	})

	degrees := eng.Degrees()
	return degrees, opts.InitialDegree * opts.NumRandNodes, nil
}

func runSequential(opts params.Options, wf *weightfn.Function, seedDegrees []int64, masterRNG *rand.Rand) ([]int64, int64, error) {
	sopts := sequential.Options{
		NumSeedNodes:       opts.SeedNodes,
		NumRandNodes:       opts.NumRandNodes,
		InitialDegree:      opts.InitialDegree,
		WithoutReplacement: opts.WithoutReplacement,
		ResamplePrevious:   opts.ResamplePrevious,
		WeightFunction:     wf,
	}

	var alg sequential.Algorithm
	switch opts.Algorithm {
	case params.AlgorithmDyn:
		alg = sequential.NewDyn(sopts)
	case params.AlgorithmPolyPA:
		alg = sequential.NewPolyPA(sopts)
	case params.AlgorithmPolyPAPrefetch:
		alg = sequential.NewPolyPAPrefetch(sopts)
	default:
		return nil, 0, nlpaerr.New(nlpaerr.CodeInvalidInput, fmt.Sprintf("unsupported sequential algorithm %q", opts.Algorithm))
	}

	alg.SetSeedGraphDegrees(seedDegrees)
	counter := &edgewriter.Counter{}
	alg.Run(masterRNG, counter)
	return alg.Degrees(), counter.NumberOfEdges(), nil
}

func pickCompression(defaultType string) output.Type {
	s := genFlags.compression
	if s == "" {
		s = defaultType
	}
	switch s {
	case "gzip":
		return output.TypeGzip
	case "none":
		return output.TypeNone
	default:
		return output.TypeZstd
	}
}

// writeDegrees serializes degrees as JSON and, unless compType is
// TypeNone, runs it through the selected compressor before writing it
// to path.
func writeDegrees(degrees []int64, path string, compType output.Type) error {
	w := output.NewJSONWriter[[]int64]()

	if compType == output.TypeNone {
		return w.WriteToFile(degrees, path)
	}

	comp, err := output.New(compType, output.LevelDefault)
	if err != nil {
		return err
	}
	defer output.Close(comp)

	var buf bytes.Buffer
	if err := w.Write(degrees, &buf); err != nil {
		return err
	}

	compressed, err := comp.Compress(buf.Bytes())
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(compressed)
	return err
}

func seedFromEntropy() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
