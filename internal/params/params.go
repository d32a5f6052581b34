// Package params validates and normalizes the command-line parameters
// for the generator, mirroring parameters.rs's get_and_check_options:
// even seed-node count, non-negative exponent/offset, positive thread
// count, and the seed-node/thread-count defaults derived from the
// other flags.
package params

import (
	"fmt"
	"runtime"

	"github.com/nlpa-go/nlpa/internal/nlpaerr"
)

// Algorithm identifies which sampler variant to run.
type Algorithm string

const (
	AlgorithmDyn            Algorithm = "dyn"
	AlgorithmPolyPA         Algorithm = "polypa"
	AlgorithmPolyPAPrefetch Algorithm = "polypa-prefetch"
	AlgorithmParallelPolyPA Algorithm = "par-polypa"
)

// ParseAlgorithm parses the -a/--algorithm flag value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmDyn, AlgorithmPolyPA, AlgorithmPolyPAPrefetch, AlgorithmParallelPolyPA:
		return Algorithm(s), nil
	default:
		return "", nlpaerr.New(nlpaerr.CodeInvalidInput, fmt.Sprintf("unknown algorithm %q (valid: dyn, polypa, polypa-prefetch, par-polypa)", s))
	}
}

// Raw holds the command-line parameters exactly as parsed, before
// defaulting and validation — mirrors parameters.rs's Parameters
// struct, including which optional fields were actually supplied.
type Raw struct {
	Algorithm          string
	SeedNodes          *int64
	SeedValue          *uint64
	Nodes              int64
	InitialDegree      int64
	Exponent           float64
	Offset             float64
	WithoutReplacement bool
	ResamplePrevious   bool
	ReportDistribution bool
	NumThreads         *int
}

// Options is the normalized, validated parameter set every downstream
// package (internal/engine, internal/sequential) consumes.
type Options struct {
	Algorithm          Algorithm
	SeedNodes          int64
	HasSeedValue       bool
	SeedValue          uint64
	NumRandNodes       int64
	InitialDegree      int64
	Exponent           float64
	Offset             float64
	WithoutReplacement bool
	ResamplePrevious   bool
	ReportDistribution bool
	NumThreads         int
}

// Validate normalizes r into Options, applying parameters.rs's
// defaulting rules and precondition checks. It returns an
// nlpaerr-wrapped error (CodeInvalidInput) on any violated invariant.
func Validate(r Raw) (Options, error) {
	algo, err := ParseAlgorithm(r.Algorithm)
	if err != nil {
		return Options{}, err
	}

	if r.InitialDegree < 1 {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "initial_degree must be >= 1")
	}
	if r.Nodes < 0 {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "nodes must be >= 0")
	}

	seedNodes := r.InitialDegree * 10
	if r.SeedNodes != nil {
		seedNodes = *r.SeedNodes
	}
	if seedNodes < r.InitialDegree {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "seed_nodes must be >= initial_degree")
	}
	if seedNodes%2 != 0 {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "seed_nodes must be even (seed graph is a perfect matching)")
	}

	if r.Exponent < 0 {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "exponent must be >= 0")
	}
	if r.Offset < 0 {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "offset must be >= 0")
	}
	// w(1) = 1^exponent + offset = 1 + offset > 0 always holds given the
	// two checks above, but keep the precondition explicit: the
	// run-length sampler and proposal list both divide by node weight.
	if 1+r.Offset <= 0 {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "w(1) must be > 0")
	}

	numThreads := runtime.NumCPU()
	if r.NumThreads != nil {
		numThreads = *r.NumThreads
	}
	if numThreads <= 0 {
		return Options{}, nlpaerr.New(nlpaerr.CodeInvalidInput, "num_threads must be > 0")
	}

	opts := Options{
		Algorithm:          algo,
		SeedNodes:          seedNodes,
		NumRandNodes:       r.Nodes,
		InitialDegree:      r.InitialDegree,
		Exponent:           r.Exponent,
		Offset:             r.Offset,
		WithoutReplacement: r.WithoutReplacement,
		ResamplePrevious:   r.ResamplePrevious,
		ReportDistribution: r.ReportDistribution,
		NumThreads:         numThreads,
	}
	if r.SeedValue != nil {
		opts.HasSeedValue = true
		opts.SeedValue = *r.SeedValue
	}
	return opts, nil
}
