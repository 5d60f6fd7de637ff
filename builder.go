// The fluent builder API for configuring and running an index build. The
// builder is immutable - each method returns a new builder with the updated
// configuration.

package seqgo

import (
	"context"

	"github.com/seqgo/seqgo/blobstore"
	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/params"
	"github.com/seqgo/seqgo/persistence"
)

// Index creates a new index build configuration.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents accidental
// state sharing.
//
// Example:
//
//	result, err := seqgo.Index().
//	    FastaDirectory("./genomes").
//	    Output("./genomes-index").
//	    Sampling(10).
//	    Run(ctx)
func Index() Builder {
	return Builder{
		sampling:    params.DefaultSampling,
		algorithm:   index.AlgorithmParallel,
		compression: persistence.CompressionZSTD,
	}
}

// Builder is an immutable fluent builder for configuring an index build.
// Each method returns a new builder with the updated configuration.
type Builder struct {
	fastaFile string
	fastaDir  string
	outputDir string

	sampling  int
	algorithm index.Algorithm
	overrides params.Overrides

	verbose bool
	debug   bool

	logger      *Logger
	metrics     MetricsCollector
	compression persistence.Compression
	archive     blobstore.Store
	memoryLimit int64
	ioLimit     int64
	workers     int

	extraOpts []Option
}

// FastaFile selects a single sequence file as input.
// Mutually exclusive with FastaDirectory.
func (b Builder) FastaFile(path string) Builder {
	b.fastaFile = path
	return b
}

// FastaDirectory selects every sequence file directly under dir as input,
// in lexicographic name order. Mutually exclusive with FastaFile.
func (b Builder) FastaDirectory(dir string) Builder {
	b.fastaDir = dir
	return b
}

// Output sets the artifact directory. It must not exist yet; the build
// creates it and writes the artifact set under it.
func (b Builder) Output(dir string) Builder {
	b.outputDir = dir
	return b
}

// Sampling sets the suffix-array sampling rate. Values outside [1, 64] are
// clamped. Default: 10. Lower values make downstream locating faster at the
// cost of a larger index.
func (b Builder) Sampling(rate int) Builder {
	b.sampling = rate
	return b
}

// Sequential selects the sequential suffix-array construction algorithm.
// It is slower than the default but needs less working memory.
func (b Builder) Sequential() Builder {
	b.algorithm = index.AlgorithmSequential
	return b
}

// Parallel selects the parallel construction algorithm (the default).
// Small inputs fall back to sequential regardless.
func (b Builder) Parallel() Builder {
	b.algorithm = index.AlgorithmParallel
	return b
}

// Verbose enables the per-file input listing and the dimension report.
func (b Builder) Verbose(v bool) Builder {
	b.verbose = v
	return b
}

// Debug disables panic interception during construction so a crash surfaces
// with its full trace instead of a ConstructionError.
func (b Builder) Debug(d bool) Builder {
	b.debug = d
	return b
}

// SeqNoBits overrides the measured sequence count with 2^bits-2 before tier
// selection. The override is never validated against the input; a value
// smaller than the true count corrupts the index.
func (b Builder) SeqNoBits(bits uint64) Builder {
	b.overrides.SeqNoBits = bits
	return b
}

// SeqPosBits overrides the measured maximum sequence length with 2^bits-2
// before tier selection. Unvalidated, like SeqNoBits.
func (b Builder) SeqPosBits(bits uint64) Builder {
	b.overrides.SeqPosBits = bits
	return b
}

// BWTLenBits overrides the measured total text length with 2^bits-2 before
// tier selection. Unvalidated, like SeqNoBits.
func (b Builder) BWTLenBits(bits uint64) Builder {
	b.overrides.TotalLenBits = bits
	return b
}

// Logger sets the pipeline logger. Default: no logging.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector. Default: none.
func (b Builder) Metrics(m MetricsCollector) Builder {
	b.metrics = m
	return b
}

// Compression selects the artifact section codec. Default: zstd.
func (b Builder) Compression(c persistence.Compression) Builder {
	b.compression = c
	return b
}

// MemoryLimit caps the backend's working memory in bytes. A build whose
// reservation exceeds the budget fails with OutOfMemoryError.
func (b Builder) MemoryLimit(bytes int64) Builder {
	b.memoryLimit = bytes
	return b
}

// IOLimit caps artifact write throughput in bytes per second.
func (b Builder) IOLimit(bytesPerSec int64) Builder {
	b.ioLimit = bytesPerSec
	return b
}

// Workers bounds parallel construction. Zero means GOMAXPROCS.
func (b Builder) Workers(n int) Builder {
	b.workers = n
	return b
}

// Archive uploads the artifact set to store after a successful build.
func (b Builder) Archive(store blobstore.Store) Builder {
	b.archive = store
	return b
}

// With appends raw options, applied after the builder's own configuration.
func (b Builder) With(opts ...Option) Builder {
	b.extraOpts = append(b.extraOpts[:len(b.extraOpts):len(b.extraOpts)], opts...)
	return b
}

// Run executes the build pipeline.
func (b Builder) Run(ctx context.Context) (*RunResult, error) {
	opts := []Option{
		WithCompression(b.compression),
		WithMemoryLimit(b.memoryLimit),
		WithIOLimit(b.ioLimit),
		WithWorkers(b.workers),
	}
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector(b.metrics))
	}
	if b.archive != nil {
		opts = append(opts, WithArchive(b.archive))
	}
	opts = append(opts, b.extraOpts...)

	p := newPipeline(b, opts)
	return p.run(ctx)
}
