package seqgo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seqgo/seqgo/collection"
	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/index/fm"
	"github.com/seqgo/seqgo/ingest"
	"github.com/seqgo/seqgo/internal/fs"
	"github.com/seqgo/seqgo/manifest"
	"github.com/seqgo/seqgo/params"
	"github.com/seqgo/seqgo/resource"
)

// Artifact names within the output directory.
const (
	ArtifactForward = "index"
	ArtifactReverse = "index.rev"
	ArtifactInfo    = "index.info"
	ArtifactIDs     = "index.ids"
)

// RunResult reports a completed build.
type RunResult struct {
	OutputDir  string
	Dimensions params.Dimensions
	Forward    index.Stats
	Reverse    index.Stats
	Files      []string
	Duration   time.Duration
}

type pipeline struct {
	b Builder
	o options
}

func newPipeline(b Builder, opts []Option) *pipeline {
	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
		fsys:    fs.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &pipeline{b: b, o: o}
}

func (p *pipeline) run(ctx context.Context) (*RunResult, error) {
	started := time.Now()

	// Usage validation happens before any input is read or any artifact
	// is written.
	if err := p.validate(); err != nil {
		return nil, err
	}

	res, err := p.ingest(ctx)
	if err != nil {
		return nil, err
	}
	c := res.Collection

	c.Canonicalize()
	dims := params.Select(c, p.b.sampling, p.b.algorithm == index.AlgorithmParallel, p.b.overrides)

	if p.b.verbose {
		for _, f := range res.Files {
			p.o.logger.InfoContext(ctx, "input file", "path", f)
		}
		p.o.logger.InfoContext(ctx, "index dimensions",
			"sequences", dims.SequenceCount,
			"max_sequence_length", dims.MaxSequenceLength,
			"total_length", dims.TotalLength,
			"seqno_bits", int(dims.Tiers.SeqNo),
			"seqpos_bits", int(dims.Tiers.SeqPos),
			"bwtlen_bits", int(dims.Tiers.TotalLen),
			"alphabet", dims.AlphabetSize,
			"sampling", dims.SamplingRate,
			"parallel", dims.Parallel,
		)
	}

	// Provenance first, then the info manifest, then the index bytes.
	// A directory holding index data without its manifests is never
	// observable.
	if err := manifest.WriteIDs(p.o.fsys, filepath.Join(p.b.outputDir, ArtifactIDs), c.Records()); err != nil {
		return nil, err
	}
	if err := p.writeInfo(dims); err != nil {
		return nil, err
	}

	rc := p.controller()
	backend := p.o.backend
	if backend == nil {
		backend = fm.New(
			fm.WithFS(p.o.fsys),
			fm.WithController(rc),
			fm.WithCompression(p.o.compression),
			fm.WithWorkers(p.o.workers),
		)
	}

	result := &RunResult{
		OutputDir:  p.b.outputDir,
		Dimensions: dims,
		Files:      res.Files,
	}

	// Forward generation: build, persist, and only then reverse the
	// collection. Peak memory holds one generation at a time.
	fwd, err := p.buildGeneration(ctx, backend, c, dims)
	if err != nil {
		return nil, err
	}
	result.Forward = fwd.Stats()
	if err := p.persist(ctx, backend, fwd, ArtifactForward); err != nil {
		return nil, err
	}

	// Reverse consumes the forward collection; from here on only the
	// reversed orientation exists.
	rev, err := p.buildGeneration(ctx, backend, c.Reverse(), dims)
	if err != nil {
		return nil, err
	}
	result.Reverse = rev.Stats()
	backend.DiscardAuxiliary(rev)
	if err := p.persist(ctx, backend, rev, ArtifactReverse); err != nil {
		return nil, err
	}

	if p.o.archive != nil {
		if err := p.archiveArtifacts(ctx); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(started)
	p.o.logger.InfoContext(ctx, "index construction completed",
		"output", p.b.outputDir,
		"duration", result.Duration,
	)
	return result, nil
}

// validate enforces the invocation contract: exactly one input selection and
// a fresh output directory.
func (p *pipeline) validate() error {
	switch {
	case p.b.fastaFile == "" && p.b.fastaDir == "":
		return &UsageError{Msg: "no input selected: set FastaFile or FastaDirectory"}
	case p.b.fastaFile != "" && p.b.fastaDir != "":
		return &UsageError{Msg: "conflicting input selection: FastaFile and FastaDirectory are mutually exclusive"}
	case p.b.outputDir == "":
		return &UsageError{Msg: "no output directory set"}
	}

	if _, err := p.o.fsys.Stat(p.b.outputDir); err == nil {
		return &UsageError{Msg: fmt.Sprintf("output directory %s already exists", p.b.outputDir)}
	} else if !os.IsNotExist(err) {
		return &UsageError{Msg: fmt.Sprintf("output directory %s not accessible", p.b.outputDir), cause: err}
	}
	if err := p.o.fsys.MkdirAll(p.b.outputDir, 0o755); err != nil {
		return &UsageError{Msg: fmt.Sprintf("cannot create output directory %s", p.b.outputDir), cause: err}
	}
	return nil
}

func (p *pipeline) ingest(ctx context.Context) (*ingest.Result, error) {
	started := time.Now()

	var (
		res *ingest.Result
		err error
	)
	if p.b.fastaFile != "" {
		res, err = ingest.File(p.b.fastaFile, p.o.logger.Logger)
	} else {
		res, err = ingest.Directory(p.o.fsys, p.b.fastaDir, p.o.logger.Logger)
	}

	files, records := 0, 0
	var symbols uint64
	if res != nil {
		files = len(res.Files)
		records = res.Collection.Len()
		symbols = res.Collection.TotalSymbols()
	}
	p.o.metrics.RecordIngest(files, records, time.Since(started), err)
	p.o.logger.LogIngest(ctx, files, records, symbols, err)
	return res, err
}

func (p *pipeline) writeInfo(dims params.Dimensions) error {
	info := manifest.NewInfo()
	info.SetInt(manifest.KeyAlphabetSize, uint64(dims.AlphabetSize))
	info.SetInt(manifest.KeySADimensionsI1, uint64(dims.Tiers.SeqNo))
	info.SetInt(manifest.KeySADimensionsI2, uint64(dims.Tiers.SeqPos))
	info.SetInt(manifest.KeyBWTDimensions, uint64(dims.Tiers.TotalLen))
	info.SetInt(manifest.KeySamplingRate, uint64(dims.SamplingRate))
	info.SetBool(manifest.KeyFastaDirectory, p.b.fastaDir != "")
	return manifest.WriteInfo(p.o.fsys, filepath.Join(p.b.outputDir, ArtifactInfo), info)
}

func (p *pipeline) controller() *resource.Controller {
	if p.o.memoryLimit == 0 && p.o.ioLimit == 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   p.o.memoryLimit,
		IOLimitBytesPerSec: p.o.ioLimit,
	})
}

func (p *pipeline) buildGeneration(ctx context.Context, backend index.Backend, c *collection.Collection, dims params.Dimensions) (index.Generation, error) {
	started := time.Now()

	var gen index.Generation
	err := p.guard(func() (err error) {
		gen, err = backend.Build(ctx, c, dims)
		return err
	})
	err = translateBuildError(err, p.b.algorithm)

	var stats index.Stats
	if gen != nil {
		stats = gen.Stats()
	}
	stats.Reverse = c.Reversed()
	p.o.metrics.RecordBuild(c.Reversed(), time.Since(started), err)
	p.o.logger.LogBuild(ctx, stats, time.Since(started), err)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (p *pipeline) persist(ctx context.Context, backend index.Backend, gen index.Generation, name string) error {
	started := time.Now()
	path := filepath.Join(p.b.outputDir, name)

	err := p.guard(func() error {
		return backend.Persist(ctx, gen, path)
	})
	p.o.metrics.RecordPersist(time.Since(started), err)
	p.o.logger.LogPersist(ctx, path, err)
	return err
}

// guard runs fn with panic interception, so a backend crash surfaces as a
// ConstructionError instead of taking the process down. Debug mode lets the
// panic through with its trace intact.
func (p *pipeline) guard(fn func() error) (err error) {
	if p.b.debug {
		return fn()
	}
	defer func() {
		if r := recover(); r != nil {
			err = &ConstructionError{cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn()
}
