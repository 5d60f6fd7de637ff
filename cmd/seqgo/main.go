// Command seqgo builds a two-directional FM-index over genomic sequences.
//
// Usage:
//
//	seqgo -fasta-file genome.fa -index ./genome-index
//	seqgo -fasta-directory ./genomes -index ./genomes-index -sampling 5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seqgo/seqgo"
	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/persistence"
)

func main() {
	var (
		fastaFile = flag.String("fasta-file", "", "single FASTA/FASTQ input file")
		fastaDir  = flag.String("fasta-directory", "", "directory of FASTA/FASTQ input files")
		indexDir  = flag.String("index", "", "output directory for the index artifacts (must not exist)")
		algorithm = flag.String("algorithm", "parallel", "suffix array construction algorithm: parallel or sequential")
		sampling  = flag.Int("sampling", 10, "suffix array sampling rate, clamped to [1,64]")
		verbose   = flag.Bool("verbose", false, "list input files and report index dimensions")
		debug     = flag.Bool("debug", false, "disable panic interception during construction")
		comp      = flag.String("compression", "zstd", "artifact compression: none, lz4, or zstd")
		memLimit  = flag.Int64("memory-limit", 0, "working memory budget in bytes, 0 for unlimited")
		ioLimit   = flag.Int64("io-limit", 0, "artifact write throughput in bytes/sec, 0 for unlimited")

		// Expert overrides, applied unvalidated as 2^bits-2.
		seqNoBits  = flag.Uint64("seqno", 0, "")
		seqPosBits = flag.Uint64("seqpos", 0, "")
		bwtLenBits = flag.Uint64("bwtlen", 0, "")
	)
	flag.Parse()

	if err := run(*fastaFile, *fastaDir, *indexDir, *algorithm, *comp,
		*sampling, *seqNoBits, *seqPosBits, *bwtLenBits,
		*memLimit, *ioLimit, *verbose, *debug); err != nil {

		fmt.Fprintf(os.Stderr, "seqgo: %v\n", err)
		var usage *seqgo.UsageError
		if errors.As(err, &usage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(fastaFile, fastaDir, indexDir, algorithm, comp string,
	sampling int, seqNoBits, seqPosBits, bwtLenBits uint64,
	memLimit, ioLimit int64, verbose, debug bool) error {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	b := seqgo.Index().
		Output(indexDir).
		Sampling(sampling).
		Verbose(verbose).
		Debug(debug).
		Logger(seqgo.NewTextLogger(level)).
		MemoryLimit(memLimit).
		IOLimit(ioLimit)

	if fastaFile != "" {
		b = b.FastaFile(fastaFile)
	}
	if fastaDir != "" {
		b = b.FastaDirectory(fastaDir)
	}

	alg, err := index.ParseAlgorithm(algorithm)
	if err != nil {
		return &seqgo.UsageError{Msg: fmt.Sprintf("unknown algorithm %q", algorithm)}
	}
	if alg == index.AlgorithmSequential {
		b = b.Sequential()
	}

	switch comp {
	case "none":
		b = b.Compression(persistence.CompressionNone)
	case "lz4":
		b = b.Compression(persistence.CompressionLZ4)
	case "zstd":
		b = b.Compression(persistence.CompressionZSTD)
	default:
		return &seqgo.UsageError{Msg: fmt.Sprintf("unknown compression %q", comp)}
	}

	if seqNoBits != 0 {
		b = b.SeqNoBits(seqNoBits)
	}
	if seqPosBits != 0 {
		b = b.SeqPosBits(seqPosBits)
	}
	if bwtLenBits != 0 {
		b = b.BWTLenBits(bwtLenBits)
	}

	result, err := b.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("index written to %s (%d sequences, %d + %d sampled positions) in %s\n",
		result.OutputDir,
		result.Dimensions.SequenceCount,
		result.Forward.SampledPositions,
		result.Reverse.SampledPositions,
		result.Duration.Round(time.Millisecond),
	)
	return nil
}
