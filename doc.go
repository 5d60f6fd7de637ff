// Package seqgo builds two-directional FM-indexes over genomic sequence
// collections as the precomputation step for mappability analysis.
//
// A build ingests FASTA/FASTQ input (a single file or a directory), selects
// integer-width tiers matched to the input's shape, constructs a forward and
// a reverse index generation one at a time to bound peak memory, and writes
// an artifact directory: the two generations plus a dimension manifest and a
// provenance manifest.
//
// Example:
//
//	result, err := seqgo.Index().
//	    FastaDirectory("./genomes").
//	    Output("./genomes-index").
//	    Run(ctx)
//
// The artifact set can optionally be archived to object storage via
// Builder.Archive with a blobstore implementation.
package seqgo
