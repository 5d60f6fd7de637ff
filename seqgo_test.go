package seqgo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqgo/seqgo"
	"github.com/seqgo/seqgo/blobstore"
	"github.com/seqgo/seqgo/collection"
	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/index/fm"
	"github.com/seqgo/seqgo/internal/fs"
	"github.com/seqgo/seqgo/manifest"
	"github.com/seqgo/seqgo/params"
	"github.com/seqgo/seqgo/persistence"
	"github.com/seqgo/seqgo/testutil"
)

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	rng := testutil.NewRNG(1234)
	testutil.WriteFasta(t, filepath.Join(dir, "a.fa"),
		testutil.FastaRecord{ID: "chr1", Seq: rng.DNA(500)},
		testutil.FastaRecord{ID: "chr2", Seq: rng.DNA(300)},
	)
	testutil.WriteFasta(t, filepath.Join(dir, "b.fa"),
		testutil.FastaRecord{ID: "plasmid", Seq: rng.DNA(120)},
	)
	return dir
}

func TestRunEndToEnd(t *testing.T) {
	input := fixtureDir(t)
	output := filepath.Join(t.TempDir(), "out")

	result, err := seqgo.Index().
		FastaDirectory(input).
		Output(output).
		Sampling(5).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(3), result.Dimensions.SequenceCount)
	assert.Equal(t, uint64(920+3), result.Dimensions.TotalLength)
	assert.False(t, result.Dimensions.Parallel, "small input falls back to sequential")
	assert.Len(t, result.Files, 2)

	// All four artifacts exist.
	for _, name := range []string{seqgo.ArtifactForward, seqgo.ArtifactReverse, seqgo.ArtifactInfo, seqgo.ArtifactIDs} {
		_, err := os.Stat(filepath.Join(output, name))
		assert.NoError(t, err, name)
	}

	// The info manifest reflects the selected dimensions.
	info, err := manifest.ReadInfo(fs.Default, filepath.Join(output, seqgo.ArtifactInfo))
	require.NoError(t, err)
	assert.Equal(t, []string{
		manifest.KeyAlphabetSize,
		manifest.KeySADimensionsI1,
		manifest.KeySADimensionsI2,
		manifest.KeyBWTDimensions,
		manifest.KeySamplingRate,
		manifest.KeyFastaDirectory,
	}, info.Keys())
	sampling, err := info.Int(manifest.KeySamplingRate)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sampling)
	alphabet, err := info.Int(manifest.KeyAlphabetSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), alphabet)
	fastaDir, ok := info.Get(manifest.KeyFastaDirectory)
	require.True(t, ok)
	assert.Equal(t, "true", fastaDir, "directory input is recorded as a bool")

	// The provenance manifest preserves ingestion order.
	records, err := manifest.ReadIDs(fs.Default, filepath.Join(output, seqgo.ArtifactIDs))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "chr1", records[0].Identifier)
	assert.Equal(t, "a.fa", records[0].OriginFile)
	assert.Equal(t, "plasmid", records[2].Identifier)

	// Both generations load; the reverse one carries no auxiliary tables.
	fwd, err := fm.Load(filepath.Join(output, seqgo.ArtifactForward))
	require.NoError(t, err)
	assert.Equal(t, persistence.KindForward, fwd.Header.Kind)
	assert.Equal(t, result.Forward.SampledPositions, fwd.Marks.GetCardinality())
	assert.Equal(t, uint64(923), uint64(len(fwd.BWT)))

	rev, err := fm.Load(filepath.Join(output, seqgo.ArtifactReverse))
	require.NoError(t, err)
	assert.Equal(t, persistence.KindReverse, rev.Header.Kind)
	assert.Empty(t, rev.Samples)
	assert.Equal(t, len(fwd.BWT), len(rev.BWT))
}

func TestRunUsageErrors(t *testing.T) {
	input := fixtureDir(t)
	ctx := context.Background()

	tests := []struct {
		name string
		b    seqgo.Builder
	}{
		{
			name: "no input",
			b:    seqgo.Index().Output(filepath.Join(t.TempDir(), "out")),
		},
		{
			name: "conflicting inputs",
			b: seqgo.Index().FastaFile("x.fa").FastaDirectory(input).
				Output(filepath.Join(t.TempDir(), "out")),
		},
		{
			name: "no output",
			b:    seqgo.Index().FastaDirectory(input),
		},
		{
			name: "output already exists",
			b:    seqgo.Index().FastaDirectory(input).Output(t.TempDir()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Run(ctx)
			var usage *seqgo.UsageError
			require.ErrorAs(t, err, &usage)
		})
	}
}

// Usage validation fires before ingestion: with a conflicting selection the
// output directory is never created.
func TestRunValidatesBeforeIngestion(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out")

	_, err := seqgo.Index().
		FastaFile("a.fa").
		FastaDirectory("b").
		Output(output).
		Run(context.Background())

	var usage *seqgo.UsageError
	require.ErrorAs(t, err, &usage)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no artifacts may be written on a usage error")
}

func TestRunEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.fa"), nil, 0o644))

	_, err := seqgo.Index().
		FastaDirectory(dir).
		Output(filepath.Join(t.TempDir(), "out")).
		Run(context.Background())
	assert.ErrorIs(t, err, seqgo.ErrEmptyInput)
}

func TestRunRecordsAlphabetDNA5(t *testing.T) {
	input := testutil.TempFasta(t, "genome.fa",
		testutil.FastaRecord{ID: "chr1", Seq: []byte("ACGTNNACGT")},
	)
	output := filepath.Join(t.TempDir(), "out")

	_, err := seqgo.Index().
		FastaFile(input).
		Output(output).
		Run(context.Background())
	require.NoError(t, err)

	info, err := manifest.ReadInfo(fs.Default, filepath.Join(output, seqgo.ArtifactInfo))
	require.NoError(t, err)
	alphabet, err := info.Int(manifest.KeyAlphabetSize)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), alphabet)
	fastaDir, ok := info.Get(manifest.KeyFastaDirectory)
	require.True(t, ok)
	assert.Equal(t, "false", fastaDir, "single-file input is recorded as a bool")
}

func TestRunOutOfMemory(t *testing.T) {
	input := fixtureDir(t)

	_, err := seqgo.Index().
		FastaDirectory(input).
		Output(filepath.Join(t.TempDir(), "out")).
		MemoryLimit(512).
		Run(context.Background())

	var oom *seqgo.OutOfMemoryError
	require.ErrorAs(t, err, &oom)
	assert.Contains(t, err.Error(), "sequential")
	assert.ErrorIs(t, err, index.ErrOutOfMemory)
}

func TestRunArchives(t *testing.T) {
	input := fixtureDir(t)
	store := blobstore.NewMemoryStore()

	_, err := seqgo.Index().
		FastaDirectory(input).
		Output(filepath.Join(t.TempDir(), "out")).
		Archive(store).
		Run(context.Background())
	require.NoError(t, err)

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		seqgo.ArtifactForward,
		seqgo.ArtifactIDs,
		seqgo.ArtifactInfo,
		seqgo.ArtifactReverse,
	}, names)

	// The commit marker names the full set and is written once.
	commits := store.Commits()
	require.Len(t, commits, 1)
	assert.Len(t, commits[0], 4)
}

// panicBackend simulates a backend crash.
type panicBackend struct{}

func (panicBackend) Build(context.Context, *collection.Collection, params.Dimensions) (index.Generation, error) {
	panic("corrupted bucket table")
}
func (panicBackend) Persist(context.Context, index.Generation, string) error { return nil }
func (panicBackend) DiscardAuxiliary(index.Generation)                       {}

func TestRunInterceptsPanics(t *testing.T) {
	input := fixtureDir(t)

	_, err := seqgo.Index().
		FastaDirectory(input).
		Output(filepath.Join(t.TempDir(), "out")).
		With(seqgo.WithBackend(panicBackend{})).
		Run(context.Background())

	var ce *seqgo.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "report")
}

func TestRunDebugDisablesInterception(t *testing.T) {
	input := fixtureDir(t)

	assert.Panics(t, func() {
		_, _ = seqgo.Index().
			FastaDirectory(input).
			Output(filepath.Join(t.TempDir(), "out")).
			Debug(true).
			With(seqgo.WithBackend(panicBackend{})).
			Run(context.Background())
	})
}

func TestBuilderIsImmutable(t *testing.T) {
	dir := t.TempDir()
	base := seqgo.Index().FastaFile(filepath.Join(dir, "absent.fa"))
	withOutput := base.Output(filepath.Join(dir, "out1"))
	other := base.Output(filepath.Join(dir, "out2"))

	// Deriving from base twice must not cross-contaminate.
	_, err1 := withOutput.Sampling(5).Run(context.Background())
	_, err2 := other.Run(context.Background())

	// Both fail on the missing input file, not on builder state corruption.
	require.Error(t, err1)
	require.Error(t, err2)
	assert.NotContains(t, err1.Error(), "out2")
}
