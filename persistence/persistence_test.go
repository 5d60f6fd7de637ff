package persistence

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqgo/seqgo/internal/fs"
)

func testHeader(comp Compression) Header {
	return Header{
		Kind:              KindForward,
		Alphabet:          5,
		SeqNoBits:         16,
		SeqPosBits:        32,
		TotalLenBits:      32,
		Compression:       comp,
		SamplingRate:      10,
		SequenceCount:     3,
		MaxSequenceLength: 1000,
		TotalLength:       3003,
	}
}

func writeTestFile(t *testing.T, path string, comp Compression, sections map[SectionID][]byte) {
	t.Helper()
	err := WriteAtomic(context.Background(), fs.Default, nil, path, testHeader(comp), func(w *Writer) error {
		for _, id := range []SectionID{1, 2, 3} {
			if data, ok := sections[id]; ok {
				if err := w.WriteSection(id, data); err != nil {
					return err
				}
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(comp.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index")
			sections := map[SectionID][]byte{
				1: bytes.Repeat([]byte("ACGTACGT"), 1000),
				2: {0, 1, 2, 3},
				3: {},
			}
			writeTestFile(t, path, comp, sections)

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, testHeader(comp), r.Header())
			for id, want := range sections {
				got, err := r.Section(id)
				require.NoError(t, err, "section %d", id)
				if len(want) == 0 {
					assert.Empty(t, got)
				} else {
					assert.Equal(t, want, got)
				}
			}
		})
	}
}

func TestIncompressiblePayloadStoredRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	// High-entropy payload that zstd cannot shrink below the ratio bound.
	payload := make([]byte, 4096)
	state := uint64(0x9E3779B97F4A7C15)
	for i := range payload {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		payload[i] = byte(state)
	}
	writeTestFile(t, path, CompressionZSTD, map[SectionID][]byte{1: payload})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Section(1)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// Raw-stored sections come straight out of the memory mapping; the payload a
// caller holds must stay readable after the reader is closed and the file
// unmapped.
func TestSectionOutlivesReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	payload := bytes.Repeat([]byte("ACGT"), 256)
	writeTestFile(t, path, CompressionNone, map[SectionID][]byte{1: payload})

	r, err := Open(path)
	require.NoError(t, err)
	got, err := r.Section(1)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Equal(t, payload, got)
}

func TestMissingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	writeTestFile(t, path, CompressionNone, map[SectionID][]byte{1: {1}})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.HasSection(1))
	assert.False(t, r.HasSection(9))
	_, err = r.Section(9)
	assert.ErrorIs(t, err, ErrNoSuchSection)
}

func TestInvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xAB}, 128), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestCorruptedSectionDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	writeTestFile(t, path, CompressionNone, map[SectionID][]byte{1: bytes.Repeat([]byte("ACGT"), 64)})

	// Flip one payload byte past the header and section header.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Section(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum")
}

func TestWriteAtomicCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index")

	faulty := fs.NewFaultyFS(fs.Default)
	faulty.AddRule("index.tmp", fs.Fault{FailAfterBytes: -1, FailOnSync: true})

	err := WriteAtomic(context.Background(), faulty, nil, path, testHeader(CompressionNone), func(w *Writer) error {
		return w.WriteSection(1, []byte("ACGT"))
	})
	require.ErrorIs(t, err, fs.ErrInjected)

	// Neither the final file nor the staging file survives.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAtomicMidWriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index")

	faulty := fs.NewFaultyFS(fs.Default)
	faulty.AddRule("index.tmp", fs.Fault{FailAfterBytes: 100})

	err := WriteAtomic(context.Background(), faulty, nil, path, testHeader(CompressionNone), func(w *Writer) error {
		return w.WriteSection(1, bytes.Repeat([]byte("ACGT"), 4096))
	})
	require.Error(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
