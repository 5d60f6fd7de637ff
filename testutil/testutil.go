// Package testutil provides testing utilities for seqgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random DNA and writing temporary
// FASTA fixtures.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// DNA returns n random bases over ACGT.
func (r *RNG) DNA(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	const bases = "ACGT"
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = bases[r.rand.Intn(4)]
	}
	return seq
}

// DNA5 returns n random bases over ACGTN with roughly one N in 50.
func (r *RNG) DNA5(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	const bases = "ACGT"
	seq := make([]byte, n)
	for i := range seq {
		if r.rand.Intn(50) == 0 {
			seq[i] = 'N'
		} else {
			seq[i] = bases[r.rand.Intn(4)]
		}
	}
	return seq
}

// FastaRecord is one record of a fixture file.
type FastaRecord struct {
	ID  string
	Seq []byte
}

// WriteFasta writes a FASTA fixture file and fails the test on error.
func WriteFasta(t *testing.T, path string, records ...FastaRecord) {
	t.Helper()

	var sb strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&sb, ">%s\n", rec.ID)
		// Wrap at 70 columns like real FASTA files.
		for off := 0; off < len(rec.Seq); off += 70 {
			end := off + 70
			if end > len(rec.Seq) {
				end = len(rec.Seq)
			}
			sb.Write(rec.Seq[off:end])
			sb.WriteByte('\n')
		}
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write fasta fixture %s: %v", path, err)
	}
}

// TempFasta writes a FASTA fixture into a fresh temp directory and returns
// its path.
func TempFasta(t *testing.T, name string, records ...FastaRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	WriteFasta(t, path, records...)
	return path
}
