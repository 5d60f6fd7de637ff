package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	c := New()
	c.Append("a.fa", "chr1", []byte("acgt"))
	c.Append("a.fa", "chr2", []byte("AXGT"))

	require.Equal(t, 2, c.Len())
	require.Equal(t, uint64(8), c.TotalSymbols())
	assert.Equal(t, []byte("ACGTANGT"), c.Symbols())

	records := c.Records()
	assert.Equal(t, "chr1", records[0].Identifier)
	assert.Equal(t, uint64(4), records[0].Length)
	assert.Equal(t, "a.fa", records[1].OriginFile)
}

func TestAppendPanics(t *testing.T) {
	c := New()
	assert.Panics(t, func() {
		c.Append("a.fa", "empty", nil)
	})

	c.Append("a.fa", "chr1", []byte("ACGT"))
	c.Canonicalize()
	assert.Panics(t, func() {
		c.Append("a.fa", "late", []byte("ACGT"))
	})
}

func TestMaxRecordLength(t *testing.T) {
	c := New()
	c.Append("a.fa", "short", []byte("AC"))
	c.Append("a.fa", "long", []byte("ACGTACGT"))
	c.Append("a.fa", "mid", []byte("ACGT"))

	assert.Equal(t, uint64(8), c.MaxRecordLength())
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name      string
		seqs      []string
		alphabet  int
		canReduce bool
	}{
		{name: "pure ACGT", seqs: []string{"ACGT", "GGCC"}, alphabet: AlphabetDNA4, canReduce: true},
		{name: "contains N", seqs: []string{"ACGT", "ANGT"}, alphabet: AlphabetDNA5, canReduce: false},
		{name: "mapped ambiguity code", seqs: []string{"ACRT"}, alphabet: AlphabetDNA5, canReduce: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for i, s := range tt.seqs {
				c.Append("x.fa", string(rune('a'+i)), []byte(s))
			}

			got := c.Canonicalize()
			assert.Equal(t, tt.canReduce, got)
			assert.Equal(t, tt.alphabet, c.AlphabetSize())
		})
	}
}

func TestCanonicalizeCodes(t *testing.T) {
	c := New()
	c.Append("x.fa", "chr1", []byte("ACGTN"))
	c.Canonicalize()

	assert.Equal(t, []byte{SymA, SymC, SymG, SymT, SymN}, c.Symbols())
}

func TestLocate(t *testing.T) {
	c := New()
	c.Append("x.fa", "chr1", []byte("ACG"))
	c.Append("x.fa", "chr2", []byte("TT"))
	c.Append("x.fa", "chr3", []byte("GGGG"))

	tests := []struct {
		pos    uint64
		seqNo  uint64
		seqPos uint64
	}{
		{0, 0, 0},
		{2, 0, 2},
		{3, 1, 0},
		{4, 1, 1},
		{5, 2, 0},
		{8, 2, 3},
	}
	for _, tt := range tests {
		seqNo, seqPos := c.Locate(tt.pos)
		assert.Equal(t, tt.seqNo, seqNo, "pos %d", tt.pos)
		assert.Equal(t, tt.seqPos, seqPos, "pos %d", tt.pos)
	}
}

func TestReverse(t *testing.T) {
	c := New()
	c.Append("x.fa", "chr1", []byte("ACG"))
	c.Append("x.fa", "chr2", []byte("TT"))
	c.Canonicalize()

	rev := c.Reverse()

	require.True(t, rev.Reversed())
	assert.Equal(t, []byte{SymT, SymT, SymG, SymC, SymA}, rev.Symbols())

	// Record order flips with the symbols.
	records := rev.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "chr2", records[0].Identifier)
	assert.Equal(t, "chr1", records[1].Identifier)
	assert.Equal(t, []uint64{2, 5}, rev.Bounds())

	// The forward collection's buffer is gone.
	assert.Nil(t, c.Symbols())
	assert.Zero(t, c.Len())
}

func TestReverseTwiceRestoresOrientation(t *testing.T) {
	c := New()
	c.Append("x.fa", "chr1", []byte("ACGT"))
	c.Canonicalize()

	back := c.Reverse().Reverse()
	assert.False(t, back.Reversed())
	assert.Equal(t, []byte{SymA, SymC, SymG, SymT}, back.Symbols())
}
