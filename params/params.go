// Package params selects the integer-width tiers and construction parameters
// for an index build.
//
// The backend stores sampled suffix-array entries as (sequence number,
// sequence position) pairs and sizes its rank structure by the total text
// length. Picking the narrowest safe width for each of the three coordinate
// roles materially shrinks the index for the two dominant input shapes:
// many short sequences, and few very long ones.
package params

import (
	"math"

	"github.com/seqgo/seqgo/collection"
)

// Width is a coordinate storage width in bits.
type Width uint8

const (
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Bytes returns the width in bytes.
func (w Width) Bytes() int { return int(w) / 8 }

// Tiers holds the selected width for each coordinate role.
type Tiers struct {
	SeqNo    Width // sequence number within the collection
	SeqPos   Width // position within a sequence
	TotalLen Width // position within the whole concatenation (BWT length)
}

// Sampling bounds and default, and the cutoff below which parallel
// construction is not worth its overhead.
const (
	MinSamplingRate = 1
	MaxSamplingRate = 64
	DefaultSampling = 10

	parallelCutoff = 1_000_000
)

// Overrides optionally replaces measured dimensions before tier selection.
// Each value is a bit width b, reinterpreted as the dimension value 2^b-2.
// Overrides are never validated against the actual data; an override smaller
// than the true value is undefined behavior at the backend layer.
type Overrides struct {
	SeqNoBits    uint64 // 0 means no override
	SeqPosBits   uint64
	TotalLenBits uint64
}

// Dimensions is the immutable parameter set handed to the orchestrator.
type Dimensions struct {
	SequenceCount     uint64
	MaxSequenceLength uint64
	TotalLength       uint64 // sum of record lengths plus one sentinel per record

	Tiers        Tiers
	SamplingRate int
	AlphabetSize int
	Parallel     bool
}

// overrideValue maps a bit width b to 2^b-2.
func overrideValue(bits uint64) uint64 {
	if bits >= 64 {
		return math.MaxUint64 - 1
	}
	return (uint64(1) << bits) - 2
}

// Select measures the collection and picks tiers, sampling rate, and the
// construction mode. samplingRate is clamped to [MinSamplingRate,
// MaxSamplingRate]. parallel requests the parallel construction algorithm;
// it is overridden to false below the small-input cutoff.
func Select(c *collection.Collection, samplingRate int, parallel bool, ov Overrides) Dimensions {
	seqCount := uint64(c.Len())
	maxLen := c.MaxRecordLength()
	// One sentinel per sequence is part of the indexed text.
	totalLen := c.TotalSymbols() + seqCount

	if ov.SeqNoBits != 0 {
		seqCount = overrideValue(ov.SeqNoBits)
	}
	if ov.SeqPosBits != 0 {
		maxLen = overrideValue(ov.SeqPosBits)
	}
	if ov.TotalLenBits != 0 {
		totalLen = overrideValue(ov.TotalLenBits)
	}

	if samplingRate < MinSamplingRate {
		samplingRate = MinSamplingRate
	}
	if samplingRate > MaxSamplingRate {
		samplingRate = MaxSamplingRate
	}

	if c.TotalSymbols() < parallelCutoff {
		parallel = false
	}

	return Dimensions{
		SequenceCount:     seqCount,
		MaxSequenceLength: maxLen,
		TotalLength:       totalLen,
		Tiers:             selectTiers(seqCount, maxLen, totalLen),
		SamplingRate:      samplingRate,
		AlphabetSize:      c.AlphabetSize(),
		Parallel:          parallel,
	}
}

// selectTiers applies the fixed decision table, smallest safe tier first.
func selectTiers(seqCount, maxLen, totalLen uint64) Tiers {
	const (
		max16 = math.MaxUint16
		max32 = math.MaxUint32
	)

	switch {
	case seqCount <= max16 && maxLen <= max32:
		if totalLen <= max32 {
			return Tiers{Width16, Width32, Width32} // e.g. a human genome
		}
		return Tiers{Width16, Width32, Width64} // e.g. a barley genome
	case seqCount <= max32 && maxLen <= max16:
		return Tiers{Width32, Width16, Width64} // e.g. a read data set
	default:
		return Tiers{Width64, Width64, Width64}
	}
}
