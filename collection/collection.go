// Package collection holds the ordered, concatenated sequence collection the
// index is built over, together with its provenance records.
//
// The collection owns a single contiguous symbol buffer. Ingestion appends to
// it, Canonicalize rewrites it in place, and Reverse consumes it. One sentinel
// per record is accounted for but never materialized in the buffer; the index
// backend inserts sentinels when it lays out its text.
package collection

import "fmt"

// Symbol codes after canonicalization. The input alphabet is DNA5; a
// collection free of N is reduced to DNA4, which shares the same codes.
const (
	SymA byte = 0
	SymC byte = 1
	SymG byte = 2
	SymT byte = 3
	SymN byte = 4
)

// Alphabet sizes reported by Canonicalize.
const (
	AlphabetDNA4 = 4
	AlphabetDNA5 = 5
)

// Record describes one retained sequence: where it came from, how long it is,
// and its textual identifier. Records appear in exactly the order their symbol
// data appears in the concatenated buffer; downstream coordinates are
// positional, so this order is load-bearing.
type Record struct {
	OriginFile string
	Length     uint64
	Identifier string
}

// Collection is the ordered concatenation of all retained sequences.
type Collection struct {
	data     []byte   // concatenated symbols: ASCII until Canonicalize, codes after
	bounds   []uint64 // cumulative end offset of each record in data
	records  []Record
	alphabet int  // 0 until canonicalized
	reversed bool // set on collections produced by Reverse
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{}
}

// Append adds one record's symbol data to the collection. Symbols are
// uppercased and any non-ACGT letter becomes N. Zero-length records are the
// caller's responsibility to filter; Append panics on them because a
// zero-length record would corrupt positional coordinates.
func (c *Collection) Append(origin, identifier string, seq []byte) {
	if len(seq) == 0 {
		panic("collection: appended zero-length record")
	}
	if c.alphabet != 0 {
		panic("collection: append after canonicalization")
	}

	start := len(c.data)
	c.data = append(c.data, seq...)
	for i := start; i < len(c.data); i++ {
		switch c.data[i] {
		case 'A', 'C', 'G', 'T':
		case 'a':
			c.data[i] = 'A'
		case 'c':
			c.data[i] = 'C'
		case 'g':
			c.data[i] = 'G'
		case 't':
			c.data[i] = 'T'
		default:
			c.data[i] = 'N'
		}
	}

	c.bounds = append(c.bounds, uint64(len(c.data)))
	c.records = append(c.records, Record{
		OriginFile: origin,
		Length:     uint64(len(seq)),
		Identifier: identifier,
	})
}

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.records) }

// TotalSymbols returns the length of the concatenated buffer, without sentinels.
func (c *Collection) TotalSymbols() uint64 { return uint64(len(c.data)) }

// MaxRecordLength returns the length of the longest record.
func (c *Collection) MaxRecordLength() uint64 {
	var maxLen uint64
	prev := uint64(0)
	for _, b := range c.bounds {
		if n := b - prev; n > maxLen {
			maxLen = n
		}
		prev = b
	}
	return maxLen
}

// Records returns the provenance records in concatenation order.
// The returned slice is owned by the collection.
func (c *Collection) Records() []Record { return c.records }

// Symbols returns the concatenated symbol buffer. The slice is owned by the
// collection and is only valid until Reverse is called.
func (c *Collection) Symbols() []byte { return c.data }

// Bounds returns the cumulative end offsets of each record within Symbols.
func (c *Collection) Bounds() []uint64 { return c.bounds }

// AlphabetSize returns 4 or 5 after Canonicalize, 0 before.
func (c *Collection) AlphabetSize() int { return c.alphabet }

// Locate maps an absolute buffer offset to (record index, offset within record).
func (c *Collection) Locate(pos uint64) (seqNo uint64, seqPos uint64) {
	// Binary search over cumulative bounds.
	lo, hi := 0, len(c.bounds)
	for lo < hi {
		mid := (lo + hi) / 2
		if c.bounds[mid] <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	start := uint64(0)
	if lo > 0 {
		start = c.bounds[lo-1]
	}
	return uint64(lo), pos - start
}

// Reverse consumes the collection and returns a new one whose symbol order is
// reversed across the whole concatenation (not per record). The receiver's
// buffer is taken over and must not be used again; the forward-oriented
// collection is gone after this call.
func (c *Collection) Reverse() *Collection {
	data := c.data
	c.data = nil

	for l, r := 0, len(data)-1; l < r; l, r = l+1, r-1 {
		data[l], data[r] = data[r], data[l]
	}

	// Record order flips along with the symbols.
	n := len(c.records)
	records := make([]Record, n)
	bounds := make([]uint64, n)
	var off uint64
	for i := 0; i < n; i++ {
		records[i] = c.records[n-1-i]
		off += records[i].Length
		bounds[i] = off
	}
	c.records = nil
	c.bounds = nil

	return &Collection{
		data:     data,
		bounds:   bounds,
		records:  records,
		alphabet: c.alphabet,
		reversed: !c.reversed,
	}
}

// Reversed reports whether this collection was produced by Reverse.
func (c *Collection) Reversed() bool { return c.reversed }

func (c *Collection) String() string {
	return fmt.Sprintf("collection{records=%d symbols=%d alphabet=%d}", len(c.records), len(c.data), c.alphabet)
}
