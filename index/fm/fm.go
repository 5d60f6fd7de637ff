// Package fm implements the FM-index construction backend: suffix array,
// Burrows-Wheeler transform, cumulative counts, checkpointed occurrence
// table, and width-packed sampled coordinates.
//
// The indexed text inserts one sentinel after each record. Sentinels carry
// distinct descending values so the suffix array orders them by record,
// with the final sentinel as the unique minimum. On disk and in the BWT the
// distinction collapses away: every sentinel becomes symbol 0 and code c
// becomes c+1.
package fm

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/seqgo/seqgo/collection"
	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/internal/fs"
	"github.com/seqgo/seqgo/params"
	"github.com/seqgo/seqgo/persistence"
	"github.com/seqgo/seqgo/resource"
)

// DefaultOccRate is the occurrence-table checkpoint interval in BWT rows.
const DefaultOccRate = 128

// Options configures a Backend.
type Options struct {
	// FS is the filesystem artifacts are written through.
	FS fs.FileSystem

	// Controller enforces the memory budget and throttles writes.
	// Nil means unlimited.
	Controller *resource.Controller

	// Compression selects the section codec for persisted generations.
	Compression persistence.Compression

	// OccRate is the occurrence checkpoint interval.
	OccRate int

	// Workers bounds parallel construction. Zero means GOMAXPROCS.
	Workers int
}

// Option customizes Options.
type Option func(*Options)

// WithFS sets the filesystem.
func WithFS(fsys fs.FileSystem) Option {
	return func(o *Options) { o.FS = fsys }
}

// WithController sets the resource controller.
func WithController(rc *resource.Controller) Option {
	return func(o *Options) { o.Controller = rc }
}

// WithCompression sets the persisted section codec.
func WithCompression(c persistence.Compression) Option {
	return func(o *Options) { o.Compression = c }
}

// WithOccRate sets the occurrence checkpoint interval.
func WithOccRate(rate int) Option {
	return func(o *Options) { o.OccRate = rate }
}

// WithWorkers bounds parallel construction.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// Backend builds FM-index generations.
type Backend struct {
	opts Options
}

// New creates a Backend.
func New(optFns ...Option) *Backend {
	opts := Options{
		FS:          fs.Default,
		Compression: persistence.CompressionZSTD,
		OccRate:     DefaultOccRate,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.OccRate <= 0 {
		opts.OccRate = DefaultOccRate
	}
	return &Backend{opts: opts}
}

var _ index.Backend = (*Backend)(nil)

// generation holds one built index generation in memory until it is
// persisted.
type generation struct {
	dims    params.Dimensions
	reverse bool

	textLen uint64
	bwt     []byte   // collapsed alphabet: 0 sentinel, code c stored as c+1
	counts  []uint64 // counts[c] = collapsed symbols strictly smaller than c
	occ     []uint64 // checkpoint-major, one row per occRate BWT rows
	occRate int
	bounds  []uint64 // cumulative record end offsets in the text, sentinels included

	samples      []byte // width-packed (seqNo, seqPos) pairs in BWT row order
	marks        *roaring64.Bitmap
	sampledCount uint64

	reserved int64 // bytes still held against the memory budget
}

func (g *generation) Stats() index.Stats {
	return index.Stats{
		TextLength:       g.textLen,
		SampledPositions: g.sampledCount,
		Reverse:          g.reverse,
	}
}

// Build constructs a generation over the collection.
func (b *Backend) Build(ctx context.Context, c *collection.Collection, dims params.Dimensions) (index.Generation, error) {
	symbols := c.Symbols()
	seqCount := uint64(c.Len())
	n := uint64(len(symbols)) + seqCount
	if n == 0 {
		return nil, fmt.Errorf("fm: empty collection")
	}

	collapsed := c.AlphabetSize() + 1 // sentinel plus codes
	rc := b.opts.Controller

	// Everything large is reserved before allocation; a denied reservation
	// is the out-of-memory condition.
	reserve := buildReservation(int64(n), dims.Parallel)
	if !rc.ReserveMemory(reserve) {
		return nil, index.ErrOutOfMemory
	}
	released := false
	defer func() {
		if released {
			return
		}
		rc.ReleaseMemory(reserve)
	}()

	text, bounds := layoutText(symbols, c.Bounds(), seqCount)
	k := int(seqCount) + c.AlphabetSize() + 2

	var (
		sa  []int
		err error
	)
	if dims.Parallel {
		sa, err = buildSuffixArrayParallel(ctx, text, b.opts.Workers)
	} else {
		if err = ctx.Err(); err == nil {
			sa = buildSuffixArraySequential(text, k)
		}
	}
	if err != nil {
		return nil, err
	}

	gen := &generation{
		dims:    dims,
		reverse: c.Reversed(),
		textLen: n,
		occRate: b.opts.OccRate,
		bounds:  bounds,
		marks:   roaring64.New(),
	}

	gen.bwt = deriveBWT(text, sa, seqCount)
	gen.counts = cumulativeCounts(gen.bwt, collapsed)
	gen.occ = checkpointOcc(gen.bwt, collapsed, gen.occRate)
	if err := sampleSuffixArray(ctx, gen, sa, dims); err != nil {
		return nil, err
	}

	// The suffix array and int text are scratch; hand their share of the
	// budget back and keep only the retained structures reserved.
	retained := retainedBytes(gen)
	if retained > reserve {
		retained = reserve
	}
	rc.ReleaseMemory(reserve - retained)
	gen.reserved = retained
	released = true

	return gen, nil
}

// DiscardAuxiliary drops the sampled coordinates and their indicator bitmap.
func (b *Backend) DiscardAuxiliary(gen index.Generation) {
	g, ok := gen.(*generation)
	if !ok {
		return
	}
	freed := int64(len(g.samples)) + int64(g.marks.GetSizeInBytes())
	g.samples = nil
	g.marks = roaring64.New()
	g.sampledCount = 0
	if freed > g.reserved {
		freed = g.reserved
	}
	b.opts.Controller.ReleaseMemory(freed)
	g.reserved -= freed
}

// buildReservation estimates the peak working set for a text of n symbols:
// the int text, the suffix array, construction scratch, and the retained
// structures while the scratch is still live.
func buildReservation(n int64, parallel bool) int64 {
	const word = 8
	scratchWords := int64(2) // SA-IS typing and buckets
	if parallel {
		scratchWords = 3 // rank, new rank, and flag arrays
	}
	return n*word + // text
		n*word + // suffix array
		n*word*scratchWords +
		n + // bwt
		n/4 // counts, checkpoints, samples
}

// retainedBytes is the post-build footprint of a generation.
func retainedBytes(g *generation) int64 {
	return int64(len(g.bwt)) +
		int64(len(g.counts))*8 +
		int64(len(g.occ))*8 +
		int64(len(g.bounds))*8 +
		int64(len(g.samples)) +
		int64(g.marks.GetSizeInBytes())
}

// layoutText converts the byte collection into the int text the suffix
// array is built over. Record i (0-based) is terminated by sentinel value
// seqCount-i, so sentinels sort by descending record and the final one is
// the unique minimum. Code c maps to seqCount+1+c; value 0 is unused.
func layoutText(symbols []byte, symbolBounds []uint64, seqCount uint64) (text []int, bounds []uint64) {
	n := len(symbols) + int(seqCount)
	text = make([]int, n)
	bounds = make([]uint64, len(symbolBounds))

	pos := 0
	prev := uint64(0)
	for i, end := range symbolBounds {
		for _, sym := range symbols[prev:end] {
			text[pos] = int(seqCount) + 1 + int(sym)
			pos++
		}
		text[pos] = int(seqCount) - i
		pos++
		prev = end
		bounds[i] = uint64(pos)
	}
	return text, bounds
}

// deriveBWT computes the collapsed-alphabet BWT from the suffix array.
func deriveBWT(text []int, sa []int, seqCount uint64) []byte {
	n := len(text)
	bwt := make([]byte, n)
	for i, p := range sa {
		prev := p - 1
		if prev < 0 {
			prev = n - 1
		}
		v := text[prev]
		if uint64(v) <= seqCount {
			bwt[i] = 0
		} else {
			bwt[i] = byte(uint64(v) - seqCount)
		}
	}
	return bwt
}

// cumulativeCounts returns C where C[c] is the number of collapsed symbols
// strictly smaller than c. Length is collapsed+1 so C[collapsed] is the
// text length.
func cumulativeCounts(bwt []byte, collapsed int) []uint64 {
	counts := make([]uint64, collapsed+1)
	for _, c := range bwt {
		counts[c+1]++
	}
	for c := 1; c <= collapsed; c++ {
		counts[c] += counts[c-1]
	}
	return counts
}

// checkpointOcc builds the occurrence table: one row of per-symbol prefix
// counts for every occRate BWT rows, covering bwt[:k*occRate) at row k.
func checkpointOcc(bwt []byte, collapsed, occRate int) []uint64 {
	n := len(bwt)
	rows := n/occRate + 1
	occ := make([]uint64, rows*collapsed)
	running := make([]uint64, collapsed)
	for i := 0; i < n; i++ {
		if i%occRate == 0 {
			copy(occ[(i/occRate)*collapsed:], running)
		}
		running[bwt[i]]++
	}
	if n%occRate == 0 {
		// The loop never reaches row n/occRate; it covers the whole BWT.
		copy(occ[(n/occRate)*collapsed:], running)
	}
	return occ
}

// sampleSuffixArray packs the sampled (seqNo, seqPos) pairs at the selected
// tier widths and records the sampled BWT rows in the indicator bitmap.
// A text position p is sampled when p is a multiple of the sampling rate.
func sampleSuffixArray(ctx context.Context, gen *generation, sa []int, dims params.Dimensions) error {
	rate := uint64(dims.SamplingRate)
	pairBytes := dims.Tiers.SeqNo.Bytes() + dims.Tiers.SeqPos.Bytes()

	for i, p := range sa {
		if i&0xFFFFF == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		pos := uint64(p)
		if pos%rate != 0 {
			continue
		}
		seqNo, seqPos := locateInText(gen.bounds, pos)
		off := len(gen.samples)
		gen.samples = append(gen.samples, make([]byte, pairBytes)...)
		putWidth(gen.samples[off:], dims.Tiers.SeqNo, seqNo)
		putWidth(gen.samples[off+dims.Tiers.SeqNo.Bytes():], dims.Tiers.SeqPos, seqPos)
		gen.marks.Add(uint64(i))
		gen.sampledCount++
	}
	return nil
}

// locateInText maps an absolute text position (sentinels included) to a
// (record index, offset within record) pair. A record's sentinel counts as
// position recordLength within that record.
func locateInText(bounds []uint64, pos uint64) (seqNo, seqPos uint64) {
	lo, hi := 0, len(bounds)
	for lo < hi {
		mid := (lo + hi) / 2
		if bounds[mid] <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	start := uint64(0)
	if lo > 0 {
		start = bounds[lo-1]
	}
	return uint64(lo), pos - start
}

// putWidth writes v little-endian at the given width.
func putWidth(buf []byte, w params.Width, v uint64) {
	for i := 0; i < w.Bytes(); i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

// getWidth reads a little-endian value of the given width.
func getWidth(buf []byte, w params.Width) uint64 {
	var v uint64
	for i := 0; i < w.Bytes(); i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}
