package fm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/params"
	"github.com/seqgo/seqgo/persistence"
)

// Section identifiers within a generation file.
const (
	SectionBWT     persistence.SectionID = 1
	SectionCounts  persistence.SectionID = 2
	SectionOcc     persistence.SectionID = 3
	SectionSamples persistence.SectionID = 4
	SectionMarks   persistence.SectionID = 5
	SectionBounds  persistence.SectionID = 6
)

// Persist writes the generation to path atomically. The samples and marks
// sections are omitted when the generation has had its auxiliary tables
// discarded.
func (b *Backend) Persist(ctx context.Context, gen index.Generation, path string) error {
	g, ok := gen.(*generation)
	if !ok {
		return fmt.Errorf("fm: persist: foreign generation %T", gen)
	}

	kind := persistence.KindForward
	if g.reverse {
		kind = persistence.KindReverse
	}
	hdr := persistence.Header{
		Kind:              kind,
		Alphabet:          uint8(g.dims.AlphabetSize),
		SeqNoBits:         uint8(g.dims.Tiers.SeqNo),
		SeqPosBits:        uint8(g.dims.Tiers.SeqPos),
		TotalLenBits:      uint8(g.dims.Tiers.TotalLen),
		Compression:       b.opts.Compression,
		SamplingRate:      uint16(g.dims.SamplingRate),
		SequenceCount:     g.dims.SequenceCount,
		MaxSequenceLength: g.dims.MaxSequenceLength,
		TotalLength:       g.dims.TotalLength,
	}

	err := persistence.WriteAtomic(ctx, b.opts.FS, b.opts.Controller, path, hdr, func(w *persistence.Writer) error {
		if err := w.WriteSection(SectionBWT, g.bwt); err != nil {
			return err
		}
		if err := w.WriteSection(SectionCounts, encodeUint64s(g.counts)); err != nil {
			return err
		}
		if err := w.WriteSection(SectionOcc, encodeOcc(g.occ, g.occRate)); err != nil {
			return err
		}
		if err := w.WriteSection(SectionBounds, encodeUint64s(g.bounds)); err != nil {
			return err
		}
		if g.sampledCount > 0 {
			if err := w.WriteSection(SectionSamples, g.samples); err != nil {
				return err
			}
			marks, err := g.marks.MarshalBinary()
			if err != nil {
				return fmt.Errorf("fm: marshal marks: %w", err)
			}
			if err := w.WriteSection(SectionMarks, marks); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The generation's memory budget share is freed once it is on disk.
	b.opts.Controller.ReleaseMemory(g.reserved)
	g.reserved = 0
	return nil
}

// Index is a loaded generation, for verification and downstream readers.
type Index struct {
	Header  persistence.Header
	BWT     []byte
	Counts  []uint64
	Occ     []uint64
	OccRate int
	Bounds  []uint64
	Samples []byte
	Marks   *roaring64.Bitmap
}

// Load reads a persisted generation back into memory.
func Load(path string) (*Index, error) {
	r, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idx := &Index{Header: r.Header(), Marks: roaring64.New()}

	if idx.BWT, err = r.Section(SectionBWT); err != nil {
		return nil, err
	}
	raw, err := r.Section(SectionCounts)
	if err != nil {
		return nil, err
	}
	idx.Counts = decodeUint64s(raw)
	if raw, err = r.Section(SectionOcc); err != nil {
		return nil, err
	}
	if idx.Occ, idx.OccRate, err = decodeOcc(raw); err != nil {
		return nil, err
	}
	if raw, err = r.Section(SectionBounds); err != nil {
		return nil, err
	}
	idx.Bounds = decodeUint64s(raw)

	if r.HasSection(SectionSamples) {
		if idx.Samples, err = r.Section(SectionSamples); err != nil {
			return nil, err
		}
		marks, err := r.Section(SectionMarks)
		if err != nil {
			return nil, err
		}
		if err := idx.Marks.UnmarshalBinary(marks); err != nil {
			return nil, fmt.Errorf("fm: unmarshal marks: %w", err)
		}
	}
	return idx, nil
}

// Rank returns the number of occurrences of symbol c in BWT[:i], combining
// the nearest checkpoint with a short scan.
func (x *Index) Rank(c byte, i uint64) uint64 {
	collapsed := int(x.Header.Alphabet) + 1
	cp := i / uint64(x.OccRate)
	n := x.Occ[cp*uint64(collapsed)+uint64(c)]
	for j := cp * uint64(x.OccRate); j < i; j++ {
		if x.BWT[j] == c {
			n++
		}
	}
	return n
}

// SampleAt returns the sampled (seqNo, seqPos) pair for BWT row, if sampled.
func (x *Index) SampleAt(row uint64) (seqNo, seqPos uint64, ok bool) {
	if x.Marks == nil || !x.Marks.Contains(row) {
		return 0, 0, false
	}
	seqNoW := params.Width(x.Header.SeqNoBits)
	seqPosW := params.Width(x.Header.SeqPosBits)
	pairBytes := seqNoW.Bytes() + seqPosW.Bytes()

	// Rank of the row among sampled rows gives the pair's slot.
	slot := x.Marks.Rank(row) - 1
	off := int(slot) * pairBytes
	seqNo = getWidth(x.Samples[off:], seqNoW)
	seqPos = getWidth(x.Samples[off+seqNoW.Bytes():], seqPosW)
	return seqNo, seqPos, true
}

func encodeUint64s(v []uint64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], x)
	}
	return buf
}

func decodeUint64s(buf []byte) []uint64 {
	v := make([]uint64, len(buf)/8)
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return v
}

// encodeOcc prefixes the checkpoint rows with the checkpoint interval.
func encodeOcc(occ []uint64, occRate int) []byte {
	buf := make([]byte, 8*(len(occ)+1))
	binary.LittleEndian.PutUint64(buf, uint64(occRate))
	for i, x := range occ {
		binary.LittleEndian.PutUint64(buf[8*(i+1):], x)
	}
	return buf
}

func decodeOcc(buf []byte) ([]uint64, int, error) {
	if len(buf) < 8 {
		return nil, 0, errors.New("fm: short occurrence section")
	}
	occRate := int(binary.LittleEndian.Uint64(buf))
	if occRate <= 0 {
		return nil, 0, errors.New("fm: invalid occurrence checkpoint interval")
	}
	return decodeUint64s(buf[8:]), occRate, nil
}
