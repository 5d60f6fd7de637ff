package persistence

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/seqgo/seqgo/internal/fs"
	"github.com/seqgo/seqgo/internal/hash"
	"github.com/seqgo/seqgo/resource"
)

// Writer streams a generation file: header first, then sections in call order.
type Writer struct {
	w    io.Writer
	comp Compression
}

// NewWriter writes the header to w and returns a section writer.
func NewWriter(w io.Writer, hdr Header) (*Writer, error) {
	if _, err := w.Write(hdr.encode()); err != nil {
		return nil, fmt.Errorf("persistence: write header: %w", err)
	}
	return &Writer{w: w, comp: hdr.Compression}, nil
}

// WriteSection appends one section, compressing per the header's codec.
func (w *Writer) WriteSection(id SectionID, data []byte) error {
	stored, comp, err := compress(data, w.comp)
	if err != nil {
		return err
	}

	sh := sectionHeader{
		id:           id,
		comp:         comp,
		uncompressed: uint64(len(data)),
		stored:       uint64(len(stored)),
		crc:          hash.CRC32C(stored),
	}
	if _, err := w.w.Write(sh.encode()); err != nil {
		return fmt.Errorf("persistence: write section %d header: %w", id, err)
	}
	if _, err := w.w.Write(stored); err != nil {
		return fmt.Errorf("persistence: write section %d payload: %w", id, err)
	}
	return nil
}

// WriteAtomic writes a generation file at path through write, staging into a
// temporary sibling and renaming only after a successful sync. Writes are
// throttled by rc when it carries an I/O limit.
func WriteAtomic(ctx context.Context, fsys fs.FileSystem, rc *resource.Controller, path string, hdr Header, write func(w *Writer) error) error {
	tmp := path + ".tmp"

	f, err := fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("persistence: create %s: %w", tmp, err)
	}

	fail := func(err error) error {
		f.Close()
		fsys.Remove(tmp)
		return err
	}

	bw := bufio.NewWriterSize(resource.NewThrottledWriter(ctx, f, rc), 1<<20)
	w, err := NewWriter(bw, hdr)
	if err != nil {
		return fail(err)
	}
	if err := write(w); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(fmt.Errorf("persistence: flush %s: %w", tmp, err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("persistence: sync %s: %w", tmp, err))
	}
	if err := f.Close(); err != nil {
		fsys.Remove(tmp)
		return fmt.Errorf("persistence: close %s: %w", tmp, err)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		fsys.Remove(tmp)
		return fmt.Errorf("persistence: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
