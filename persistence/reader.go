package persistence

import (
	"fmt"

	"github.com/seqgo/seqgo/internal/hash"
	"github.com/seqgo/seqgo/internal/mmap"
)

// Reader gives random access to the sections of a persisted generation.
// The file is memory mapped; section payloads are only materialized (and
// decompressed, and checksum-verified) on request.
type Reader struct {
	m      *mmap.File
	header Header
	toc    map[SectionID]tocEntry
}

type tocEntry struct {
	sh     sectionHeader
	offset int64 // payload offset within the file
}

// Open maps the generation file at path and indexes its sections.
func Open(path string) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	data := m.Data
	hdr, err := decodeHeader(data)
	if err != nil {
		m.Close()
		return nil, err
	}

	r := &Reader{m: m, header: hdr, toc: make(map[SectionID]tocEntry)}
	off := int64(headerSize)
	for off < int64(len(data)) {
		sh, err := decodeSectionHeader(data[off:])
		if err != nil {
			m.Close()
			return nil, err
		}
		off += sectionSize
		if off+int64(sh.stored) > int64(len(data)) {
			m.Close()
			return nil, fmt.Errorf("persistence: truncated section %d", sh.id)
		}
		r.toc[sh.id] = tocEntry{sh: sh, offset: off}
		off += int64(sh.stored)
	}
	return r, nil
}

// Header returns the file header.
func (r *Reader) Header() Header { return r.header }

// HasSection reports whether id is present.
func (r *Reader) HasSection(id SectionID) bool {
	_, ok := r.toc[id]
	return ok
}

// Section verifies and returns the decompressed payload of id.
func (r *Reader) Section(id SectionID) ([]byte, error) {
	e, ok := r.toc[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchSection, id)
	}
	stored := r.m.Data[e.offset : e.offset+int64(e.sh.stored)]
	if crc := hash.CRC32C(stored); crc != e.sh.crc {
		return nil, fmt.Errorf("persistence: section %d checksum mismatch: expected 0x%08x, got 0x%08x", id, e.sh.crc, crc)
	}
	return decompress(stored, e.sh.uncompressed, e.sh.comp)
}

// Close unmaps the file.
func (r *Reader) Close() error { return r.m.Close() }
