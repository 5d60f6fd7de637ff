// Package manifest reads and writes the two text manifests that accompany an
// index artifact: the dimensions manifest ("index.info") and the provenance
// manifest ("index.ids").
//
// Both formats are line oriented and insertion ordered; downstream consumers
// parse them positionally as well as by key.
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/seqgo/seqgo/collection"
	"github.com/seqgo/seqgo/internal/fs"
)

// Info keys, in the order they are written.
const (
	KeyAlphabetSize   = "alphabet_size"
	KeySADimensionsI1 = "sa_dimensions_i1"
	KeySADimensionsI2 = "sa_dimensions_i2"
	KeyBWTDimensions  = "bwt_dimensions"
	KeySamplingRate   = "sampling_rate"
	KeyFastaDirectory = "fasta_directory"
)

// Info is an ordered key:value manifest.
type Info struct {
	keys   []string
	values map[string]string
}

// NewInfo returns an empty Info manifest.
func NewInfo() *Info {
	return &Info{values: make(map[string]string)}
}

// Set appends or replaces a key. First insertion fixes the key's position.
func (m *Info) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetInt is Set for integer values.
func (m *Info) SetInt(key string, value uint64) {
	m.Set(key, strconv.FormatUint(value, 10))
}

// SetBool is Set for boolean values.
func (m *Info) SetBool(key string, value bool) {
	m.Set(key, strconv.FormatBool(value))
}

// Get returns the value for key.
func (m *Info) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Int returns the value for key parsed as uint64.
func (m *Info) Int(key string) (uint64, error) {
	v, ok := m.values[key]
	if !ok {
		return 0, fmt.Errorf("manifest: missing key %q", key)
	}
	return strconv.ParseUint(v, 10, 64)
}

// Keys returns the keys in insertion order.
func (m *Info) Keys() []string { return m.keys }

// Encode renders the manifest as one key:value entry per line.
func (m *Info) Encode() []byte {
	var buf bytes.Buffer
	for _, k := range m.keys {
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(m.values[k])
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteInfo persists the manifest to path through fsys.
func WriteInfo(fsys fs.FileSystem, path string, m *Info) error {
	if err := fs.WriteFile(fsys, path, m.Encode(), 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// ReadInfo parses an Info manifest from path.
func ReadInfo(fsys fs.FileSystem, path string) (*Info, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}

	m := NewInfo()
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("manifest: malformed line %q in %s", line, path)
		}
		m.Set(key, value)
	}
	return m, sc.Err()
}

// WriteIDs persists the provenance manifest: one "origin;length;identifier"
// line per record, in ingestion order.
func WriteIDs(fsys fs.FileSystem, path string, records []collection.Record) error {
	var buf bytes.Buffer
	for _, r := range records {
		buf.WriteString(r.OriginFile)
		buf.WriteByte(';')
		buf.WriteString(strconv.FormatUint(r.Length, 10))
		buf.WriteByte(';')
		buf.WriteString(r.Identifier)
		buf.WriteByte('\n')
	}
	if err := fs.WriteFile(fsys, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// ReadIDs parses a provenance manifest back into records.
// Identifiers may themselves contain semicolons; only the first two separators split.
func ReadIDs(fsys fs.FileSystem, path string) ([]collection.Record, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}

	var records []collection.Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ";", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("manifest: malformed record %q in %s", line, path)
		}
		length, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest: bad length in %q: %w", line, err)
		}
		records = append(records, collection.Record{
			OriginFile: parts[0],
			Length:     length,
			Identifier: parts[2],
		})
	}
	return records, sc.Err()
}
