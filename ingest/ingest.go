// Package ingest loads FASTA/FASTQ inputs into a collection, preserving the
// order the index's coordinates depend on: records in file order, files in
// lexicographic name order.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seqgo/seqgo/collection"
	"github.com/seqgo/seqgo/fasta"
	"github.com/seqgo/seqgo/internal/fs"
)

// ErrEmptyInput is returned when the selected input yields no usable records.
var ErrEmptyInput = errors.New("ingest: input contains no sequences")

// sequenceExtensions are the file extensions directory mode picks up.
var sequenceExtensions = map[string]bool{
	".fa":    true,
	".fas":   true,
	".fasta": true,
	".fastq": true,
	".fna":   true,
	".fsa":   true,
}

// Result is a loaded input: the collection plus the files that contributed
// to it, for the verbose listing.
type Result struct {
	Collection *collection.Collection
	Files      []string
}

// File loads a single sequence file. The record origin is the file's base
// name.
func File(path string, log *slog.Logger) (*Result, error) {
	log = orDiscard(log)

	c := collection.New()
	n, err := appendFile(c, path)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}

	log.Info("input loaded", "files", 1, "records", c.Len(), "symbols", c.TotalSymbols())
	return &Result{Collection: c, Files: []string{path}}, nil
}

// Directory loads every sequence file directly under dir, in lexicographic
// name order, listing the directory through fsys. Files that yield no
// records are skipped with a warning; the directory as a whole yielding
// nothing is ErrEmptyInput.
func Directory(fsys fs.FileSystem, dir string, log *slog.Logger) (*Result, error) {
	log = orDiscard(log)
	if fsys == nil {
		fsys = fs.Default
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingest: read directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if sequenceExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	c := collection.New()
	var loaded []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		n, err := appendFile(c, path)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			log.Warn("skipping file without sequences", "file", name)
			continue
		}
		loaded = append(loaded, path)
	}

	if c.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyInput, dir)
	}

	log.Info("input loaded", "files", len(loaded), "records", c.Len(), "symbols", c.TotalSymbols())
	return &Result{Collection: c, Files: loaded}, nil
}

// appendFile adds a file's non-empty records to the collection and returns
// how many it added.
func appendFile(c *collection.Collection, path string) (int, error) {
	records, err := fasta.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("ingest: %s: %w", path, err)
	}

	origin := filepath.Base(path)
	n := 0
	for _, r := range records {
		if len(r.Seq) == 0 {
			continue
		}
		c.Append(origin, r.ID, r.Seq)
		n++
	}
	return n, nil
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log
}
