// Package fasta decodes FASTA and FASTQ records.
//
// The decoder is deliberately conservative: headers are taken verbatim,
// sequence lines are concatenated, and no alphabet validation happens here.
// Alphabet handling is the collection's concern.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// Record is a single decoded sequence record.
type Record struct {
	ID  string
	Seq []byte
}

var errUnknownFormat = fmt.Errorf("input is neither FASTA nor FASTQ")

// ReadFile decodes all records from the file at path.
// Gzip-compressed inputs are detected by magic bytes, not extension.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 1<<20)

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("fasta: open gzip %s: %w", path, err)
		}
		defer gz.Close()
		return ReadRecords(gz)
	}

	return ReadRecords(br)
}

// ReadRecords decodes all records from r, preserving input order.
// The format (FASTA vs FASTQ) is sniffed from the first non-empty line.
func ReadRecords(r io.Reader) ([]Record, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 1<<20)
	}

	first, err := peekFirstByte(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	switch first {
	case '>':
		return readFasta(br)
	case '@':
		return readFastq(br)
	default:
		return nil, fmt.Errorf("fasta: %w (leading byte %q)", errUnknownFormat, first)
	}
}

// peekFirstByte skips blank lines and returns the first significant byte.
func peekFirstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		if b[0] == '\n' || b[0] == '\r' {
			if _, err := br.ReadByte(); err != nil {
				return 0, err
			}
			continue
		}
		return b[0], nil
	}
}

func readFasta(br *bufio.Reader) ([]Record, error) {
	var records []Record
	var cur *Record

	for {
		line, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			records = append(records, Record{ID: string(line[1:])})
			cur = &records[len(records)-1]
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("fasta: sequence data before first header")
		}
		cur.Seq = append(cur.Seq, line...)
	}

	return records, nil
}

func readFastq(br *bufio.Reader) ([]Record, error) {
	var records []Record

	for {
		header, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(header) == 0 {
			continue
		}
		if header[0] != '@' {
			return nil, fmt.Errorf("fasta: malformed FASTQ header %q", header)
		}

		seq, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("fasta: truncated FASTQ record %q", header[1:])
		}
		plus, err := readLine(br)
		if err != nil || len(plus) == 0 || plus[0] != '+' {
			return nil, fmt.Errorf("fasta: missing FASTQ separator for record %q", header[1:])
		}
		// Quality line is read and discarded; the index only needs symbols.
		if _, err := readLine(br); err != nil {
			return nil, fmt.Errorf("fasta: truncated FASTQ quality for record %q", header[1:])
		}

		records = append(records, Record{ID: string(header[1:]), Seq: seq})
	}

	return records, nil
}

// readLine reads one line without the trailing newline or carriage return.
// The returned slice is always freshly allocated.
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := br.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	line = bytes.TrimRight(line, "\r\n")
	out := make([]byte, len(line))
	copy(out, line)
	return out, nil
}
