package fasta

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecordsFasta(t *testing.T) {
	input := ">chr1 assembly primary\nACGT\nACGT\n\n>chr2\nGG\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "chr1 assembly primary", records[0].ID)
	assert.Equal(t, []byte("ACGTACGT"), records[0].Seq)
	assert.Equal(t, "chr2", records[1].ID)
	assert.Equal(t, []byte("GG"), records[1].Seq)
}

func TestReadRecordsFastaCRLF(t *testing.T) {
	input := ">r1\r\nACGT\r\nTT\r\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("ACGTTT"), records[0].Seq)
}

func TestReadRecordsFastq(t *testing.T) {
	input := "@read1\nACGT\n+\nIIII\n@read2\nTTGG\n+read2\nJJJJ\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "read1", records[0].ID)
	assert.Equal(t, []byte("ACGT"), records[0].Seq)
	assert.Equal(t, []byte("TTGG"), records[1].Seq)
}

func TestReadRecordsFastqTruncated(t *testing.T) {
	input := "@read1\nACGT\n+\n"

	_, err := ReadRecords(strings.NewReader(input))
	require.Error(t, err)
}

func TestReadRecordsEmptyInput(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadRecordsUnknownFormat(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("ACGT\n"))
	require.Error(t, err)
}

func TestReadRecordsDataBeforeHeader(t *testing.T) {
	// First byte sniffs as FASTA but the body starts with data.
	_, err := ReadRecords(strings.NewReader(">r1\nACGT\n"))
	require.NoError(t, err)

	_, err = ReadRecords(strings.NewReader("\n>r1\nACGT\n"))
	require.NoError(t, err)
}

func TestReadFileGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.fa")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(">chr1\nACGTACGT\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("ACGTACGT"), records[0].Seq)
}

func TestReadFilePlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.fa")
	require.NoError(t, os.WriteFile(path, []byte(">chr1\nACGT\n"), 0o644))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
