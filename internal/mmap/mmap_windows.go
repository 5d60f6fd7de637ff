//go:build windows

package mmap

import (
	"io"
	"os"
)

// Windows falls back to reading the file into the heap. The index build
// pipeline itself never maps files; only artifact loading does, and the
// copying fallback keeps the API identical.
func mapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func unmapFile([]byte) error { return nil }
