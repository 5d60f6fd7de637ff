package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seqgo/seqgo/internal/fs"
)

// LocalStore implements Store on a local directory. Blobs are staged to a
// temporary sibling and renamed into place, so a partial upload never
// appears under its final name.
type LocalStore struct {
	root string
	fsys fs.FileSystem
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root, fsys: fs.Default}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Put streams a blob into the store.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.path(name)
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("blobstore: mkdir %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	f, err := s.fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("blobstore: create %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.fsys.Remove(tmp)
		return fmt.Errorf("blobstore: write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		s.fsys.Remove(tmp)
		return fmt.Errorf("blobstore: sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		s.fsys.Remove(tmp)
		return fmt.Errorf("blobstore: close %s: %w", name, err)
	}
	if err := s.fsys.Rename(tmp, path); err != nil {
		s.fsys.Remove(tmp)
		return fmt.Errorf("blobstore: rename %s: %w", name, err)
	}
	return nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fsys.OpenFile(s.path(name), os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blobstore: %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

// List walks the store directory and returns relative blob names with the
// given prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a blob.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fsys.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
