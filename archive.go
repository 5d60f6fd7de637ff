package seqgo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seqgo/seqgo/blobstore"
)

// archiveArtifacts uploads the artifact set to the configured blobstore.
// The commit marker, when the store supports one, is written only after
// every blob is uploaded, so readers that trust markers never see a partial
// set.
func (p *pipeline) archiveArtifacts(ctx context.Context) error {
	started := time.Now()
	artifacts := []string{ArtifactForward, ArtifactReverse, ArtifactInfo, ArtifactIDs}

	err := p.uploadAll(ctx, artifacts)
	if err == nil {
		if committer, ok := p.o.archive.(blobstore.Committer); ok {
			err = committer.Commit(ctx, artifacts)
		}
	}

	p.o.metrics.RecordArchive(len(artifacts), time.Since(started), err)
	p.o.logger.LogArchive(ctx, len(artifacts), err)
	return err
}

func (p *pipeline) uploadAll(ctx context.Context, artifacts []string) error {
	for _, name := range artifacts {
		if err := p.upload(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) upload(ctx context.Context, name string) error {
	path := filepath.Join(p.b.outputDir, name)
	f, err := p.o.fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if err := p.o.archive.Put(ctx, name, f, st.Size()); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}
