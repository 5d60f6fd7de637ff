package seqgo

import (
	"github.com/seqgo/seqgo/blobstore"
	"github.com/seqgo/seqgo/index"
	"github.com/seqgo/seqgo/internal/fs"
	"github.com/seqgo/seqgo/persistence"
)

type options struct {
	logger      *Logger
	metrics     MetricsCollector
	fsys        fs.FileSystem
	backend     index.Backend
	compression persistence.Compression
	archive     blobstore.Store
	memoryLimit int64
	ioLimit     int64
	workers     int
}

// Option configures pipeline behavior beyond what the Builder's fluent
// surface covers. Options primarily exist to keep test seams and less common
// knobs off the main API.
type Option func(*options)

// WithLogger configures the pipeline logger. If nil is passed, logging is
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures metrics collection.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithFS substitutes the filesystem all artifacts are written through.
// Intended for tests.
func WithFS(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithBackend substitutes the index backend.
func WithBackend(b index.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithCompression selects the artifact section codec.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithArchive configures a blobstore the artifact set is uploaded to after a
// successful build.
func WithArchive(store blobstore.Store) Option {
	return func(o *options) {
		o.archive = store
	}
}

// WithMemoryLimit caps the backend's working memory in bytes.
// Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit caps artifact write throughput in bytes per second.
// Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithWorkers bounds parallel construction. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
