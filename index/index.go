// Package index defines the backend capability the construction pipeline
// drives. The pipeline stays tier-agnostic: it selects dimensions once and
// hands the backend a runtime descriptor instead of specializing per width.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seqgo/seqgo/collection"
	"github.com/seqgo/seqgo/params"
)

// Algorithm names a suffix-array construction strategy.
type Algorithm int

const (
	// AlgorithmParallel is the default; it uses multiple workers and more
	// transient memory.
	AlgorithmParallel Algorithm = iota
	// AlgorithmSequential trades speed for a smaller peak footprint.
	AlgorithmSequential
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmParallel:
		return "parallel"
	case AlgorithmSequential:
		return "sequential"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps a user-facing name to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "parallel":
		return AlgorithmParallel, nil
	case "sequential":
		return AlgorithmSequential, nil
	default:
		return 0, fmt.Errorf("index: unknown algorithm %q", s)
	}
}

// ErrOutOfMemory is returned by a backend whose working memory reservation
// cannot be granted. It is the one construction failure with a standard
// remedy, so callers single it out.
var ErrOutOfMemory = errors.New("index: construction exceeded the memory budget")

// Stats describes a built generation.
type Stats struct {
	TextLength       uint64 // symbols plus sentinels
	SampledPositions uint64 // suffix-array entries kept after sampling
	Reverse          bool
}

// Generation is one built index generation. It is opaque to the pipeline;
// only the backend that built it can persist it.
type Generation interface {
	Stats() Stats
}

// Backend builds and persists index generations.
type Backend interface {
	// Build constructs a generation over the collection. The collection's
	// orientation (forward or reversed) is taken from the collection itself.
	Build(ctx context.Context, c *collection.Collection, dims params.Dimensions) (Generation, error)

	// Persist writes the generation to path.
	Persist(ctx context.Context, gen Generation, path string) error

	// DiscardAuxiliary drops side tables that the reverse generation's
	// consumers never read (the sampled coordinate pairs and their
	// indicator bitmap), shrinking the persisted file.
	DiscardAuxiliary(gen Generation)
}
