package resource

import (
	"context"
	"io"
)

// ThrottledWriter wraps an io.Writer with the controller's I/O limit.
type ThrottledWriter struct {
	w   io.Writer
	rc  *Controller
	ctx context.Context
}

// NewThrottledWriter creates a throttled writer. With a nil controller it
// passes writes through untouched.
func NewThrottledWriter(ctx context.Context, w io.Writer, rc *Controller) *ThrottledWriter {
	return &ThrottledWriter{w: w, rc: rc, ctx: ctx}
}

func (t *ThrottledWriter) Write(p []byte) (int, error) {
	if err := t.rc.AcquireIO(t.ctx, len(p)); err != nil {
		return 0, err
	}
	return t.w.Write(p)
}
