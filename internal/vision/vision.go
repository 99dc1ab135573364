// Package vision answers questions about a screenshot.
package vision

import "context"

// Describer answers a question about one screenshot. The answer is
// delivered through emit in display order, one chunk at a time; a
// non-nil error from emit aborts the stream.
type Describer interface {
	Name() string
	Describe(ctx context.Context, question string, imagePNG []byte, emit func(chunk string) error) error
}
