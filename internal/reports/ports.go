// Package reports defines the outbound ports for settlement reporting.
package reports

import (
	"context"

	"splitbook/internal/core"
)

// Document is a rendered report ready to be served as a download.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Generator renders a fully hydrated settlement into a document.
type Generator interface {
	Generate(ctx context.Context, s *core.Settlement) (*Document, error)
}

// RowMirror appends settlement rows to an external spreadsheet. The worker
// uses it; the HTTP layer never talks to it directly.
type RowMirror interface {
	AppendSettlement(ctx context.Context, s *core.Settlement) (rowRef string, err error)
}
