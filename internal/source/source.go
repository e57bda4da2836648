package source

import (
	"context"
	"folio/internal/domain/content"
	domainerr "folio/internal/domain/errors"
	"folio/internal/schema"
)

// ErrNotFound is returned by Load when no unit has the identifier.
var ErrNotFound = domainerr.ErrNotFound

// Unit is one content unit as a source exposes it: raw front matter plus
// whatever body the adapter could attach.
type Unit struct {
	ID   string
	Meta map[string]any
	Body content.Body
	// Text is the body prose used for reading time estimation.
	Text string
	Hash string
	// Err is set when the unit exists but could not be decoded.
	Err error
}

// Source is the content capability the blog repository consumes.
// Enumerate returns units in lexical ID order.
type Source interface {
	Enumerate(ctx context.Context) ([]Unit, error)
	Load(ctx context.Context, id string) (Unit, error)
}

// ValidID reports whether id can name a unit. Adapters treat anything else as
// not found instead of building a path or key from it.
func ValidID(id string) bool {
	return schema.IsSlug(id)
}
