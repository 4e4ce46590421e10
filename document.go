package rowdex

import "github.com/rowdex/rowdex/internal/model"

// Document is an ordered name→JSON-value mapping. The type lives in internal/model so the engine, projector, and hooks
// packages can all produce and consume it without importing this root
// package; it is aliased here as part of the public API.
type Document = model.Document

// NewDocument returns an empty ordered document.
func NewDocument() *Document {
	return model.NewDocument()
}
