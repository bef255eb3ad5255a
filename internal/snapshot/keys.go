package snapshot

import "github.com/dgallion1/pdfdancer/internal/model"

// Cache keys. Types is always the output of NormalizeTypes and PageIndex is
// 0-based.

type DocumentKey struct {
	Types string
}

type PageKey struct {
	PageIndex int
	Types     string
}

type TypedDocumentKey struct {
	Variant model.Variant
	Types   string
}

type TypedPageKey struct {
	PageIndex int
	Variant   model.Variant
	Types     string
}
