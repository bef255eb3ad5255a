// Package snapshot caches the four snapshot views of a session's document.
package snapshot

import (
	"context"

	"github.com/dgallion1/pdfdancer/internal/model"
)

// Fetcher performs the round trip for each snapshot shape. The types
// argument is the filter exactly as the caller supplied it.
type Fetcher interface {
	FetchDocument(ctx context.Context, types string) (*model.DocumentSnapshot, error)
	FetchPage(ctx context.Context, pageIndex int, types string) (*model.PageSnapshot, error)
	FetchTypedDocument(ctx context.Context, v model.Variant, types string) (*model.TypedDocumentSnapshot, error)
	FetchTypedPage(ctx context.Context, pageIndex int, v model.Variant, types string) (*model.TypedPageSnapshot, error)
}

// Cache holds snapshots until the next Invalidate. A document fetch also
// fills the page entries for the same filter; a page fetch never fills the
// document entry.
//
// Cache is not safe for concurrent use.
type Cache struct {
	fetcher Fetcher

	documents      map[DocumentKey]*model.DocumentSnapshot
	pages          map[PageKey]*model.PageSnapshot
	typedDocuments map[TypedDocumentKey]*model.TypedDocumentSnapshot
	typedPages     map[TypedPageKey]*model.TypedPageSnapshot
}

func New(f Fetcher) *Cache {
	c := &Cache{fetcher: f}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.documents = make(map[DocumentKey]*model.DocumentSnapshot)
	c.pages = make(map[PageKey]*model.PageSnapshot)
	c.typedDocuments = make(map[TypedDocumentKey]*model.TypedDocumentSnapshot)
	c.typedPages = make(map[TypedPageKey]*model.TypedPageSnapshot)
}

// Document returns the document snapshot for types.
func (c *Cache) Document(ctx context.Context, types string) (*model.DocumentSnapshot, error) {
	norm := NormalizeTypes(types)
	key := DocumentKey{Types: norm}
	if doc, ok := c.documents[key]; ok {
		return doc, nil
	}
	doc, err := c.fetcher.FetchDocument(ctx, types)
	if err != nil {
		return nil, err
	}
	c.documents[key] = doc
	for i := range doc.Pages {
		c.pages[PageKey{PageIndex: i, Types: norm}] = &doc.Pages[i]
	}
	return doc, nil
}

// Page returns the snapshot of the page at pageIndex (0-based).
func (c *Cache) Page(ctx context.Context, pageIndex int, types string) (*model.PageSnapshot, error) {
	key := PageKey{PageIndex: pageIndex, Types: NormalizeTypes(types)}
	if p, ok := c.pages[key]; ok {
		return p, nil
	}
	p, err := c.fetcher.FetchPage(ctx, pageIndex, types)
	if err != nil {
		return nil, err
	}
	c.pages[key] = p
	return p, nil
}

// TypedDocument returns the document snapshot decoded for variant v.
func (c *Cache) TypedDocument(ctx context.Context, v model.Variant, types string) (*model.TypedDocumentSnapshot, error) {
	norm := NormalizeTypes(types)
	key := TypedDocumentKey{Variant: v, Types: norm}
	if doc, ok := c.typedDocuments[key]; ok {
		return doc, nil
	}
	doc, err := c.fetcher.FetchTypedDocument(ctx, v, types)
	if err != nil {
		return nil, err
	}
	c.typedDocuments[key] = doc
	for i := range doc.Pages {
		c.typedPages[TypedPageKey{PageIndex: i, Variant: v, Types: norm}] = &doc.Pages[i]
	}
	return doc, nil
}

// TypedPage returns the page snapshot decoded for variant v.
func (c *Cache) TypedPage(ctx context.Context, pageIndex int, v model.Variant, types string) (*model.TypedPageSnapshot, error) {
	key := TypedPageKey{PageIndex: pageIndex, Variant: v, Types: NormalizeTypes(types)}
	if p, ok := c.typedPages[key]; ok {
		return p, nil
	}
	p, err := c.fetcher.FetchTypedPage(ctx, pageIndex, v, types)
	if err != nil {
		return nil, err
	}
	c.typedPages[key] = p
	return p, nil
}

// Invalidate drops every cached view.
func (c *Cache) Invalidate() {
	c.reset()
}

// Stats reports how many entries each view holds.
type Stats struct {
	Documents      int `json:"documents"`
	Pages          int `json:"pages"`
	TypedDocuments int `json:"typed_documents"`
	TypedPages     int `json:"typed_pages"`
}

func (c *Cache) Stats() Stats {
	return Stats{
		Documents:      len(c.documents),
		Pages:          len(c.pages),
		TypedDocuments: len(c.typedDocuments),
		TypedPages:     len(c.typedPages),
	}
}
