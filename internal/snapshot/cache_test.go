package snapshot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages int
	calls []string
	err   error
}

func (f *fakeFetcher) page(i int) model.PageSnapshot {
	n := i + 1
	text := fmt.Sprintf("page %d", n)
	return model.PageSnapshot{
		PageRef: &model.PageRef{BaseRef: model.BaseRef{
			InternalID: fmt.Sprintf("page-%d", n),
			Type:       model.KindPage,
			Position:   model.AtPage(n),
		}},
		Elements: []model.Ref{&model.TextRef{
			BaseRef: model.BaseRef{InternalID: fmt.Sprintf("p-%d", n), Type: model.KindParagraph},
			Text:    &text,
		}},
	}
}

func (f *fakeFetcher) FetchDocument(_ context.Context, types string) (*model.DocumentSnapshot, error) {
	f.calls = append(f.calls, "document:"+types)
	if f.err != nil {
		return nil, f.err
	}
	doc := &model.DocumentSnapshot{PageCount: f.pages}
	for i := 0; i < f.pages; i++ {
		doc.Pages = append(doc.Pages, f.page(i))
	}
	return doc, nil
}

func (f *fakeFetcher) FetchPage(_ context.Context, pageIndex int, types string) (*model.PageSnapshot, error) {
	f.calls = append(f.calls, fmt.Sprintf("page:%d:%s", pageIndex, types))
	if f.err != nil {
		return nil, f.err
	}
	p := f.page(pageIndex)
	return &p, nil
}

func (f *fakeFetcher) FetchTypedDocument(_ context.Context, v model.Variant, types string) (*model.TypedDocumentSnapshot, error) {
	f.calls = append(f.calls, fmt.Sprintf("typed-document:%s:%s", v, types))
	if f.err != nil {
		return nil, f.err
	}
	doc := &model.TypedDocumentSnapshot{Variant: v, PageCount: f.pages}
	for i := 0; i < f.pages; i++ {
		p := f.page(i)
		doc.Pages = append(doc.Pages, model.TypedPageSnapshot{Variant: v, PageRef: p.PageRef, Elements: p.Elements})
	}
	return doc, nil
}

func (f *fakeFetcher) FetchTypedPage(_ context.Context, pageIndex int, v model.Variant, types string) (*model.TypedPageSnapshot, error) {
	f.calls = append(f.calls, fmt.Sprintf("typed-page:%d:%s:%s", pageIndex, v, types))
	if f.err != nil {
		return nil, f.err
	}
	p := f.page(pageIndex)
	return &model.TypedPageSnapshot{Variant: v, PageRef: p.PageRef, Elements: p.Elements}, nil
}

func TestCache_DocumentSeedsPages(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 4}
	c := New(f)

	doc, err := c.Document(ctx, "")
	require.NoError(t, err)

	for i := range doc.Pages {
		p, err := c.Page(ctx, i, "")
		require.NoError(t, err)
		assert.Same(t, &doc.Pages[i], p)
	}
	assert.Len(t, f.calls, 1)
}

func TestCache_SeedingUsesNormalizedFilter(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 2}
	c := New(f)

	_, err := c.Document(ctx, "image, paragraph")
	require.NoError(t, err)
	_, err = c.Page(ctx, 1, " PARAGRAPH,Image ")
	require.NoError(t, err)

	assert.Len(t, f.calls, 1)
}

func TestCache_PageDoesNotSeedDocument(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 3}
	c := New(f)

	_, err := c.Page(ctx, 0, "")
	require.NoError(t, err)
	_, err = c.Document(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"page:0:", "document:"}, f.calls)
}

func TestCache_HitServesSameValue(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 1}
	c := New(f)

	first, err := c.Document(ctx, "PATH")
	require.NoError(t, err)
	second, err := c.Document(ctx, "path")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, f.calls, 1)
}

func TestCache_FiltersAreSeparateKeys(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 1}
	c := New(f)

	_, err := c.Document(ctx, "PATH")
	require.NoError(t, err)
	_, err = c.Document(ctx, "IMAGE")
	require.NoError(t, err)
	_, err = c.Page(ctx, 0, "")
	require.NoError(t, err)

	assert.Len(t, f.calls, 3)
}

func TestCache_InvalidateRefetchesOncePerKey(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 2}
	c := New(f)

	_, err := c.Document(ctx, "")
	require.NoError(t, err)
	_, err = c.TypedDocument(ctx, model.VariantText, "PARAGRAPH")
	require.NoError(t, err)
	require.Len(t, f.calls, 2)

	c.Invalidate()
	assert.Equal(t, Stats{}, c.Stats())

	_, err = c.Page(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, f.calls, 3)
	_, err = c.Page(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, f.calls, 3)

	_, err = c.TypedPage(ctx, 0, model.VariantText, "PARAGRAPH")
	require.NoError(t, err)
	assert.Len(t, f.calls, 4)
}

func TestCache_FailedFetchWritesNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	f := &fakeFetcher{pages: 2, err: boom}
	c := New(f)

	_, err := c.Document(ctx, "")
	assert.ErrorIs(t, err, boom)
	_, err = c.Page(ctx, 0, "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Stats{}, c.Stats())

	f.err = nil
	_, err = c.Document(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"document:", "page:0:", "document:"}, f.calls)
}

func TestCache_TypedDocumentSeedsTypedPages(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 3}
	c := New(f)

	doc, err := c.TypedDocument(ctx, model.VariantText, "PARAGRAPH")
	require.NoError(t, err)

	p, err := c.TypedPage(ctx, 2, model.VariantText, "paragraph")
	require.NoError(t, err)
	assert.Same(t, &doc.Pages[2], p)

	// A different variant is a different key.
	_, err = c.TypedPage(ctx, 2, model.VariantFormField, "PARAGRAPH")
	require.NoError(t, err)
	assert.Len(t, f.calls, 2)

	// Typed fetches never seed the untyped maps.
	_, err = c.Page(ctx, 2, "PARAGRAPH")
	require.NoError(t, err)
	assert.Len(t, f.calls, 3)
}

func TestCache_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{pages: 3}
	c := New(f)

	doc, err := c.Document(ctx, "PARAGRAPH")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)

	third, err := c.Page(ctx, 2, "PARAGRAPH")
	require.NoError(t, err)
	assert.Same(t, &doc.Pages[2], third)
	assert.Equal(t, "page-3", third.PageRef.InternalID)
	assert.Len(t, f.calls, 1)

	c.Invalidate()
	_, err = c.Page(ctx, 2, "PARAGRAPH")
	require.NoError(t, err)
	assert.Equal(t, []string{"document:PARAGRAPH", "page:2:PARAGRAPH"}, f.calls)
}

func TestCache_PassesRawFilterToFetcher(t *testing.T) {
	f := &fakeFetcher{pages: 1}
	c := New(f)
	_, err := c.Document(context.Background(), " image ,path")
	require.NoError(t, err)
	assert.Equal(t, []string{"document: image ,path"}, f.calls)
}
