package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/dgallion1/pdfdancer/internal/decode"
	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/dgallion1/pdfdancer/internal/pdfinfo"
	"github.com/dgallion1/pdfdancer/internal/selection"
)

func (s *Session) DocumentSnapshot(ctx context.Context, types string) (*model.DocumentSnapshot, error) {
	return s.cache.Document(ctx, types)
}

// PageSnapshot returns page n (1-based).
func (s *Session) PageSnapshot(ctx context.Context, n int, types string) (*model.PageSnapshot, error) {
	idx, err := pageIndex(n)
	if err != nil {
		return nil, err
	}
	return s.cache.Page(ctx, idx, types)
}

func (s *Session) TypedDocumentSnapshot(ctx context.Context, v model.Variant, types string) (*model.TypedDocumentSnapshot, error) {
	return s.cache.TypedDocument(ctx, v, types)
}

func (s *Session) TypedPageSnapshot(ctx context.Context, n int, v model.Variant, types string) (*model.TypedPageSnapshot, error) {
	idx, err := pageIndex(n)
	if err != nil {
		return nil, err
	}
	return s.cache.TypedPage(ctx, idx, v, types)
}

// Elements returns every element of the document filtered by types, as T.
// A document holding any element that is not a T fails with
// selection.ErrHeterogeneousCollection.
func Elements[T model.Ref](ctx context.Context, s *Session, types string) ([]T, error) {
	doc, err := s.TypedDocumentSnapshot(ctx, model.VariantOf[T](), types)
	if err != nil {
		return nil, err
	}
	return selection.FlattenTyped[T](doc)
}

// PageElements is Elements for page n.
func PageElements[T model.Ref](ctx context.Context, s *Session, n int, types string) ([]T, error) {
	page, err := s.TypedPageSnapshot(ctx, n, model.VariantOf[T](), types)
	if err != nil {
		return nil, err
	}
	return selection.Project[T](page)
}

// Pages lists every page reference in order.
func (s *Session) Pages(ctx context.Context) ([]*model.PageRef, error) {
	body, err := s.client.DoJSON(ctx, http.MethodPost, "/pdf/page/find", s.id, nil)
	if err != nil {
		return nil, fmt.Errorf("find pages: %w", err)
	}
	return decode.PageRefs(body)
}

// PageRef returns the reference of page n (1-based).
func (s *Session) PageRef(ctx context.Context, n int) (*model.PageRef, error) {
	if _, err := pageIndex(n); err != nil {
		return nil, err
	}
	body, err := s.client.DoJSON(ctx, http.MethodPost, "/pdf/page/find?pageNumber="+strconv.Itoa(n), s.id, nil)
	if err != nil {
		return nil, fmt.Errorf("find page %d: %w", n, err)
	}
	pages, err := decode.PageRefs(body)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrPageNotFound, n)
	}
	return pages[0], nil
}

type findRequest struct {
	ObjectType model.ObjectKind `json:"objectType,omitempty"`
	Position   *model.Position  `json:"position,omitempty"`
	Hint       string           `json:"hint,omitempty"`
}

// Find asks the service for elements of kind within pos. An empty kind or a
// nil position does not constrain the search.
func (s *Session) Find(ctx context.Context, kind model.ObjectKind, pos *model.Position) ([]model.Ref, error) {
	body, err := s.client.DoJSON(ctx, http.MethodPost, "/pdf/find", s.id, findRequest{ObjectType: kind, Position: pos})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return decode.References(body)
}

// Bytes downloads the current document.
func (s *Session) Bytes(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, "/session/"+url.PathEscape(s.id)+"/pdf", s.id)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	if _, err := pdfinfo.Inspect(data); err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	return data, nil
}

// Save writes the current document to path.
func (s *Session) Save(ctx context.Context, path string) error {
	data, err := s.Bytes(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save pdf: %w", err)
	}
	s.log.Info("pdf saved", "path", path, "bytes", len(data))
	return nil
}

// FindFonts returns the service's fonts matching name, at size.
func (s *Session) FindFonts(ctx context.Context, name string, size float64) ([]model.Font, error) {
	body, err := s.client.Get(ctx, "/font/find?fontName="+url.QueryEscape(name), s.id)
	if err != nil {
		return nil, fmt.Errorf("find fonts %q: %w", name, err)
	}
	var names []string
	if err := decode.Value(body, &names); err != nil {
		return nil, err
	}
	fonts := make([]model.Font, 0, len(names))
	for _, n := range names {
		fonts = append(fonts, model.Font{Name: n, Size: size})
	}
	return fonts, nil
}
