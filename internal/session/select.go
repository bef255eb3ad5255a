package session

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/dgallion1/pdfdancer/internal/selection"
)

const (
	typesParagraph = "PARAGRAPH"
	typesTextLine  = "TEXT_LINE"
)

// SelectParagraphs returns every paragraph in the document. When the
// snapshot has none, or any paragraph lacks text, it asks /pdf/find instead.
func (s *Session) SelectParagraphs(ctx context.Context) ([]*model.TextRef, error) {
	return s.selectText(ctx, typesParagraph, model.KindParagraph)
}

func (s *Session) SelectTextLines(ctx context.Context) ([]*model.TextRef, error) {
	return s.selectText(ctx, typesTextLine, model.KindTextLine)
}

func (s *Session) selectText(ctx context.Context, types string, kind model.ObjectKind) ([]*model.TextRef, error) {
	refs, err := Elements[*model.TextRef](ctx, s, types)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 || anyMissingText(refs) {
		s.log.Debug("snapshot text incomplete, using find", "kind", kind, "snapshot_count", len(refs))
		found, err := s.Find(ctx, kind, nil)
		if err != nil {
			return nil, err
		}
		refs, err = selection.Project[*model.TextRef](&model.TypedPageSnapshot{Variant: model.VariantText, Elements: found})
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", kind, err)
		}
	}
	return withKind(refs, kind), nil
}

// SelectParagraphsStartingWith filters SelectParagraphs by prefix, ignoring
// case.
func (s *Session) SelectParagraphsStartingWith(ctx context.Context, prefix string) ([]*model.TextRef, error) {
	refs, err := s.SelectParagraphs(ctx)
	if err != nil {
		return nil, err
	}
	return selection.Texts(refs, prefix), nil
}

// SelectParagraphsAt returns paragraphs on page n containing (x, y).
func (s *Session) SelectParagraphsAt(ctx context.Context, n int, x, y, eps float64) ([]*model.TextRef, error) {
	p, err := s.Page(n)
	if err != nil {
		return nil, err
	}
	return p.ParagraphsAt(ctx, x, y, eps)
}

func (s *Session) SelectImages(ctx context.Context) ([]model.Ref, error) {
	doc, err := s.DocumentSnapshot(ctx, "")
	if err != nil {
		return nil, err
	}
	images := selection.CollectByKind(doc, model.KindImage)
	if len(images) == 0 {
		return s.Find(ctx, model.KindImage, nil)
	}
	return images, nil
}

func (s *Session) SelectPaths(ctx context.Context) ([]model.Ref, error) {
	doc, err := s.DocumentSnapshot(ctx, "")
	if err != nil {
		return nil, err
	}
	return selection.CollectByKind(doc, model.KindPath), nil
}

// SelectFormXObjects falls back to /pdf/find when the snapshot has none or
// none of them is positioned.
func (s *Session) SelectFormXObjects(ctx context.Context) ([]model.Ref, error) {
	doc, err := s.DocumentSnapshot(ctx, "")
	if err != nil {
		return nil, err
	}
	forms := selection.CollectByKind(doc, model.KindFormXObject)
	if len(forms) == 0 || nonePositioned(forms) {
		return s.Find(ctx, model.KindFormXObject, nil)
	}
	return forms, nil
}

// SelectFormFields queries each form field kind separately and reports each
// field under the kind it was found with.
func (s *Session) SelectFormFields(ctx context.Context) ([]*model.FormFieldRef, error) {
	var out []*model.FormFieldRef
	for _, kind := range selection.FormFieldKinds {
		refs, err := Elements[*model.FormFieldRef](ctx, s, string(kind))
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			if adjusted := selection.AdjustFormFieldKind(r, kind); adjusted != nil {
				out = append(out, adjusted)
			}
		}
	}
	return out, nil
}

func (s *Session) SelectFormFieldsByName(ctx context.Context, name string) ([]*model.FormFieldRef, error) {
	fields, err := s.SelectFormFields(ctx)
	if err != nil {
		return nil, err
	}
	return filterByName(fields, name), nil
}

// SelectElements returns every element, preferring /pdf/find when it knows
// more elements than the snapshot.
func (s *Session) SelectElements(ctx context.Context) ([]model.Ref, error) {
	found, err := s.Find(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	doc, err := s.DocumentSnapshot(ctx, "")
	if err != nil {
		return nil, err
	}
	elements := selection.CollectAll(doc)
	if len(found) > len(elements) {
		return found, nil
	}
	return elements, nil
}

// Page is a view of one page. Its selectors read the page snapshot.
type Page struct {
	s      *Session
	number int
}

// Page returns the view of page n (1-based).
func (s *Session) Page(n int) (*Page, error) {
	if _, err := pageIndex(n); err != nil {
		return nil, err
	}
	return &Page{s: s, number: n}, nil
}

func (p *Page) Number() int { return p.number }

func (p *Page) Snapshot(ctx context.Context, types string) (*model.PageSnapshot, error) {
	return p.s.PageSnapshot(ctx, p.number, types)
}

func (p *Page) Ref(ctx context.Context) (*model.PageRef, error) {
	return p.s.PageRef(ctx, p.number)
}

func (p *Page) Paragraphs(ctx context.Context) ([]*model.TextRef, error) {
	return p.text(ctx, typesParagraph, model.KindParagraph)
}

func (p *Page) TextLines(ctx context.Context) ([]*model.TextRef, error) {
	return p.text(ctx, typesTextLine, model.KindTextLine)
}

func (p *Page) text(ctx context.Context, types string, kind model.ObjectKind) ([]*model.TextRef, error) {
	refs, err := PageElements[*model.TextRef](ctx, p.s, p.number, types)
	if err != nil {
		return nil, err
	}
	return withKind(refs, kind), nil
}

func (p *Page) ParagraphsStartingWith(ctx context.Context, prefix string) ([]*model.TextRef, error) {
	refs, err := p.Paragraphs(ctx)
	if err != nil {
		return nil, err
	}
	return selection.Texts(refs, prefix), nil
}

func (p *Page) ParagraphsAt(ctx context.Context, x, y, eps float64) ([]*model.TextRef, error) {
	refs, err := p.Paragraphs(ctx)
	if err != nil {
		return nil, err
	}
	return selection.At(refs, x, y, eps), nil
}

// ParagraphsMatching returns paragraphs whose whole text matches pattern.
// "." also matches newlines.
func (p *Page) ParagraphsMatching(ctx context.Context, pattern string) ([]*model.TextRef, error) {
	re, err := regexp.Compile(`(?s)^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	refs, err := p.Paragraphs(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.TextRef
	for _, r := range refs {
		if r.Text != nil && re.MatchString(*r.Text) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *Page) TextLinesStartingWith(ctx context.Context, prefix string) ([]*model.TextRef, error) {
	refs, err := p.TextLines(ctx)
	if err != nil {
		return nil, err
	}
	return selection.Texts(refs, prefix), nil
}

func (p *Page) TextLinesAt(ctx context.Context, x, y, eps float64) ([]*model.TextRef, error) {
	refs, err := p.TextLines(ctx)
	if err != nil {
		return nil, err
	}
	return selection.At(refs, x, y, eps), nil
}

func (p *Page) Images(ctx context.Context) ([]model.Ref, error) {
	return p.byKind(ctx, model.KindImage)
}

func (p *Page) Paths(ctx context.Context) ([]model.Ref, error) {
	return p.byKind(ctx, model.KindPath)
}

// PathsAt asks the service for paths under the point (x, y).
func (p *Page) PathsAt(ctx context.Context, x, y float64) ([]model.Ref, error) {
	return p.s.Find(ctx, model.KindPath, model.AtPageCoordinates(p.number, x, y))
}

func (p *Page) Elements(ctx context.Context) ([]model.Ref, error) {
	snap, err := p.Snapshot(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []model.Ref
	for _, el := range snap.Elements {
		if model.KindOf(el) != "" {
			out = append(out, el)
		}
	}
	return out, nil
}

func (p *Page) byKind(ctx context.Context, kinds ...model.ObjectKind) ([]model.Ref, error) {
	snap, err := p.Snapshot(ctx, "")
	if err != nil {
		return nil, err
	}
	return selection.CollectPageByKind(snap, kinds...), nil
}

func (p *Page) FormFields(ctx context.Context) ([]*model.FormFieldRef, error) {
	var out []*model.FormFieldRef
	for _, kind := range selection.FormFieldKinds {
		refs, err := PageElements[*model.FormFieldRef](ctx, p.s, p.number, string(kind))
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			if adjusted := selection.AdjustFormFieldKind(r, kind); adjusted != nil {
				out = append(out, adjusted)
			}
		}
	}
	return out, nil
}

func (p *Page) FormFieldsByName(ctx context.Context, name string) ([]*model.FormFieldRef, error) {
	fields, err := p.FormFields(ctx)
	if err != nil {
		return nil, err
	}
	return filterByName(fields, name), nil
}

// Delete removes this page from the document.
func (p *Page) Delete(ctx context.Context) (bool, error) {
	return p.s.DeletePage(ctx, p.number)
}

func anyMissingText(refs []*model.TextRef) bool {
	for _, r := range refs {
		if r.Text == nil {
			return true
		}
	}
	return false
}

func nonePositioned(refs []model.Ref) bool {
	for _, r := range refs {
		if r == nil {
			return true
		}
		if _, _, ok := r.Base().Position.XY(); ok {
			return false
		}
	}
	return true
}

// withKind fills in Type on refs the service sent without one. Refs that
// already carry a type are returned as is.
func withKind(refs []*model.TextRef, kind model.ObjectKind) []*model.TextRef {
	for i, r := range refs {
		if r.Type == "" {
			c := *r
			c.Type = kind
			refs[i] = &c
		}
	}
	return refs
}

func filterByName(fields []*model.FormFieldRef, name string) []*model.FormFieldRef {
	var out []*model.FormFieldRef
	for _, f := range fields {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}
