// Package selection narrows and filters snapshot contents.
package selection

import (
	"errors"
	"fmt"

	"github.com/dgallion1/pdfdancer/internal/model"
)

var ErrHeterogeneousCollection = errors.New("heterogeneous collection")

// HeterogeneousCollectionError reports the first element that does not
// belong to the requested variant.
type HeterogeneousCollectionError struct {
	Expected model.Variant
	Actual   model.Variant
	Kind     model.ObjectKind
	Index    int
}

func (e *HeterogeneousCollectionError) Error() string {
	return fmt.Sprintf("heterogeneous collection: element %d is %s (%s), expected %s", e.Index, e.Actual, e.Kind, e.Expected)
}

func (e *HeterogeneousCollectionError) Unwrap() error { return ErrHeterogeneousCollection }

// Project returns the page's elements as T, in page order. It fails on the
// first element that is not a T; nothing is dropped or converted.
func Project[T model.Ref](page *model.TypedPageSnapshot) ([]T, error) {
	if page == nil || len(page.Elements) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(page.Elements))
	for i, el := range page.Elements {
		t, ok := el.(T)
		if !ok {
			e := &HeterogeneousCollectionError{Expected: model.VariantOf[T](), Index: i}
			if el != nil {
				e.Actual = el.Variant()
				e.Kind = model.KindOf(el)
			}
			return nil, e
		}
		out = append(out, t)
	}
	return out, nil
}

// FlattenTyped projects every page of doc and concatenates the results.
func FlattenTyped[T model.Ref](doc *model.TypedDocumentSnapshot) ([]T, error) {
	if doc == nil {
		return nil, nil
	}
	var out []T
	for i := range doc.Pages {
		elems, err := Project[T](&doc.Pages[i])
		if err != nil {
			return nil, fmt.Errorf("page index %d: %w", i, err)
		}
		out = append(out, elems...)
	}
	return out, nil
}
