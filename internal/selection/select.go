package selection

import (
	"strings"

	"github.com/dgallion1/pdfdancer/internal/model"
	"golang.org/x/text/cases"
)

// DefaultEpsilon is the tolerance, in points, for point hit tests.
const DefaultEpsilon = 0.01

// FormFieldKinds are the form type filters the service understands.
var FormFieldKinds = []model.ObjectKind{
	model.KindTextField,
	model.KindCheckbox,
	model.KindRadioButton,
	model.KindDropdown,
}

// ContainsPoint reports whether (x, y) lies within the reference's bounding
// rectangle grown by eps on every side.
func ContainsPoint(r model.Ref, x, y, eps float64) bool {
	if r == nil {
		return false
	}
	pos := r.Base().Position
	if pos == nil || pos.BoundingRect == nil {
		return false
	}
	rect := pos.BoundingRect
	return x >= rect.X-eps && x <= rect.X+rect.Width+eps &&
		y >= rect.Y-eps && y <= rect.Y+rect.Height+eps
}

// StartsWithFold reports whether value starts with prefix, ignoring case.
func StartsWithFold(value, prefix string) bool {
	fold := cases.Fold()
	return strings.HasPrefix(fold.String(value), fold.String(prefix))
}

// CollectAll returns every element of every page, skipping elements with no
// kind.
func CollectAll(doc *model.DocumentSnapshot) []model.Ref {
	if doc == nil {
		return nil
	}
	var out []model.Ref
	for i := range doc.Pages {
		for _, el := range doc.Pages[i].Elements {
			if model.KindOf(el) != "" {
				out = append(out, el)
			}
		}
	}
	return out
}

// CollectByKind returns the document's elements whose kind is one of kinds.
func CollectByKind(doc *model.DocumentSnapshot, kinds ...model.ObjectKind) []model.Ref {
	if doc == nil {
		return nil
	}
	var out []model.Ref
	for i := range doc.Pages {
		out = appendByKind(out, &doc.Pages[i], kinds)
	}
	return out
}

// CollectPageByKind is CollectByKind for a single page.
func CollectPageByKind(page *model.PageSnapshot, kinds ...model.ObjectKind) []model.Ref {
	return appendByKind(nil, page, kinds)
}

func appendByKind(out []model.Ref, page *model.PageSnapshot, kinds []model.ObjectKind) []model.Ref {
	if page == nil {
		return out
	}
	for _, el := range page.Elements {
		k := model.KindOf(el)
		if k == "" {
			continue
		}
		for _, want := range kinds {
			if k == want {
				out = append(out, el)
				break
			}
		}
	}
	return out
}

// AdjustFormFieldKind returns ref with Type set to the form kind it was
// fetched under. ObjectRefType is kept as sent. The original ref is not
// modified.
func AdjustFormFieldKind(ref *model.FormFieldRef, kind model.ObjectKind) *model.FormFieldRef {
	if ref == nil {
		return nil
	}
	if kind == "" || kind == ref.Type {
		return ref
	}
	adjusted := *ref
	adjusted.Type = kind
	return &adjusted
}

// Texts filters text references whose content starts with prefix, ignoring
// case. An empty prefix keeps everything.
func Texts(refs []*model.TextRef, prefix string) []*model.TextRef {
	if prefix == "" {
		return refs
	}
	var out []*model.TextRef
	for _, r := range refs {
		if r.Text != nil && StartsWithFold(*r.Text, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// At filters references containing the point (x, y).
func At[T model.Ref](refs []T, x, y, eps float64) []T {
	var out []T
	for _, r := range refs {
		if ContainsPoint(r, x, y, eps) {
			out = append(out, r)
		}
	}
	return out
}
