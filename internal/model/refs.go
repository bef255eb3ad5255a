package model

// Ref is a located element in a document. The set of implementations is
// closed: *PageRef, *TextRef, *FormFieldRef and *ObjectRef.
type Ref interface {
	Base() *BaseRef
	Variant() Variant
	isRef()
}

// BaseRef holds the fields shared by every reference. Type and ObjectRefType
// carry the same discriminator under its two wire names; they are kept as
// decoded, even when they disagree.
type BaseRef struct {
	InternalID    string     `json:"internalId"`
	Position      *Position  `json:"position,omitempty"`
	Type          ObjectKind `json:"type,omitempty"`
	ObjectRefType ObjectKind `json:"objectRefType,omitempty"`
}

func (b *BaseRef) Base() *BaseRef { return b }

func (*BaseRef) isRef() {}

// Kind returns the element kind, preferring Type.
func (b *BaseRef) Kind() ObjectKind {
	if b.Type != "" {
		return b.Type
	}
	return b.ObjectRefType
}

// ObjectRef is a reference without variant-specific fields: paths, images
// and form XObjects.
type ObjectRef struct {
	BaseRef
}

func (*ObjectRef) Variant() Variant { return VariantObject }

// PageRef references a page.
type PageRef struct {
	BaseRef
	PageSize    *PageSize   `json:"pageSize,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
}

func (*PageRef) Variant() Variant { return VariantPage }

// PageNumber returns the 1-based page number from the position, or 0.
func (p *PageRef) PageNumber() int {
	if p.Position == nil || p.Position.PageNumber == nil {
		return 0
	}
	return *p.Position.PageNumber
}

// TextRef references a paragraph, text line or text element.
type TextRef struct {
	BaseRef
	FontName     string      `json:"fontName,omitempty"`
	FontSize     *float64    `json:"fontSize,omitempty"`
	Text         *string     `json:"text,omitempty"`
	LineSpacings []float64   `json:"lineSpacings,omitempty"`
	Color        *Color      `json:"color,omitempty"`
	Status       *TextStatus `json:"status,omitempty"`
	Children     []*TextRef  `json:"children,omitempty"`
}

func (*TextRef) Variant() Variant { return VariantText }

// Content returns the text, or "" when the server sent none.
func (t *TextRef) Content() string {
	if t.Text == nil {
		return ""
	}
	return *t.Text
}

// FormFieldRef references an interactive form field.
type FormFieldRef struct {
	BaseRef
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

func (*FormFieldRef) Variant() Variant { return VariantFormField }

// KindOf returns the kind of any reference, or "" for nil.
func KindOf(r Ref) ObjectKind {
	if r == nil {
		return ""
	}
	return r.Base().Kind()
}
