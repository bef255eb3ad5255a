package model

// ObjectKind is the discriminator value carried by every reference on the wire.
type ObjectKind string

const (
	KindPDF         ObjectKind = "PDF"
	KindPage        ObjectKind = "PAGE"
	KindParagraph   ObjectKind = "PARAGRAPH"
	KindTextLine    ObjectKind = "TEXT_LINE"
	KindTextElement ObjectKind = "TEXT_ELEMENT"
	KindWord        ObjectKind = "WORD"
	KindImage       ObjectKind = "IMAGE"
	KindPath        ObjectKind = "PATH"
	KindLine        ObjectKind = "LINE"
	KindRectangle   ObjectKind = "RECTANGLE"
	KindBezier      ObjectKind = "BEZIER"
	KindClipping    ObjectKind = "CLIPPING"
	KindFormXObject ObjectKind = "FORM_X_OBJECT"
	KindFormField   ObjectKind = "FORM_FIELD"
	KindTextField   ObjectKind = "TEXT_FIELD"
	KindCheckbox    ObjectKind = "CHECKBOX"
	KindRadioButton ObjectKind = "RADIO_BUTTON"
	KindButton      ObjectKind = "BUTTON"
	KindDropdown    ObjectKind = "DROPDOWN"

	// KindTextElementLegacy is the lower-camel spelling older servers emit.
	KindTextElementLegacy ObjectKind = "textElement"
)

func (k ObjectKind) String() string { return string(k) }

// IsFormField reports whether k names an interactive form field.
func (k ObjectKind) IsFormField() bool {
	switch k {
	case KindFormField, KindTextField, KindCheckbox, KindRadioButton, KindButton, KindDropdown:
		return true
	}
	return false
}

// IsText reports whether k names a text-bearing element.
func (k ObjectKind) IsText() bool {
	switch k {
	case KindParagraph, KindTextLine, KindTextElement, KindTextElementLegacy:
		return true
	}
	return false
}

// Variant identifies which Go type a reference decodes into. It is the
// runtime descriptor used for typed snapshots.
type Variant string

const (
	VariantPage      Variant = "page"
	VariantText      Variant = "text"
	VariantFormField Variant = "form_field"
	VariantObject    Variant = "object"
)

func (v Variant) String() string { return string(v) }

// VariantOf returns the descriptor for the reference type T, or "" when T is
// an interface type such as Ref itself.
func VariantOf[T Ref]() Variant {
	var zero T
	if any(zero) == nil {
		return ""
	}
	return zero.Variant()
}
