// Package decode turns service responses into model values. Every body that
// can contain references is reconciled before it is decoded.
package decode

import (
	"errors"
	"fmt"

	"github.com/dgallion1/pdfdancer/internal/model"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrUnrecognizedVariant means a reference carries no discriminator under
	// either name, or one outside the known set.
	ErrUnrecognizedVariant = errors.New("unrecognized reference variant")

	// ErrMalformedShape means the discriminator was found but the remaining
	// fields do not fit the variant.
	ErrMalformedShape = errors.New("malformed shape")
)

type refDecoder func(path string, node map[string]any) (model.Ref, error)

// decoderFor is the fixed dispatch table from kind to variant decoder. It is
// a switch rather than a package map because decodeText recurses into ref.
func decoderFor(kind model.ObjectKind) (refDecoder, bool) {
	switch kind {
	case model.KindParagraph, model.KindTextLine, model.KindTextElement, model.KindTextElementLegacy:
		return decodeText, true
	case model.KindPage:
		return decodePage, true
	case model.KindFormField, model.KindTextField, model.KindCheckbox,
		model.KindRadioButton, model.KindButton, model.KindDropdown:
		return decodeFormField, true
	case model.KindPath, model.KindImage, model.KindFormXObject:
		return decodeObject, true
	}
	return nil, false
}

// Tree parses body into a generic tree and reconciles it.
func Tree(body []byte) (any, error) {
	var tree any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return Reconcile(tree), nil
}

// Value decodes a body that carries no references.
func Value(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Reference decodes a single reference.
func Reference(body []byte) (model.Ref, error) {
	tree, err := Tree(body)
	if err != nil {
		return nil, err
	}
	return ref("$", tree)
}

// References decodes a JSON array of references.
func References(body []byte) ([]model.Ref, error) {
	tree, err := Tree(body)
	if err != nil {
		return nil, err
	}
	return refList("$", tree)
}

// PageRefs decodes a JSON array of page references.
func PageRefs(body []byte) ([]*model.PageRef, error) {
	refs, err := References(body)
	if err != nil {
		return nil, err
	}
	pages := make([]*model.PageRef, 0, len(refs))
	for i, r := range refs {
		p, ok := r.(*model.PageRef)
		if !ok {
			return nil, fmt.Errorf("%w: $[%d] is %s, want %s", ErrMalformedShape, i, r.Variant(), model.VariantPage)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// Document decodes a document snapshot.
func Document(body []byte) (*model.DocumentSnapshot, error) {
	tree, err := Tree(body)
	if err != nil {
		return nil, err
	}
	return document("$", tree)
}

// Page decodes a page snapshot.
func Page(body []byte) (*model.PageSnapshot, error) {
	tree, err := Tree(body)
	if err != nil {
		return nil, err
	}
	return page("$", tree)
}

// TypedDocument decodes a document snapshot requested for variant v.
func TypedDocument(body []byte, v model.Variant) (*model.TypedDocumentSnapshot, error) {
	doc, err := Document(body)
	if err != nil {
		return nil, err
	}
	typed := &model.TypedDocumentSnapshot{
		Variant:   v,
		PageCount: doc.PageCount,
		Fonts:     doc.Fonts,
		Pages:     make([]model.TypedPageSnapshot, len(doc.Pages)),
	}
	for i, p := range doc.Pages {
		typed.Pages[i] = typedPage(p, v)
	}
	return typed, nil
}

// TypedPage decodes a page snapshot requested for variant v.
func TypedPage(body []byte, v model.Variant) (*model.TypedPageSnapshot, error) {
	p, err := Page(body)
	if err != nil {
		return nil, err
	}
	tp := typedPage(*p, v)
	return &tp, nil
}

func typedPage(p model.PageSnapshot, v model.Variant) model.TypedPageSnapshot {
	return model.TypedPageSnapshot{
		Variant:  v,
		PageRef:  p.PageRef,
		Elements: p.Elements,
		Fonts:    p.Fonts,
	}
}

type documentWire struct {
	PageCount int                  `json:"pageCount"`
	Fonts     []model.DocumentFont `json:"fonts"`
	Pages     []any                `json:"pages"`
}

func document(path string, node any) (*model.DocumentSnapshot, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: document is %s, want object", ErrMalformedShape, path, jsonKind(node))
	}
	pages := m["pages"]
	var w documentWire
	if err := remarshal(without(m, "pages"), &w); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, path, err)
	}
	list, err := array(path+".pages", pages)
	if err != nil {
		return nil, err
	}
	doc := &model.DocumentSnapshot{
		PageCount: w.PageCount,
		Fonts:     w.Fonts,
		Pages:     make([]model.PageSnapshot, 0, len(list)),
	}
	for i, pn := range list {
		p, err := page(fmt.Sprintf("%s.pages[%d]", path, i), pn)
		if err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, *p)
	}
	return doc, nil
}

type pageWire struct {
	Fonts []model.DocumentFont `json:"fonts"`
}

func page(path string, node any) (*model.PageSnapshot, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: page is %s, want object", ErrMalformedShape, path, jsonKind(node))
	}
	var w pageWire
	if err := remarshal(without(m, "pageRef", "elements"), &w); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, path, err)
	}
	ps := &model.PageSnapshot{Fonts: w.Fonts}

	if pr := m["pageRef"]; pr != nil {
		r, err := ref(path+".pageRef", pr)
		if err != nil {
			return nil, err
		}
		p, ok := r.(*model.PageRef)
		if !ok {
			return nil, fmt.Errorf("%w: %s.pageRef is %s, want %s", ErrMalformedShape, path, r.Variant(), model.VariantPage)
		}
		ps.PageRef = p
	}

	elements, err := refList(path+".elements", m["elements"])
	if err != nil {
		return nil, err
	}
	ps.Elements = elements
	return ps, nil
}

func refList(path string, node any) ([]model.Ref, error) {
	list, err := array(path, node)
	if err != nil {
		return nil, err
	}
	refs := make([]model.Ref, 0, len(list))
	for i, n := range list {
		// Null entries carry no element.
		if n == nil {
			continue
		}
		r, err := ref(fmt.Sprintf("%s[%d]", path, i), n)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

func ref(path string, node any) (model.Ref, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: reference is %s, want object", ErrMalformedShape, path, jsonKind(node))
	}
	kind, err := discriminator(path, m)
	if err != nil {
		return nil, err
	}
	dec, ok := decoderFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown kind %q", ErrUnrecognizedVariant, path, kind)
	}
	return dec(path, m)
}

// discriminator reads objectRefType first, then type.
func discriminator(path string, m map[string]any) (model.ObjectKind, error) {
	for _, field := range []string{refTypeField, typeField} {
		v, ok := m[field]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%w: %s.%s is %s, want string", ErrMalformedShape, path, field, jsonKind(v))
		}
		if s != "" {
			return model.ObjectKind(s), nil
		}
	}
	return "", fmt.Errorf("%w: %s: no %q or %q field", ErrUnrecognizedVariant, path, typeField, refTypeField)
}

func decodeObject(path string, m map[string]any) (model.Ref, error) {
	r := &model.ObjectRef{}
	if err := remarshal(m, r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, path, err)
	}
	return r, nil
}

func decodePage(path string, m map[string]any) (model.Ref, error) {
	r := &model.PageRef{}
	if err := remarshal(m, r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, path, err)
	}
	return r, nil
}

func decodeFormField(path string, m map[string]any) (model.Ref, error) {
	r := &model.FormFieldRef{}
	if err := remarshal(m, r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, path, err)
	}
	return r, nil
}

func decodeText(path string, m map[string]any) (model.Ref, error) {
	r := &model.TextRef{}
	if err := remarshal(without(m, "children"), r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, path, err)
	}
	children, err := array(path+".children", m["children"])
	if err != nil {
		return nil, err
	}
	for i, cn := range children {
		cpath := fmt.Sprintf("%s.children[%d]", path, i)
		c, err := ref(cpath, cn)
		if err != nil {
			return nil, err
		}
		tc, ok := c.(*model.TextRef)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %s, want %s", ErrMalformedShape, cpath, c.Variant(), model.VariantText)
		}
		r.Children = append(r.Children, tc)
	}
	return r, nil
}

// array accepts a JSON array or null.
func array(path string, node any) ([]any, error) {
	if node == nil {
		return nil, nil
	}
	list, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want array", ErrMalformedShape, path, jsonKind(node))
	}
	return list, nil
}

func remarshal(node any, v any) error {
	b, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// without returns a shallow copy of m minus the given keys.
func without(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
