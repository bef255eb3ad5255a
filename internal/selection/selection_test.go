package selection

import (
	"testing"

	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formField(id string) *model.FormFieldRef {
	return &model.FormFieldRef{BaseRef: model.BaseRef{InternalID: id, Type: model.KindFormField, ObjectRefType: model.KindFormField}}
}

func image(id string) *model.ObjectRef {
	return &model.ObjectRef{BaseRef: model.BaseRef{InternalID: id, Type: model.KindImage, ObjectRefType: model.KindImage}}
}

func paragraph(id, text string, rect *model.BoundingRect) *model.TextRef {
	return &model.TextRef{
		BaseRef: model.BaseRef{
			InternalID: id,
			Type:       model.KindParagraph,
			Position:   &model.Position{BoundingRect: rect},
		},
		Text: &text,
	}
}

func TestProject_RejectsHeterogeneousPage(t *testing.T) {
	page := &model.TypedPageSnapshot{
		Variant:  model.VariantFormField,
		Elements: []model.Ref{formField("a"), formField("b"), image("c")},
	}

	got, err := Project[*model.FormFieldRef](page)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrHeterogeneousCollection)

	var herr *HeterogeneousCollectionError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, model.VariantFormField, herr.Expected)
	assert.Equal(t, model.VariantObject, herr.Actual)
	assert.Equal(t, model.KindImage, herr.Kind)
	assert.Equal(t, 2, herr.Index)
	assert.Contains(t, err.Error(), "IMAGE")
}

func TestProject_PreservesOrder(t *testing.T) {
	a, b, c := formField("a"), formField("b"), formField("c")
	page := &model.TypedPageSnapshot{Elements: []model.Ref{c, a, b}}

	got, err := Project[*model.FormFieldRef](page)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Same(t, c, got[0])
	assert.Same(t, a, got[1])
	assert.Same(t, b, got[2])
}

func TestProject_EmptyPage(t *testing.T) {
	got, err := Project[*model.TextRef](&model.TypedPageSnapshot{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Project[*model.TextRef](nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFlattenTyped_NamesPage(t *testing.T) {
	doc := &model.TypedDocumentSnapshot{Pages: []model.TypedPageSnapshot{
		{Elements: []model.Ref{formField("a")}},
		{Elements: []model.Ref{formField("b"), image("i")}},
	}}
	_, err := FlattenTyped[*model.FormFieldRef](doc)
	require.ErrorIs(t, err, ErrHeterogeneousCollection)
	assert.Contains(t, err.Error(), "page index 1")

	doc.Pages[1].Elements = doc.Pages[1].Elements[:1]
	got, err := FlattenTyped[*model.FormFieldRef](doc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].InternalID)
	assert.Equal(t, "b", got[1].InternalID)
}

func TestContainsPoint(t *testing.T) {
	p := paragraph("p", "x", &model.BoundingRect{X: 10, Y: 20, Width: 100, Height: 10})

	assert.True(t, ContainsPoint(p, 10, 20, 0))
	assert.True(t, ContainsPoint(p, 110, 30, 0))
	assert.False(t, ContainsPoint(p, 110.005, 30, 0))
	assert.True(t, ContainsPoint(p, 110.005, 30, DefaultEpsilon))
	assert.True(t, ContainsPoint(p, 9.995, 19.995, DefaultEpsilon))
	assert.False(t, ContainsPoint(p, 9.98, 25, DefaultEpsilon))

	noRect := paragraph("q", "x", nil)
	assert.False(t, ContainsPoint(noRect, 0, 0, 1))
	assert.False(t, ContainsPoint(nil, 0, 0, 1))
}

func TestStartsWithFold(t *testing.T) {
	assert.True(t, StartsWithFold("Invoice No. 42", "invoice"))
	assert.True(t, StartsWithFold("ÉCOLE normale", "école"))
	assert.True(t, StartsWithFold("anything", ""))
	assert.False(t, StartsWithFold("Total", "subtotal"))
}

func TestCollectByKind(t *testing.T) {
	doc := &model.DocumentSnapshot{Pages: []model.PageSnapshot{
		{Elements: []model.Ref{image("i1"), paragraph("p1", "a", nil)}},
		{Elements: []model.Ref{&model.ObjectRef{BaseRef: model.BaseRef{InternalID: "path", Type: model.KindPath}}, image("i2")}},
		{Elements: []model.Ref{&model.ObjectRef{BaseRef: model.BaseRef{InternalID: "untyped"}}}},
	}}

	images := CollectByKind(doc, model.KindImage)
	require.Len(t, images, 2)
	assert.Equal(t, "i1", images[0].Base().InternalID)
	assert.Equal(t, "i2", images[1].Base().InternalID)

	both := CollectByKind(doc, model.KindImage, model.KindPath)
	assert.Len(t, both, 3)

	assert.Len(t, CollectPageByKind(&doc.Pages[0], model.KindParagraph), 1)
	assert.Len(t, CollectAll(doc), 4)
	assert.Nil(t, CollectByKind(nil, model.KindImage))
}

func TestAdjustFormFieldKind(t *testing.T) {
	ref := formField("f")

	adjusted := AdjustFormFieldKind(ref, model.KindCheckbox)
	assert.Equal(t, model.KindCheckbox, adjusted.Type)
	assert.Equal(t, model.KindFormField, adjusted.ObjectRefType)
	assert.Equal(t, model.KindFormField, ref.Type)

	assert.Same(t, ref, AdjustFormFieldKind(ref, model.KindFormField))
	assert.Nil(t, AdjustFormFieldKind(nil, model.KindCheckbox))
}

func TestTextsAndAt(t *testing.T) {
	refs := []*model.TextRef{
		paragraph("a", "Hello world", &model.BoundingRect{X: 0, Y: 0, Width: 10, Height: 10}),
		paragraph("b", "goodbye", &model.BoundingRect{X: 50, Y: 50, Width: 10, Height: 10}),
		{BaseRef: model.BaseRef{InternalID: "c"}},
	}
	got := Texts(refs, "HELLO")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].InternalID)
	assert.Len(t, Texts(refs, ""), 3)

	hit := At(refs, 55, 55, DefaultEpsilon)
	require.Len(t, hit, 1)
	assert.Equal(t, "b", hit[0].InternalID)
}

func TestProject_NilElementAsInterface(t *testing.T) {
	page := &model.TypedPageSnapshot{Elements: []model.Ref{image("a"), nil}}

	var (
		got []model.Ref
		err error
	)
	require.NotPanics(t, func() { got, err = Project[model.Ref](page) })
	assert.Nil(t, got)

	var herr *HeterogeneousCollectionError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, 1, herr.Index)
	assert.Equal(t, model.Variant(""), herr.Expected)
}
