package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantOf_ResolvesWithoutValue(t *testing.T) {
	assert.Equal(t, VariantText, VariantOf[*TextRef]())
	assert.Equal(t, VariantPage, VariantOf[*PageRef]())
	assert.Equal(t, VariantFormField, VariantOf[*FormFieldRef]())
	assert.Equal(t, VariantObject, VariantOf[*ObjectRef]())
}

func TestBaseRef_KindPrefersType(t *testing.T) {
	b := BaseRef{Type: KindParagraph, ObjectRefType: KindTextLine}
	assert.Equal(t, KindParagraph, b.Kind())

	b = BaseRef{ObjectRefType: KindImage}
	assert.Equal(t, KindImage, b.Kind())
}

func TestPosition_CopyIsDeep(t *testing.T) {
	p := AtPageCoordinates(2, 10, 20)
	c := p.Copy()
	*c.PageNumber = 5
	c.BoundingRect.X = 99

	require.NotNil(t, p.PageNumber)
	assert.Equal(t, 2, *p.PageNumber)
	assert.Equal(t, 10.0, p.BoundingRect.X)
}

func TestTextStatus_Warning(t *testing.T) {
	tests := []struct {
		name   string
		status *TextStatus
		empty  bool
	}{
		{"nil", nil, true},
		{"clean", &TextStatus{Encodable: true}, true},
		{"fallback font", &TextStatus{FontInfo: &DocumentFont{SystemFontName: "Helvetica"}}, false},
		{"embedded modified", &TextStatus{Modified: true, Encodable: true, FontType: FontEmbedded}, false},
		{"embedded with system font", &TextStatus{Modified: true, Encodable: true, FontType: FontEmbedded, FontInfo: &DocumentFont{SystemFontName: "Arial"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.status.Warning()
			if tt.empty {
				assert.Empty(t, got)
			} else {
				assert.NotEmpty(t, got)
			}
		})
	}
}

func TestObjectKind_Classification(t *testing.T) {
	assert.True(t, KindCheckbox.IsFormField())
	assert.True(t, KindDropdown.IsFormField())
	assert.False(t, KindImage.IsFormField())
	assert.True(t, KindTextElementLegacy.IsText())
	assert.False(t, KindPath.IsText())
}

func TestVariantOf_InterfaceIsEmpty(t *testing.T) {
	require.NotPanics(t, func() { VariantOf[Ref]() })
	assert.Equal(t, Variant(""), VariantOf[Ref]())
}
