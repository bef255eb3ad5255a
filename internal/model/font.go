package model

import "fmt"

type FontType string

const (
	FontSystem   FontType = "SYSTEM"
	FontStandard FontType = "STANDARD"
	FontEmbedded FontType = "EMBEDDED"
)

// Font names a font at a size in points.
type Font struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// DocumentFont maps a font used in the document to the system font the
// service substitutes for it.
type DocumentFont struct {
	DocumentFontName string `json:"documentFontName"`
	SystemFontName   string `json:"systemFontName,omitempty"`
}

type FontRecommendation struct {
	FontName        string   `json:"fontName"`
	FontType        FontType `json:"fontType"`
	SimilarityScore float64  `json:"similarityScore"`
}

// TextStatus describes how text was rendered after an edit.
type TextStatus struct {
	Modified  bool          `json:"modified"`
	Encodable bool          `json:"encodable"`
	FontType  FontType      `json:"fontType,omitempty"`
	FontInfo  *DocumentFont `json:"fontInfo,omitempty"`
}

const embeddedFontNote = "https://docs.pdfdancer.com/notes/embedded-font-warning"

// Warning returns a user-facing warning for the status, or "".
func (s *TextStatus) Warning() string {
	if s == nil {
		return ""
	}
	if !s.Encodable && s.FontInfo != nil {
		return fmt.Sprintf("text is not encodable with the current font, using %q as a fallback font instead", s.FontInfo.SystemFontName)
	}
	if s.Modified && s.FontType == FontEmbedded {
		if s.FontInfo != nil && s.FontInfo.SystemFontName != "" {
			return ""
		}
		return "modified text uses an embedded font; rendering of the new text is not guaranteed, see " + embeddedFontNote
	}
	return ""
}
