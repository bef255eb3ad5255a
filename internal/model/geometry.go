package model

type ShapeType string

const (
	ShapePoint  ShapeType = "POINT"
	ShapeLine   ShapeType = "LINE"
	ShapeCircle ShapeType = "CIRCLE"
	ShapeRect   ShapeType = "RECT"
)

type PositionMode string

const (
	ModeIntersect PositionMode = "INTERSECT"
	ModeContains  PositionMode = "CONTAINS"
)

// BoundingRect is an axis-aligned rectangle in PDF user space.
type BoundingRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position locates an element or describes a search area. PageNumber is
// 1-based, matching the service's public numbering.
type Position struct {
	Name           string        `json:"name,omitempty"`
	PageNumber     *int          `json:"pageNumber,omitempty"`
	Shape          ShapeType     `json:"shape,omitempty"`
	Mode           PositionMode  `json:"mode,omitempty"`
	BoundingRect   *BoundingRect `json:"boundingRect,omitempty"`
	TextStartsWith string        `json:"textStartsWith,omitempty"`
	TextPattern    string        `json:"textPattern,omitempty"`
}

// AtPage returns a position covering a whole page.
func AtPage(pageNumber int) *Position {
	return &Position{PageNumber: &pageNumber, Mode: ModeContains}
}

// AtPageCoordinates returns a point position on a page.
func AtPageCoordinates(pageNumber int, x, y float64) *Position {
	p := AtPage(pageNumber)
	p.Shape = ShapePoint
	p.BoundingRect = &BoundingRect{X: x, Y: y}
	return p
}

// ByName returns a position that matches elements by name only.
func ByName(name string) *Position {
	return &Position{Name: name}
}

// XY returns the rectangle origin, or ok=false when the position has none.
func (p *Position) XY() (x, y float64, ok bool) {
	if p == nil || p.BoundingRect == nil {
		return 0, 0, false
	}
	return p.BoundingRect.X, p.BoundingRect.Y, true
}

// Copy returns a deep copy of p.
func (p *Position) Copy() *Position {
	if p == nil {
		return nil
	}
	c := *p
	if p.PageNumber != nil {
		n := *p.PageNumber
		c.PageNumber = &n
	}
	if p.BoundingRect != nil {
		r := *p.BoundingRect
		c.BoundingRect = &r
	}
	return &c
}

// Color is an RGBA color with 0-255 channels.
type Color struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
	Alpha int `json:"alpha"`
}

var (
	Black = Color{Alpha: 255}
	White = Color{Red: 255, Green: 255, Blue: 255, Alpha: 255}
)

// RGB returns an opaque color.
func RGB(r, g, b int) Color {
	return Color{Red: r, Green: g, Blue: b, Alpha: 255}
}

type Orientation string

const (
	Portrait  Orientation = "PORTRAIT"
	Landscape Orientation = "LANDSCAPE"
)

// PageSize is a named page size in points.
type PageSize struct {
	Name   string  `json:"name,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	PageA0      = PageSize{Name: "A0", Width: 2384, Height: 3370}
	PageA1      = PageSize{Name: "A1", Width: 1684, Height: 2384}
	PageA2      = PageSize{Name: "A2", Width: 1191, Height: 1684}
	PageA3      = PageSize{Name: "A3", Width: 842, Height: 1191}
	PageA4      = PageSize{Name: "A4", Width: 595, Height: 842}
	PageA5      = PageSize{Name: "A5", Width: 420, Height: 595}
	PageA6      = PageSize{Name: "A6", Width: 298, Height: 420}
	PageB4      = PageSize{Name: "B4", Width: 709, Height: 1001}
	PageB5      = PageSize{Name: "B5", Width: 499, Height: 709}
	PageLetter  = PageSize{Name: "LETTER", Width: 612, Height: 792}
	PageLegal   = PageSize{Name: "LEGAL", Width: 612, Height: 1008}
	PageTabloid = PageSize{Name: "TABLOID", Width: 792, Height: 1224}
)

var pageSizesByName = map[string]PageSize{
	"A0": PageA0, "A1": PageA1, "A2": PageA2, "A3": PageA3, "A4": PageA4,
	"A5": PageA5, "A6": PageA6, "B4": PageB4, "B5": PageB5,
	"LETTER": PageLetter, "LEGAL": PageLegal, "TABLOID": PageTabloid,
}

// PageSizeByName looks up a standard page size, case-sensitively.
func PageSizeByName(name string) (PageSize, bool) {
	ps, ok := pageSizesByName[name]
	return ps, ok
}
