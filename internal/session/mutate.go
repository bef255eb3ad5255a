package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/pdfdancer/internal/decode"
	"github.com/dgallion1/pdfdancer/internal/imageinfo"
	"github.com/dgallion1/pdfdancer/internal/markup"
	"github.com/dgallion1/pdfdancer/internal/model"
)

const (
	DefaultLineSpacing = 1.2
	DefaultFontName    = "Helvetica"
	DefaultFontSize    = 12.0
	DefaultReplacement = "[REDACTED]"
)

type moveRequest struct {
	ObjectRef   model.Ref       `json:"objectRef"`
	NewPosition *model.Position `json:"newPosition"`
}

type deleteRequest struct {
	ObjectRef model.Ref `json:"objectRef"`
}

type modifyTextRequest struct {
	Ref         model.Ref `json:"ref"`
	NewTextLine string    `json:"newTextLine"`
}

type changeFormFieldRequest struct {
	Ref   *model.FormFieldRef `json:"ref"`
	Value string              `json:"value"`
}

type addRequest struct {
	Object any `json:"object"`
}

type movePageRequest struct {
	FromPageIndex int `json:"fromPageIndex"`
	ToPageIndex   int `json:"toPageIndex"`
}

type addPageRequest struct {
	PageIndex   *int              `json:"pageIndex,omitempty"`
	Orientation model.Orientation `json:"orientation,omitempty"`
	PageSize    *model.PageSize   `json:"pageSize,omitempty"`
}

type redactTarget struct {
	ID          string `json:"id"`
	Replacement string `json:"replacement,omitempty"`
}

type redactRequest struct {
	Targets            []redactTarget `json:"targets"`
	DefaultReplacement string         `json:"defaultReplacement"`
	PlaceholderColor   model.Color    `json:"placeholderColor"`
}

// mutateBool sends a mutation whose response is a JSON boolean. The cache is
// invalidated only when the service answers true.
func (s *Session) mutateBool(ctx context.Context, op, method, path string, body any) (bool, error) {
	resp, err := s.client.DoJSON(ctx, method, path, s.id, body)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	var ok bool
	if err := decode.Value(resp, &ok); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		s.cache.Invalidate()
	}
	s.log.Debug("mutation", "op", op, "ok", ok)
	return ok, nil
}

func (s *Session) mutateCommand(ctx context.Context, op, path string, body any) (*model.CommandResult, error) {
	resp, err := s.client.DoJSON(ctx, http.MethodPut, path, s.id, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result model.CommandResult
	if err := decode.Value(resp, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if result.Success {
		s.cache.Invalidate()
	}
	if result.Warning != "" {
		s.log.Warn("text modified with warning", "op", op, "element_id", result.ElementID, "warning", result.Warning)
	}
	return &result, nil
}

// Delete removes ref from the document.
func (s *Session) Delete(ctx context.Context, ref model.Ref) (bool, error) {
	if ref == nil {
		return false, errors.New("delete: nil reference")
	}
	return s.mutateBool(ctx, "delete", http.MethodDelete, "/pdf/delete", deleteRequest{ObjectRef: ref})
}

// Move places ref at pos.
func (s *Session) Move(ctx context.Context, ref model.Ref, pos *model.Position) (bool, error) {
	if ref == nil {
		return false, errors.New("move: nil reference")
	}
	if pos == nil {
		return false, fmt.Errorf("move: %w", ErrPositionRequired)
	}
	return s.mutateBool(ctx, "move", http.MethodPut, "/pdf/move", moveRequest{ObjectRef: ref, NewPosition: pos})
}

// MoveTo moves ref to (x, y) on its own page.
func (s *Session) MoveTo(ctx context.Context, ref model.Ref, x, y float64) (bool, error) {
	if ref == nil {
		return false, errors.New("move: nil reference")
	}
	page := 1
	if pos := ref.Base().Position; pos != nil && pos.PageNumber != nil {
		page = *pos.PageNumber
	}
	return s.Move(ctx, ref, model.AtPageCoordinates(page, x, y))
}

func (s *Session) ModifyParagraphText(ctx context.Context, ref *model.TextRef, text string) (*model.CommandResult, error) {
	return s.mutateCommand(ctx, "modify paragraph", "/pdf/text/paragraph", modifyTextRequest{Ref: ref, NewTextLine: text})
}

func (s *Session) ModifyTextLine(ctx context.Context, ref *model.TextRef, text string) (*model.CommandResult, error) {
	return s.mutateCommand(ctx, "modify text line", "/pdf/text/line", modifyTextRequest{Ref: ref, NewTextLine: text})
}

func (s *Session) ChangeFormField(ctx context.Context, ref *model.FormFieldRef, value string) (bool, error) {
	if ref == nil {
		return false, errors.New("change form field: nil reference")
	}
	return s.mutateBool(ctx, "change form field", http.MethodPut, "/pdf/modify/formField", changeFormFieldRequest{Ref: ref, Value: value})
}

// ParagraphSpec describes a paragraph to add. Position must carry a page and
// coordinates; zero fields take the package defaults.
type ParagraphSpec struct {
	Text        string
	Font        model.Font
	Color       *model.Color
	LineSpacing float64
	Position    *model.Position
}

type textElement struct {
	Text     string          `json:"text"`
	Font     model.Font      `json:"font"`
	Color    model.Color     `json:"color"`
	Position *model.Position `json:"position,omitempty"`
}

type textLine struct {
	Text         string          `json:"text"`
	Color        model.Color     `json:"color"`
	FontName     string          `json:"fontName"`
	FontSize     float64         `json:"fontSize"`
	Position     *model.Position `json:"position,omitempty"`
	TextElements []textElement   `json:"textElements"`
}

type paragraphObject struct {
	Type         model.ObjectKind `json:"type"`
	Position     *model.Position  `json:"position"`
	Font         model.Font       `json:"font"`
	LineSpacings []float64        `json:"lineSpacings"`
	Lines        []textLine       `json:"lines"`
}

type imageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type imageObject struct {
	Type     model.ObjectKind `json:"type"`
	Format   string           `json:"format"`
	Size     imageSize        `json:"size"`
	Data     []byte           `json:"data"`
	Position *model.Position  `json:"position"`
}

func (spec ParagraphSpec) withDefaults() ParagraphSpec {
	if spec.Font.Name == "" {
		spec.Font.Name = DefaultFontName
	}
	if spec.Font.Size <= 0 {
		spec.Font.Size = DefaultFontSize
	}
	if spec.LineSpacing <= 0 {
		spec.LineSpacing = DefaultLineSpacing
	}
	if spec.Color == nil {
		black := model.Black
		spec.Color = &black
	}
	return spec
}

// buildParagraph splits the text into lines, each one baseline further from
// the paragraph origin.
func buildParagraph(spec ParagraphSpec) (paragraphObject, error) {
	if spec.Position == nil {
		return paragraphObject{}, ErrPositionRequired
	}
	if strings.TrimSpace(spec.Text) == "" {
		return paragraphObject{}, errors.New("paragraph text is empty")
	}
	spec = spec.withDefaults()

	obj := paragraphObject{
		Type:     model.KindParagraph,
		Position: spec.Position,
		Font:     spec.Font,
	}
	baseline := spec.Font.Size * spec.LineSpacing
	lines := strings.Split(spec.Text, "\n")
	for i, line := range lines {
		pos := linePosition(spec.Position, i, baseline)
		obj.Lines = append(obj.Lines, textLine{
			Text:     line,
			Color:    *spec.Color,
			FontName: spec.Font.Name,
			FontSize: spec.Font.Size,
			Position: pos,
			TextElements: []textElement{{
				Text:     line,
				Font:     spec.Font,
				Color:    *spec.Color,
				Position: pos,
			}},
		})
		if i < len(lines)-1 {
			obj.LineSpacings = append(obj.LineSpacings, spec.LineSpacing)
		}
	}
	return obj, nil
}

func linePosition(origin *model.Position, index int, baseline float64) *model.Position {
	pos := origin.Copy()
	x, y, ok := origin.XY()
	if !ok {
		x, y = 0, 0
	}
	pos.Shape = model.ShapePoint
	pos.BoundingRect = &model.BoundingRect{X: x, Y: y + float64(index)*baseline}
	return pos
}

// AddParagraph adds a new paragraph.
func (s *Session) AddParagraph(ctx context.Context, spec ParagraphSpec) (bool, error) {
	obj, err := buildParagraph(spec)
	if err != nil {
		return false, fmt.Errorf("add paragraph: %w", err)
	}
	return s.mutateBool(ctx, "add paragraph", http.MethodPost, "/pdf/add", addRequest{Object: obj})
}

var headingScale = map[int]float64{1: 1.6, 2: 1.4, 3: 1.2}

// AddParagraphs adds one paragraph per Markdown block, starting at
// base.Position and leaving one blank line between blocks. Headings are set
// larger than body text. It returns how many paragraphs were added.
func (s *Session) AddParagraphs(ctx context.Context, markdown string, base ParagraphSpec) (int, error) {
	if base.Position == nil {
		return 0, fmt.Errorf("add paragraphs: %w", ErrPositionRequired)
	}
	base = base.withDefaults()
	x, y, _ := base.Position.XY()

	added := 0
	for _, block := range markup.Blocks([]byte(markdown)) {
		spec := base
		if scale, ok := headingScale[block.Level]; ok {
			spec.Font.Size = base.Font.Size * scale
		}
		spec.Text = block.Text
		spec.Position = base.Position.Copy()
		spec.Position.Shape = model.ShapePoint
		spec.Position.BoundingRect = &model.BoundingRect{X: x, Y: y}

		ok, err := s.AddParagraph(ctx, spec)
		if err != nil {
			return added, err
		}
		if !ok {
			return added, fmt.Errorf("add paragraphs: service rejected block %d", added+1)
		}
		added++
		lines := strings.Count(block.Text, "\n") + 1
		y += float64(lines+1) * spec.Font.Size * spec.LineSpacing
	}
	return added, nil
}

// ImageSpec describes an image to add.
type ImageSpec struct {
	Data     []byte
	Position *model.Position
}

// AddImage adds an image. The format and pixel size are read from Data.
func (s *Session) AddImage(ctx context.Context, spec ImageSpec) (bool, error) {
	if spec.Position == nil {
		return false, fmt.Errorf("add image: %w", ErrPositionRequired)
	}
	info, err := imageinfo.Detect(spec.Data)
	if err != nil {
		return false, fmt.Errorf("add image: %w", err)
	}
	obj := imageObject{
		Type:     model.KindImage,
		Format:   info.Format,
		Size:     imageSize{Width: info.Width, Height: info.Height},
		Data:     spec.Data,
		Position: spec.Position,
	}
	return s.mutateBool(ctx, "add image", http.MethodPost, "/pdf/add", addRequest{Object: obj})
}

// AddPageOptions describes a page to insert. A nil Index appends.
type AddPageOptions struct {
	Index       *int
	Orientation model.Orientation
	PageSize    *model.PageSize
}

// AddPage inserts a page and returns its reference.
func (s *Session) AddPage(ctx context.Context, opts AddPageOptions) (*model.PageRef, error) {
	req := addPageRequest{PageIndex: opts.Index, Orientation: opts.Orientation, PageSize: opts.PageSize}
	resp, err := s.client.DoJSON(ctx, http.MethodPost, "/pdf/page/add", s.id, req)
	if err != nil {
		return nil, fmt.Errorf("add page: %w", err)
	}
	ref, err := decode.Reference(resp)
	if err != nil {
		return nil, fmt.Errorf("add page: %w", err)
	}
	page, ok := ref.(*model.PageRef)
	if !ok {
		return nil, fmt.Errorf("add page: %w: got %s", decode.ErrMalformedShape, ref.Variant())
	}
	s.cache.Invalidate()
	return page, nil
}

// DeletePage removes page n (1-based).
func (s *Session) DeletePage(ctx context.Context, n int) (bool, error) {
	ref, err := s.PageRef(ctx, n)
	if err != nil {
		return false, err
	}
	return s.mutateBool(ctx, "delete page", http.MethodDelete, "/pdf/page/delete", ref)
}

// MovePage moves page from to position to, both 1-based. The service takes
// the numbers as sent.
func (s *Session) MovePage(ctx context.Context, from, to int) (bool, error) {
	if from < 1 {
		return false, fmt.Errorf("move page: from: %w", ErrInvalidPageNumber)
	}
	if to < 1 {
		return false, fmt.Errorf("move page: to: %w", ErrInvalidPageNumber)
	}
	return s.mutateBool(ctx, "move page", http.MethodPut, "/pdf/page/move", movePageRequest{FromPageIndex: from, ToPageIndex: to})
}

// RedactOptions controls how redacted content is replaced.
type RedactOptions struct {
	// Replacement replaces redacted text. Defaults to DefaultReplacement.
	Replacement string
	// PlaceholderColor fills redacted images and paths. Defaults to black.
	PlaceholderColor *model.Color
}

// Redact removes the content of refs.
func (s *Session) Redact(ctx context.Context, refs []model.Ref, opts RedactOptions) (*model.RedactResponse, error) {
	req := redactRequest{
		DefaultReplacement: opts.Replacement,
		PlaceholderColor:   model.Black,
	}
	for _, r := range refs {
		if r != nil {
			req.Targets = append(req.Targets, redactTarget{ID: r.Base().InternalID})
		}
	}
	if len(req.Targets) == 0 {
		return nil, ErrNothingToRedact
	}
	if req.DefaultReplacement == "" {
		req.DefaultReplacement = DefaultReplacement
	}
	if opts.PlaceholderColor != nil {
		req.PlaceholderColor = *opts.PlaceholderColor
	}

	resp, err := s.client.DoJSON(ctx, http.MethodPost, "/pdf/redact", s.id, req)
	if err != nil {
		return nil, fmt.Errorf("redact: %w", err)
	}
	var result model.RedactResponse
	if err := decode.Value(resp, &result); err != nil {
		return nil, fmt.Errorf("redact: %w", err)
	}
	if result.Success {
		s.cache.Invalidate()
	}
	for _, w := range result.Warnings {
		s.log.Warn("redaction warning", "warning", w)
	}
	return &result, nil
}
