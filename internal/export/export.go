// Package export renders a document outline as Markdown, HTML or DOCX.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/pdfdancer/internal/outline"
)

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// ParseFormat accepts md, markdown, html or docx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "docx":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Write renders o in format f to w.
func Write(w io.Writer, f Format, o *outline.Outline) error {
	switch f {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(o))
		return err
	case FormatHTML:
		return RenderHTML(w, o)
	case FormatDOCX:
		return DOCX(o, w)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// Markdown renders the title as a level 1 heading and each page as a level
// 2 heading. Nested groups get deeper headings; form fields become list
// items.
func Markdown(o *outline.Outline) string {
	var b strings.Builder
	if o.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", o.Title)
	}
	o.Walk(func(n *outline.Node, depth int) {
		switch {
		case len(n.Children) > 0 || n.Text == "" && n.Kind == "":
			fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", min(depth+1, 6)), n.Title)
		case n.Kind.IsFormField():
			fmt.Fprintf(&b, "- **%s**: %s\n", n.Title, n.Text)
		default:
			b.WriteString(n.Text)
			b.WriteString("\n\n")
		}
	})
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// HTML renders o as a standalone HTML document.
func HTML(o *outline.Outline) (string, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, o); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderHTML(w io.Writer, o *outline.Outline) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)
	head := element(atom.Head)
	root.AppendChild(head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	title := element(atom.Title)
	title.AppendChild(textNode(o.Title))
	head.AppendChild(title)

	body := element(atom.Body)
	root.AppendChild(body)
	if o.Title != "" {
		h := element(atom.H1)
		h.AppendChild(textNode(o.Title))
		body.AppendChild(h)
	}
	for _, n := range o.Children {
		body.AppendChild(htmlSection(n, 2))
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func htmlSection(n *outline.Node, level int) *html.Node {
	section := element(atom.Section)
	if n.Page > 0 {
		section.Attr = append(section.Attr, html.Attribute{Key: "data-page", Val: fmt.Sprint(n.Page)})
	}
	h := element(headingAtom(level))
	h.AppendChild(textNode(n.Title))
	section.AppendChild(h)

	var list *html.Node
	for _, c := range n.Children {
		switch {
		case len(c.Children) > 0:
			section.AppendChild(htmlSection(c, level+1))
		case c.Kind.IsFormField():
			if list == nil {
				list = element(atom.Dl)
				section.AppendChild(list)
			}
			dt := element(atom.Dt)
			dt.AppendChild(textNode(c.Title))
			dd := element(atom.Dd)
			dd.AppendChild(textNode(c.Text))
			list.AppendChild(dt)
			list.AppendChild(dd)
		default:
			p := element(atom.P)
			if c.ID != "" {
				p.Attr = append(p.Attr, html.Attribute{Key: "id", Val: c.ID})
			}
			p.AppendChild(textNode(c.Text))
			section.AppendChild(p)
		}
	}
	return section
}

func headingAtom(level int) atom.Atom {
	switch {
	case level <= 1:
		return atom.H1
	case level == 2:
		return atom.H2
	case level == 3:
		return atom.H3
	case level == 4:
		return atom.H4
	case level == 5:
		return atom.H5
	}
	return atom.H6
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Heading run sizes in half-points.
var docxHeadingSizes = map[int]string{1: "40", 2: "32", 3: "28"}

// DOCX writes o as a Word document. Headings are bold runs sized by depth.
func DOCX(o *outline.Outline, w io.Writer) error {
	doc := docx.New().WithDefaultTheme()
	if o.Title != "" {
		doc.AddParagraph().AddText(o.Title).Bold().Size(docxHeadingSizes[1])
	}
	o.Walk(func(n *outline.Node, depth int) {
		switch {
		case len(n.Children) > 0 || n.Text == "" && n.Kind == "":
			size, ok := docxHeadingSizes[depth+1]
			if !ok {
				size = "24"
			}
			doc.AddParagraph().AddText(n.Title).Bold().Size(size)
		case n.Kind.IsFormField():
			p := doc.AddParagraph()
			p.AddText(n.Title + ": ").Bold()
			p.AddText(n.Text)
		default:
			doc.AddParagraph().AddText(n.Text)
		}
	})
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
