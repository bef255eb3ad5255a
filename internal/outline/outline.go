// Package outline turns a document snapshot into a page-by-page text tree.
package outline

import (
	"fmt"
	"strings"

	"github.com/dgallion1/pdfdancer/internal/model"
)

// Outline is the text structure of a document.
type Outline struct {
	Title    string  `json:"title"`
	Pages    int     `json:"pages"`
	Children []*Node `json:"children"`
}

// Node is a page section or a leaf holding the text of one element.
type Node struct {
	Title    string           `json:"title,omitempty"`
	Text     string           `json:"text,omitempty"`
	Page     int              `json:"page,omitempty"`
	ID       string           `json:"id,omitempty"`
	Kind     model.ObjectKind `json:"kind,omitempty"`
	Children []*Node          `json:"children,omitempty"`
}

// FromSnapshot builds one section per page. A page's leaves are its
// paragraphs, or its text lines when it has no paragraphs. Form fields are
// grouped under a "Form fields" child of their page.
func FromSnapshot(title string, doc *model.DocumentSnapshot) *Outline {
	o := &Outline{Title: title}
	if doc == nil {
		return o
	}
	o.Pages = doc.PageCount
	if o.Pages < len(doc.Pages) {
		o.Pages = len(doc.Pages)
	}

	for i := range doc.Pages {
		page := &doc.Pages[i]
		number := i + 1
		if page.PageRef != nil && page.PageRef.PageNumber() > 0 {
			number = page.PageRef.PageNumber()
		}
		section := &Node{Title: fmt.Sprintf("Page %d", number), Page: number}

		leaves := textLeaves(page, number, model.KindParagraph)
		if len(leaves) == 0 {
			leaves = textLeaves(page, number, model.KindTextLine)
		}
		section.Children = leaves

		if fields := fieldLeaves(page, number); len(fields) > 0 {
			section.Children = append(section.Children, &Node{
				Title:    "Form fields",
				Page:     number,
				Children: fields,
			})
		}
		o.Children = append(o.Children, section)
	}
	return o
}

func textLeaves(page *model.PageSnapshot, number int, kind model.ObjectKind) []*Node {
	var out []*Node
	for _, el := range page.Elements {
		t, ok := el.(*model.TextRef)
		if !ok || t.Kind() != kind {
			continue
		}
		text := strings.TrimSpace(t.Content())
		if text == "" {
			continue
		}
		out = append(out, &Node{Text: text, Page: number, ID: t.InternalID, Kind: kind})
	}
	return out
}

func fieldLeaves(page *model.PageSnapshot, number int) []*Node {
	var out []*Node
	for _, el := range page.Elements {
		f, ok := el.(*model.FormFieldRef)
		if !ok {
			continue
		}
		out = append(out, &Node{Title: f.Name, Text: f.Value, Page: number, ID: f.InternalID, Kind: f.Kind()})
	}
	return out
}

// Walk visits every node depth first. depth is 1 for page sections.
func (o *Outline) Walk(fn func(n *Node, depth int)) {
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(o.Children, 1)
}

// Text joins every leaf text, one per line.
func (o *Outline) Text() string {
	var lines []string
	o.Walk(func(n *Node, _ int) {
		if len(n.Children) == 0 && n.Text != "" {
			lines = append(lines, n.Text)
		}
	})
	return strings.Join(lines, "\n")
}
