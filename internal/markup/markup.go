// Package markup turns Markdown into the plain paragraphs added to a page.
package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Block is one paragraph-level piece of Markdown.
type Block struct {
	Text string
	// Level is the heading level, 0 for body text.
	Level int
}

// Blocks parses src and returns headings, paragraphs, list items and code
// blocks in document order. Inline markup is dropped; hard and soft line
// breaks become "\n".
func Blocks(src []byte) []Block {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out []Block
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Heading:
				if t := inlineText(node, src); t != "" {
					out = append(out, Block{Text: t, Level: node.Level})
				}
			case *ast.Paragraph, *ast.TextBlock:
				if t := inlineText(node, src); t != "" {
					out = append(out, Block{Text: t})
				}
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				if t := linesText(node, src); t != "" {
					out = append(out, Block{Text: t})
				}
			case *ast.List, *ast.ListItem, *ast.Blockquote:
				walk(node)
			}
		}
	}
	walk(doc)
	return out
}

// Paragraphs returns only the texts of Blocks.
func Paragraphs(src []byte) []string {
	blocks := Blocks(src)
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Text)
	}
	return out
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
