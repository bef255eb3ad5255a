// Package pdfinfo checks PDF bytes locally before they are sent to or
// after they come back from the service.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

var ErrNotPDF = errors.New("not a PDF document")

// Info describes a parsed PDF.
type Info struct {
	Pages int    `json:"pages"`
	Size  int64  `json:"size"`
	Title string `json:"title,omitempty"`
}

// Inspect parses data and reports its page count. Data without a PDF header
// returns ErrNotPDF; a header followed by an unreadable body returns a
// wrapped ErrNotPDF with the parser's message.
func Inspect(data []byte) (info Info, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return Info{}, ErrNotPDF
	}

	// The parser panics on some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	size := int64(len(data))
	reader, err := pdflib.NewReader(bytes.NewReader(data), size)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	info = Info{Pages: reader.NumPage(), Size: size}
	if title := reader.Trailer().Key("Info").Key("Title"); !title.IsNull() {
		info.Title = strings.TrimSpace(title.Text())
	}
	return info, nil
}

// PageTexts returns the plain text of every page, 1-based page i at index
// i-1. Pages the parser cannot read come back empty.
func PageTexts(data []byte) (texts []string, err error) {
	if _, err := Inspect(data); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("extract text: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	n := reader.NumPage()
	texts = make([]string, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = strings.TrimSpace(text)
	}
	return texts, nil
}
