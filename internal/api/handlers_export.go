package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pdfdancer/internal/export"
	"github.com/dgallion1/pdfdancer/internal/outline"
	"github.com/dgallion1/pdfdancer/internal/pdfinfo"
	"github.com/dgallion1/pdfdancer/internal/session"
)

// handleExport renders the document outline as md, html or docx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		o     *outline.Outline
		title string
	)
	err = s.withSession(func(sess *session.Session) error {
		doc, err := sess.DocumentSnapshot(r.Context(), "")
		if err != nil {
			return err
		}
		title = s.title
		o = outline.FromSnapshot(title, doc)
		return nil
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, o); err != nil {
		s.log.Error("export failed", "format", format, "error", err)
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if format == export.FormatDOCX {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(title)+".docx"))
	}
	w.Write(buf.Bytes())
}

// handlePDF streams the current document bytes.
func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	var (
		data  []byte
		title string
	)
	err := s.withSession(func(sess *session.Session) (err error) {
		title = s.title
		data, err = sess.Bytes(r.Context())
		return err
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", exportName(title)+".pdf"))
	w.Write(data)
}

// handleText extracts plain text from the current document bytes locally,
// one entry per page.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := s.withSession(func(sess *session.Session) (err error) {
		data, err = sess.Bytes(r.Context())
		return err
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	pages, err := pdfinfo.PageTexts(data)
	if err != nil {
		jsonError(w, "extract text: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]any{"pages": pages, "count": len(pages)})
}

func exportName(title string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		return "document"
	}
	return sanitizeFilename(name)
}
