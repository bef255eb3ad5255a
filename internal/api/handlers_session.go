package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/dgallion1/pdfdancer/internal/session"
)

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{
		"session_id": s.sess.ID(),
		"title":      s.title,
		"cache":      s.sess.CacheStats(),
	}
	s.mu.Unlock()
	writeJSON(w, resp)
}

// handleUpload replaces the current session with one opened on the uploaded
// PDF.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		name := sanitizeFilename(header.Filename)
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	next, err := session.Open(r.Context(), s.opts, data)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	s.mu.Lock()
	prev := s.sess
	s.sess = next
	s.title = title
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	s.log.Info("session replaced", "session_id", next.ID(), "title", title, "bytes", len(data))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"session_id": next.ID(), "title": title})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	types := r.URL.Query().Get("types")
	var doc *model.DocumentSnapshot
	err := s.withSession(func(sess *session.Session) (err error) {
		doc, err = sess.DocumentSnapshot(r.Context(), types)
		return err
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		jsonError(w, "page must be a number", http.StatusBadRequest)
		return
	}
	types := r.URL.Query().Get("types")
	var page *model.PageSnapshot
	err = s.withSession(func(sess *session.Session) (err error) {
		page, err = sess.PageSnapshot(r.Context(), n, types)
		return err
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	writeJSON(w, page)
}

// handleParagraphs lists paragraphs, optionally filtered by a
// case-insensitive prefix and restricted to one page.
func (s *Server) handleParagraphs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix := q.Get("prefix")
	page := 0
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "page must be a number", http.StatusBadRequest)
			return
		}
		page = n
	}

	var refs []*model.TextRef
	err := s.withSession(func(sess *session.Session) error {
		var err error
		refs, err = paragraphs(r.Context(), sess, page, prefix)
		return err
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"paragraphs": refs, "count": len(refs)})
}

func paragraphs(ctx context.Context, sess *session.Session, page int, prefix string) ([]*model.TextRef, error) {
	if page == 0 {
		return sess.SelectParagraphsStartingWith(ctx, prefix)
	}
	p, err := sess.Page(page)
	if err != nil {
		return nil, err
	}
	return p.ParagraphsStartingWith(ctx, prefix)
}

func (s *Server) handleFormFields(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	var fields []*model.FormFieldRef
	err := s.withSession(func(sess *session.Session) (err error) {
		if name != "" {
			fields, err = sess.SelectFormFieldsByName(r.Context(), name)
		} else {
			fields, err = sess.SelectFormFields(r.Context())
		}
		return err
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"form_fields": fields, "count": len(fields)})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.withSession(func(sess *session.Session) error {
		sess.Invalidate()
		return nil
	})
	writeJSON(w, map[string]any{"invalidated": true})
}
