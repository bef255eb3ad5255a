package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/dgallion1/pdfdancer/internal/session"
)

// Default origin for added markdown: one inch in from the top-left corner of
// a Letter or A4 page.
const (
	defaultMarkdownX = 72
	defaultMarkdownY = 720
)

// handleAddMarkdown adds one paragraph per markdown block. The body is the
// markdown; page, x, y, font and size come from the query.
func (s *Server) handleAddMarkdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 1)
	if err != nil {
		jsonError(w, "page must be a number", http.StatusBadRequest)
		return
	}
	x, err := queryFloat(q.Get("x"), defaultMarkdownX)
	if err != nil {
		jsonError(w, "x must be a number", http.StatusBadRequest)
		return
	}
	y, err := queryFloat(q.Get("y"), defaultMarkdownY)
	if err != nil {
		jsonError(w, "y must be a number", http.StatusBadRequest)
		return
	}
	size, err := queryFloat(q.Get("size"), 0)
	if err != nil {
		jsonError(w, "size must be a number", http.StatusBadRequest)
		return
	}
	if page < 1 {
		jsonError(w, session.ErrInvalidPageNumber.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(body) == 0 {
		jsonError(w, "markdown body is required", http.StatusBadRequest)
		return
	}

	spec := session.ParagraphSpec{
		Font:     model.Font{Name: q.Get("font"), Size: size},
		Position: model.AtPageCoordinates(page, x, y),
	}
	var added int
	err = s.withSession(func(sess *session.Session) (err error) {
		added, err = sess.AddParagraphs(r.Context(), string(body), spec)
		return err
	})
	if err != nil {
		if added > 0 {
			s.log.Warn("markdown partially added", "added", added, "error", err)
		}
		s.sessionError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"added": added})
}

type redactRequest struct {
	IDs         []string `json:"ids"`
	Replacement string   `json:"replacement"`
}

// handleRedact redacts the elements with the given internal ids.
func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	var req redactRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		jsonError(w, "ids is required", http.StatusBadRequest)
		return
	}

	var (
		resp    *model.RedactResponse
		missing []string
	)
	err := s.withSession(func(sess *session.Session) error {
		elements, err := sess.SelectElements(r.Context())
		if err != nil {
			return err
		}
		var targets []model.Ref
		targets, missing = byID(elements, req.IDs)
		if len(missing) > 0 {
			return nil
		}
		resp, err = sess.Redact(r.Context(), targets, session.RedactOptions{Replacement: req.Replacement})
		return err
	})
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	if len(missing) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": "unknown element ids", "missing": missing})
		return
	}
	writeJSON(w, resp)
}

// byID returns the elements named by ids in ids order, and the ids that
// matched nothing.
func byID(elements []model.Ref, ids []string) (found []model.Ref, missing []string) {
	index := make(map[string]model.Ref, len(elements))
	for _, el := range elements {
		if el != nil {
			index[el.Base().InternalID] = el
		}
	}
	for _, id := range ids {
		if el, ok := index[id]; ok {
			found = append(found, el)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

func queryInt(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func queryFloat(v string, fallback float64) (float64, error) {
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}
