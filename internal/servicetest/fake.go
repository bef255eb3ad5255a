// Package servicetest runs an in-memory PDFDancer service for tests.
package servicetest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Element is one reference as the service sends it.
type Element map[string]any

func (e Element) ID() string { s, _ := e["internalId"].(string); return s }

func (e Element) kinds() []string {
	var out []string
	for _, k := range []string{"type", "objectRefType"} {
		if s, ok := e[k].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func position(page int, x, y, w, h float64) map[string]any {
	return map[string]any{
		"pageNumber":   page,
		"boundingRect": map[string]any{"x": x, "y": y, "width": w, "height": h},
	}
}

func Paragraph(id string, page int, text string, x, y, w, h float64) Element {
	return Element{
		"internalId": id, "type": "PARAGRAPH", "objectRefType": "PARAGRAPH",
		"position": position(page, x, y, w, h), "text": text,
		"fontName": "Helvetica", "fontSize": 12,
	}
}

func TextLine(id string, page int, text string, x, y float64) Element {
	return Element{
		"internalId": id, "objectRefType": "TEXT_LINE",
		"position": position(page, x, y, 100, 12), "text": text,
	}
}

// Image is sent with only the legacy "type" discriminator.
func Image(id string, page int, x, y float64) Element {
	return Element{"internalId": id, "type": "IMAGE", "position": position(page, x, y, 50, 50)}
}

func Path(id string, page int) Element {
	return Element{"internalId": id, "objectRefType": "PATH", "position": position(page, 0, 0, 10, 10)}
}

// FormField is reported as FORM_FIELD under objectRefType and its concrete
// kind under type.
func FormField(id string, page int, kind, name, value string) Element {
	return Element{
		"internalId": id, "type": kind, "objectRefType": "FORM_FIELD",
		"position": position(page, 10, 10, 80, 14), "name": name, "value": value,
	}
}

// Service is a fake of the PDFDancer HTTP API. Mutations edit Pages so that
// stale reads are observable.
type Service struct {
	mu sync.Mutex

	Pages     [][]Element
	PDF       []byte
	SessionID string
	AnonToken string
	// Reject makes every mutation answer false (or success=false).
	Reject bool
	// FailStatus makes every mutation fail with this status when non-zero.
	FailStatus int
	// FindOverride, when set, replaces the /pdf/find result.
	FindOverride []Element

	calls   map[string]int
	bodies  map[string][]byte
	headers map[string]http.Header

	srv *httptest.Server
}

// New starts a service with the given pages and stops it when t ends.
func New(t testing.TB, pages ...[]Element) *Service {
	t.Helper()
	s := &Service{
		Pages:     pages,
		PDF:       MinimalPDF(max(len(pages), 1), "fake"),
		SessionID: "session-1",
		AnonToken: "anon-token",
		calls:     map[string]int{},
		bodies:    map[string][]byte{},
		headers:   map[string]http.Header{},
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Service) URL() string { return s.srv.URL }

// Calls counts requests to "METHOD /path" (path without query).
func (s *Service) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// Body returns the last request body sent to key.
func (s *Service) Body(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[key]
}

// Header returns the headers of the last request sent to key.
func (s *Service) Header(key string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[key]
}

func (s *Service) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/keys/anon", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"token": s.AnonToken, "metadata": map[string]any{"name": "anon"}})
	})
	r.Post("/session/create", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("pdf")
		if err != nil {
			writeError(w, http.StatusBadRequest, "IllegalArgument", err.Error())
			return
		}
		defer f.Close()
		s.PDF, _ = io.ReadAll(f)
		w.Write([]byte(s.SessionID))
	})
	r.Post("/session/new", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.SessionID)
	})
	r.Get("/session/{id}/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(s.PDF)
	})
	r.Get("/font/find", func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(r.URL.Query().Get("fontName"))
		var out []string
		for _, f := range []string{"Helvetica", "Helvetica-Bold", "Times-Roman"} {
			if strings.Contains(strings.ToLower(f), name) {
				out = append(out, f)
			}
		}
		if len(out) == 0 {
			writeError(w, http.StatusNotFound, "FontNotFoundException", name)
			return
		}
		writeJSON(w, out)
	})

	r.Get("/pdf/document/snapshot", s.documentSnapshot)
	r.Get("/pdf/page/{page}/snapshot", s.pageSnapshot)
	r.Post("/pdf/page/find", s.findPages)
	r.Post("/pdf/find", s.find)

	r.Delete("/pdf/delete", s.mutate(func(body map[string]any) bool {
		ref, _ := body["objectRef"].(map[string]any)
		id, _ := ref["internalId"].(string)
		return s.remove(id)
	}))
	r.Put("/pdf/move", s.mutate(func(map[string]any) bool { return true }))
	r.Put("/pdf/modify/formField", s.mutate(func(body map[string]any) bool {
		ref, _ := body["ref"].(map[string]any)
		id, _ := ref["internalId"].(string)
		return s.update(id, "value", body["value"])
	}))
	r.Post("/pdf/add", s.mutate(func(body map[string]any) bool {
		obj, _ := body["object"].(map[string]any)
		pos, _ := obj["position"].(map[string]any)
		page, _ := pos["pageNumber"].(float64)
		s.add(int(page), obj)
		return true
	}))
	r.Delete("/pdf/page/delete", s.mutate(func(body map[string]any) bool {
		pos, _ := body["position"].(map[string]any)
		n, _ := pos["pageNumber"].(float64)
		idx := int(n) - 1
		if idx < 0 || idx >= len(s.Pages) {
			return false
		}
		s.Pages = slices.Delete(s.Pages, idx, idx+1)
		return true
	}))
	r.Put("/pdf/page/move", s.mutate(func(body map[string]any) bool {
		from, _ := body["fromPageIndex"].(float64)
		to, _ := body["toPageIndex"].(float64)
		f, t := int(from)-1, int(to)-1
		if f < 0 || t < 0 || f >= len(s.Pages) || t >= len(s.Pages) {
			return false
		}
		page := s.Pages[f]
		s.Pages = slices.Insert(slices.Delete(s.Pages, f, f+1), t, page)
		return true
	}))
	r.Put("/pdf/text/paragraph", s.modifyText)
	r.Put("/pdf/text/line", s.modifyText)
	r.Post("/pdf/page/add", s.addPage)
	r.Post("/pdf/redact", s.redact)
	return r
}

func (s *Service) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		s.bodies[key] = body
		s.headers[key] = r.Header.Clone()
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Service) documentSnapshot(w http.ResponseWriter, r *http.Request) {
	filter := typeSet(r.URL.Query().Get("types"))
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]any, 0, len(s.Pages))
	for i := range s.Pages {
		pages = append(pages, s.pageLocked(i, filter))
	}
	writeJSON(w, map[string]any{
		"pageCount": len(s.Pages),
		"fonts":     []any{map[string]any{"documentFontName": "F1", "systemFontName": "Helvetica"}},
		"pages":     pages,
	})
}

func (s *Service) pageSnapshot(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "page"))
	filter := typeSet(r.URL.Query().Get("types"))
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || n < 1 || n > len(s.Pages) {
		writeError(w, http.StatusNotFound, "PageNotFound", "no such page")
		return
	}
	writeJSON(w, s.pageLocked(n-1, filter))
}

func (s *Service) pageLocked(idx int, filter map[string]bool) map[string]any {
	elements := []any{}
	for _, el := range s.Pages[idx] {
		if matches(el, filter) {
			elements = append(elements, el)
		}
	}
	return map[string]any{"pageRef": pageRef(idx + 1), "elements": elements}
}

func pageRef(n int) map[string]any {
	return map[string]any{
		"internalId":  fmt.Sprintf("page-%d", n),
		"type":        "PAGE",
		"position":    map[string]any{"pageNumber": n},
		"pageSize":    map[string]any{"name": "A4", "width": 595, "height": 842},
		"orientation": "PORTRAIT",
	}
}

func (s *Service) findPages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []any{}
	want, _ := strconv.Atoi(r.URL.Query().Get("pageNumber"))
	for i := range s.Pages {
		if want == 0 || want == i+1 {
			out = append(out, pageRef(i+1))
		}
	}
	writeJSON(w, out)
}

func (s *Service) find(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ObjectType string `json:"objectType"`
		Position   *struct {
			PageNumber *int `json:"pageNumber"`
		} `json:"position"`
	}
	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgument", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindOverride != nil {
		writeJSON(w, s.FindOverride)
		return
	}
	filter := typeSet(req.ObjectType)
	out := []any{}
	for i, page := range s.Pages {
		if req.Position != nil && req.Position.PageNumber != nil && *req.Position.PageNumber != i+1 {
			continue
		}
		for _, el := range page {
			if matches(el, filter) {
				out = append(out, el)
			}
		}
	}
	writeJSON(w, out)
}

// mutate decodes the body, applies fn under the lock and answers with a
// JSON boolean.
func (s *Service) mutate(fn func(body map[string]any) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.FailStatus != 0 {
			writeError(w, s.FailStatus, "Failure", "mutation failed")
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "IllegalArgument", err.Error())
			return
		}
		if s.Reject {
			writeJSON(w, false)
			return
		}
		s.mu.Lock()
		ok := fn(body)
		s.mu.Unlock()
		writeJSON(w, ok)
	}
}

func (s *Service) modifyText(w http.ResponseWriter, r *http.Request) {
	if s.FailStatus != 0 {
		writeError(w, s.FailStatus, "Failure", "mutation failed")
		return
	}
	var body struct {
		Ref struct {
			InternalID string `json:"internalId"`
		} `json:"ref"`
		NewTextLine string `json:"newTextLine"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgument", err.Error())
		return
	}
	ok := !s.Reject
	if ok {
		s.mu.Lock()
		ok = s.update(body.Ref.InternalID, "text", body.NewTextLine)
		s.mu.Unlock()
	}
	writeJSON(w, map[string]any{
		"commandName": "ModifyText",
		"elementId":   body.Ref.InternalID,
		"success":     ok,
	})
}

func (s *Service) addPage(w http.ResponseWriter, r *http.Request) {
	if s.FailStatus != 0 {
		writeError(w, s.FailStatus, "Failure", "mutation failed")
		return
	}
	s.mu.Lock()
	s.Pages = append(s.Pages, nil)
	n := len(s.Pages)
	s.mu.Unlock()
	writeJSON(w, pageRef(n))
}

func (s *Service) redact(w http.ResponseWriter, r *http.Request) {
	if s.FailStatus != 0 {
		writeError(w, s.FailStatus, "Failure", "mutation failed")
		return
	}
	var body struct {
		Targets []struct {
			ID string `json:"id"`
		} `json:"targets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgument", err.Error())
		return
	}
	s.mu.Lock()
	count := 0
	for _, t := range body.Targets {
		if s.update(t.ID, "text", "[REDACTED]") {
			count++
		}
	}
	s.mu.Unlock()
	writeJSON(w, map[string]any{"count": count, "success": !s.Reject})
}

// remove, update and add must be called with mu held.
func (s *Service) remove(id string) bool {
	for i, page := range s.Pages {
		for j, el := range page {
			if el.ID() == id {
				s.Pages[i] = slices.Delete(page, j, j+1)
				return true
			}
		}
	}
	return false
}

func (s *Service) update(id, field string, value any) bool {
	for _, page := range s.Pages {
		for _, el := range page {
			if el.ID() == id {
				el[field] = value
				return true
			}
		}
	}
	return false
}

func (s *Service) add(page int, obj map[string]any) {
	if page < 1 || page > len(s.Pages) {
		return
	}
	el := Element{}
	for k, v := range obj {
		el[k] = v
	}
	el["internalId"] = fmt.Sprintf("added-%d", len(s.Pages[page-1])+1)
	el["objectRefType"] = obj["type"]
	if lines, ok := obj["lines"].([]any); ok {
		var texts []string
		for _, l := range lines {
			if lm, ok := l.(map[string]any); ok {
				t, _ := lm["text"].(string)
				texts = append(texts, t)
			}
		}
		el["text"] = strings.Join(texts, "\n")
		delete(el, "lines")
	}
	delete(el, "data")
	s.Pages[page-1] = append(s.Pages[page-1], el)
}

func typeSet(raw string) map[string]bool {
	set := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			set[p] = true
		}
	}
	return set
}

func matches(el Element, filter map[string]bool) bool {
	if len(filter) == 0 {
		return true
	}
	for _, k := range el.kinds() {
		if filter[k] {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}

// MinimalPDF returns a well-formed PDF with empty pages.
func MinimalPDF(pages int, title string) []byte {
	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", i+3))
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	infoNum := len(objs) + 1
	objs = append(objs, fmt.Sprintf("<< /Title (%s) >>", title))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, infoNum, xref)
	return buf.Bytes()
}
