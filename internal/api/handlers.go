package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/glossaryqf/internal/bank"
	"github.com/starford/glossaryqf/internal/bankservice"
	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/models"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc      *bankservice.Service
	maxBytes int64
}

// NewHandler creates a new Handler. maxBytes <= 0 selects DefaultMaxBodyBytes.
func NewHandler(svc *bankservice.Service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return &Handler{svc: svc, maxBytes: maxBytes}
}

// sourcePath extracts the document path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. geo%2Fcapitals.xml).
func sourcePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// readBody reads the limited request body, writing 413 or 400 on failure.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		}
		return nil, false
	}
	return body, true
}

// ConvertImport handles POST /api/convert/import.
//
//	@Summary		Convert a glossary document into questions without storing it
//	@Tags			convert
//	@Accept			xml
//	@Produce		json
//	@Param			body	body		string	true	"Glossary XML document"
//	@Success		200		{object}	QuestionsResponse
//	@Failure		413		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/import [post]
func (h *Handler) ConvertImport(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	questions, err := h.svc.ConvertImport(r.Context(), bytes.NewReader(body))
	if err != nil {
		writeError(w, "convert import", err)
		return
	}
	writeJSON(w, http.StatusOK, QuestionsResponse{Questions: questions})
}

// ConvertExport handles POST /api/convert/export.
//
//	@Summary		Convert questions into a glossary document
//	@Tags			convert
//	@Accept			json
//	@Produce		xml
//	@Param			body	body		ExportRequest	true	"Questions to export"
//	@Success		200		{string}	string			"Glossary XML document"
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert/export [post]
func (h *Handler) ConvertExport(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	var req ExportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.ConvertExport(r.Context(), req.Questions)
	if err != nil {
		writeError(w, "convert export", err)
		return
	}
	writeDocument(w, res, "")
}

// ListGlossaries handles GET /api/glossaries.
//
//	@Summary		List imported glossary documents
//	@Tags			glossaries
//	@Produce		json
//	@Success		200	{object}	SourceListResponse
//	@Security		BearerAuth
//	@Router			/glossaries [get]
func (h *Handler) ListGlossaries(w http.ResponseWriter, r *http.Request) {
	sources, err := h.svc.Sources(r.Context())
	if err != nil {
		writeError(w, "list glossaries", err)
		return
	}
	writeJSON(w, http.StatusOK, SourceListResponse{Glossaries: sources})
}

// CreateGlossary handles POST /api/glossaries.
//
//	@Summary		Store and import a new glossary document
//	@Tags			glossaries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateGlossaryRequest	true	"Document to store"
//	@Success		201		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/glossaries [post]
func (h *Handler) CreateGlossary(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	var req CreateGlossaryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	h.store(w, r, req.Path, []byte(req.Content), bankservice.WriteMode{}, http.StatusCreated)
}

// ReplaceGlossary handles PUT /api/glossaries/*.
//
//	@Summary		Replace a glossary document with optimistic concurrency
//	@Tags			glossaries
//	@Accept			xml
//	@Produce		json
//	@Param			path		path		string	true	"Document path"
//	@Param			If-Match	header		string	false	"SHA-256 checksum of the current document"
//	@Param			body		body		string	true	"Glossary XML document"
//	@Success		200			{object}	ImportResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/glossaries/{path} [put]
func (h *Handler) ReplaceGlossary(w http.ResponseWriter, r *http.Request) {
	p := sourcePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	mode := bankservice.WriteMode{Overwrite: true, IfMatch: r.Header.Get("If-Match")}
	h.store(w, r, p, body, mode, http.StatusOK)
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, p string, content []byte, mode bankservice.WriteMode, status int) {
	res, err := h.svc.ImportDocument(r.Context(), p, content, mode)
	if err != nil {
		writeError(w, "import glossary", err)
		return
	}
	w.Header().Set("ETag", `"`+res.Checksum+`"`)
	writeJSON(w, status, res)
}

// DeleteGlossary handles DELETE /api/glossaries/*.
//
//	@Summary		Delete a glossary document and its questions
//	@Tags			glossaries
//	@Param			path	path	string	true	"Document path"
//	@Success		204		"Glossary deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/glossaries/{path} [delete]
func (h *Handler) DeleteGlossary(w http.ResponseWriter, r *http.Request) {
	p := sourcePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteSource(r.Context(), p); err != nil {
		writeError(w, "delete glossary", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportGlossary handles GET /api/glossaries/export.
//
//	@Summary		Export stored questions as a glossary document
//	@Tags			glossaries
//	@Produce		xml
//	@Param			source	query		string	false	"Limit the export to one document"
//	@Success		200		{string}	string	"Glossary XML document"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/glossaries/export [get]
func (h *Handler) ExportGlossary(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	res, err := h.svc.ExportBank(r.Context(), source)
	if err != nil {
		writeError(w, "export glossary", err)
		return
	}
	name := "glossary" + glossary.FileExtension
	if source != "" {
		name = path.Base(source)
	}
	writeDocument(w, res, name)
}

// ListQuestions handles GET /api/questions.
//
//	@Summary		List stored questions
//	@Tags			questions
//	@Produce		json
//	@Param			source	query		string	false	"Filter by glossary document"
//	@Param			kind	query		string	false	"Filter by question kind"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	QuestionListResponse
//	@Security		BearerAuth
//	@Router			/questions [get]
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListQuestions(r.Context(), bank.ListFilter{
		Source: q.Get("source"),
		Kind:   models.Kind(q.Get("kind")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, "list questions", err)
		return
	}
	writeJSON(w, http.StatusOK, QuestionListResponse{Questions: items, Total: total})
}

// GetQuestion handles GET /api/questions/{id}.
//
//	@Summary		Get a stored question
//	@Tags			questions
//	@Produce		json
//	@Param			id	path		string	true	"Question ID"
//	@Success		200	{object}	models.Question
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/questions/{id} [get]
func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get question", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// ExportQuestion handles GET /api/questions/{id}/export.
//
//	@Summary		Export one stored question as a glossary document
//	@Tags			questions
//	@Produce		xml
//	@Param			id	path		string	true	"Question ID"
//	@Success		200	{string}	string	"Glossary XML document"
//	@Failure		404	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/questions/{id}/export [get]
func (h *Handler) ExportQuestion(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExportQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "export question", err)
		return
	}
	writeDocument(w, res, "")
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across stored questions
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
