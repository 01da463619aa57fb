package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/starford/glossaryqf/internal/bankservice"
)

// UploadGlossary handles POST /api/glossaries/upload (multipart/form-data,
// field "file"). The document is stored under its base file name, or under
// the optional "dir" form field.
//
//	@Summary		Upload and import a glossary document
//	@Tags			glossaries
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Glossary XML document"
//	@Param			dir		formData	string	false	"Target directory in the workspace"
//	@Success		201		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/glossaries/upload [post]
func (h *Handler) UploadGlossary(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean(header.Filename))
	if name == "." || name == string(filepath.Separator) || strings.Contains(name, "..") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
		return
	}
	target := name
	if dir := strings.Trim(r.FormValue("dir"), "/"); dir != "" {
		target = dir + "/" + name
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	h.store(w, r, target, content, bankservice.WriteMode{}, http.StatusCreated)
}
