package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/bankservice"
	"github.com/starford/glossaryqf/internal/glossary"
)

// Response headers carrying export counts.
const (
	headerExported = "X-Glossary-Exported"
	headerSkipped  = "X-Glossary-Skipped"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// writeDocument sends an exported glossary document as XML.
func writeDocument(w http.ResponseWriter, res *bankservice.ExportResult, filename string) {
	w.Header().Set("Content-Type", glossary.MIMEType+"; charset=utf-8")
	w.Header().Set(headerExported, strconv.Itoa(res.Exported))
	w.Header().Set(headerSkipped, strconv.Itoa(res.Skipped))
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.Document))
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported as 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("glossary already exists"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrMalformedDocument),
		errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnsupportedKind):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
