package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/glossaryqf/internal/bankservice"
)

// RouterConfig carries the settings NewRouter needs beyond the service.
type RouterConfig struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// AllowedOrigins lists browser origins granted CORS access.
	AllowedOrigins []string
	// MaxBodyBytes bounds request bodies; zero selects DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *bankservice.Service, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, cfg.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Stateless conversion.
	r.Post("/convert/import", h.ConvertImport)
	r.Post("/convert/export", h.ConvertExport)

	// Workspace glossary documents.
	r.Get("/glossaries", h.ListGlossaries)
	r.Post("/glossaries", h.CreateGlossary)
	r.Post("/glossaries/upload", h.UploadGlossary)
	r.Get("/glossaries/export", h.ExportGlossary)
	r.Put("/glossaries/*", h.ReplaceGlossary)
	r.Delete("/glossaries/*", h.DeleteGlossary)

	// Question bank.
	r.Get("/questions", h.ListQuestions)
	r.Get("/questions/{id}", h.GetQuestion)
	r.Get("/questions/{id}/export", h.ExportQuestion)

	r.Get("/search", h.Search)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
