package api

import (
	"github.com/starford/glossaryqf/internal/bank"
	"github.com/starford/glossaryqf/internal/bankservice"
	"github.com/starford/glossaryqf/internal/models"
)

// CreateGlossaryRequest is the request body for storing a glossary document.
type CreateGlossaryRequest struct {
	Path    string `json:"path" example:"geo/capitals.xml" validate:"required"`
	Content string `json:"content" example:"<?xml version=\"1.0\"?><GLOSSARY>...</GLOSSARY>" validate:"required"`
}

// ExportRequest is the request body for converting questions to a glossary.
type ExportRequest struct {
	Questions []models.Question `json:"questions" validate:"required"`
}

// QuestionsResponse wraps converted questions.
type QuestionsResponse struct {
	Questions []models.Question `json:"questions" validate:"required"`
}

// QuestionListResponse wraps paginated question listings.
type QuestionListResponse struct {
	Questions []models.Question `json:"questions" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// SourceListResponse wraps the imported glossary documents.
type SourceListResponse struct {
	Glossaries []models.Source `json:"glossaries" validate:"required"`
}

// ImportResponse is returned after a glossary document is stored.
type ImportResponse = bankservice.ImportResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []bank.SearchResult `json:"results" validate:"required"`
}
