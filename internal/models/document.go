package models

import "time"

// DocumentMetadata describes a glossary file in the workspace.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Source summarizes the questions a workspace document contributed to the bank.
type Source struct {
	Path          string    `json:"path"`
	Checksum      string    `json:"checksum"`
	QuestionCount int       `json:"question_count"`
	ImportedAt    time.Time `json:"imported_at"`
}
