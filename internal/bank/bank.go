package bank

import "github.com/starford/glossaryqf/internal/models"

// QuestionBank defines the operations the service layer needs from the
// store. Consumers depend on this interface rather than on *DB.
type QuestionBank interface {
	ReplaceSource(path, checksum string, questions []models.Question) ([]models.Question, error)
	DeleteSource(path string) error
	Sources() ([]models.Source, error)
	SourceChecksums() (map[string]string, error)
	GetQuestion(id string) (*models.Question, error)
	ListQuestions(f ListFilter) ([]models.Question, int, error)
	AllQuestions(source string) ([]models.Question, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ QuestionBank = (*DB)(nil)
