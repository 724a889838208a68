package api

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/wordhop/internal/graphservice"
	"github.com/starford/wordhop/internal/index"
	"github.com/starford/wordhop/internal/models"
)

var vocabularyName = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

// ActivateRequest is the request body for switching the active vocabulary.
type ActivateRequest struct {
	Name string `json:"name" example:"basic" validate:"required"`
}

// Validate implements validation.Validatable.
func (r ActivateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// CreateVocabularyRequest is the request body for creating a word list.
type CreateVocabularyRequest struct {
	Name    string `json:"name" example:"lang/en" validate:"required"`
	Content string `json:"content" example:"cat\nbat\nat" validate:"required"`
}

// Validate implements validation.Validatable.
func (r CreateVocabularyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200), validation.Match(vocabularyName)),
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateVocabularyRequest is the request body for replacing a word list.
type UpdateVocabularyRequest struct {
	Content string `json:"content" example:"cat\nbat" validate:"required"`
}

// Validate implements validation.Validatable.
func (r UpdateVocabularyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

// VocabularyListResponse wraps the indexed vocabularies.
type VocabularyListResponse struct {
	Vocabularies []index.VocabularyRow `json:"vocabularies" validate:"required"`
	Active       graphservice.Active   `json:"active" validate:"required"`
}

// WordDetail is the word response type (aliased from the domain layer).
type WordDetail = graphservice.WordDetail

// LinkedWord is the linked word response type (aliased from the domain layer).
type LinkedWord = graphservice.LinkedWord

// PathResponse is the shortest path response type (aliased from the domain layer).
type PathResponse = graphservice.PathResult

// LettersResponse lists the letters legal at one position.
type LettersResponse struct {
	Word     string   `json:"word" example:"cat" validate:"required"`
	Position int      `json:"position" example:"0" validate:"required"`
	Letters  []string `json:"letters" example:"b,h" validate:"required"`
}

// SearchResponse wraps prefix search results.
type SearchResponse struct {
	Results []string `json:"results" validate:"required"`
}

// SubgraphItem is one connected component.
type SubgraphItem struct {
	Size  int      `json:"size" example:"3" validate:"required"`
	Words []string `json:"words" validate:"required"`
}

// SubgraphListResponse wraps the components, largest first.
type SubgraphListResponse struct {
	Count     int            `json:"count" example:"2" validate:"required"`
	Subgraphs []SubgraphItem `json:"subgraphs" validate:"required"`
}

func subgraphItems(comps []models.Subgraph, limit int) []SubgraphItem {
	if limit > 0 && len(comps) > limit {
		comps = comps[:limit]
	}
	out := make([]SubgraphItem, len(comps))
	for i, c := range comps {
		out[i] = SubgraphItem{Size: c.Size(), Words: c.Words}
	}
	return out
}

// UploadResponse is returned after a successful vocabulary upload.
type UploadResponse struct {
	Filename   string              `json:"filename" example:"basic.txt" validate:"required"`
	Size       int64               `json:"size" example:"12345" validate:"required"`
	Vocabulary index.VocabularyRow `json:"vocabulary" validate:"required"`
}
