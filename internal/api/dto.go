package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/marblecomic/marble/internal/comicservice"
	"github.com/marblecomic/marble/internal/index"
	"github.com/marblecomic/marble/internal/models"
)

// ComicSummary is a list item (aliased from the domain layer).
type ComicSummary = comicservice.ComicSummary

// ComicDetail is the full comic response type (aliased from the domain layer).
type ComicDetail = comicservice.ComicDetail

// ComicListResponse wraps comic listings.
type ComicListResponse struct {
	Comics []ComicSummary `json:"comics" validate:"required"`
	Total  int            `json:"total" example:"42" validate:"required"`
}

// NavigationResponse is the chapter/page layout of a comic. Absent pages
// are empty strings.
type NavigationResponse struct {
	ID       models.ComicID `json:"id" example:"7" validate:"required"`
	Chapters [][]string     `json:"chapters" validate:"required"`
}

// ChapterResponse lists the pages of one chapter.
type ChapterResponse struct {
	ID      models.ComicID `json:"id" example:"7" validate:"required"`
	Chapter int            `json:"chapter" example:"0"`
	Pages   []string       `json:"pages" validate:"required"`
}

// KeywordsResponse wraps the category -> tag -> ids index.
type KeywordsResponse struct {
	Keywords map[string]map[string][]models.ComicID `json:"keywords" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// ProgressResponse is the reading position of one comic.
type ProgressResponse struct {
	ID      models.ComicID `json:"id" example:"7" validate:"required"`
	Chapter int            `json:"chapter" example:"2"`
	Page    int            `json:"page" example:"5"`
}

// UpdateProgressRequest is the request body for PUT /comics/{id}/progress.
type UpdateProgressRequest struct {
	Chapter *int `json:"chapter" example:"2" validate:"required"`
	Page    *int `json:"page" example:"5" validate:"required"`
}

// Validate validates the request.
func (r UpdateProgressRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Chapter, validation.NotNil, validation.Min(0)),
		validation.Field(&r.Page, validation.NotNil, validation.Min(0)),
	)
}

func progressResponse(id models.ComicID, p models.Progress) ProgressResponse {
	return ProgressResponse{ID: id, Chapter: p.Chapter, Page: p.Page}
}
