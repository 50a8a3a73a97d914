package articles

import (
	"github.com/google/uuid"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
)

// Actor identifies who is editing content. Journalists manage their own
// articles; admins manage everything.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ListFilters narrows an article listing.
type ListFilters struct {
	AuthorID      *uuid.UUID
	OnlyPublished bool
}

// ArticleList is one page of article results.
type ArticleList struct {
	Articles   []models.Article `json:"articles"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

// CreateArticleInput carries editor input for a new article.
type CreateArticleInput struct {
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Excerpt    *string `json:"excerpt,omitempty"`
	Body       string  `json:"body"`
	CoverImage *string `json:"cover_image,omitempty"`
}

// UpdateArticleInput carries partial edits; nil fields are untouched.
type UpdateArticleInput struct {
	Title      *string `json:"title,omitempty"`
	Excerpt    *string `json:"excerpt,omitempty"`
	Body       *string `json:"body,omitempty"`
	CoverImage *string `json:"cover_image,omitempty"`
}
